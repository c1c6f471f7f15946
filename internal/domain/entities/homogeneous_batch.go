package entities

import (
	apperrors "exchangeengine/internal/shared_kernel/errors"
)

// HomogeneousBatch groups claimed queue items that share one channel config
// and one endpoint, so they can travel in a single provider request.
type HomogeneousBatch struct {
	config   ChannelConfig
	endpoint Endpoint
	items    []*QueueItem
}

func NewHomogeneousBatch(
	config ChannelConfig,
	endpoint Endpoint,
	items []*QueueItem,
) (HomogeneousBatch, *apperrors.AppError) {
	if len(items) == 0 {
		return HomogeneousBatch{}, apperrors.NewValidation(
			"batch_empty",
			"homogeneous batch requires at least one queue item",
			map[string]any{"config_id": config.ID, "endpoint_id": endpoint.ID},
		)
	}

	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		if item == nil {
			return HomogeneousBatch{}, apperrors.NewValidation("batch_item_nil", "homogeneous batch item is nil", nil)
		}
		if item.ConfigID != config.ID || item.EndpointID != endpoint.ID {
			return HomogeneousBatch{}, apperrors.NewValidation(
				"batch_not_homogeneous",
				"queue item does not share the batch config and endpoint",
				map[string]any{
					"queue_item_id":     item.ID,
					"item_config_id":    item.ConfigID,
					"item_endpoint_id":  item.EndpointID,
					"batch_config_id":   config.ID,
					"batch_endpoint_id": endpoint.ID,
				},
			)
		}
		if _, exists := seen[item.ID]; exists {
			return HomogeneousBatch{}, apperrors.NewValidation(
				"batch_item_duplicate",
				"queue item appears twice in batch",
				map[string]any{"queue_item_id": item.ID},
			)
		}
		seen[item.ID] = struct{}{}
	}

	ordered := make([]*QueueItem, len(items))
	copy(ordered, items)
	return HomogeneousBatch{
		config:   config,
		endpoint: endpoint,
		items:    ordered,
	}, nil
}

func (b HomogeneousBatch) Config() ChannelConfig {
	return b.config
}

func (b HomogeneousBatch) Endpoint() Endpoint {
	return b.endpoint
}

// Items returns the batch in claim order. The pointers are shared so audit
// stamps and state transitions land on the same objects the handlers see.
func (b HomogeneousBatch) Items() []*QueueItem {
	out := make([]*QueueItem, len(b.items))
	copy(out, b.items)
	return out
}

func (b HomogeneousBatch) Len() int {
	return len(b.items)
}

func (b HomogeneousBatch) ItemIDs() []string {
	ids := make([]string, 0, len(b.items))
	for _, item := range b.items {
		ids = append(ids, item.ID)
	}
	return ids
}
