package use_cases

import (
	"context"
	"encoding/json"
	"strings"

	"exchangeengine/internal/application/dto"
	portsout "exchangeengine/internal/application/ports/out"
	"exchangeengine/internal/domain/entities"
	apperrors "exchangeengine/internal/shared_kernel/errors"
)

// Outbox writes queue items in the caller's transaction. The payload is
// stored as a JSON snapshot so later edits of the source record do not
// change what is sent.
type Outbox struct {
	endpoints   portsout.EndpointRepository
	items       portsout.QueueItemRepository
	ids         portsout.IDGenerator
	clock       Clock
	maxAttempts int
}

func NewOutbox(
	endpoints portsout.EndpointRepository,
	items portsout.QueueItemRepository,
	ids portsout.IDGenerator,
	clock Clock,
	maxAttempts int,
) *Outbox {
	if clock == nil {
		clock = NewSystemClock()
	}
	if maxAttempts <= 0 {
		maxAttempts = entities.DefaultMaxAttempts
	}
	return &Outbox{
		endpoints:   endpoints,
		items:       items,
		ids:         ids,
		clock:       clock,
		maxAttempts: maxAttempts,
	}
}

func (o *Outbox) Enqueue(ctx context.Context, input dto.EnqueueInput) (entities.QueueItem, *apperrors.AppError) {
	if o.endpoints == nil || o.items == nil || o.ids == nil {
		return entities.QueueItem{}, apperrors.NewInternal("outbox_misconfigured", "outbox dependencies are required", nil)
	}

	provider := strings.ToLower(strings.TrimSpace(input.Provider))
	operation := strings.ToLower(strings.TrimSpace(input.Operation))
	endpoint, found, appErr := o.endpoints.FindByOperation(ctx, provider, operation)
	if appErr != nil {
		return entities.QueueItem{}, appErr
	}
	if !found {
		return entities.QueueItem{}, apperrors.NewNotFound(
			"endpoint_not_found",
			"no endpoint is registered for provider operation",
			map[string]any{"provider": provider, "operation": operation},
		)
	}

	payload, err := json.Marshal(input.Payload)
	if err != nil {
		return entities.QueueItem{}, apperrors.NewInternal(
			"queue_item_payload_encode_failed",
			"failed to encode queue item payload",
			map[string]any{"error": err.Error()},
		)
	}

	maxAttempts := input.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = o.maxAttempts
	}
	now := o.clock.NowUTC()
	item, appErr := entities.NewPendingQueueItem(entities.NewQueueItemInput{
		ID:          o.ids.NewID(),
		TaskName:    input.TaskName,
		ConfigID:    input.ConfigID,
		EndpointID:  endpoint.ID,
		Payload:     payload,
		SourceType:  input.SourceType,
		SourceID:    input.SourceID,
		RunAt:       input.RunAt,
		MaxAttempts: maxAttempts,
		CreatedAt:   now,
	})
	if appErr != nil {
		return entities.QueueItem{}, appErr
	}
	if appErr := o.items.Create(ctx, item); appErr != nil {
		return entities.QueueItem{}, appErr
	}
	return item, nil
}
