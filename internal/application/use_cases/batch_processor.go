package use_cases

import (
	"context"
	"log/slog"

	"exchangeengine/internal/application/dto"
	"exchangeengine/internal/domain/entities"
	apperrors "exchangeengine/internal/shared_kernel/errors"
)

// BatchProcessor performs one provider exchange for a claimed batch. It
// stamps the audit fields on every item before and after the call and leaves
// state transitions to the caller.
type BatchProcessor struct {
	clients *ClientRegistry
	logger  *slog.Logger
}

func NewBatchProcessor(clients *ClientRegistry, logger *slog.Logger) *BatchProcessor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &BatchProcessor{
		clients: clients,
		logger:  logger,
	}
}

// ProcessBatch returns per-item results keyed by queue item id. An error
// means the exchange itself failed and no item has a usable result; if the
// provider did answer, its status and partial body are still stamped.
func (p *BatchProcessor) ProcessBatch(
	ctx context.Context,
	task Task,
	batch entities.HomogeneousBatch,
) (map[string]dto.ItemResult, *apperrors.AppError) {
	client, appErr := p.clients.Resolve(task.Provider)
	if appErr != nil {
		return nil, appErr
	}

	mapping, appErr := task.Mapping.Map(ctx, batch)
	if appErr != nil {
		return nil, appErr
	}

	items := batch.Items()
	auditRequest := mapping.AuditRequest()
	for _, item := range items {
		item.StampRequest(auditRequest)
	}

	response, appErr := client.Send(ctx, mapping)
	if appErr != nil {
		if response.Answered() {
			for _, item := range items {
				item.StampResponse(response.RawBody, response.StatusCode)
			}
		}
		return nil, appErr
	}

	for _, item := range items {
		item.StampResponse(response.RawBody, response.StatusCode)
	}

	if !response.HasDecoded() {
		p.logger.WarnContext(ctx, "exchange response is not json",
			"task_name", task.Name,
			"config_id", batch.Config().ID,
			"status_code", response.StatusCode,
			"body_bytes", len(response.RawBody),
			"truncated", response.Truncated,
		)
		return map[string]dto.ItemResult{}, nil
	}

	results := task.Mapping.ParseResponse(ctx, response.Decoded, mapping)
	if results == nil {
		results = map[string]dto.ItemResult{}
	}
	return results, nil
}
