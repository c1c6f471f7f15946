package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"exchangeengine/internal/application/dto"
	portsout "exchangeengine/internal/application/ports/out"
	"exchangeengine/internal/domain/entities"
	"exchangeengine/internal/domain/policies"
	apperrors "exchangeengine/internal/shared_kernel/errors"
)

// ReservationPullHandler upserts every reservation a pull returned. Records
// that fail validation or lose a remote id race are skipped and counted;
// storage errors abort the run.
type ReservationPullHandler struct {
	writer   queueItemWriter
	resolver *ReservationUpsertResolver
	logger   *slog.Logger
}

func NewReservationPullHandler(
	items portsout.QueueItemRepository,
	resolver *ReservationUpsertResolver,
	retry policies.RetryPolicy,
	logger *slog.Logger,
) *ReservationPullHandler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ReservationPullHandler{
		writer:   queueItemWriter{items: items, retry: retry},
		resolver: resolver,
		logger:   logger,
	}
}

func (h *ReservationPullHandler) HandleSuccess(
	ctx context.Context,
	item *entities.QueueItem,
	result dto.ItemResult,
	now time.Time,
) *apperrors.AppError {
	if h.resolver == nil {
		return apperrors.NewInternal("reservation_resolver_missing", "reservation resolver is required", nil)
	}

	created, updated, skipped := 0, 0, 0
	for index, raw := range result.Inbound {
		var record dto.InboundReservation
		if err := json.Unmarshal(raw, &record); err != nil {
			skipped++
			h.logger.WarnContext(ctx, "pulled reservation is not decodable",
				"queue_item_id", item.ID,
				"index", index,
				"error", err.Error(),
			)
			continue
		}

		output, appErr := h.resolver.Resolve(ctx, item.ConfigID, record, now)
		if appErr != nil {
			if !IsRecordRejection(appErr) {
				return appErr
			}
			skipped++
			h.logger.WarnContext(ctx, "pulled reservation rejected",
				"queue_item_id", item.ID,
				"remote_id", record.RemoteID,
				"code", appErr.Code,
			)
			continue
		}
		switch {
		case output.Created:
			created++
		case output.Changed:
			updated++
		}
	}

	extra := make(map[string]any, len(result.Extra)+4)
	for key, value := range result.Extra {
		extra[key] = value
	}
	extra["pulled"] = len(result.Inbound)
	extra["created"] = created
	extra["updated"] = updated
	extra["skipped"] = skipped
	result.Extra = extra
	return h.writer.succeed(ctx, item, result, now)
}

func (h *ReservationPullHandler) HandleFailure(
	ctx context.Context,
	item *entities.QueueItem,
	reason string,
	now time.Time,
) *apperrors.AppError {
	return h.writer.fail(ctx, item, reason, now)
}
