package handlers

import (
	"context"
	"log/slog"
	"time"

	"exchangeengine/internal/application/dto"
	portsout "exchangeengine/internal/application/ports/out"
	"exchangeengine/internal/domain/entities"
	"exchangeengine/internal/domain/policies"
	apperrors "exchangeengine/internal/shared_kernel/errors"
)

// ReservationPushHandler records the channel manager's reservation id on the
// local reservation once a push is accepted.
type ReservationPushHandler struct {
	writer       queueItemWriter
	reservations portsout.ReservationRepository
	saver        *ReservationWriter
	logger       *slog.Logger
}

func NewReservationPushHandler(
	items portsout.QueueItemRepository,
	reservations portsout.ReservationRepository,
	saver *ReservationWriter,
	retry policies.RetryPolicy,
	logger *slog.Logger,
) *ReservationPushHandler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ReservationPushHandler{
		writer:       queueItemWriter{items: items, retry: retry},
		reservations: reservations,
		saver:        saver,
		logger:       logger,
	}
}

func (h *ReservationPushHandler) HandleSuccess(
	ctx context.Context,
	item *entities.QueueItem,
	result dto.ItemResult,
	now time.Time,
) *apperrors.AppError {
	if result.RemoteID != "" {
		if appErr := h.storeRemoteID(ctx, item, result.RemoteID, now); appErr != nil {
			return appErr
		}
	}
	return h.writer.succeed(ctx, item, result, now)
}

func (h *ReservationPushHandler) HandleFailure(
	ctx context.Context,
	item *entities.QueueItem,
	reason string,
	now time.Time,
) *apperrors.AppError {
	return h.writer.fail(ctx, item, reason, now)
}

func (h *ReservationPushHandler) storeRemoteID(
	ctx context.Context,
	item *entities.QueueItem,
	remoteID string,
	now time.Time,
) *apperrors.AppError {
	if h.reservations == nil || h.saver == nil {
		return apperrors.NewInternal("reservation_repository_missing", "reservation repository is required", nil)
	}
	payload, appErr := decodePayload[dto.ReservationPayload](item)
	if appErr != nil {
		return appErr
	}
	reservation, found, appErr := h.reservations.FindByID(ctx, payload.ReservationID)
	if appErr != nil {
		return appErr
	}
	if !found {
		h.logger.WarnContext(ctx, "reservation missing for pushed queue item",
			"queue_item_id", item.ID,
			"reservation_id", payload.ReservationID,
		)
		return nil
	}
	if reservation.RemoteID != nil && *reservation.RemoteID == remoteID {
		return nil
	}

	reservation.AssignRemoteID(remoteID, now)
	_, appErr = h.saver.Save(ctx, &reservation)
	return appErr
}
