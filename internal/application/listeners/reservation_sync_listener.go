// Package listeners reacts to saved business records by queueing the
// outbound synchronization they require.
package listeners

import (
	"context"
	"log/slog"

	"exchangeengine/internal/application/dto"
	"exchangeengine/internal/application/synccontext"
	"exchangeengine/internal/domain/entities"
	apperrors "exchangeengine/internal/shared_kernel/errors"
)

type Enqueuer interface {
	Enqueue(ctx context.Context, input dto.EnqueueInput) (entities.QueueItem, *apperrors.AppError)
}

// ReservationSyncListener queues a channel-manager push for every saved
// reservation unless the save itself is channel-manager traffic.
type ReservationSyncListener struct {
	enqueuer Enqueuer
	logger   *slog.Logger
}

func NewReservationSyncListener(enqueuer Enqueuer, logger *slog.Logger) *ReservationSyncListener {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ReservationSyncListener{
		enqueuer: enqueuer,
		logger:   logger,
	}
}

// ReservationSaved returns the queued item, or nil when the push was
// suppressed.
func (l *ReservationSyncListener) ReservationSaved(
	ctx context.Context,
	reservation entities.Reservation,
) (*entities.QueueItem, *apperrors.AppError) {
	snapshot := synccontext.Current(ctx)
	if snapshot.IsIntegrationTrafficFor(dto.ProviderChannelManager) {
		l.logger.DebugContext(ctx, "reservation push suppressed",
			"reservation_id", reservation.ID,
			"sync_mode", snapshot.Mode.String(),
			"sync_provider", snapshot.Provider,
		)
		return nil, nil
	}
	if l.enqueuer == nil {
		return nil, apperrors.NewInternal("outbox_missing", "outbox is required", nil)
	}

	item, appErr := l.enqueuer.Enqueue(ctx, dto.EnqueueInput{
		TaskName:   dto.TaskPushReservations,
		ConfigID:   reservation.ConfigID,
		Provider:   dto.ProviderChannelManager,
		Operation:  dto.OperationPushReservations,
		Payload:    dto.NewReservationPayload(reservation),
		SourceType: dto.SourceTypeReservation,
		SourceID:   reservation.ID,
	})
	if appErr != nil {
		return nil, appErr
	}
	return &item, nil
}
