package handlers

import (
	"context"

	portsout "exchangeengine/internal/application/ports/out"
	"exchangeengine/internal/domain/entities"
	apperrors "exchangeengine/internal/shared_kernel/errors"
)

type ReservationSaveListener interface {
	ReservationSaved(ctx context.Context, reservation entities.Reservation) (*entities.QueueItem, *apperrors.AppError)
}

// ReservationWriter is the single save path for reservations: every write
// is followed by the sync listener in the same transaction.
type ReservationWriter struct {
	reservations portsout.ReservationRepository
	listener     ReservationSaveListener
}

func NewReservationWriter(
	reservations portsout.ReservationRepository,
	listener ReservationSaveListener,
) *ReservationWriter {
	return &ReservationWriter{
		reservations: reservations,
		listener:     listener,
	}
}

func (w *ReservationWriter) Save(
	ctx context.Context,
	reservation *entities.Reservation,
) (*entities.QueueItem, *apperrors.AppError) {
	if w.reservations == nil {
		return nil, apperrors.NewInternal("reservation_repository_missing", "reservation repository is required", nil)
	}
	if appErr := reservation.Validate(); appErr != nil {
		return nil, appErr
	}
	if appErr := w.reservations.Save(ctx, reservation); appErr != nil {
		return nil, appErr
	}
	if w.listener == nil {
		return nil, nil
	}
	return w.listener.ReservationSaved(ctx, *reservation)
}
