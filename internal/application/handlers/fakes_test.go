//go:build !integration

package handlers

import (
	"context"
	"fmt"
	"time"

	"exchangeengine/internal/application/dto"
	"exchangeengine/internal/domain/entities"
	valueobjects "exchangeengine/internal/domain/value_objects"
	apperrors "exchangeengine/internal/shared_kernel/errors"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func processingItem(id string, payload []byte) *entities.QueueItem {
	owner := "worker-a"
	lockedAt := testNow.Add(-time.Second)
	return &entities.QueueItem{
		ID:              id,
		TaskName:        "task",
		ConfigID:        "cfg_1",
		EndpointID:      "ep_1",
		Payload:         payload,
		Status:          valueobjects.QueueItemStatusProcessing,
		RunAt:           testNow.Add(-time.Minute),
		LockedBy:        &owner,
		LockedAt:        &lockedAt,
		MaxAttempts:     3,
		ExecutionResult: map[string]any{},
	}
}

type fakeQueueItems struct {
	saved []entities.QueueItem
}

func (f *fakeQueueItems) Create(_ context.Context, item entities.QueueItem) *apperrors.AppError {
	f.saved = append(f.saved, item)
	return nil
}

func (f *fakeQueueItems) Save(_ context.Context, item *entities.QueueItem) *apperrors.AppError {
	f.saved = append(f.saved, *item)
	return nil
}

func (f *fakeQueueItems) FindByID(_ context.Context, id string) (entities.QueueItem, bool, *apperrors.AppError) {
	for _, item := range f.saved {
		if item.ID == id {
			return item, true, nil
		}
	}
	return entities.QueueItem{}, false, nil
}

type fakeMessages struct {
	byID map[string]entities.OutboundMessage
}

func (f *fakeMessages) Create(_ context.Context, message entities.OutboundMessage) *apperrors.AppError {
	f.byID[message.ID] = message
	return nil
}

func (f *fakeMessages) FindByID(_ context.Context, id string) (entities.OutboundMessage, bool, *apperrors.AppError) {
	message, ok := f.byID[id]
	return message, ok, nil
}

func (f *fakeMessages) Save(_ context.Context, message *entities.OutboundMessage) *apperrors.AppError {
	f.byID[message.ID] = *message
	return nil
}

// fakeUnitOfWork runs fn directly and counts how often it was rolled back.
type fakeUnitOfWork struct {
	calls     int
	rollbacks int
}

func (u *fakeUnitOfWork) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	u.calls++
	if err := fn(ctx); err != nil {
		u.rollbacks++
		return err
	}
	return nil
}

type fakeReservations struct {
	byID    map[string]entities.Reservation
	saves   int
	saveErr *apperrors.AppError
	// racer is stored by a competing writer on the next insert, which then
	// fails the way a unique remote id index would.
	racer *entities.Reservation
}

func newFakeReservations(reservations ...entities.Reservation) *fakeReservations {
	f := &fakeReservations{byID: map[string]entities.Reservation{}}
	for _, reservation := range reservations {
		f.byID[reservation.ID] = reservation
	}
	return f
}

func (f *fakeReservations) FindByID(_ context.Context, id string) (entities.Reservation, bool, *apperrors.AppError) {
	reservation, ok := f.byID[id]
	return reservation, ok, nil
}

func (f *fakeReservations) FindByRemoteID(
	_ context.Context,
	configID string,
	remoteID string,
) (entities.Reservation, bool, *apperrors.AppError) {
	for _, reservation := range f.byID {
		if reservation.ConfigID == configID && reservation.RemoteID != nil && *reservation.RemoteID == remoteID {
			return reservation, true, nil
		}
	}
	return entities.Reservation{}, false, nil
}

func (f *fakeReservations) Save(_ context.Context, reservation *entities.Reservation) *apperrors.AppError {
	if f.saveErr != nil {
		return f.saveErr
	}
	if f.racer != nil {
		if _, exists := f.byID[reservation.ID]; !exists {
			racer := *f.racer
			f.racer = nil
			f.byID[racer.ID] = racer
			return apperrors.NewConflict(
				"reservation_remote_id_taken",
				"another reservation already uses this remote id",
				map[string]any{"reservation_id": reservation.ID},
			)
		}
	}
	f.saves++
	f.byID[reservation.ID] = *reservation
	return nil
}

type recordingListener struct {
	saved []entities.Reservation
}

func (l *recordingListener) ReservationSaved(
	_ context.Context,
	reservation entities.Reservation,
) (*entities.QueueItem, *apperrors.AppError) {
	l.saved = append(l.saved, reservation)
	return nil, nil
}

type sequentialIDs struct {
	next int
}

func (s *sequentialIDs) NewID() string {
	s.next++
	return fmt.Sprintf("id_%d", s.next)
}

func inboundRecord(remoteID string) dto.InboundReservation {
	return dto.InboundReservation{
		RemoteID:         remoteID,
		PropertyID:       "prop_1",
		GuestName:        "Grace Hopper",
		RoomCode:         "SGL",
		CheckIn:          "2026-04-10",
		CheckOut:         "2026-04-12",
		Status:           "confirmed",
		TotalAmountMinor: 24000,
		Currency:         "eur",
	}
}
