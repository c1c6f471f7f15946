package handlers

import (
	"context"
	"strings"
	"time"

	"exchangeengine/internal/application/dto"
	portsout "exchangeengine/internal/application/ports/out"
	"exchangeengine/internal/domain/entities"
	apperrors "exchangeengine/internal/shared_kernel/errors"
)

// ReservationUpsertResolver turns one inbound channel-manager record into a
// local reservation, matching on (config, remote id). It serves both batch
// pulls and webhooks. Each write runs in a nested transaction so a rejected
// record leaves the caller's transaction usable.
type ReservationUpsertResolver struct {
	unitOfWork   portsout.UnitOfWork
	reservations portsout.ReservationRepository
	writer       *ReservationWriter
	ids          portsout.IDGenerator
}

func NewReservationUpsertResolver(
	unitOfWork portsout.UnitOfWork,
	reservations portsout.ReservationRepository,
	writer *ReservationWriter,
	ids portsout.IDGenerator,
) *ReservationUpsertResolver {
	return &ReservationUpsertResolver{
		unitOfWork:   unitOfWork,
		reservations: reservations,
		writer:       writer,
		ids:          ids,
	}
}

// IsRecordRejection reports whether appErr rejects a single inbound record
// rather than the whole run.
func IsRecordRejection(appErr *apperrors.AppError) bool {
	if appErr == nil {
		return false
	}
	switch appErr.Type {
	case apperrors.TypeValidation, apperrors.TypeConflict, apperrors.TypeNotFound:
		return true
	default:
		return false
	}
}

func (r *ReservationUpsertResolver) Resolve(
	ctx context.Context,
	configID string,
	record dto.InboundReservation,
	now time.Time,
) (dto.UpsertReservationOutput, *apperrors.AppError) {
	if r.unitOfWork == nil || r.reservations == nil || r.writer == nil || r.ids == nil {
		return dto.UpsertReservationOutput{}, apperrors.NewInternal(
			"reservation_resolver_misconfigured",
			"reservation resolver dependencies are required",
			nil,
		)
	}

	remoteID := strings.TrimSpace(record.RemoteID)
	if remoteID == "" {
		return dto.UpsertReservationOutput{}, apperrors.NewValidation(
			"reservation_remote_id_missing",
			"inbound reservation id is required",
			nil,
		)
	}
	incoming, appErr := inboundToReservation(configID, record)
	if appErr != nil {
		return dto.UpsertReservationOutput{}, appErr
	}

	output, appErr := r.upsert(ctx, configID, remoteID, incoming, now)
	if appErr == nil || appErr.Type != apperrors.TypeConflict {
		return output, appErr
	}
	// Another writer stored the same remote id after our lookup; the second
	// pass finds it and updates in place.
	return r.upsert(ctx, configID, remoteID, incoming, now)
}

func (r *ReservationUpsertResolver) upsert(
	ctx context.Context,
	configID string,
	remoteID string,
	incoming entities.Reservation,
	now time.Time,
) (dto.UpsertReservationOutput, *apperrors.AppError) {
	var output dto.UpsertReservationOutput
	txErr := r.unitOfWork.WithinTransaction(ctx, func(txCtx context.Context) error {
		result, appErr := r.write(txCtx, configID, remoteID, incoming, now)
		if appErr != nil {
			return appErr
		}
		output = result
		return nil
	})
	if txErr != nil {
		return dto.UpsertReservationOutput{}, apperrors.From(txErr, "reservation_upsert_failed", "failed to upsert reservation")
	}
	return output, nil
}

func (r *ReservationUpsertResolver) write(
	ctx context.Context,
	configID string,
	remoteID string,
	incoming entities.Reservation,
	now time.Time,
) (dto.UpsertReservationOutput, *apperrors.AppError) {
	existing, found, appErr := r.reservations.FindByRemoteID(ctx, configID, remoteID)
	if appErr != nil {
		return dto.UpsertReservationOutput{}, appErr
	}

	if found {
		if sameReservationFields(existing, incoming) {
			return dto.UpsertReservationOutput{ReservationID: existing.ID}, nil
		}
		updated := existing
		copyReservationFields(&updated, incoming)
		updated.UpdatedAt = now.UTC()
		if _, saveErr := r.writer.Save(ctx, &updated); saveErr != nil {
			return dto.UpsertReservationOutput{}, saveErr
		}
		return dto.UpsertReservationOutput{ReservationID: updated.ID, Changed: true}, nil
	}

	incoming.ID = r.ids.NewID()
	incoming.CreatedAt = now.UTC()
	incoming.UpdatedAt = now.UTC()
	if _, saveErr := r.writer.Save(ctx, &incoming); saveErr != nil {
		return dto.UpsertReservationOutput{}, saveErr
	}
	return dto.UpsertReservationOutput{ReservationID: incoming.ID, Created: true, Changed: true}, nil
}

func inboundToReservation(configID string, record dto.InboundReservation) (entities.Reservation, *apperrors.AppError) {
	checkIn, err := time.Parse(time.DateOnly, strings.TrimSpace(record.CheckIn))
	if err != nil {
		return entities.Reservation{}, apperrors.NewValidation(
			"reservation_dates_invalid",
			"check_in must be a YYYY-MM-DD date",
			map[string]any{"check_in": record.CheckIn},
		)
	}
	checkOut, err := time.Parse(time.DateOnly, strings.TrimSpace(record.CheckOut))
	if err != nil {
		return entities.Reservation{}, apperrors.NewValidation(
			"reservation_dates_invalid",
			"check_out must be a YYYY-MM-DD date",
			map[string]any{"check_out": record.CheckOut},
		)
	}
	status, appErr := entities.NormalizeReservationStatus(record.Status)
	if appErr != nil {
		return entities.Reservation{}, appErr
	}

	remoteID := strings.TrimSpace(record.RemoteID)
	return entities.Reservation{
		ConfigID:         strings.TrimSpace(configID),
		RemoteID:         &remoteID,
		PropertyID:       strings.TrimSpace(record.PropertyID),
		GuestName:        strings.TrimSpace(record.GuestName),
		GuestPhone:       strings.TrimSpace(record.GuestPhone),
		RoomCode:         strings.TrimSpace(record.RoomCode),
		CheckIn:          checkIn,
		CheckOut:         checkOut,
		Status:           status,
		TotalAmountMinor: record.TotalAmountMinor,
		Currency:         strings.ToUpper(strings.TrimSpace(record.Currency)),
	}, nil
}

func sameReservationFields(a, b entities.Reservation) bool {
	return a.PropertyID == b.PropertyID &&
		a.GuestName == b.GuestName &&
		a.GuestPhone == b.GuestPhone &&
		a.RoomCode == b.RoomCode &&
		a.CheckIn.Equal(b.CheckIn) &&
		a.CheckOut.Equal(b.CheckOut) &&
		a.Status == b.Status &&
		a.TotalAmountMinor == b.TotalAmountMinor &&
		a.Currency == b.Currency
}

func copyReservationFields(target *entities.Reservation, source entities.Reservation) {
	target.PropertyID = source.PropertyID
	target.GuestName = source.GuestName
	target.GuestPhone = source.GuestPhone
	target.RoomCode = source.RoomCode
	target.CheckIn = source.CheckIn
	target.CheckOut = source.CheckOut
	target.Status = source.Status
	target.TotalAmountMinor = source.TotalAmountMinor
	target.Currency = source.Currency
}
