package use_cases

import (
	"context"
	"strings"
	"time"

	"exchangeengine/internal/application/dto"
	"exchangeengine/internal/application/handlers"
	portsin "exchangeengine/internal/application/ports/in"
	portsout "exchangeengine/internal/application/ports/out"
	"exchangeengine/internal/domain/entities"
	apperrors "exchangeengine/internal/shared_kernel/errors"
)

type saveReservationUseCase struct {
	unitOfWork   portsout.UnitOfWork
	configs      portsout.ChannelConfigRepository
	reservations portsout.ReservationRepository
	writer       *handlers.ReservationWriter
	ids          portsout.IDGenerator
	clock        Clock
}

// NewSaveReservationUseCase serves local edits. The write goes through the
// shared reservation writer, so the channel-manager push is queued in the
// same transaction.
func NewSaveReservationUseCase(
	unitOfWork portsout.UnitOfWork,
	configs portsout.ChannelConfigRepository,
	reservations portsout.ReservationRepository,
	writer *handlers.ReservationWriter,
	ids portsout.IDGenerator,
	clock Clock,
) portsin.SaveReservationUseCase {
	if clock == nil {
		clock = NewSystemClock()
	}
	return &saveReservationUseCase{
		unitOfWork:   unitOfWork,
		configs:      configs,
		reservations: reservations,
		writer:       writer,
		ids:          ids,
		clock:        clock,
	}
}

func (u *saveReservationUseCase) Execute(
	ctx context.Context,
	command dto.SaveReservationCommand,
) (dto.SaveReservationOutput, *apperrors.AppError) {
	if u.unitOfWork == nil || u.reservations == nil || u.writer == nil || u.ids == nil {
		return dto.SaveReservationOutput{}, apperrors.NewInternal(
			"save_reservation_misconfigured",
			"save reservation dependencies are required",
			nil,
		)
	}

	checkIn, appErr := parseReservationDate("check_in", command.CheckIn)
	if appErr != nil {
		return dto.SaveReservationOutput{}, appErr
	}
	checkOut, appErr := parseReservationDate("check_out", command.CheckOut)
	if appErr != nil {
		return dto.SaveReservationOutput{}, appErr
	}
	status, appErr := entities.NormalizeReservationStatus(command.Status)
	if appErr != nil {
		return dto.SaveReservationOutput{}, appErr
	}

	now := command.Now.UTC()
	if command.Now.IsZero() {
		now = u.clock.NowUTC()
	}

	var output dto.SaveReservationOutput
	txErr := u.unitOfWork.WithinTransaction(ctx, func(txCtx context.Context) error {
		config, appErr := loadActiveChannel(txCtx, u.configs, command.ConfigID, dto.ProviderChannelManager)
		if appErr != nil {
			return appErr
		}

		reservation := entities.Reservation{
			ID:        u.ids.NewID(),
			ConfigID:  config.ID,
			CreatedAt: now,
		}
		if reservationID := strings.TrimSpace(command.ReservationID); reservationID != "" {
			existing, found, findErr := u.reservations.FindByID(txCtx, reservationID)
			if findErr != nil {
				return findErr
			}
			if !found {
				return apperrors.NewNotFound(
					"reservation_not_found",
					"reservation was not found",
					map[string]any{"reservation_id": reservationID},
				)
			}
			if existing.ConfigID != config.ID {
				return apperrors.NewConflict(
					"reservation_config_mismatch",
					"reservation belongs to another channel config",
					map[string]any{"reservation_id": reservationID},
				)
			}
			reservation = existing
		}

		reservation.PropertyID = strings.TrimSpace(command.PropertyID)
		reservation.GuestName = strings.TrimSpace(command.GuestName)
		reservation.GuestPhone = strings.TrimSpace(command.GuestPhone)
		reservation.RoomCode = strings.TrimSpace(command.RoomCode)
		reservation.CheckIn = checkIn
		reservation.CheckOut = checkOut
		reservation.Status = status
		reservation.TotalAmountMinor = command.TotalAmountMinor
		reservation.Currency = strings.ToUpper(strings.TrimSpace(command.Currency))
		reservation.UpdatedAt = now

		item, appErr := u.writer.Save(txCtx, &reservation)
		if appErr != nil {
			return appErr
		}

		output = dto.SaveReservationOutput{
			ReservationID: reservation.ID,
			RemoteID:      reservation.RemoteID,
			Status:        reservation.Status,
			UpdatedAt:     reservation.UpdatedAt,
		}
		if item != nil {
			itemID := item.ID
			output.QueueItemID = &itemID
		}
		return nil
	})
	if txErr != nil {
		return dto.SaveReservationOutput{}, apperrors.From(txErr, "save_reservation_failed", "failed to save reservation")
	}
	return output, nil
}

func parseReservationDate(field string, raw string) (time.Time, *apperrors.AppError) {
	parsed, err := time.Parse(time.DateOnly, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, apperrors.NewValidation(
			"invalid_request",
			field+" must be a YYYY-MM-DD date",
			map[string]any{"field": field},
		)
	}
	return parsed, nil
}
