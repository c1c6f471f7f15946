package use_cases

import (
	"context"
	"strings"

	"exchangeengine/internal/application/dto"
	portsin "exchangeengine/internal/application/ports/in"
	portsout "exchangeengine/internal/application/ports/out"
	apperrors "exchangeengine/internal/shared_kernel/errors"
)

type requestReservationPullUseCase struct {
	unitOfWork portsout.UnitOfWork
	configs    portsout.ChannelConfigRepository
	outbox     *Outbox
	clock      Clock
}

func NewRequestReservationPullUseCase(
	unitOfWork portsout.UnitOfWork,
	configs portsout.ChannelConfigRepository,
	outbox *Outbox,
	clock Clock,
) portsin.RequestReservationPullUseCase {
	if clock == nil {
		clock = NewSystemClock()
	}
	return &requestReservationPullUseCase{
		unitOfWork: unitOfWork,
		configs:    configs,
		outbox:     outbox,
		clock:      clock,
	}
}

func (u *requestReservationPullUseCase) Execute(
	ctx context.Context,
	command dto.RequestReservationPullCommand,
) (dto.RequestReservationPullOutput, *apperrors.AppError) {
	if u.unitOfWork == nil || u.outbox == nil {
		return dto.RequestReservationPullOutput{}, apperrors.NewInternal(
			"request_reservation_pull_misconfigured",
			"request reservation pull dependencies are required",
			nil,
		)
	}
	propertyID := strings.TrimSpace(command.PropertyID)
	if propertyID == "" {
		return dto.RequestReservationPullOutput{}, apperrors.NewValidation(
			"invalid_request",
			"property_id is required",
			map[string]any{"field": "property_id"},
		)
	}

	now := command.Now.UTC()
	if command.Now.IsZero() {
		now = u.clock.NowUTC()
	}

	var output dto.RequestReservationPullOutput
	txErr := u.unitOfWork.WithinTransaction(ctx, func(txCtx context.Context) error {
		config, appErr := loadActiveChannel(txCtx, u.configs, command.ConfigID, dto.ProviderChannelManager)
		if appErr != nil {
			return appErr
		}
		item, appErr := u.outbox.Enqueue(txCtx, dto.EnqueueInput{
			TaskName:  dto.TaskPullReservations,
			ConfigID:  config.ID,
			Provider:  dto.ProviderChannelManager,
			Operation: dto.OperationPullReservations,
			Payload: dto.ReservationPullPayload{
				PropertyID:   propertyID,
				UpdatedSince: command.UpdatedSince,
			},
			SourceType: dto.SourceTypeReservationPull,
			SourceID:   config.ID,
			RunAt:      now,
		})
		if appErr != nil {
			return appErr
		}
		output = dto.RequestReservationPullOutput{QueueItemID: item.ID, RunAt: item.RunAt}
		return nil
	})
	if txErr != nil {
		return dto.RequestReservationPullOutput{}, apperrors.From(
			txErr,
			"request_reservation_pull_failed",
			"failed to queue reservation pull",
		)
	}
	return output, nil
}
