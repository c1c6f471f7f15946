package in

import (
	"context"

	"exchangeengine/internal/application/dto"
	apperrors "exchangeengine/internal/shared_kernel/errors"
)

type SaveReservationUseCase interface {
	Execute(ctx context.Context, command dto.SaveReservationCommand) (dto.SaveReservationOutput, *apperrors.AppError)
}
