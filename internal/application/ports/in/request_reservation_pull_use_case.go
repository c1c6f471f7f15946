package in

import (
	"context"

	"exchangeengine/internal/application/dto"
	apperrors "exchangeengine/internal/shared_kernel/errors"
)

type RequestReservationPullUseCase interface {
	Execute(ctx context.Context, command dto.RequestReservationPullCommand) (dto.RequestReservationPullOutput, *apperrors.AppError)
}
