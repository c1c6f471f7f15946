package in

import (
	"context"

	"exchangeengine/internal/application/dto"
	apperrors "exchangeengine/internal/shared_kernel/errors"
)

type GetHealthUseCase interface {
	Execute(ctx context.Context, command dto.GetHealthCommand) (dto.HealthOutput, *apperrors.AppError)
}
