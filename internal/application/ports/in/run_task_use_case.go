package in

import (
	"context"

	"exchangeengine/internal/application/dto"
	apperrors "exchangeengine/internal/shared_kernel/errors"
)

type RunTaskUseCase interface {
	Execute(ctx context.Context, command dto.RunTaskCommand) (dto.RunTaskOutput, *apperrors.AppError)
}
