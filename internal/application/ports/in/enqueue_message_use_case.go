package in

import (
	"context"

	"exchangeengine/internal/application/dto"
	apperrors "exchangeengine/internal/shared_kernel/errors"
)

type EnqueueMessageUseCase interface {
	Execute(ctx context.Context, command dto.EnqueueMessageCommand) (dto.EnqueueMessageOutput, *apperrors.AppError)
}
