package in

import (
	"context"

	"exchangeengine/internal/application/dto"
	apperrors "exchangeengine/internal/shared_kernel/errors"
)

type RequeueQueueItemUseCase interface {
	Execute(ctx context.Context, command dto.RequeueQueueItemCommand) (dto.RequeueQueueItemOutput, *apperrors.AppError)
}
