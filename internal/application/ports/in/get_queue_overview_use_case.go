package in

import (
	"context"

	"exchangeengine/internal/application/dto"
	apperrors "exchangeengine/internal/shared_kernel/errors"
)

type GetQueueOverviewUseCase interface {
	Execute(ctx context.Context, query dto.GetQueueOverviewQuery) (dto.QueueOverview, *apperrors.AppError)
}
