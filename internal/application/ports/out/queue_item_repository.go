package out

import (
	"context"

	"exchangeengine/internal/application/dto"
	"exchangeengine/internal/domain/entities"
	apperrors "exchangeengine/internal/shared_kernel/errors"
)

type QueueItemRepository interface {
	Create(ctx context.Context, item entities.QueueItem) *apperrors.AppError
	Save(ctx context.Context, item *entities.QueueItem) *apperrors.AppError
	FindByID(ctx context.Context, id string) (entities.QueueItem, bool, *apperrors.AppError)
}

// CatastrophicFailureRecorder writes failure state straight to the queue
// table, outside any transaction the run may have left behind.
type CatastrophicFailureRecorder interface {
	RecordCatastrophicFailure(ctx context.Context, failure dto.CatastrophicFailure) (bool, *apperrors.AppError)
}
