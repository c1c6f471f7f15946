package out

import (
	"context"
	"time"

	"exchangeengine/internal/application/dto"
	"exchangeengine/internal/domain/entities"
	apperrors "exchangeengine/internal/shared_kernel/errors"
)

// QueueItemHandler applies a provider outcome to the queue item and to the
// business record behind it. Both methods run inside the run's transaction.
type QueueItemHandler interface {
	HandleSuccess(ctx context.Context, item *entities.QueueItem, result dto.ItemResult, now time.Time) *apperrors.AppError
	HandleFailure(ctx context.Context, item *entities.QueueItem, reason string, now time.Time) *apperrors.AppError
}
