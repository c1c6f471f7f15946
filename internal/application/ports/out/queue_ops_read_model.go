package out

import (
	"context"
	"time"

	"exchangeengine/internal/application/dto"
	apperrors "exchangeengine/internal/shared_kernel/errors"
)

type QueueOpsReadModel interface {
	GetOverview(ctx context.Context, taskName string, now time.Time) (dto.QueueOverview, *apperrors.AppError)
}
