package out

import (
	"context"
	"time"

	"exchangeengine/internal/domain/entities"
	apperrors "exchangeengine/internal/shared_kernel/errors"
)

// QueueProvider claims the next homogeneous batch of one task. A nil batch
// with a nil error means nothing was eligible.
type QueueProvider interface {
	ClaimBatch(
		ctx context.Context,
		limit int,
		workerID string,
		now time.Time,
	) (*entities.HomogeneousBatch, *apperrors.AppError)
}
