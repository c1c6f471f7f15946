package out

import (
	"context"

	"exchangeengine/internal/application/dto"
	apperrors "exchangeengine/internal/shared_kernel/errors"
)

type OutcomePublisher interface {
	Publish(ctx context.Context, events []dto.OutcomeEvent) *apperrors.AppError
}
