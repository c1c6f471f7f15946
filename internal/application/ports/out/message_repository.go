package out

import (
	"context"

	"exchangeengine/internal/domain/entities"
	apperrors "exchangeengine/internal/shared_kernel/errors"
)

type OutboundMessageRepository interface {
	Create(ctx context.Context, message entities.OutboundMessage) *apperrors.AppError
	FindByID(ctx context.Context, id string) (entities.OutboundMessage, bool, *apperrors.AppError)
	Save(ctx context.Context, message *entities.OutboundMessage) *apperrors.AppError
}
