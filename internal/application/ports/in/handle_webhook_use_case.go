package in

import (
	"context"

	"exchangeengine/internal/application/dto"
	apperrors "exchangeengine/internal/shared_kernel/errors"
)

type HandleWebhookUseCase interface {
	Execute(ctx context.Context, command dto.HandleWebhookCommand) (dto.HandleWebhookOutput, *apperrors.AppError)
}
