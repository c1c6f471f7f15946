package in

import (
	"context"

	"exchangeengine/internal/application/dto"
	apperrors "exchangeengine/internal/shared_kernel/errors"
)

type GetOpenAPISpecUseCase interface {
	Execute(ctx context.Context, query dto.GetOpenAPISpecQuery) (dto.OpenAPISpecOutput, *apperrors.AppError)
}
