package out

import (
	"context"

	"exchangeengine/internal/domain/entities"
	apperrors "exchangeengine/internal/shared_kernel/errors"
)

type EndpointRepository interface {
	FindByOperation(ctx context.Context, provider string, operation string) (entities.Endpoint, bool, *apperrors.AppError)
	UpsertAll(ctx context.Context, endpoints []entities.Endpoint) *apperrors.AppError
}

type EndpointCatalogSource interface {
	Load(ctx context.Context) ([]entities.Endpoint, *apperrors.AppError)
}
