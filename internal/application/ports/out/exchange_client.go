package out

import (
	"context"

	"exchangeengine/internal/application/dto"
	apperrors "exchangeengine/internal/shared_kernel/errors"
)

// ExchangeClient performs the HTTP exchange with one provider. Non-2xx
// answers are returned as responses; only transport failures are errors. A
// failure after the status line arrived still returns the partial response.
type ExchangeClient interface {
	Provider() string
	Send(ctx context.Context, mapping dto.MappingResult) (dto.ExchangeResponse, *apperrors.AppError)
}
