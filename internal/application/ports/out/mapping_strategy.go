package out

import (
	"context"
	"encoding/json"

	"exchangeengine/internal/application/dto"
	"exchangeengine/internal/domain/entities"
	apperrors "exchangeengine/internal/shared_kernel/errors"
)

// MappingStrategy translates a batch into one provider request and the
// provider's answer back into per-item results keyed by queue item id.
// Items absent from the returned map are treated as failed.
type MappingStrategy interface {
	Map(ctx context.Context, batch entities.HomogeneousBatch) (dto.MappingResult, *apperrors.AppError)
	ParseResponse(ctx context.Context, decoded json.RawMessage, mapping dto.MappingResult) map[string]dto.ItemResult
}
