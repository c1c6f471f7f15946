package out

import (
	"context"
	"time"

	"exchangeengine/internal/domain/entities"
	apperrors "exchangeengine/internal/shared_kernel/errors"
)

type ChannelConfigRepository interface {
	FindByID(ctx context.Context, id string) (entities.ChannelConfig, bool, *apperrors.AppError)
}

// ChannelTokenStore persists refreshed auth tokens. Writes are not bound to
// the caller's transaction.
type ChannelTokenStore interface {
	SaveToken(ctx context.Context, configID string, token string, expiresAt time.Time) *apperrors.AppError
}
