package out

import (
	"context"

	"exchangeengine/internal/domain/entities"
	apperrors "exchangeengine/internal/shared_kernel/errors"
)

type WebhookAuditRepository interface {
	Create(ctx context.Context, audit entities.WebhookAudit) *apperrors.AppError
}

// WebhookDeduplicator reports whether an inbound event id is seen for the
// first time. Forget drops the mark again so a delivery that was not stored
// can be retried under the same id.
type WebhookDeduplicator interface {
	FirstSeen(ctx context.Context, provider string, configID string, eventID string) (bool, *apperrors.AppError)
	Forget(ctx context.Context, provider string, configID string, eventID string) *apperrors.AppError
}
