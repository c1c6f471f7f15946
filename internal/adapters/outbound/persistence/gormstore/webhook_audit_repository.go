package gormstore

import (
	"context"
	"log/slog"

	"gorm.io/gorm"

	portsout "exchangeengine/internal/application/ports/out"
	"exchangeengine/internal/domain/entities"
	apperrors "exchangeengine/internal/shared_kernel/errors"
)

type WebhookAuditRepository struct {
	db  *gorm.DB
	log repoLogger
}

var _ portsout.WebhookAuditRepository = (*WebhookAuditRepository)(nil)

func NewWebhookAuditRepository(db *gorm.DB, logger *slog.Logger) *WebhookAuditRepository {
	return &WebhookAuditRepository{db: db, log: newRepoLogger(logger, "webhook_audits")}
}

func (r *WebhookAuditRepository) Create(ctx context.Context, audit entities.WebhookAudit) *apperrors.AppError {
	row := webhookAuditModelFromEntity(audit)
	if err := dbFrom(ctx, r.db).Create(&row).Error; err != nil {
		return r.log.fail("webhook_audit_create_failed", "failed to write webhook audit", err,
			"config_id", audit.ConfigID,
			"event_id", audit.EventID,
		)
	}
	return nil
}
