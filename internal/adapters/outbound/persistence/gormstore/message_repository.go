package gormstore

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"gorm.io/gorm"

	portsout "exchangeengine/internal/application/ports/out"
	"exchangeengine/internal/domain/entities"
	apperrors "exchangeengine/internal/shared_kernel/errors"
)

type OutboundMessageRepository struct {
	db  *gorm.DB
	log repoLogger
}

var _ portsout.OutboundMessageRepository = (*OutboundMessageRepository)(nil)

func NewOutboundMessageRepository(db *gorm.DB, logger *slog.Logger) *OutboundMessageRepository {
	return &OutboundMessageRepository{db: db, log: newRepoLogger(logger, "outbound_messages")}
}

func (r *OutboundMessageRepository) Create(ctx context.Context, message entities.OutboundMessage) *apperrors.AppError {
	row := outboundMessageModelFromEntity(message)
	if err := dbFrom(ctx, r.db).Create(&row).Error; err != nil {
		return r.log.fail("outbound_message_create_failed", "failed to create outbound message", err, "message_id", message.ID)
	}
	return nil
}

func (r *OutboundMessageRepository) FindByID(ctx context.Context, id string) (entities.OutboundMessage, bool, *apperrors.AppError) {
	var row outboundMessageModel
	err := dbFrom(ctx, r.db).Where("id = ?", strings.TrimSpace(id)).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.OutboundMessage{}, false, nil
		}
		return entities.OutboundMessage{}, false, r.log.fail("outbound_message_get_failed", "failed to load outbound message", err, "message_id", id)
	}
	return row.toEntity(), true, nil
}

func (r *OutboundMessageRepository) Save(ctx context.Context, message *entities.OutboundMessage) *apperrors.AppError {
	if message == nil {
		return apperrors.NewInternal("outbound_message_missing", "outbound message is required", nil)
	}
	row := outboundMessageModelFromEntity(*message)
	result := dbFrom(ctx, r.db).
		Model(&outboundMessageModel{}).
		Where("id = ?", row.ID).
		Updates(map[string]any{
			"status":            row.Status,
			"remote_message_id": row.RemoteMessageID,
			"last_error":        row.LastError,
			"updated_at":        row.UpdatedAt,
		})
	if result.Error != nil {
		return r.log.fail("outbound_message_save_failed", "failed to save outbound message", result.Error, "message_id", message.ID)
	}
	if result.RowsAffected == 0 {
		return apperrors.NewNotFound(
			"outbound_message_not_found",
			"outbound message was not found",
			map[string]any{"message_id": message.ID},
		)
	}
	return nil
}
