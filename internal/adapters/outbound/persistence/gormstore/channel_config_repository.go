package gormstore

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	portsout "exchangeengine/internal/application/ports/out"
	"exchangeengine/internal/domain/entities"
	apperrors "exchangeengine/internal/shared_kernel/errors"
)

type ChannelConfigRepository struct {
	db  *gorm.DB
	log repoLogger
}

var (
	_ portsout.ChannelConfigRepository = (*ChannelConfigRepository)(nil)
	_ portsout.ChannelTokenStore       = (*ChannelConfigRepository)(nil)
)

func NewChannelConfigRepository(db *gorm.DB, logger *slog.Logger) *ChannelConfigRepository {
	return &ChannelConfigRepository{db: db, log: newRepoLogger(logger, "channel_configs")}
}

func (r *ChannelConfigRepository) FindByID(ctx context.Context, id string) (entities.ChannelConfig, bool, *apperrors.AppError) {
	var row channelConfigModel
	err := dbFrom(ctx, r.db).Where("id = ?", strings.TrimSpace(id)).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.ChannelConfig{}, false, nil
		}
		return entities.ChannelConfig{}, false, r.log.fail("channel_config_get_failed", "failed to load channel config", err, "config_id", id)
	}
	return row.toEntity(), true, nil
}

// Upsert inserts or replaces a channel config. The cached token is left
// alone on update.
func (r *ChannelConfigRepository) Upsert(ctx context.Context, config entities.ChannelConfig) *apperrors.AppError {
	row := channelConfigModelFromEntity(config)
	err := dbFrom(ctx, r.db).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"provider", "name", "base_url", "api_key", "client_id", "client_secret",
			"webhook_secret", "active", "updated_at",
		}),
	}).Create(&row).Error
	if err != nil {
		return r.log.fail("channel_config_upsert_failed", "failed to save channel config", err, "config_id", config.ID)
	}
	return nil
}

// SaveToken always writes on the root connection: a refreshed token stays
// valid even when the run that fetched it rolls back.
func (r *ChannelConfigRepository) SaveToken(
	ctx context.Context,
	configID string,
	token string,
	expiresAt time.Time,
) *apperrors.AppError {
	var expires *time.Time
	if strings.TrimSpace(token) != "" {
		value := expiresAt.UTC()
		expires = &value
	}
	err := r.db.WithContext(ctx).
		Model(&channelConfigModel{}).
		Where("id = ?", strings.TrimSpace(configID)).
		Updates(map[string]any{
			"auth_token":            strings.TrimSpace(token),
			"auth_token_expires_at": expires,
			"updated_at":            time.Now().UTC(),
		}).Error
	if err != nil {
		return r.log.fail("channel_token_save_failed", "failed to store channel token", err, "config_id", configID)
	}
	return nil
}
