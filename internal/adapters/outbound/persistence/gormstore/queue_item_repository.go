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

type QueueItemRepository struct {
	db  *gorm.DB
	log repoLogger
}

var _ portsout.QueueItemRepository = (*QueueItemRepository)(nil)

func NewQueueItemRepository(db *gorm.DB, logger *slog.Logger) *QueueItemRepository {
	return &QueueItemRepository{db: db, log: newRepoLogger(logger, "queue_items")}
}

func (r *QueueItemRepository) Create(ctx context.Context, item entities.QueueItem) *apperrors.AppError {
	row, err := queueItemModelFromEntity(item)
	if err != nil {
		return r.log.fail("queue_item_encode_failed", "failed to encode queue item", err, "queue_item_id", item.ID)
	}
	if err := dbFrom(ctx, r.db).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return apperrors.NewConflict(
				"queue_item_exists",
				"queue item already exists",
				map[string]any{"queue_item_id": item.ID},
			)
		}
		return r.log.fail("queue_item_create_failed", "failed to create queue item", err, "queue_item_id", item.ID)
	}
	return nil
}

// Save writes back every mutable column. Zero values are written too, which
// is how locks are released.
func (r *QueueItemRepository) Save(ctx context.Context, item *entities.QueueItem) *apperrors.AppError {
	if item == nil {
		return apperrors.NewInternal("queue_item_missing", "queue item is required", nil)
	}
	row, err := queueItemModelFromEntity(*item)
	if err != nil {
		return r.log.fail("queue_item_encode_failed", "failed to encode queue item", err, "queue_item_id", item.ID)
	}

	result := dbFrom(ctx, r.db).
		Model(&queueItemModel{}).
		Where("id = ?", row.ID).
		Updates(map[string]any{
			"status":            row.Status,
			"run_at":            row.RunAt,
			"locked_by":         row.LockedBy,
			"locked_at":         row.LockedAt,
			"retry_count":       row.RetryCount,
			"max_attempts":      row.MaxAttempts,
			"last_request_raw":  row.LastRequestRaw,
			"last_response_raw": row.LastResponseRaw,
			"last_http_code":    row.LastHTTPCode,
			"execution_result":  row.ExecutionResult,
			"failed_reason":     row.FailedReason,
			"updated_at":        row.UpdatedAt,
		})
	if result.Error != nil {
		return r.log.fail("queue_item_save_failed", "failed to save queue item", result.Error, "queue_item_id", item.ID)
	}
	if result.RowsAffected == 0 {
		return apperrors.NewNotFound(
			"queue_item_not_found",
			"queue item was not found",
			map[string]any{"queue_item_id": item.ID},
		)
	}
	return nil
}

func (r *QueueItemRepository) FindByID(ctx context.Context, id string) (entities.QueueItem, bool, *apperrors.AppError) {
	var row queueItemModel
	err := dbFrom(ctx, r.db).Where("id = ?", strings.TrimSpace(id)).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.QueueItem{}, false, nil
		}
		return entities.QueueItem{}, false, r.log.fail("queue_item_get_failed", "failed to load queue item", err, "queue_item_id", id)
	}

	item, err := row.toEntity()
	if err != nil {
		return entities.QueueItem{}, false, r.log.fail("queue_item_decode_failed", "failed to decode queue item", err, "queue_item_id", id)
	}
	return item, true, nil
}
