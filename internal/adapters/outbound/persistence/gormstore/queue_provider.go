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
	valueobjects "exchangeengine/internal/domain/value_objects"
	apperrors "exchangeengine/internal/shared_kernel/errors"
)

const DefaultStaleLockTTL = 10 * time.Minute

var claimableStatuses = []string{
	valueobjects.QueueItemStatusPending.String(),
	valueobjects.QueueItemStatusFailed.String(),
}

// QueueProvider claims batches of one task from exchange_queue_items. A batch
// always shares one channel config and one endpoint: the pair with the most
// eligible rows wins.
type QueueProvider struct {
	db           *gorm.DB
	taskName     string
	staleLockTTL time.Duration
	log          repoLogger
}

var _ portsout.QueueProvider = (*QueueProvider)(nil)

func NewQueueProvider(db *gorm.DB, taskName string, staleLockTTL time.Duration, logger *slog.Logger) *QueueProvider {
	if staleLockTTL <= 0 {
		staleLockTTL = DefaultStaleLockTTL
	}
	return &QueueProvider{
		db:           db,
		taskName:     strings.TrimSpace(taskName),
		staleLockTTL: staleLockTTL,
		log:          newRepoLogger(logger, "queue_provider"),
	}
}

type claimGroup struct {
	ConfigID   string `gorm:"column:config_id"`
	EndpointID string `gorm:"column:endpoint_id"`
}

type inactiveBacklog struct {
	ConfigID string `gorm:"column:config_id"`
	Due      int64  `gorm:"column:due_items"`
}

func (p *QueueProvider) ClaimBatch(
	ctx context.Context,
	limit int,
	workerID string,
	now time.Time,
) (*entities.HomogeneousBatch, *apperrors.AppError) {
	owner := strings.TrimSpace(workerID)
	if owner == "" {
		return nil, apperrors.NewValidation("queue_item_worker_missing", "worker id is required to claim a queue item", nil)
	}
	if limit <= 0 {
		return nil, apperrors.NewValidation(
			"claim_limit_invalid",
			"claim limit must be positive",
			map[string]any{"limit": limit},
		)
	}
	now = now.UTC().Truncate(time.Microsecond)
	staleBefore := now.Add(-p.staleLockTTL)

	var group claimGroup
	var claimed []string
	idle := false
	err := p.db.WithContext(ctx).Session(&gorm.Session{NewDB: true}).Transaction(func(tx *gorm.DB) error {
		result := p.eligible(tx, now, staleBefore).
			Select("q.config_id, q.endpoint_id").
			Group("q.config_id, q.endpoint_id").
			Order("COUNT(*) DESC, MIN(q.run_at) ASC, q.config_id ASC, q.endpoint_id ASC").
			Limit(1).
			Scan(&group)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			idle = true
			return nil
		}

		query := p.eligible(tx, now, staleBefore).
			Where("q.config_id = ? AND q.endpoint_id = ?", group.ConfigID, group.EndpointID).
			Order("q.run_at ASC, q.id ASC").
			Limit(limit)
		if isPostgres(tx) {
			query = query.Clauses(clause.Locking{
				Strength: clause.LockingStrengthUpdate,
				Table:    clause.Table{Name: "q"},
				Options:  clause.LockingOptionsSkipLocked,
			})
		}
		var ids []string
		if err := query.Pluck("q.id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}

		update := tx.Model(&queueItemModel{}).
			Where("id IN ?", ids).
			Where("task_name = ?", p.taskName).
			Where("retry_count < max_attempts").
			Where("((status IN ? AND run_at <= ?) OR (status = ? AND locked_at <= ?))",
				claimableStatuses, now,
				valueobjects.QueueItemStatusProcessing.String(), staleBefore,
			).
			Updates(map[string]any{
				"status":     valueobjects.QueueItemStatusProcessing.String(),
				"locked_by":  owner,
				"locked_at":  now,
				"updated_at": now,
			})
		if update.Error != nil {
			return update.Error
		}
		if update.RowsAffected == 0 {
			return nil
		}
		claimed = ids
		return nil
	})
	if err != nil {
		return nil, p.log.fail("queue_claim_failed", "failed to claim queue items", err,
			"task_name", p.taskName,
			"worker_id", owner,
		)
	}
	if len(claimed) == 0 {
		if idle {
			p.reportInactiveBacklog(ctx, now, staleBefore)
		}
		return nil, nil
	}

	return p.loadBatch(ctx, group, claimed, owner)
}

// eligible is the claim predicate. Rows of inactive configs are never
// eligible.
func (p *QueueProvider) eligible(tx *gorm.DB, now time.Time, staleBefore time.Time) *gorm.DB {
	return p.due(tx, now, staleBefore).Where("c.active = ?", true)
}

// reportInactiveBacklog warns about due rows that only a disabled config
// keeps from being claimed, so a switched-off channel does not look like an
// empty queue.
func (p *QueueProvider) reportInactiveBacklog(ctx context.Context, now time.Time, staleBefore time.Time) {
	var backlog []inactiveBacklog
	err := p.due(p.db.WithContext(ctx), now, staleBefore).
		Where("c.active = ?", false).
		Select("q.config_id, COUNT(*) AS due_items").
		Group("q.config_id").
		Order("q.config_id ASC").
		Scan(&backlog).Error
	if err != nil {
		p.log.warn("queue_inactive_backlog_check_failed",
			"task_name", p.taskName,
			"error", err.Error(),
		)
		return
	}
	for _, entry := range backlog {
		p.log.warn("queue_config_inactive",
			"task_name", p.taskName,
			"config_id", entry.ConfigID,
			"due_items", entry.Due,
		)
	}
}

func (p *QueueProvider) due(tx *gorm.DB, now time.Time, staleBefore time.Time) *gorm.DB {
	return tx.Table("exchange_queue_items AS q").
		Joins("JOIN channel_configs AS c ON c.id = q.config_id").
		Where("q.task_name = ?", p.taskName).
		Where("q.retry_count < q.max_attempts").
		Where("((q.status IN ? AND q.run_at <= ?) OR (q.status = ? AND q.locked_at <= ?))",
			claimableStatuses, now,
			valueobjects.QueueItemStatusProcessing.String(), staleBefore,
		)
}

func (p *QueueProvider) loadBatch(
	ctx context.Context,
	group claimGroup,
	ids []string,
	owner string,
) (*entities.HomogeneousBatch, *apperrors.AppError) {
	db := p.db.WithContext(ctx)

	var rows []queueItemModel
	if err := db.
		Where("id IN ?", ids).
		Where("locked_by = ? AND status = ?", owner, valueobjects.QueueItemStatusProcessing.String()).
		Order("run_at ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, p.log.fail("queue_claim_reload_failed", "failed to load claimed queue items", err,
			"task_name", p.taskName,
		)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	var config channelConfigModel
	if err := db.Where("id = ?", group.ConfigID).First(&config).Error; err != nil {
		return nil, p.log.fail("queue_claim_config_load_failed", "failed to load claimed channel config", err,
			"config_id", group.ConfigID,
		)
	}
	var endpoint endpointModel
	if err := db.Where("id = ?", group.EndpointID).First(&endpoint).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewInternal(
				"endpoint_not_found",
				"claimed queue items reference a missing endpoint",
				map[string]any{"endpoint_id": group.EndpointID},
			)
		}
		return nil, p.log.fail("queue_claim_endpoint_load_failed", "failed to load claimed endpoint", err,
			"endpoint_id", group.EndpointID,
		)
	}

	items := make([]*entities.QueueItem, 0, len(rows))
	for _, row := range rows {
		item, err := row.toEntity()
		if err != nil {
			return nil, p.log.fail("queue_claim_decode_failed", "failed to decode claimed queue item", err,
				"queue_item_id", row.ID,
			)
		}
		items = append(items, &item)
	}

	batch, appErr := entities.NewHomogeneousBatch(config.toEntity(), endpoint.toEntity(), items)
	if appErr != nil {
		return nil, appErr
	}
	return &batch, nil
}
