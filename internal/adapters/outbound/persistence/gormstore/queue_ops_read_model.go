package gormstore

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm"

	"exchangeengine/internal/application/dto"
	portsout "exchangeengine/internal/application/ports/out"
	apperrors "exchangeengine/internal/shared_kernel/errors"
)

const overviewSelect = `
COALESCE(SUM(CASE WHEN status = 'pending' THEN 1 ELSE 0 END), 0) AS pending_count,
COALESCE(SUM(CASE WHEN status IN ('pending', 'failed') AND retry_count < max_attempts AND run_at <= @now THEN 1 ELSE 0 END), 0) AS ready_count,
COALESCE(SUM(CASE WHEN status = 'processing' THEN 1 ELSE 0 END), 0) AS processing_count,
COALESCE(SUM(CASE WHEN status = 'processing' AND locked_at <= @stale_before THEN 1 ELSE 0 END), 0) AS stale_processing_count,
COALESCE(SUM(CASE WHEN status = 'success' THEN 1 ELSE 0 END), 0) AS succeeded_count,
COALESCE(SUM(CASE WHEN status = 'failed' AND retry_count < max_attempts THEN 1 ELSE 0 END), 0) AS retrying_count,
COALESCE(SUM(CASE WHEN status = 'failed' AND retry_count >= max_attempts THEN 1 ELSE 0 END), 0) AS exhausted_count`

type overviewRow struct {
	PendingCount         int64 `gorm:"column:pending_count"`
	ReadyCount           int64 `gorm:"column:ready_count"`
	ProcessingCount      int64 `gorm:"column:processing_count"`
	StaleProcessingCount int64 `gorm:"column:stale_processing_count"`
	SucceededCount       int64 `gorm:"column:succeeded_count"`
	RetryingCount        int64 `gorm:"column:retrying_count"`
	ExhaustedCount       int64 `gorm:"column:exhausted_count"`
}

type QueueOpsReadModel struct {
	db           *gorm.DB
	staleLockTTL time.Duration
	log          repoLogger
}

var _ portsout.QueueOpsReadModel = (*QueueOpsReadModel)(nil)

func NewQueueOpsReadModel(db *gorm.DB, staleLockTTL time.Duration, logger *slog.Logger) *QueueOpsReadModel {
	if staleLockTTL <= 0 {
		staleLockTTL = DefaultStaleLockTTL
	}
	return &QueueOpsReadModel{db: db, staleLockTTL: staleLockTTL, log: newRepoLogger(logger, "queue_ops")}
}

func (m *QueueOpsReadModel) GetOverview(ctx context.Context, taskName string, now time.Time) (dto.QueueOverview, *apperrors.AppError) {
	now = now.UTC()
	taskName = strings.TrimSpace(taskName)
	scoped := func() *gorm.DB {
		query := m.db.WithContext(ctx).Model(&queueItemModel{})
		if taskName != "" {
			query = query.Where("task_name = ?", taskName)
		}
		return query
	}

	var row overviewRow
	if err := scoped().
		Select(overviewSelect, map[string]any{
			"now":          now,
			"stale_before": now.Add(-m.staleLockTTL),
		}).
		Scan(&row).Error; err != nil {
		return dto.QueueOverview{}, m.log.fail("queue_overview_failed", "failed to load queue overview", err, "task_name", taskName)
	}

	overview := dto.QueueOverview{
		TaskName:             taskName,
		PendingCount:         row.PendingCount,
		ReadyCount:           row.ReadyCount,
		ProcessingCount:      row.ProcessingCount,
		StaleProcessingCount: row.StaleProcessingCount,
		SucceededCount:       row.SucceededCount,
		RetryingCount:        row.RetryingCount,
		ExhaustedCount:       row.ExhaustedCount,
	}

	var oldest []queueItemModel
	if err := scoped().
		Select("run_at").
		Where("status IN ?", claimableStatuses).
		Where("retry_count < max_attempts").
		Where("run_at <= ?", now).
		Order("run_at ASC").
		Limit(1).
		Find(&oldest).Error; err != nil {
		return dto.QueueOverview{}, m.log.fail("queue_overview_oldest_failed", "failed to load oldest ready item", err, "task_name", taskName)
	}
	if len(oldest) > 0 {
		runAt := oldest[0].RunAt.UTC()
		age := int64(now.Sub(runAt) / time.Second)
		if age < 0 {
			age = 0
		}
		overview.OldestReadyRunAt = &runAt
		overview.OldestReadyAgeSeconds = &age
	}
	return overview, nil
}
