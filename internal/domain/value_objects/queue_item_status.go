package valueobjects

import (
	"strings"

	apperrors "exchangeengine/internal/shared_kernel/errors"
)

type QueueItemStatus string

const (
	QueueItemStatusPending    QueueItemStatus = "pending"
	QueueItemStatusProcessing QueueItemStatus = "processing"
	QueueItemStatusSuccess    QueueItemStatus = "success"
	QueueItemStatusFailed     QueueItemStatus = "failed"
)

func ParseQueueItemStatus(raw string) (QueueItemStatus, *apperrors.AppError) {
	switch QueueItemStatus(strings.ToLower(strings.TrimSpace(raw))) {
	case QueueItemStatusPending:
		return QueueItemStatusPending, nil
	case QueueItemStatusProcessing:
		return QueueItemStatusProcessing, nil
	case QueueItemStatusSuccess:
		return QueueItemStatusSuccess, nil
	case QueueItemStatusFailed:
		return QueueItemStatusFailed, nil
	default:
		return "", apperrors.NewInternal(
			"queue_item_status_invalid",
			"queue item status is invalid",
			map[string]any{"status": raw},
		)
	}
}

// Claimable reports whether rows in this status can be picked up by a claim
// when their run_at has passed.
func (s QueueItemStatus) Claimable() bool {
	return s == QueueItemStatusPending || s == QueueItemStatusFailed
}

func (s QueueItemStatus) String() string {
	return string(s)
}
