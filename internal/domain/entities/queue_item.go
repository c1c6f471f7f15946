package entities

import (
	"strings"
	"time"

	"exchangeengine/internal/domain/policies"
	valueobjects "exchangeengine/internal/domain/value_objects"
	apperrors "exchangeengine/internal/shared_kernel/errors"
)

const DefaultMaxAttempts = 5

// QueueItem is one durable outbound operation bound to a channel config and
// an endpoint. Rows are never deleted; the audit columns keep the last
// exchange with the provider.
type QueueItem struct {
	ID              string
	TaskName        string
	ConfigID        string
	EndpointID      string
	Payload         []byte
	SourceType      string
	SourceID        string
	Status          valueobjects.QueueItemStatus
	RunAt           time.Time
	LockedBy        *string
	LockedAt        *time.Time
	RetryCount      int
	MaxAttempts     int
	LastRequestRaw  *string
	LastResponseRaw *string
	LastHTTPCode    *int
	ExecutionResult map[string]any
	FailedReason    *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type NewQueueItemInput struct {
	ID          string
	TaskName    string
	ConfigID    string
	EndpointID  string
	Payload     []byte
	SourceType  string
	SourceID    string
	RunAt       time.Time
	MaxAttempts int
	CreatedAt   time.Time
}

// ItemOutcome is what a provider reported for one item of a batch.
type ItemOutcome struct {
	Message  string
	RemoteID string
	Extra    map[string]any
}

func NewPendingQueueItem(input NewQueueItemInput) (QueueItem, *apperrors.AppError) {
	if strings.TrimSpace(input.ID) == "" {
		return QueueItem{}, apperrors.NewInternal("queue_item_id_missing", "queue item id is required", nil)
	}
	if strings.TrimSpace(input.TaskName) == "" {
		return QueueItem{}, apperrors.NewValidation("queue_item_task_missing", "queue item task is required", nil)
	}
	if strings.TrimSpace(input.ConfigID) == "" || strings.TrimSpace(input.EndpointID) == "" {
		return QueueItem{}, apperrors.NewValidation(
			"queue_item_target_missing",
			"queue item config and endpoint are required",
			map[string]any{"config_id": input.ConfigID, "endpoint_id": input.EndpointID},
		)
	}

	maxAttempts := input.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	createdAt := input.CreatedAt.UTC()
	if input.CreatedAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	runAt := input.RunAt.UTC()
	if input.RunAt.IsZero() {
		runAt = createdAt
	}

	return QueueItem{
		ID:              strings.TrimSpace(input.ID),
		TaskName:        strings.TrimSpace(input.TaskName),
		ConfigID:        strings.TrimSpace(input.ConfigID),
		EndpointID:      strings.TrimSpace(input.EndpointID),
		Payload:         input.Payload,
		SourceType:      strings.TrimSpace(input.SourceType),
		SourceID:        strings.TrimSpace(input.SourceID),
		Status:          valueobjects.QueueItemStatusPending,
		RunAt:           runAt,
		MaxAttempts:     maxAttempts,
		ExecutionResult: map[string]any{},
		CreatedAt:       createdAt,
		UpdatedAt:       createdAt,
	}, nil
}

func (q *QueueItem) IsExhausted() bool {
	return policies.IsExhausted(q.RetryCount, q.MaxAttempts)
}

// IsLockStale reports whether a processing lock is old enough to be
// reclaimed by another worker.
func (q *QueueItem) IsLockStale(now time.Time, ttl time.Duration) bool {
	if q.Status != valueobjects.QueueItemStatusProcessing || q.LockedAt == nil {
		return false
	}
	return !q.LockedAt.After(now.Add(-ttl))
}

// IsClaimable mirrors the claim predicate used by queue providers.
func (q *QueueItem) IsClaimable(now time.Time, staleLockTTL time.Duration) bool {
	if q.IsExhausted() {
		return false
	}
	if q.Status.Claimable() && !q.RunAt.After(now) {
		return true
	}
	return q.IsLockStale(now, staleLockTTL)
}

func (q *QueueItem) Claim(workerID string, now time.Time) *apperrors.AppError {
	owner := strings.TrimSpace(workerID)
	if owner == "" {
		return apperrors.NewValidation("queue_item_worker_missing", "worker id is required to claim a queue item", nil)
	}
	lockedAt := now.UTC()
	q.Status = valueobjects.QueueItemStatusProcessing
	q.LockedBy = &owner
	q.LockedAt = &lockedAt
	q.UpdatedAt = lockedAt
	return nil
}

func (q *QueueItem) StampRequest(raw string) {
	q.LastRequestRaw = &raw
}

func (q *QueueItem) StampResponse(raw string, httpCode int) {
	q.LastResponseRaw = &raw
	if httpCode > 0 {
		code := httpCode
		q.LastHTTPCode = &code
	}
}

func (q *QueueItem) MarkSucceeded(outcome ItemOutcome, now time.Time) *apperrors.AppError {
	if appErr := q.ensureProcessing("success"); appErr != nil {
		return appErr
	}

	result := q.executionResult()
	for key, value := range outcome.Extra {
		result[key] = value
	}
	if remoteID := strings.TrimSpace(outcome.RemoteID); remoteID != "" {
		result["remote_id"] = remoteID
	}
	if message := strings.TrimSpace(outcome.Message); message != "" {
		result["message"] = message
	}
	delete(result, "error")

	q.Status = valueobjects.QueueItemStatusSuccess
	q.ExecutionResult = result
	q.FailedReason = nil
	q.releaseLock(now)
	return nil
}

// MarkFailed records a failed attempt. The item is rescheduled at retryAt
// unless this attempt exhausted it, in which case it stays failed for good.
func (q *QueueItem) MarkFailed(reason string, retryAt time.Time, now time.Time) *apperrors.AppError {
	if appErr := q.ensureProcessing("failed"); appErr != nil {
		return appErr
	}

	truncated := policies.TruncateFailureReason(reason)
	if truncated == "" {
		truncated = "queue item failed"
	}

	q.RetryCount++
	result := q.executionResult()
	result["error"] = truncated
	result["attempt"] = q.RetryCount
	if q.IsExhausted() {
		result["exhausted"] = true
	} else {
		q.RunAt = retryAt.UTC()
	}

	q.Status = valueobjects.QueueItemStatusFailed
	q.ExecutionResult = result
	q.FailedReason = &truncated
	q.releaseLock(now)
	return nil
}

// Requeue resets an exhausted item so it can be claimed again.
func (q *QueueItem) Requeue(now time.Time) *apperrors.AppError {
	if q.Status != valueobjects.QueueItemStatusFailed || !q.IsExhausted() {
		return apperrors.NewConflict(
			"queue_item_not_requeueable",
			"only exhausted failed queue items can be requeued",
			map[string]any{"queue_item_id": q.ID, "status": q.Status.String()},
		)
	}
	q.Status = valueobjects.QueueItemStatusPending
	q.RetryCount = 0
	q.RunAt = now.UTC()
	delete(q.executionResult(), "exhausted")
	q.releaseLock(now)
	return nil
}

func (q *QueueItem) ensureProcessing(target string) *apperrors.AppError {
	if q.Status == valueobjects.QueueItemStatusProcessing {
		return nil
	}
	return apperrors.NewConflict(
		"queue_item_transition_invalid",
		"queue item must be processing to transition",
		map[string]any{
			"queue_item_id": q.ID,
			"from":          q.Status.String(),
			"to":            target,
		},
	)
}

func (q *QueueItem) releaseLock(now time.Time) {
	q.LockedBy = nil
	q.LockedAt = nil
	q.UpdatedAt = now.UTC()
}

func (q *QueueItem) executionResult() map[string]any {
	if q.ExecutionResult == nil {
		q.ExecutionResult = map[string]any{}
	}
	return q.ExecutionResult
}
