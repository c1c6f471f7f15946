package dto

import "time"

type GetQueueOverviewQuery struct {
	TaskName string
	Now      time.Time
}

type QueueOverview struct {
	TaskName              string     `json:"task_name,omitempty"`
	PendingCount          int64      `json:"pending_count"`
	ReadyCount            int64      `json:"ready_count"`
	ProcessingCount       int64      `json:"processing_count"`
	StaleProcessingCount  int64      `json:"stale_processing_count"`
	SucceededCount        int64      `json:"succeeded_count"`
	RetryingCount         int64      `json:"retrying_count"`
	ExhaustedCount        int64      `json:"exhausted_count"`
	OldestReadyRunAt      *time.Time `json:"oldest_ready_run_at,omitempty"`
	OldestReadyAgeSeconds *int64     `json:"oldest_ready_age_seconds,omitempty"`
}

type RequeueQueueItemCommand struct {
	QueueItemID string
	OperatorID  string
	Now         time.Time
}

type RequeueQueueItemOutput struct {
	QueueItemID string    `json:"queue_item_id"`
	Status      string    `json:"status"`
	RunAt       time.Time `json:"run_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
