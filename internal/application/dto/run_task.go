package dto

import "time"

type RunTaskCommand struct {
	TaskName string
	Limit    int
	WorkerID string
	Now      time.Time
}

type RunTaskOutput struct {
	TaskName     string `json:"task_name"`
	ConfigID     string `json:"config_id,omitempty"`
	EndpointID   string `json:"endpoint_id,omitempty"`
	Claimed      int    `json:"claimed"`
	Succeeded    int    `json:"succeeded"`
	Failed       int    `json:"failed"`
	Exhausted    int    `json:"exhausted"`
	Catastrophic bool   `json:"catastrophic"`
	LatencyMS    int64  `json:"latency_ms"`
}

// OutcomeEvent is published after a run has committed, once per item.
type OutcomeEvent struct {
	QueueItemID  string    `json:"queue_item_id"`
	TaskName     string    `json:"task_name"`
	ConfigID     string    `json:"config_id"`
	SourceType   string    `json:"source_type,omitempty"`
	SourceID     string    `json:"source_id,omitempty"`
	Status       string    `json:"status"`
	RetryCount   int       `json:"retry_count"`
	Exhausted    bool      `json:"exhausted"`
	Catastrophic bool      `json:"catastrophic"`
	HTTPCode     *int      `json:"http_code,omitempty"`
	Reason       *string   `json:"reason,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// CatastrophicFailure is the bypass write applied to one item after its run
// was rolled back.
type CatastrophicFailure struct {
	QueueItemID string
	Reason      string
	HTTPCode    *int
	RequestRaw  *string
	ResponseRaw *string
	RetryAt     time.Time
	Now         time.Time
}
