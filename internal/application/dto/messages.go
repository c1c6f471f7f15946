package dto

import "time"

type EnqueueMessageCommand struct {
	ConfigID  string
	Recipient string
	Body      string
	Now       time.Time
}

type EnqueueMessageOutput struct {
	MessageID   string    `json:"message_id"`
	QueueItemID string    `json:"queue_item_id"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// EnqueueInput is what a producer hands the outbox inside its own
// transaction.
type EnqueueInput struct {
	TaskName    string
	ConfigID    string
	Provider    string
	Operation   string
	Payload     any
	SourceType  string
	SourceID    string
	RunAt       time.Time
	MaxAttempts int
}
