package dto

import "time"

type HandleWebhookCommand struct {
	Provider   string
	ConfigID   string
	Token      string
	EventID    string
	Body       []byte
	ReceivedAt time.Time
}

type HandleWebhookOutput struct {
	OK        bool   `json:"ok"`
	Duplicate bool   `json:"duplicate,omitempty"`
	Processed int    `json:"processed,omitempty"`
	Error     string `json:"error,omitempty"`
}
