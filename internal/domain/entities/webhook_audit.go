package entities

import "time"

const (
	WebhookOutcomeProcessed = "processed"
	WebhookOutcomeDuplicate = "duplicate"
	WebhookOutcomeRejected  = "rejected"
	WebhookOutcomeFailed    = "failed"
)

// WebhookAudit is written for every inbound webhook call, whatever its
// outcome.
type WebhookAudit struct {
	ID            string
	ConfigID      string
	Provider      string
	EventID       string
	PayloadDigest string
	PayloadRaw    string
	HTTPStatus    int
	OK            bool
	Outcome       string
	Error         *string
	CreatedAt     time.Time
}
