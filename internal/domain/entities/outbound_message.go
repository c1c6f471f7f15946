package entities

import (
	"strings"
	"time"

	apperrors "exchangeengine/internal/shared_kernel/errors"
)

const (
	MessageStatusQueued    = "queued"
	MessageStatusSubmitted = "submitted"
	MessageStatusRetrying  = "retrying"
	MessageStatusFailed    = "failed"
)

type OutboundMessage struct {
	ID              string
	ConfigID        string
	Recipient       string
	Body            string
	Status          string
	RemoteMessageID *string
	LastError       *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func NewQueuedMessage(id, configID, recipient, body string, now time.Time) (OutboundMessage, *apperrors.AppError) {
	normalizedRecipient := strings.ReplaceAll(strings.TrimSpace(recipient), " ", "")
	if !isE164(normalizedRecipient) {
		return OutboundMessage{}, apperrors.NewValidation(
			"invalid_request",
			"recipient must be an E.164 phone number",
			map[string]any{"field": "recipient"},
		)
	}
	if strings.TrimSpace(body) == "" {
		return OutboundMessage{}, apperrors.NewValidation(
			"invalid_request",
			"body is required",
			map[string]any{"field": "body"},
		)
	}
	if strings.TrimSpace(configID) == "" {
		return OutboundMessage{}, apperrors.NewValidation(
			"invalid_request",
			"config_id is required",
			map[string]any{"field": "config_id"},
		)
	}

	return OutboundMessage{
		ID:        id,
		ConfigID:  strings.TrimSpace(configID),
		Recipient: normalizedRecipient,
		Body:      body,
		Status:    MessageStatusQueued,
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}, nil
}

func (m *OutboundMessage) MarkSubmitted(remoteID string, now time.Time) {
	m.Status = MessageStatusSubmitted
	if trimmed := strings.TrimSpace(remoteID); trimmed != "" {
		m.RemoteMessageID = &trimmed
	}
	m.LastError = nil
	m.UpdatedAt = now.UTC()
}

func (m *OutboundMessage) MarkUndelivered(reason string, terminal bool, now time.Time) {
	m.Status = MessageStatusRetrying
	if terminal {
		m.Status = MessageStatusFailed
	}
	trimmed := strings.TrimSpace(reason)
	m.LastError = &trimmed
	m.UpdatedAt = now.UTC()
}

func isE164(raw string) bool {
	if len(raw) < 8 || len(raw) > 16 || raw[0] != '+' {
		return false
	}
	for _, r := range raw[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
