package entities

import (
	"strings"
	"time"

	apperrors "exchangeengine/internal/shared_kernel/errors"
)

type ChannelCredentials struct {
	APIKey       string
	ClientID     string
	ClientSecret string
}

// ChannelConfig is one provider account: where to call, how to authenticate,
// and the auth token currently cached for it.
type ChannelConfig struct {
	ID                 string
	Provider           string
	Name               string
	BaseURL            string
	Credentials        ChannelCredentials
	WebhookSecret      string
	Active             bool
	AuthToken          string
	AuthTokenExpiresAt *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (c ChannelConfig) EnsureActive() *apperrors.AppError {
	if !c.Active {
		return apperrors.NewValidation(
			"channel_config_inactive",
			"channel config is inactive",
			map[string]any{"config_id": c.ID, "provider": c.Provider},
		)
	}
	return nil
}

// CachedToken returns the stored token when it stays valid for longer than
// margin past now.
func (c ChannelConfig) CachedToken(now time.Time, margin time.Duration) (string, bool) {
	token := strings.TrimSpace(c.AuthToken)
	if token == "" || c.AuthTokenExpiresAt == nil {
		return "", false
	}
	if !c.AuthTokenExpiresAt.After(now.Add(margin)) {
		return "", false
	}
	return token, true
}

func (c *ChannelConfig) StoreToken(token string, expiresAt time.Time) {
	expires := expiresAt.UTC()
	c.AuthToken = strings.TrimSpace(token)
	c.AuthTokenExpiresAt = &expires
}
