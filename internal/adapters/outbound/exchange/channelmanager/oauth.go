package channelmanager

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"exchangeengine/internal/adapters/outbound/exchange/auth"
	"exchangeengine/internal/adapters/outbound/exchange/transport"
	"exchangeengine/internal/domain/entities"
	valueobjects "exchangeengine/internal/domain/value_objects"
	apperrors "exchangeengine/internal/shared_kernel/errors"
)

const (
	tokenPath          = "/oauth/token"
	defaultTokenExpiry = time.Hour
)

type tokenRequest struct {
	GrantType    string `json:"grant_type"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// NewTokenFetcher returns the client-credentials grant against the channel
// manager of a config.
func NewTokenFetcher(t *transport.Transport, now func() time.Time) auth.TokenFetcher {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}

	return func(ctx context.Context, config entities.ChannelConfig) (auth.Token, *apperrors.AppError) {
		clientID := strings.TrimSpace(config.Credentials.ClientID)
		clientSecret := strings.TrimSpace(config.Credentials.ClientSecret)
		if clientID == "" || clientSecret == "" {
			return auth.Token{}, apperrors.NewValidation(
				"channelmanager_credentials_missing",
				"channel manager config has no client credentials",
				map[string]any{"config_id": config.ID},
			)
		}

		body, err := json.Marshal(tokenRequest{
			GrantType:    "client_credentials",
			ClientID:     clientID,
			ClientSecret: clientSecret,
		})
		if err != nil {
			return auth.Token{}, apperrors.NewInternal(
				"channelmanager_token_request_encode_failed",
				"failed to encode token request",
				map[string]any{"error": err.Error()},
			)
		}

		requestedAt := now()
		response, appErr := t.Do(ctx, transport.Request{
			Method: valueobjects.HTTPMethodPost,
			URL:    valueobjects.JoinEndpointURL(config.BaseURL, tokenPath),
			Body:   body,
		})
		if appErr != nil {
			return auth.Token{}, appErr
		}
		if !response.IsSuccessStatus() || !response.HasDecoded() {
			return auth.Token{}, apperrors.NewUnavailable(
				"channelmanager_auth_failed",
				"channel manager rejected the token request",
				map[string]any{"config_id": config.ID, "status_code": response.StatusCode},
			)
		}

		var decoded tokenResponse
		if err := json.Unmarshal(response.Decoded, &decoded); err != nil || strings.TrimSpace(decoded.AccessToken) == "" {
			return auth.Token{}, apperrors.NewUnavailable(
				"channelmanager_auth_failed",
				"channel manager token response has no access token",
				map[string]any{"config_id": config.ID, "status_code": response.StatusCode},
			)
		}

		lifetime := time.Duration(decoded.ExpiresIn) * time.Second
		if lifetime <= 0 {
			lifetime = defaultTokenExpiry
		}
		return auth.Token{
			AccessToken: strings.TrimSpace(decoded.AccessToken),
			ExpiresAt:   requestedAt.Add(lifetime),
		}, nil
	}
}
