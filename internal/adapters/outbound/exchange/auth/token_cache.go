package auth

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	portsout "exchangeengine/internal/application/ports/out"
	"exchangeengine/internal/domain/entities"
	apperrors "exchangeengine/internal/shared_kernel/errors"
)

const defaultExpiryMargin = 60 * time.Second

type Token struct {
	AccessToken string
	ExpiresAt   time.Time
}

// TokenFetcher obtains a fresh token from the provider.
type TokenFetcher func(ctx context.Context, config entities.ChannelConfig) (Token, *apperrors.AppError)

type TokenCacheConfig struct {
	Fetcher TokenFetcher
	Store   portsout.ChannelTokenStore
	Margin  time.Duration
	Now     func() time.Time
	Logger  *slog.Logger
}

// TokenCache hands out bearer tokens per channel config. A token is reused
// until it is within Margin of expiry; concurrent refreshes of the same
// config share one provider call.
type TokenCache struct {
	fetch  TokenFetcher
	store  portsout.ChannelTokenStore
	margin time.Duration
	now    func() time.Time
	logger *slog.Logger

	group  singleflight.Group
	mu     sync.Mutex
	tokens map[string]Token
}

func NewTokenCache(cfg TokenCacheConfig) *TokenCache {
	margin := cfg.Margin
	if margin <= 0 {
		margin = defaultExpiryMargin
	}
	now := cfg.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &TokenCache{
		fetch:  cfg.Fetcher,
		store:  cfg.Store,
		margin: margin,
		now:    now,
		logger: logger,
		tokens: map[string]Token{},
	}
}

func (c *TokenCache) Token(ctx context.Context, config entities.ChannelConfig) (string, *apperrors.AppError) {
	if c == nil || c.fetch == nil {
		return "", apperrors.NewInternal("token_cache_not_configured", "token cache is not configured", nil)
	}
	configID := strings.TrimSpace(config.ID)
	if configID == "" {
		return "", apperrors.NewValidation("token_config_missing", "channel config id is required", nil)
	}

	if token, ok := c.cached(configID); ok {
		return token, nil
	}
	if token, ok := config.CachedToken(c.now(), c.margin); ok {
		return token, nil
	}

	value, err, _ := c.group.Do(configID, func() (any, error) {
		if token, ok := c.cached(configID); ok {
			return token, nil
		}

		fresh, appErr := c.fetch(ctx, config)
		if appErr != nil {
			return nil, appErr
		}
		if strings.TrimSpace(fresh.AccessToken) == "" {
			return nil, apperrors.NewUnavailable(
				"exchange_auth_token_empty",
				"provider returned an empty access token",
				map[string]any{"config_id": configID},
			)
		}

		c.mu.Lock()
		c.tokens[configID] = fresh
		c.mu.Unlock()

		if c.store != nil {
			if appErr := c.store.SaveToken(ctx, configID, fresh.AccessToken, fresh.ExpiresAt); appErr != nil {
				c.logger.WarnContext(ctx, "token persist failed",
					"config_id", configID,
					"code", appErr.Code,
				)
			}
		}
		c.logger.InfoContext(ctx, "token refreshed",
			"config_id", configID,
			"expires_at", fresh.ExpiresAt.Format(time.RFC3339),
		)
		return fresh.AccessToken, nil
	})
	if err != nil {
		return "", apperrors.From(err, "exchange_auth_failed", "failed to obtain provider token")
	}
	return value.(string), nil
}

// Invalidate forgets the token of a config, both in process and in the
// store, so the next call fetches a new one.
func (c *TokenCache) Invalidate(ctx context.Context, configID string) {
	configID = strings.TrimSpace(configID)
	c.mu.Lock()
	delete(c.tokens, configID)
	c.mu.Unlock()

	if c.store == nil {
		return
	}
	if appErr := c.store.SaveToken(ctx, configID, "", c.now()); appErr != nil {
		c.logger.WarnContext(ctx, "token invalidation not persisted",
			"config_id", configID,
			"code", appErr.Code,
		)
	}
}

func (c *TokenCache) cached(configID string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	token, ok := c.tokens[configID]
	if !ok || !token.ExpiresAt.After(c.now().Add(c.margin)) {
		return "", false
	}
	return token.AccessToken, true
}
