package channelmanager

import (
	"context"
	nethttp "net/http"

	"exchangeengine/internal/adapters/outbound/exchange/auth"
	"exchangeengine/internal/adapters/outbound/exchange/transport"
	"exchangeengine/internal/application/dto"
	portsout "exchangeengine/internal/application/ports/out"
	apperrors "exchangeengine/internal/shared_kernel/errors"
)

// Client calls the channel manager API with an OAuth bearer token.
type Client struct {
	transport *transport.Transport
	tokens    *auth.TokenCache
}

var _ portsout.ExchangeClient = (*Client)(nil)

func NewClient(t *transport.Transport, tokens *auth.TokenCache) *Client {
	return &Client{transport: t, tokens: tokens}
}

func (c *Client) Provider() string {
	return dto.ProviderChannelManager
}

func (c *Client) Send(ctx context.Context, mapping dto.MappingResult) (dto.ExchangeResponse, *apperrors.AppError) {
	if c.tokens == nil {
		return dto.ExchangeResponse{}, apperrors.NewInternal(
			"channelmanager_token_cache_missing",
			"channel manager token cache is required",
			nil,
		)
	}
	token, appErr := c.tokens.Token(ctx, mapping.Config)
	if appErr != nil {
		return dto.ExchangeResponse{}, appErr
	}

	header := nethttp.Header{}
	header.Set("Authorization", "Bearer "+token)
	response, appErr := c.transport.Do(ctx, transport.Request{
		Method: mapping.Method,
		URL:    mapping.URL,
		Query:  mapping.Query,
		Body:   mapping.Payload,
		Header: header,
	})
	if appErr != nil {
		return response, appErr
	}
	if response.StatusCode == nethttp.StatusUnauthorized {
		c.tokens.Invalidate(ctx, mapping.Config.ID)
	}
	return response, nil
}
