package whatsapp

import (
	"context"
	nethttp "net/http"
	"strings"

	"exchangeengine/internal/adapters/outbound/exchange/transport"
	"exchangeengine/internal/application/dto"
	portsout "exchangeengine/internal/application/ports/out"
	apperrors "exchangeengine/internal/shared_kernel/errors"
)

// Client talks to the WhatsApp business gateway with the static API key
// stored on the channel config.
type Client struct {
	transport *transport.Transport
}

var _ portsout.ExchangeClient = (*Client)(nil)

func NewClient(t *transport.Transport) *Client {
	return &Client{transport: t}
}

func (c *Client) Provider() string {
	return dto.ProviderWhatsApp
}

func (c *Client) Send(ctx context.Context, mapping dto.MappingResult) (dto.ExchangeResponse, *apperrors.AppError) {
	apiKey := strings.TrimSpace(mapping.Config.Credentials.APIKey)
	if apiKey == "" {
		return dto.ExchangeResponse{}, apperrors.NewValidation(
			"whatsapp_api_key_missing",
			"whatsapp channel config has no api key",
			map[string]any{"config_id": mapping.Config.ID},
		)
	}

	header := nethttp.Header{}
	header.Set("Authorization", "Bearer "+apiKey)
	return c.transport.Do(ctx, transport.Request{
		Method: mapping.Method,
		URL:    mapping.URL,
		Query:  mapping.Query,
		Body:   mapping.Payload,
		Header: header,
	})
}
