package dto

import (
	"encoding/json"
	"net/url"
	"strings"

	"exchangeengine/internal/domain/entities"
	valueobjects "exchangeengine/internal/domain/value_objects"
)

// MappingResult is one outbound request built for a whole batch.
// Correlation maps the positional key a provider echoes back to the queue
// item it belongs to.
type MappingResult struct {
	Method      valueobjects.HTTPMethod
	URL         string
	Query       url.Values
	Payload     []byte
	Config      entities.ChannelConfig
	Correlation map[string]string
}

// AuditRequest is what gets stored in last_request_raw: the body for writes,
// the encoded query for reads.
func (m MappingResult) AuditRequest() string {
	if m.Method.IsRead() {
		target := m.URL
		if encoded := m.Query.Encode(); encoded != "" {
			target += "?" + encoded
		}
		return m.Method.String() + " " + target
	}
	return string(m.Payload)
}

// ItemIDFor resolves a correlation key to an item id.
func (m MappingResult) ItemIDFor(key string) (string, bool) {
	itemID, ok := m.Correlation[strings.TrimSpace(key)]
	return itemID, ok
}

// ExchangeResponse is what a provider returned. Decoded is nil when the body
// was not valid JSON. Truncated is set when the body hit the read limit.
type ExchangeResponse struct {
	Decoded    json.RawMessage
	RawBody    string
	StatusCode int
	Truncated  bool
}

// Answered reports whether the provider sent a status line, even if reading
// the body failed afterwards.
func (r ExchangeResponse) Answered() bool {
	return r.StatusCode > 0
}

func (r ExchangeResponse) HasDecoded() bool {
	return len(r.Decoded) > 0
}

func (r ExchangeResponse) IsSuccessStatus() bool {
	return r.StatusCode >= 200 && r.StatusCode <= 299
}

type ItemResult struct {
	ItemID   string
	Success  bool
	Message  string
	RemoteID string
	Extra    map[string]any
	Inbound  []json.RawMessage
}

func (r ItemResult) Outcome() entities.ItemOutcome {
	return entities.ItemOutcome{
		Message:  r.Message,
		RemoteID: r.RemoteID,
		Extra:    r.Extra,
	}
}
