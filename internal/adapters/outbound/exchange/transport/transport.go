package transport

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net"
	nethttp "net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"exchangeengine/internal/application/dto"
	valueobjects "exchangeengine/internal/domain/value_objects"
	apperrors "exchangeengine/internal/shared_kernel/errors"
)

const (
	defaultHTTPTimeout  = 30 * time.Second
	maxResponseBodySize = 4 << 20
	defaultUserAgent    = "exchangeengine/1"
)

type Config struct {
	Timeout   time.Duration
	UserAgent string
}

// Request is one provider call. Query is used for reads, Body for writes.
type Request struct {
	Method valueobjects.HTTPMethod
	URL    string
	Query  url.Values
	Body   []byte
	Header nethttp.Header
}

// Transport performs provider HTTP calls. Any answer the provider sends back
// is a response, whatever its status; only failures to get an answer are
// errors. When the body breaks off mid-read the error comes back together
// with the status and whatever body arrived.
type Transport struct {
	client    *nethttp.Client
	userAgent string
}

func New(cfg Config) *Transport {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	return &Transport{
		client: &nethttp.Client{
			Timeout: timeout,
		},
		userAgent: userAgent,
	}
}

func (t *Transport) Do(ctx context.Context, input Request) (dto.ExchangeResponse, *apperrors.AppError) {
	if t == nil || t.client == nil {
		return dto.ExchangeResponse{}, apperrors.NewInternal(
			"exchange_transport_not_configured",
			"exchange transport is not configured",
			nil,
		)
	}

	target := strings.TrimSpace(input.URL)
	if target == "" {
		return dto.ExchangeResponse{}, apperrors.NewValidation(
			"exchange_url_missing",
			"exchange url is required",
			nil,
		)
	}
	method := input.Method
	if method == "" {
		method = valueobjects.HTTPMethodPost
	}

	var body io.Reader
	if method.IsRead() {
		if encoded := input.Query.Encode(); encoded != "" {
			separator := "?"
			if strings.Contains(target, "?") {
				separator = "&"
			}
			target += separator + encoded
		}
	} else {
		body = bytes.NewReader(input.Body)
	}

	request, err := nethttp.NewRequestWithContext(ctx, method.String(), target, body)
	if err != nil {
		return dto.ExchangeResponse{}, apperrors.NewInternal(
			"exchange_request_build_failed",
			"failed to build exchange request",
			map[string]any{"error": err.Error()},
		)
	}
	for key, values := range input.Header {
		for _, value := range values {
			request.Header.Add(key, value)
		}
	}
	request.Header.Set("Accept", "application/json")
	request.Header.Set("User-Agent", t.userAgent)
	if !method.IsRead() {
		request.Header.Set("Content-Type", "application/json")
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(request.Header))

	response, err := t.client.Do(request)
	if err != nil {
		if isTimeout(err) {
			return dto.ExchangeResponse{}, apperrors.NewUnavailable(
				"exchange_timeout",
				"exchange request timed out",
				map[string]any{"error": err.Error(), "url": input.URL},
			)
		}
		return dto.ExchangeResponse{}, apperrors.NewUnavailable(
			"exchange_transport_failed",
			"exchange request failed",
			map[string]any{"error": err.Error(), "url": input.URL},
		)
	}
	defer response.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(response.Body, maxResponseBodySize+1))
	output := dto.ExchangeResponse{StatusCode: response.StatusCode}
	if len(raw) > maxResponseBodySize {
		raw = raw[:maxResponseBodySize]
		output.Truncated = true
	}
	output.RawBody = string(raw)
	if err != nil {
		details := map[string]any{
			"error":       err.Error(),
			"status_code": response.StatusCode,
			"body_bytes":  len(raw),
		}
		if isTimeout(err) {
			return output, apperrors.NewUnavailable("exchange_timeout", "exchange response timed out", details)
		}
		return output, apperrors.NewUnavailable("exchange_response_read_failed", "failed to read exchange response", details)
	}

	trimmed := bytes.TrimSpace(raw)
	if !output.Truncated && len(trimmed) > 0 && json.Valid(trimmed) {
		output.Decoded = json.RawMessage(trimmed)
	}
	return output, nil
}

func isTimeout(err error) bool {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return stderrors.As(err, &netErr) && netErr.Timeout()
}
