package valueobjects

import (
	nethttp "net/http"
	"strings"

	apperrors "exchangeengine/internal/shared_kernel/errors"
)

type HTTPMethod string

const (
	HTTPMethodGet    HTTPMethod = nethttp.MethodGet
	HTTPMethodPost   HTTPMethod = nethttp.MethodPost
	HTTPMethodPut    HTTPMethod = nethttp.MethodPut
	HTTPMethodPatch  HTTPMethod = nethttp.MethodPatch
	HTTPMethodDelete HTTPMethod = nethttp.MethodDelete
)

func ParseHTTPMethod(raw string) (HTTPMethod, *apperrors.AppError) {
	switch method := HTTPMethod(strings.ToUpper(strings.TrimSpace(raw))); method {
	case HTTPMethodGet, HTTPMethodPost, HTTPMethodPut, HTTPMethodPatch, HTTPMethodDelete:
		return method, nil
	default:
		return "", apperrors.NewValidation(
			"endpoint_method_invalid",
			"endpoint http method is invalid",
			map[string]any{"method": raw},
		)
	}
}

// IsRead reports whether parameters travel in the query string rather than
// the request body.
func (m HTTPMethod) IsRead() bool {
	return m == HTTPMethodGet || m == HTTPMethodDelete
}

func (m HTTPMethod) String() string {
	return string(m)
}
