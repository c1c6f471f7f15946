package valueobjects

import (
	"net"
	"net/url"
	"strings"

	apperrors "exchangeengine/internal/shared_kernel/errors"
)

// NormalizeBaseURL canonicalizes a provider base URL: lower-case scheme and
// host, no user info, no fragment, no trailing slash.
func NormalizeBaseURL(raw string) (string, *apperrors.AppError) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", apperrors.NewValidation(
			"invalid_request",
			"base_url is required",
			map[string]any{"field": "base_url"},
		)
	}

	parsed, err := url.Parse(trimmed)
	if err != nil || !parsed.IsAbs() || strings.TrimSpace(parsed.Host) == "" {
		return "", apperrors.NewValidation(
			"invalid_request",
			"base_url must be a valid absolute URL",
			map[string]any{"field": "base_url"},
		)
	}

	if parsed.User != nil {
		return "", apperrors.NewValidation(
			"invalid_request",
			"base_url must not contain user info",
			map[string]any{"field": "base_url"},
		)
	}

	scheme := strings.ToLower(strings.TrimSpace(parsed.Scheme))
	if scheme != "http" && scheme != "https" {
		return "", apperrors.NewValidation(
			"invalid_request",
			"base_url must use http or https",
			map[string]any{"field": "base_url"},
		)
	}

	host := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(parsed.Hostname())), ".")
	if host == "" {
		return "", apperrors.NewValidation(
			"invalid_request",
			"base_url host is required",
			map[string]any{"field": "base_url"},
		)
	}
	if port := strings.TrimSpace(parsed.Port()); port != "" {
		host = net.JoinHostPort(host, port)
	}

	parsed.Scheme = scheme
	parsed.Host = host
	parsed.Fragment = ""
	parsed.RawQuery = ""
	parsed.Path = strings.TrimRight(parsed.Path, "/")

	return parsed.String(), nil
}

// JoinEndpointURL appends an endpoint path fragment to a normalized base URL.
func JoinEndpointURL(baseURL string, path string) string {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	fragment := strings.TrimSpace(path)
	if fragment == "" {
		return base
	}
	return base + "/" + strings.TrimLeft(fragment, "/")
}
