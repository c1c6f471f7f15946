package controllers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	apperrors "exchangeengine/internal/shared_kernel/errors"
)

const (
	headerPrincipalID = "X-Principal-ID"
	maxRequestBody    = 1 << 20
)

type errorResponse struct {
	Error errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func statusFor(appErr *apperrors.AppError) int {
	switch appErr.Type {
	case apperrors.TypeValidation:
		return http.StatusBadRequest
	case apperrors.TypeUnauthorized:
		return http.StatusForbidden
	case apperrors.TypeNotFound:
		return http.StatusNotFound
	case apperrors.TypeConflict:
		return http.StatusConflict
	case apperrors.TypeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeAppError(w http.ResponseWriter, appErr *apperrors.AppError) {
	writeJSON(w, statusFor(appErr), errorResponse{
		Error: errorEnvelope{
			Code:    appErr.Code,
			Message: appErr.Message,
			Details: appErr.Details,
		},
	})
}

func logRequestError(logger *slog.Logger, r *http.Request, route string, appErr *apperrors.AppError) {
	level := slog.LevelWarn
	if statusFor(appErr) >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	logger.Log(r.Context(), level, "request error",
		"path", route,
		"method", r.Method,
		"code", appErr.Code,
		"message", appErr.Message,
	)
}

// pathParam reads a route parameter set either by chi or by the standard
// library mux.
func pathParam(r *http.Request, name string) string {
	if value := r.PathValue(name); value != "" {
		return strings.TrimSpace(value)
	}
	return strings.TrimSpace(chi.URLParam(r, name))
}

func decodeJSONBody(body io.Reader, target any) *apperrors.AppError {
	decoder := json.NewDecoder(io.LimitReader(body, maxRequestBody))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(target); err != nil {
		return apperrors.NewValidation(
			"invalid_request",
			"request body must be valid JSON",
			map[string]any{"error": err.Error()},
		)
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return apperrors.NewValidation(
			"invalid_request",
			"request body must contain a single JSON object",
			nil,
		)
	}
	return nil
}

func orDiscard(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return logger
}
