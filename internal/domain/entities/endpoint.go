package entities

import (
	"strings"

	valueobjects "exchangeengine/internal/domain/value_objects"
	apperrors "exchangeengine/internal/shared_kernel/errors"
)

// Endpoint is the static definition of one provider operation.
type Endpoint struct {
	ID        string
	Provider  string
	Operation string
	Path      string
	Method    valueobjects.HTTPMethod
}

func NewEndpoint(id, provider, operation, path, method string) (Endpoint, *apperrors.AppError) {
	normalizedProvider := strings.ToLower(strings.TrimSpace(provider))
	normalizedOperation := strings.ToLower(strings.TrimSpace(operation))
	if normalizedProvider == "" || normalizedOperation == "" {
		return Endpoint{}, apperrors.NewValidation(
			"endpoint_identity_missing",
			"endpoint provider and operation are required",
			map[string]any{"provider": provider, "operation": operation},
		)
	}
	parsedMethod, appErr := valueobjects.ParseHTTPMethod(method)
	if appErr != nil {
		return Endpoint{}, appErr
	}

	return Endpoint{
		ID:        strings.TrimSpace(id),
		Provider:  normalizedProvider,
		Operation: normalizedOperation,
		Path:      strings.TrimSpace(path),
		Method:    parsedMethod,
	}, nil
}
