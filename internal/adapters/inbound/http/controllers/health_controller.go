package controllers

import (
	"log/slog"
	"net/http"

	"exchangeengine/internal/application/dto"
	portsin "exchangeengine/internal/application/ports/in"
	valueobjects "exchangeengine/internal/domain/value_objects"
)

type HealthController struct {
	useCase portsin.GetHealthUseCase
	logger  *slog.Logger
}

func NewHealthController(useCase portsin.GetHealthUseCase, logger *slog.Logger) *HealthController {
	return &HealthController{
		useCase: useCase,
		logger:  orDiscard(logger),
	}
}

func (c *HealthController) GetHealth(w http.ResponseWriter, r *http.Request) {
	output, appErr := c.useCase.Execute(r.Context(), dto.GetHealthCommand{})
	if appErr != nil {
		logRequestError(c.logger, r, "/healthz", appErr)
		writeAppError(w, appErr)
		return
	}

	status := http.StatusOK
	if output.Status == valueobjects.HealthStatusDegraded.String() {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, output)
}
