package controllers

import (
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"exchangeengine/internal/application/dto"
	portsin "exchangeengine/internal/application/ports/in"
	apperrors "exchangeengine/internal/shared_kernel/errors"
)

const (
	headerWebhookToken = "X-Webhook-Token"
	headerEventID      = "X-Event-Id"
)

type webhookResponse struct {
	OK        bool   `json:"ok"`
	Duplicate bool   `json:"duplicate,omitempty"`
	Error     string `json:"error,omitempty"`
}

type WebhookController struct {
	useCase portsin.HandleWebhookUseCase
	logger  *slog.Logger
}

func NewWebhookController(useCase portsin.HandleWebhookUseCase, logger *slog.Logger) *WebhookController {
	return &WebhookController{useCase: useCase, logger: orDiscard(logger)}
}

// Receive answers 200 for every business outcome. Only authentication
// problems (403) and unreadable bodies (400) are reported as HTTP errors.
func (c *WebhookController) Receive(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, webhookResponse{OK: false, Error: "request body could not be read"})
		return
	}

	token := strings.TrimSpace(r.Header.Get(headerWebhookToken))
	if token == "" {
		token = strings.TrimSpace(r.URL.Query().Get("token"))
	}

	output, appErr := c.useCase.Execute(r.Context(), dto.HandleWebhookCommand{
		Provider:   pathParam(r, "provider"),
		ConfigID:   pathParam(r, "config_id"),
		Token:      token,
		EventID:    strings.TrimSpace(r.Header.Get(headerEventID)),
		Body:       body,
		ReceivedAt: time.Now().UTC(),
	})
	if appErr != nil {
		logRequestError(c.logger, r, "/v1/webhooks/{provider}/{config_id}", appErr)
		writeJSON(w, webhookStatus(appErr), webhookResponse{OK: false, Error: appErr.Message})
		return
	}

	writeJSON(w, http.StatusOK, webhookResponse{
		OK:        output.OK,
		Duplicate: output.Duplicate,
		Error:     output.Error,
	})
}

func webhookStatus(appErr *apperrors.AppError) int {
	switch appErr.Type {
	case apperrors.TypeUnauthorized:
		return http.StatusForbidden
	case apperrors.TypeValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
