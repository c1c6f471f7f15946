package controllers

import (
	"log/slog"
	"net/http"
	"time"

	"exchangeengine/internal/application/dto"
	portsin "exchangeengine/internal/application/ports/in"
)

type MessagesController struct {
	enqueueUseCase portsin.EnqueueMessageUseCase
	logger         *slog.Logger
}

type enqueueMessagePayload struct {
	ConfigID  string `json:"config_id"`
	Recipient string `json:"recipient"`
	Body      string `json:"body"`
}

func NewMessagesController(enqueueUseCase portsin.EnqueueMessageUseCase, logger *slog.Logger) *MessagesController {
	return &MessagesController{enqueueUseCase: enqueueUseCase, logger: orDiscard(logger)}
}

func (c *MessagesController) EnqueueMessage(w http.ResponseWriter, r *http.Request) {
	var payload enqueueMessagePayload
	if appErr := decodeJSONBody(r.Body, &payload); appErr != nil {
		writeAppError(w, appErr)
		return
	}

	output, appErr := c.enqueueUseCase.Execute(r.Context(), dto.EnqueueMessageCommand{
		ConfigID:  payload.ConfigID,
		Recipient: payload.Recipient,
		Body:      payload.Body,
		Now:       time.Now().UTC(),
	})
	if appErr != nil {
		logRequestError(c.logger, r, "/v1/messages", appErr)
		writeAppError(w, appErr)
		return
	}

	w.Header().Set("Location", "/v1/messages/"+output.MessageID)
	writeJSON(w, http.StatusAccepted, output)
}
