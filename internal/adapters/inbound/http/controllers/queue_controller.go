package controllers

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"exchangeengine/internal/application/dto"
	portsin "exchangeengine/internal/application/ports/in"
	apperrors "exchangeengine/internal/shared_kernel/errors"
)

type QueueController struct {
	overviewUseCase portsin.GetQueueOverviewUseCase
	requeueUseCase  portsin.RequeueQueueItemUseCase
	runUseCase      portsin.RunTaskUseCase
	workerID        string
	logger          *slog.Logger
}

func NewQueueController(
	overviewUseCase portsin.GetQueueOverviewUseCase,
	requeueUseCase portsin.RequeueQueueItemUseCase,
	runUseCase portsin.RunTaskUseCase,
	workerID string,
	logger *slog.Logger,
) *QueueController {
	return &QueueController{
		overviewUseCase: overviewUseCase,
		requeueUseCase:  requeueUseCase,
		runUseCase:      runUseCase,
		workerID:        strings.TrimSpace(workerID),
		logger:          orDiscard(logger),
	}
}

func (c *QueueController) GetOverview(w http.ResponseWriter, r *http.Request) {
	output, appErr := c.overviewUseCase.Execute(r.Context(), dto.GetQueueOverviewQuery{
		TaskName: strings.TrimSpace(r.URL.Query().Get("task")),
		Now:      time.Now().UTC(),
	})
	if appErr != nil {
		logRequestError(c.logger, r, "/v1/queue/overview", appErr)
		writeAppError(w, appErr)
		return
	}

	writeJSON(w, http.StatusOK, output)
}

func (c *QueueController) RequeueItem(w http.ResponseWriter, r *http.Request) {
	output, appErr := c.requeueUseCase.Execute(r.Context(), dto.RequeueQueueItemCommand{
		QueueItemID: pathParam(r, "id"),
		OperatorID:  strings.TrimSpace(r.Header.Get(headerPrincipalID)),
		Now:         time.Now().UTC(),
	})
	if appErr != nil {
		logRequestError(c.logger, r, "/v1/queue/items/{id}/requeue", appErr)
		writeAppError(w, appErr)
		return
	}

	writeJSON(w, http.StatusOK, output)
}

// RunTask performs one claim-and-dispatch cycle, for schedulers that poke
// the API instead of running the worker command.
func (c *QueueController) RunTask(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if rawLimit := strings.TrimSpace(r.URL.Query().Get("limit")); rawLimit != "" {
		parsed, err := strconv.Atoi(rawLimit)
		if err != nil || parsed < 0 {
			writeAppError(w, apperrors.NewValidation(
				"invalid_request",
				"limit must be a non-negative integer",
				map[string]any{"field": "limit"},
			))
			return
		}
		limit = parsed
	}

	output, appErr := c.runUseCase.Execute(r.Context(), dto.RunTaskCommand{
		TaskName: pathParam(r, "task"),
		Limit:    limit,
		WorkerID: c.workerID,
		Now:      time.Now().UTC(),
	})
	if appErr != nil {
		logRequestError(c.logger, r, "/v1/tasks/{task}/run", appErr)
		writeAppError(w, appErr)
		return
	}

	writeJSON(w, http.StatusOK, output)
}
