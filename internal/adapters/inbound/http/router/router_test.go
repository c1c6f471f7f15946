//go:build !integration

package router

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"exchangeengine/internal/adapters/inbound/http/controllers"
	"exchangeengine/internal/adapters/outbound/docs"
	"exchangeengine/internal/application/dto"
	"exchangeengine/internal/application/use_cases"
	apperrors "exchangeengine/internal/shared_kernel/errors"
)

func TestRouterHealthAndSwaggerRoutes(t *testing.T) {
	openAPISpecPath := writeTempOpenAPISpec(t)
	handler := newTestRouter(openAPISpecPath, nil)

	t.Run("healthz returns 200", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}

		if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
			t.Fatalf("expected body to contain status ok, got %s", rec.Body.String())
		}
	})

	t.Run("swagger root redirects to index", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/swagger", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusTemporaryRedirect {
			t.Fatalf("expected status %d, got %d", http.StatusTemporaryRedirect, rec.Code)
		}

		location := rec.Header().Get("Location")
		if location != "/swagger/index.html" {
			t.Fatalf("expected redirect location /swagger/index.html, got %q", location)
		}
	})

	t.Run("swagger UI index is served", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}

		contentType := rec.Header().Get("Content-Type")
		if !strings.Contains(contentType, "text/html") {
			t.Fatalf("expected text/html content type, got %q", contentType)
		}
	})

	t.Run("openapi spec is served with version 3.0.3", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/swagger/openapi.yaml", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}

		if !strings.Contains(rec.Body.String(), "openapi: 3.0.3") {
			t.Fatalf("expected openapi version 3.0.3 in body, got %s", rec.Body.String())
		}
	})
}

func TestRouterRoutesPathParameters(t *testing.T) {
	webhook := &captureWebhookUseCase{}
	handler := newTestRouter(writeTempOpenAPISpec(t), webhook)

	t.Run("webhook receives provider and config id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/webhooks/channelmanager/cfg_1", bytes.NewBufferString(`{}`))
		req.Header.Set("X-Webhook-Token", "secret")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d body=%s", rec.Code, rec.Body.String())
		}
		if webhook.last.Provider != "channelmanager" || webhook.last.ConfigID != "cfg_1" {
			t.Fatalf("unexpected webhook command %+v", webhook.last)
		}
	})

	t.Run("requeue route resolves the item id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/queue/items/qi_42/requeue", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d body=%s", rec.Code, rec.Body.String())
		}
		if !strings.Contains(rec.Body.String(), `"queue_item_id":"qi_42"`) {
			t.Fatalf("expected item id in body, got %s", rec.Body.String())
		}
	})

	t.Run("task run resolves the task name", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/tasks/whatsapp.send_messages/run", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if !strings.Contains(rec.Body.String(), `"task_name":"whatsapp.send_messages"`) {
			t.Fatalf("expected task name in body, got %s", rec.Body.String())
		}
	})
}

func TestRouterHealthzRejectsNonGET(t *testing.T) {
	handler := newTestRouter(writeTempOpenAPISpec(t), nil)

	req := httptest.NewRequest(http.MethodPost, "/healthz", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected status 405 for POST /healthz, got %d", rec.Code)
	}
}

func TestRouterCORSPreflight(t *testing.T) {
	handler := newTestRouter(writeTempOpenAPISpec(t), nil)

	req := httptest.NewRequest(http.MethodOptions, "/v1/messages", nil)
	req.Header.Set("Origin", "https://ops.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Header().Get("Access-Control-Allow-Origin") != "https://ops.example.com" {
		t.Fatalf("expected allowed origin header, got %q", rec.Header().Get("Access-Control-Allow-Origin"))
	}
}

func newTestRouter(openAPISpecPath string, webhook *captureWebhookUseCase) http.Handler {
	if webhook == nil {
		webhook = &captureWebhookUseCase{}
	}
	openAPIUseCase := use_cases.NewGetOpenAPISpecUseCase(docs.NewFileOpenAPISpecReadModel(openAPISpecPath))

	return New(Dependencies{
		HealthController:       controllers.NewHealthController(use_cases.NewGetHealthUseCase(nil), nil),
		SwaggerController:      controllers.NewSwaggerController(openAPIUseCase, nil),
		WebhookController:      controllers.NewWebhookController(webhook, nil),
		MessagesController:     controllers.NewMessagesController(stubEnqueueUseCase{}, nil),
		ReservationsController: controllers.NewReservationsController(stubSaveUseCase{}, stubPullUseCase{}, nil),
		QueueController:        controllers.NewQueueController(stubOverviewUseCase{}, stubRequeueUseCase{}, stubRunUseCase{}, "router-test", nil),
		AllowedOrigins:         []string{"https://ops.example.com"},
	})
}

func writeTempOpenAPISpec(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "openapi.yaml")

	content := []byte("openapi: 3.0.3\ninfo:\n  title: test\n  version: 1.0.0\npaths:\n  /healthz:\n    get:\n      responses:\n        '200':\n          description: ok\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("failed to write temp openapi file: %v", err)
	}

	return path
}

type captureWebhookUseCase struct {
	last dto.HandleWebhookCommand
}

func (c *captureWebhookUseCase) Execute(_ context.Context, command dto.HandleWebhookCommand) (dto.HandleWebhookOutput, *apperrors.AppError) {
	c.last = command
	return dto.HandleWebhookOutput{OK: true}, nil
}

type stubEnqueueUseCase struct{}

func (stubEnqueueUseCase) Execute(_ context.Context, command dto.EnqueueMessageCommand) (dto.EnqueueMessageOutput, *apperrors.AppError) {
	return dto.EnqueueMessageOutput{MessageID: "msg_1", QueueItemID: "qi_1", Status: "queued", CreatedAt: command.Now}, nil
}

type stubSaveUseCase struct{}

func (stubSaveUseCase) Execute(_ context.Context, command dto.SaveReservationCommand) (dto.SaveReservationOutput, *apperrors.AppError) {
	return dto.SaveReservationOutput{ReservationID: "res_1", Status: "confirmed", UpdatedAt: command.Now}, nil
}

type stubPullUseCase struct{}

func (stubPullUseCase) Execute(_ context.Context, command dto.RequestReservationPullCommand) (dto.RequestReservationPullOutput, *apperrors.AppError) {
	return dto.RequestReservationPullOutput{QueueItemID: "qi_pull", RunAt: command.Now}, nil
}

type stubOverviewUseCase struct{}

func (stubOverviewUseCase) Execute(_ context.Context, query dto.GetQueueOverviewQuery) (dto.QueueOverview, *apperrors.AppError) {
	return dto.QueueOverview{TaskName: query.TaskName}, nil
}

type stubRequeueUseCase struct{}

func (stubRequeueUseCase) Execute(_ context.Context, command dto.RequeueQueueItemCommand) (dto.RequeueQueueItemOutput, *apperrors.AppError) {
	return dto.RequeueQueueItemOutput{
		QueueItemID: command.QueueItemID,
		Status:      "pending",
		RunAt:       time.Unix(0, 0).UTC(),
		UpdatedAt:   time.Unix(0, 0).UTC(),
	}, nil
}

type stubRunUseCase struct{}

func (stubRunUseCase) Execute(_ context.Context, command dto.RunTaskCommand) (dto.RunTaskOutput, *apperrors.AppError) {
	return dto.RunTaskOutput{TaskName: command.TaskName}, nil
}
