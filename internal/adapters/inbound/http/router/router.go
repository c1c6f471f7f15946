package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"exchangeengine/internal/adapters/inbound/http/controllers"
)

type Dependencies struct {
	HealthController       *controllers.HealthController
	SwaggerController      *controllers.SwaggerController
	WebhookController      *controllers.WebhookController
	MessagesController     *controllers.MessagesController
	ReservationsController *controllers.ReservationsController
	QueueController        *controllers.QueueController
	AllowedOrigins         []string
}

func New(deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if len(deps.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: deps.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Principal-ID"},
			MaxAge:         300,
		}))
	}

	r.Get("/healthz", deps.HealthController.GetHealth)
	r.Get("/swagger", deps.SwaggerController.RedirectToIndex)
	r.Get("/swagger/openapi.yaml", deps.SwaggerController.GetOpenAPISpec)
	r.Get("/swagger/*", deps.SwaggerController.ServeUI)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/webhooks/{provider}/{config_id}", deps.WebhookController.Receive)
		r.Post("/messages", deps.MessagesController.EnqueueMessage)
		r.Post("/reservations", deps.ReservationsController.CreateReservation)
		r.Put("/reservations/{id}", deps.ReservationsController.UpdateReservation)
		r.Post("/reservations/pulls", deps.ReservationsController.RequestPull)
		r.Get("/queue/overview", deps.QueueController.GetOverview)
		r.Post("/queue/items/{id}/requeue", deps.QueueController.RequeueItem)
		r.Post("/tasks/{task}/run", deps.QueueController.RunTask)
	})

	return r
}
