// Package http exposes the orchestration core over chi: the export
// lifecycle surface, the audit query endpoint and the SSE event stream.
package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cafetrace/exportflow/internal/adapters/events"
	"github.com/cafetrace/exportflow/internal/application"
)

type Handler struct {
	service *application.Service
	hub     *events.Hub
	logger  *slog.Logger
}

func NewHandler(service *application.Service, hub *events.Hub, logger *slog.Logger) *Handler {
	return &Handler{service: service, hub: hub, logger: logger}
}

func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(recoverMiddleware)
	r.Use(metricsMiddleware)
	r.Use(actorMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { writeMessage(w, http.StatusOK, "ok") })
	r.Get("/readyz", func(w http.ResponseWriter, _ *http.Request) { writeMessage(w, http.StatusOK, "ready") })
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Route("/exports", func(r chi.Router) {
			r.Post("/", handler.createExport)
			r.Get("/", handler.listExports)

			r.Route("/{export_id}", func(r chi.Router) {
				r.Get("/", handler.getExport)
				r.Get("/actions", handler.availableActions)
				r.Post("/actions/{action}", handler.applyAction)
				r.Get("/audit", handler.auditTrail)
				r.Get("/events", handler.streamExportEvents)

				r.Route("/documents", func(r chi.Router) {
					r.Post("/", handler.addDocument)
					r.Get("/{category}/{version}", handler.getDocument)
					r.Delete("/{category}/{version}", handler.deactivateDocument)
				})
			})
		})
		r.Get("/orgs/{org}/events", handler.streamOrgEvents)
	})
	return r
}
