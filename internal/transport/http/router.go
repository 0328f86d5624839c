// Package httptransport is the thin HTTP layer. Handlers decode, delegate to
// the domain services and encode; business rules never live here.
package httptransport

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"supervision/internal/transport/http/shared"
	"supervision/pkg/platform/middleware"
)

// NewRouter wires the public endpoints behind the shared middleware chain.
func NewRouter(setup *SetupHandler, checkin *CheckinHandler, health *HealthHandler, logger *log.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.Practitioner)

	r.Get("/health", health.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	setup.Register(r)
	checkin.Register(r)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		shared.WriteJSON(w, http.StatusNotFound, map[string]string{"error": "not_found"})
	})
	return r
}
