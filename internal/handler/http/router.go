package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/playforge/gamestore/pkg/health"
	"github.com/playforge/gamestore/pkg/middleware"
)

// NewRouter assembles the HTTP surface: catalog and query routes, order
// placement, library reads, plus health and metrics endpoints.
func NewRouter(
	games *GameHandler,
	fulfillment *FulfillmentHandler,
	healthHandler *health.Handler,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("gamestore"))

	r.Get("/healthz", healthHandler.LivenessHandler())
	r.Get("/readyz", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/games", func(r chi.Router) {
			r.Get("/", games.List)
			r.Post("/", games.Create)
			r.Get("/search", games.Search)
			r.Get("/top", games.TopSelling)
			r.Get("/metrics/popular", games.PopularCategories)
			r.Get("/recommendations", games.Recommendations)
			r.Post("/sync", games.Resync)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", games.Get)
				r.Put("/", games.Update)
				r.Delete("/", games.Delete)
			})
		})

		r.Post("/orders", fulfillment.PlaceOrder)
		r.Get("/library/{userID}", fulfillment.ListLibrary)
	})

	return r
}
