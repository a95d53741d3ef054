package apiapp

import (
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ivankudzin/kinmatch/internal/transport/http/handlers"
)

type Dependencies struct {
	Tokens    TokenParser
	Discovery handlers.DiscoveryService
	Swipes    handlers.SwipeService
	Usage     handlers.UsageService
	Limiter   handlers.BurstLimiter
	Health    *handlers.HealthHandler
	Logger    *zap.Logger
}

func RegisterRoutes(r chi.Router, deps Dependencies) {
	discoveryHandler := handlers.NewDiscoveryHandler(deps.Discovery)
	swipeHandler := handlers.NewSwipeHandler(deps.Swipes, deps.Limiter, deps.Logger)
	usageHandler := handlers.NewUsageHandler(deps.Usage)
	healthHandler := deps.Health
	if healthHandler == nil {
		healthHandler = handlers.NewHealthHandler()
	}

	r.Get("/healthz", healthHandler.Live)
	r.Get("/readyz", healthHandler.Ready)
	r.Handle("/metrics", promhttp.Handler())

	authMW := AuthMiddleware(deps.Tokens, deps.Logger)
	r.Route("/v1", func(r chi.Router) {
		r.Use(authMW)

		r.Get("/discover", discoveryHandler.Discover)
		r.Get("/compatibility/{userID}", discoveryHandler.Compatibility)

		r.Post("/swipes", swipeHandler.Handle)
		r.Post("/swipes/undo", swipeHandler.Undo)

		r.Get("/usage", usageHandler.Get)
		r.Post("/ads/watch", usageHandler.WatchAd)
	})
}
