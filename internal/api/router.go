package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/baechuer/tour-eats/internal/api/handlers"
	"github.com/baechuer/tour-eats/internal/config"
	"github.com/baechuer/tour-eats/internal/logger"
	"github.com/baechuer/tour-eats/internal/present"
	"github.com/baechuer/tour-eats/middleware"
)

type Deps struct {
	Explorer handlers.Explorer
	// Redis is optional. When set it backs the rate limiter and readiness.
	Redis *redis.Client
}

func NewRouter(cfg *config.Config, deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger(logger.Log))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Tracing(cfg.ServiceName))
	r.Use(middleware.Metrics)
	r.Use(middleware.SecurityHeaders)

	var checkers []handlers.ReadinessChecker
	if deps.Redis != nil {
		checkers = append(checkers, handlers.NewRedisReadinessChecker(deps.Redis))
	}
	z := handlers.NewReadinessHandler(checkers...)
	r.Get("/healthz", z.Healthz)
	r.Get("/readyz", z.Readyz)
	r.Handle("/metrics", promhttp.Handler())

	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(present.Static()))))

	page := handlers.NewPageHandler(deps.Explorer)
	h := handlers.NewAttractionsHandler(deps.Explorer)

	r.Group(func(r chi.Router) {
		if cfg.RLEnabled {
			r.Use(rateLimiter(cfg, deps.Redis))
		}

		r.Get("/", page.Page)

		r.Route("/api", func(r chi.Router) {
			r.Use(cors.Handler(cors.Options{
				AllowedOrigins: cfg.CORSOrigins,
				AllowedMethods: []string{http.MethodGet, http.MethodOptions},
				AllowedHeaders: []string{"Accept", "Content-Type", middleware.HeaderXRequestID},
				ExposedHeaders: []string{middleware.HeaderXRequestID, "Content-Disposition"},
				MaxAge:         300,
			}))

			r.Get("/attractions", h.List)
			r.Get("/attractions.csv", h.ListCSV)
			r.Get("/attractions/explore", h.Explore)
			r.Get("/attractions/restaurants.csv", h.RestaurantsCSV)
			r.Get("/attractions/image", h.Image)
		})
	})

	return r
}

// rateLimiter shares the budget across replicas through Redis when one is
// configured and falls back to a per-process limiter otherwise.
func rateLimiter(cfg *config.Config, rdb *redis.Client) func(http.Handler) http.Handler {
	if rdb != nil {
		return middleware.NewRedisRateLimiter(rdb).Middleware(middleware.RateLimitConfig{
			Limit:  cfg.RLLimit,
			Window: cfg.RLWindow,
			KeyFn:  middleware.KeyByIP,
		})
	}
	return httprate.LimitByIP(cfg.RLLimit, cfg.RLWindow)
}
