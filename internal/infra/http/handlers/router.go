package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/xavierca1/products-cms/internal/infra/http/middleware"
	"github.com/xavierca1/products-cms/internal/logger"
)

type RouterConfig struct {
	Console      *ConsoleHandler
	Audit        *AuditHandler
	Health       *HealthHandler
	Session      SessionConfig
	WriteLimiter *middleware.RateLimiter
	CORSOrigins  []string
	Log          *zap.Logger
}

func NewRouter(cfg RouterConfig) http.Handler {
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(logger.Middleware(cfg.Log))
	r.Use(chimw.Recoverer)
	r.Use(middleware.Metrics)

	if cfg.Health != nil {
		r.Get("/health", cfg.Health.Handle)
	}
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", cfg.Session.ActorHeader},
			AllowCredentials: true,
		}))
		r.Use(Actor(cfg.Session))
		r.Use(Session(cfg.Session))

		var writes func(http.Handler) http.Handler
		if cfg.WriteLimiter != nil {
			writes = cfg.WriteLimiter.Limit
		}
		cfg.Console.Routes(r, writes)

		if cfg.Audit != nil {
			r.Get("/api/audit", cfg.Audit.ListRecent)
		}
	})

	return r
}
