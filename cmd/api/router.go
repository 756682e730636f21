package main

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/bizdash/bizdash/internal/config"
	"github.com/bizdash/bizdash/internal/handler"
	"github.com/bizdash/bizdash/internal/metrics"
	"github.com/bizdash/bizdash/internal/middleware"
)

type routerDeps struct {
	cfg     *config.Config
	logger  *slog.Logger
	auth    *handler.AuthHandler
	health  *handler.HealthHandler
	limiter middleware.RateLimiter // nil when Redis is not configured
	metrics *metrics.PrometheusRecorder
}

// newRouter configures the chi router with all routes and middleware.
func newRouter(d routerDeps) http.Handler {
	r := chi.NewRouter()
	h := handler.New()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(d.logger))
	r.Use(middleware.Recoverer(d.logger))
	r.Use(middleware.Security(middleware.SecurityConfig{IsDevelopment: d.cfg.IsDevelopment()}))

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = d.cfg.GetCORSAllowedOrigins()
	r.Use(middleware.CORS(corsCfg))

	// Probes
	r.Get("/healthz", d.health.Healthz)
	r.Get("/readyz", d.health.Readyz)
	if d.metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.metrics.Handler())
	}

	rateLimitCfg := middleware.RateLimitConfig{
		Logger:  d.logger,
		Limiter: d.limiter,
		Enabled: d.cfg.RateLimitAuthEnabled,
		RPM:     d.cfg.RateLimitAuthRPM,
		Burst:   d.cfg.RateLimitAuthBurst,
	}
	if d.metrics != nil {
		rateLimitCfg.Metrics = d.metrics
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.MaxBodySize(d.cfg.MaxRequestBodySize))

		r.Get("/health", d.health.Health)
		r.With(middleware.RateLimitIP(rateLimitCfg, "register")).Post("/register", d.auth.Register)
		r.With(middleware.RateLimitIP(rateLimitCfg, "login")).Post("/login", d.auth.Login)
		r.Get("/users", d.auth.ListUsers)
	})

	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	return r
}
