package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/railclaw/orchestrator/internal/config"
	"github.com/railclaw/orchestrator/internal/logger"
	"github.com/railclaw/orchestrator/internal/metrics"
	"github.com/railclaw/orchestrator/internal/orchestrator"
)

var serverStartTime = time.Now()

// Server wires the Railclaw HTTP surface and its dependencies.
type Server struct {
	handlers
	httpServer *http.Server
}

type handlers struct {
	cfg          *config.Config
	orchestrator *orchestrator.Orchestrator
	metrics      *metrics.Metrics
	logger       zerolog.Logger
}

// New builds the HTTP server with a configured router.
func New(cfg *config.Config, orch *orchestrator.Orchestrator, metricsCollector *metrics.Metrics, appLogger zerolog.Logger) *Server {
	router := chi.NewRouter()

	s := &Server{
		handlers: handlers{
			cfg:          cfg,
			orchestrator: orch,
			metrics:      metricsCollector,
			logger:       appLogger,
		},
		httpServer: &http.Server{
			Addr:         cfg.Server.Address,
			ReadTimeout:  cfg.Server.ReadTimeout.Duration,
			WriteTimeout: cfg.Server.WriteTimeout.Duration,
			IdleTimeout:  cfg.Server.IdleTimeout.Duration,
			Handler:      router,
		},
	}

	ConfigureRouter(router, cfg, orch, metricsCollector, appLogger)

	return s
}

// ConfigureRouter attaches Railclaw's payment-orchestration routes to an
// existing router: create/check/list payments, a health check, and a
// Prometheus metrics endpoint protected by an optional admin API key.
func ConfigureRouter(router chi.Router, cfg *config.Config, orch *orchestrator.Orchestrator, metricsCollector *metrics.Metrics, appLogger zerolog.Logger) {
	if router == nil {
		return
	}

	handler := handlers{
		cfg:          cfg,
		orchestrator: orch,
		metrics:      metricsCollector,
		logger:       appLogger,
	}

	if len(cfg.Server.CORSAllowedOrigins) > 0 {
		router.Use(cors.New(cors.Options{
			AllowedOrigins:   cfg.Server.CORSAllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"*"},
			AllowCredentials: false,
			MaxAge:           300,
		}).Handler)
	}

	router.Use(securityHeadersMiddleware)
	router.Use(logger.Middleware(appLogger))
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)

	prefix := cfg.Server.RoutePrefix

	// Lightweight endpoints with a short timeout: health and metrics.
	router.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(5 * time.Second))
		r.Get("/railclaw-health", handler.health)
		r.With(adminMetricsAuth(cfg.Server.AdminMetricsAPIKey)).Handle(prefix+"/metrics", promhttp.Handler())
	})

	// Payment endpoints with a longer timeout: routing decisions never block
	// on-chain, but the handler still shares this budget with the rest of the
	// API for consistency.
	router.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))
		r.Post(prefix+"/v1/payments", handler.createPayment)
		r.Get(prefix+"/v1/payments", handler.listPayments)
		r.Get(prefix+"/v1/payments/{paymentID}", handler.getPayment)
	})
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
