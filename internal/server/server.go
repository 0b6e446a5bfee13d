// internal/server/server.go

package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"agentesocial/internal/adapter/events"
	"agentesocial/internal/config"
	"agentesocial/internal/domain/learning"
	"agentesocial/internal/domain/virality"
	"agentesocial/internal/server/handlers"
	"agentesocial/internal/service/tools"
)

// Dependencies are the services the HTTP surface is built on. Cache, Subscriber
// and Gatherer are optional.
type Dependencies struct {
	Analyzer      virality.Analyzer
	Aggregator    learning.Aggregator
	Analysis      handlers.ViralLister
	Tools         *tools.Registry
	Cache         handlers.ResponseCache
	Subscriber    events.Subscriber
	EventsTopic   string
	Gatherer      prometheus.Gatherer
	TopContentMax int
}

// Server represents the HTTP server
type Server struct {
	server *http.Server
	router *chi.Mux
}

// NewServer creates a new HTTP server
func NewServer(cfg config.ServerConfig, deps Dependencies, logger logrus.FieldLogger) *Server {
	router := chi.NewRouter()

	// Middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	// CORS configuration
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CorsOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "X-Cache"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Create handler dependencies
	viralityHandler := handlers.NewViralityHandler(deps.Analyzer, logger)
	insightsHandler := handlers.NewInsightsHandler(deps.Aggregator, deps.Cache, deps.TopContentMax, logger)
	analysisHandler := handlers.NewAnalysisHandler(deps.Analysis, logger)
	toolHandler := handlers.NewToolHandler(deps.Tools, logger)

	// Routes
	router.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout(cfg)))

		// Health check
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("OK"))
		})

		// API version
		r.Route("/v1", func(r chi.Router) {
			r.Route("/virality", func(r chi.Router) {
				r.Post("/score", viralityHandler.Score)
				r.Post("/classify", viralityHandler.Classify)
				r.Post("/patterns", viralityHandler.Patterns)
			})

			r.Route("/insights", func(r chi.Router) {
				r.Get("/dashboard", insightsHandler.Dashboard)
				r.Get("/growth", insightsHandler.Growth)
				r.Get("/engagement", insightsHandler.Engagement)
				r.Get("/top-content", insightsHandler.TopContent)
				r.Post("/learnings", insightsHandler.SaveLearning)
			})

			r.Route("/analysis", func(r chi.Router) {
				r.Get("/viral", analysisHandler.ListViral)
				r.Get("/benchmarks/{platform}", analysisHandler.Benchmarks)
			})

			r.Route("/tools", func(r chi.Router) {
				r.Get("/", toolHandler.ListTools)
				r.Post("/{name}", toolHandler.CallTool)
			})
		})
	})

	// WebSocket endpoint for viral content events
	router.Get("/ws/virality", handlers.ViralityWebSocketHandler(deps.Subscriber, deps.EventsTopic, logger))

	if deps.Gatherer != nil {
		router.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	// Create HTTP server
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return &Server{
		server: httpServer,
		router: router,
	}
}

func requestTimeout(cfg config.ServerConfig) time.Duration {
	if cfg.RequestTimeout > 0 {
		return cfg.RequestTimeout
	}
	return 60 * time.Second
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe starts the HTTP server
func (s *Server) ListenAndServe() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
