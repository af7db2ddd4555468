// Package server exposes the analysis service over HTTP.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"stockTrendPCA/internal/analysis"
	"stockTrendPCA/internal/config"
	"stockTrendPCA/internal/metrics"
	"stockTrendPCA/internal/storage"
)

// Analyzer runs analyses. *analysis.Service satisfies it.
type Analyzer interface {
	Analyze(ctx context.Context, req analysis.Request) (*analysis.Report, error)
	Basket() config.Basket
}

// History lists past analyses. *storage.Store satisfies it.
type History interface {
	RecentAnalyses(ctx context.Context, limit int) ([]storage.AnalysisRecord, error)
}

type Config struct {
	Log      zerolog.Logger
	Port     string
	Analyzer Analyzer
	// History is optional; without it /api/analyses returns 503.
	History History
	Metrics *metrics.Registry
	// Webhook is mounted at /telegram/webhook when set.
	Webhook http.Handler
}

type Server struct {
	router   *chi.Mux
	server   *http.Server
	log      zerolog.Logger
	analyzer Analyzer
	history  History
	metrics  *metrics.Registry
	webhook  http.Handler
}

func New(cfg Config) *Server {
	s := &Server{
		router:   chi.NewRouter(),
		log:      cfg.Log.With().Str("component", "server").Logger(),
		analyzer: cfg.Analyzer,
		history:  cfg.History,
		metrics:  cfg.Metrics,
		webhook:  cfg.Webhook,
	}
	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(80 * time.Second))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/stocks", s.handleStocks)
		r.Post("/analyze", s.handleAnalyze)
		r.Get("/analyses", s.handleAnalyses)
	})
	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics.Handler())
	}
	if s.webhook != nil {
		s.router.Post("/telegram/webhook", s.webhook.ServeHTTP)
	}
}

// Handler returns the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("starting HTTP server")
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
