// Package server is the JSON backend of the dashboard.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/peekknuf/dataiq/internal/anomaly"
	"github.com/peekknuf/dataiq/internal/config"
	"github.com/peekknuf/dataiq/internal/pipeline"
)

type Server struct {
	cfg      config.ServerConfig
	fetch    config.FetchConfig
	runner   *pipeline.Runner
	gatherer prometheus.Gatherer
	logger   *zap.Logger
	router   chi.Router
}

// New builds the router. gatherer backs /metrics; nil uses the default
// registry.
func New(cfg *config.Config, runner *pipeline.Runner, gatherer prometheus.Gatherer, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	s := &Server{
		cfg:      cfg.Server,
		fetch:    cfg.Fetch,
		runner:   runner,
		gatherer: gatherer,
		logger:   logger.Named("server"),
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(s.logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.health)
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		r.Get("/tables", s.listTables)
		r.Get("/tables/{table}/columns", s.tableColumns)
		r.Post("/tables/{table}/profile", s.profileTable)
		r.Post("/upload", s.upload)
		r.Get("/profiles", s.listProfiles)
		r.Get("/profiles/{name}", s.getProfile)
		r.Get("/history/{name}", s.history)
	})
	return r
}

func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr(),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Dashboard API listening", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("Shutting down dashboard API")
	return srv.Shutdown(shutdownCtx)
}

// UploadResponse is returned by POST /api/upload.
type UploadResponse struct {
	*pipeline.ProfileOutcome
	Anomalies    anomaly.Result `json:"anomalies"`
	PersistError string         `json:"persist_error,omitempty"`
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.Debug("HTTP request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
