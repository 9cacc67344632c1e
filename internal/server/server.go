// Package server exposes sessions over a small JSON HTTP API.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/KaramelBytes/datalens-cli/internal/logger"
	"github.com/KaramelBytes/datalens-cli/internal/session"
)

// DefaultMaxUpload caps multipart dataset uploads.
const DefaultMaxUpload = 32 << 20

// Config wires the server.
type Config struct {
	// NewSession builds a fresh, unauthenticated session.
	NewSession func() *session.Session
	// ImageContentType is reported alongside rendered charts.
	ImageContentType string
	// PreviewRows is the number of rows returned after an upload.
	PreviewRows int
	// MaxUpload caps upload size in bytes; 0 uses DefaultMaxUpload.
	MaxUpload int64
}

// Server serves the session API.
type Server struct {
	cfg      Config
	sessions *Registry
}

// New returns a Server with an empty registry.
func New(cfg Config) *Server {
	if cfg.MaxUpload <= 0 {
		cfg.MaxUpload = DefaultMaxUpload
	}
	if cfg.PreviewRows <= 0 {
		cfg.PreviewRows = 5
	}
	if cfg.ImageContentType == "" {
		cfg.ImageContentType = "image/png"
	}
	return &Server{cfg: cfg, sessions: NewRegistry()}
}

// Sessions exposes the registry.
func (s *Server) Sessions() *Registry { return s.sessions }

// Handler builds the chi router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		RespondJSON(w, http.StatusOK, map[string]any{"status": "ok", "sessions": s.sessions.Len()})
	})

	r.Route("/api/sessions", func(api chi.Router) {
		api.Post("/", s.handleCreateSession)
		api.Route("/{sessionID}", func(sr chi.Router) {
			sr.Delete("/", s.handleDeleteSession)
			sr.Post("/dataset", s.handleUploadDataset)
			sr.Post("/query", s.handleQuery)
		})
	})
	return r
}

// requestLogger logs one line per request with a request-scoped logger.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := logger.NewRequestLogger()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		log.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"chiRequestId", middleware.GetReqID(r.Context()),
		)
	})
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	slog.Info("datalens api listening", "addr", addr)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
