// Package api implements the HTTP layer. Handlers are methods on *Server.
// The layer is deliberately thin: it decodes, normalizes, calls the pipeline,
// and maps fault kinds to status codes. Every response — success or failure —
// is a JSON object with an explicit success flag.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/tactful-app/tactful-backend/internal/normalize"
	"github.com/tactful-app/tactful-backend/internal/pipeline"
)

// Composer is the narrow pipeline interface the HTTP layer depends on.
// Tests inject a stub that returns canned responses.
type Composer interface {
	Compose(ctx context.Context, in normalize.CanonicalInput) (pipeline.FinalResponse, error)
}

// Config holds values read from environment variables at startup.
type Config struct {
	// Env is "production", "staging", or "development".
	Env string
}

// Server holds all shared dependencies.
type Server struct {
	normalizer *normalize.Normalizer
	composer   Composer
	cfg        Config
	logger     *slog.Logger
}

// NewServer constructs the Server and wires the chi router. The returned
// http.Handler is ready to pass to http.Serve.
func NewServer(
	normalizer *normalize.Normalizer,
	composer Composer,
	cfg Config,
	logger *slog.Logger,
) http.Handler {
	s := &Server{
		normalizer: normalizer,
		composer:   composer,
		cfg:        cfg,
		logger:     logger,
	}

	return s.routes()
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	// ── Global middleware ─────────────────────────────────────────────────────
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggerMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(s.corsMiddleware)
	r.Use(middleware.Timeout(180 * time.Second))

	// ── Health ────────────────────────────────────────────────────────────────
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// ── API v1 ────────────────────────────────────────────────────────────────
	r.Route("/api", func(r chi.Router) {
		r.Post("/compose", s.handleCompose)
	})

	return r
}
