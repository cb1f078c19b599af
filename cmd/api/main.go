package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/soheilhy/cmux"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/tactful-app/tactful-backend/internal/ai"
	"github.com/tactful-app/tactful-backend/internal/api"
	"github.com/tactful-app/tactful-backend/internal/config"
	"github.com/tactful-app/tactful-backend/internal/normalize"
	"github.com/tactful-app/tactful-backend/internal/pipeline"
	"github.com/tactful-app/tactful-backend/internal/prompt"
	"github.com/tactful-app/tactful-backend/internal/templates"
)

func main() {
	// ── Logger ────────────────────────────────────────────────────────────────
	// JSON in production, pretty text in development.
	var logger *slog.Logger
	if os.Getenv("ENV") == "production" {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	} else {
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	}
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	// ── Config ────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger.Info("config loaded", "env", cfg.Env, "port", cfg.Port)

	// ── Template store ────────────────────────────────────────────────────────
	store := templates.NewCache(
		templates.NewHTTPStore(cfg.TemplateBaseURL, cfg.TemplateSource, cfg.TemplateVersion),
		cfg.TemplateSource,
		cfg.TemplateVersion,
		cfg.TemplateTTL,
		cfg.TemplateCacheMax,
	)

	// ── Generator ─────────────────────────────────────────────────────────────
	// DeepSeek is primary when both keys are present, Anthropic the fallback.
	// The retry wrapper sits outermost: one retry for transient failures, a
	// per-call deadline, and distinct timeout reporting.
	var gen ai.Generator
	switch {
	case cfg.DeepSeekAPIKey != "" && cfg.AnthropicAPIKey != "":
		primary := ai.NewDeepSeekClient(cfg.DeepSeekAPIKey, cfg.DeepSeekModel, cfg.DeepSeekStrongModel)
		secondary := ai.NewAnthropicClient(cfg.AnthropicAPIKey, cfg.AnthropicModel, cfg.AnthropicStrongModel)
		gen = ai.NewFallbackGenerator(primary, secondary, logger)
		logger.Info("ai: using DeepSeek with Anthropic fallback")
	case cfg.DeepSeekAPIKey != "":
		gen = ai.NewDeepSeekClient(cfg.DeepSeekAPIKey, cfg.DeepSeekModel, cfg.DeepSeekStrongModel)
		logger.Info("ai: using DeepSeek only")
	default:
		gen = ai.NewAnthropicClient(cfg.AnthropicAPIKey, cfg.AnthropicModel, cfg.AnthropicStrongModel)
		logger.Info("ai: using Anthropic only")
	}
	gen = ai.NewRetryGenerator(gen, cfg.CallTimeout, logger)

	// ── Pipeline ──────────────────────────────────────────────────────────────
	composer := prompt.NewComposer(store, logger)
	pl := pipeline.New(gen, composer, logger)

	// ── HTTP server ───────────────────────────────────────────────────────────
	handler := api.NewServer(
		normalize.New(cfg.MinFactsLength),
		pl,
		api.Config{Env: cfg.Env},
		logger,
	)

	srv := &http.Server{
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 180 * time.Second, // generation can be slow under retry + repair
		IdleTimeout:  120 * time.Second,
	}

	// ── Shared listener ───────────────────────────────────────────────────────
	// cmux splits one port between the gRPC health service (for deploy
	// probes) and the HTTP API.
	ln, err := net.Listen("tcp", ":"+cfg.Port)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	mux := cmux.New(ln)
	grpcL := mux.MatchWithWriters(cmux.HTTP2MatchHeaderFieldSendSettings("content-type", "application/grpc"))
	httpL := mux.Match(cmux.Any())

	grpcSrv := grpc.NewServer()
	healthSrv := health.NewServer()
	healthSrv.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	grpc_health_v1.RegisterHealthServer(grpcSrv, healthSrv)

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		if err := grpcSrv.Serve(grpcL); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			serverErr <- fmt.Errorf("grpc serve: %w", err)
		}
	}()
	go func() {
		if err := srv.Serve(httpL); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- fmt.Errorf("http serve: %w", err)
		}
	}()
	go func() {
		logger.Info("server listening", "addr", ln.Addr().String())
		if err := mux.Serve(); err != nil && !errors.Is(err, net.ErrClosed) {
			serverErr <- fmt.Errorf("cmux serve: %w", err)
		}
	}()

	// Block until either a signal arrives or a server dies unexpectedly.
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		return err
	}

	// Give in-flight requests up to 20 seconds to finish.
	healthSrv.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	grpcSrv.GracefulStop()
	mux.Close()

	logger.Info("shutdown complete")
	return nil
}
