package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	_ "github.com/benchwise/toolrec/internal/adapter/generative"
	_ "github.com/benchwise/toolrec/internal/adapter/graph"
	_ "github.com/benchwise/toolrec/internal/adapter/vector"

	trhttp "github.com/benchwise/toolrec/internal/adapter/http"
	"github.com/benchwise/toolrec/internal/adapter/otel"
	"github.com/benchwise/toolrec/internal/adapter/ristretto"
	"github.com/benchwise/toolrec/internal/config"
	"github.com/benchwise/toolrec/internal/logger"
	"github.com/benchwise/toolrec/internal/middleware"
	"github.com/benchwise/toolrec/internal/port/source"
	"github.com/benchwise/toolrec/internal/service"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	slog.SetDefault(logger.New(cfg.Logging.Level, cfg.Logging.Service))
	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"sources", len(cfg.Fusion.ScoringWeights),
	)

	ctx := context.Background()

	// --- Infrastructure ---

	store, err := ristretto.New(cfg.Cache.MaxSizeMB << 20)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	defer store.Close()

	if cfg.OTel.Enabled {
		shutdown, err := otel.InitMetrics(ctx, cfg.OTel.Endpoint, cfg.Logging.Service)
		if err != nil {
			return fmt.Errorf("otel: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdown(shutdownCtx)
		}()
	}

	// --- Sources ---

	// Every weighted component gets an adapter; registration order is the
	// sorted component name so fan-out output order is stable.
	names := make([]string, 0, len(cfg.Fusion.ScoringWeights))
	for name := range cfg.Fusion.ScoringWeights {
		names = append(names, name)
	}
	sort.Strings(names)

	adapters := make([]source.Adapter, 0, len(names))
	for _, name := range names {
		a, err := source.New(name, cfg)
		if err != nil {
			return fmt.Errorf("source %q: %w", name, err)
		}
		adapters = append(adapters, a)
	}
	slog.Info("sources registered", "available", source.Available())

	// --- Services ---

	engine := service.NewEngineService(adapters, cfg.Fusion.AdapterTimeout, cfg.Fusion.MaxParallelFetches)
	merger := service.NewMergerService(cfg.Fusion)
	respCache := service.NewResponseCache(store, cfg.Cache.TTL, cfg.Cache.IncludeTopK)
	pipeline := service.NewPipelineService(engine, merger, respCache, cfg.Fusion.MaxRecommendations)

	if cfg.OTel.Enabled {
		metrics, err := otel.NewMetrics()
		if err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
		pipeline.SetMetrics(metrics)
	}

	// --- HTTP ---

	handlers := &trhttp.Handlers{
		Pipeline: pipeline,
		Sources:  adapters,
	}

	limiter := middleware.NewRateLimiter(50, 100)
	stopCleanup := limiter.StartCleanup(time.Minute, 10*time.Minute)
	defer stopCleanup()

	r := chi.NewRouter()
	r.Use(trhttp.CORS(cfg.Server.CORSOrigin))
	r.Use(middleware.RequestID)
	r.Use(trhttp.Logger)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(limiter.Handler)
	if cfg.OTel.Enabled {
		r.Use(otel.HTTPMiddleware(cfg.Logging.Service))
	}

	trhttp.MountRoutes(r, handlers)

	addr := ":" + cfg.Server.Port

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
		}
	}()

	<-done
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
