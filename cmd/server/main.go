// Copyright (c) 2026 OrenGen
// Licensed under MIT — See LICENSE for terms.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/orengenio/OrenGen-2nd-Edition-sub003/internal/assets"
	"github.com/orengenio/OrenGen-2nd-Edition-sub003/internal/config"
	"github.com/orengenio/OrenGen-2nd-Edition-sub003/internal/diagnostic"
	"github.com/orengenio/OrenGen-2nd-Edition-sub003/internal/dnsclient"
	"github.com/orengenio/OrenGen-2nd-Edition-sub003/internal/generator"
	"github.com/orengenio/OrenGen-2nd-Edition-sub003/internal/handlers"
	"github.com/orengenio/OrenGen-2nd-Edition-sub003/internal/middleware"
	"github.com/orengenio/OrenGen-2nd-Edition-sub003/internal/store"
	"github.com/orengenio/OrenGen-2nd-Edition-sub003/internal/telemetry"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	})))
	dnsclient.SetUserAgentVersion(cfg.AppVersion)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := telemetry.NewMetrics(reg)

	cache, closeCache, err := openCache(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeCache()

	resolver, multi, err := dnsclient.NewStack(dnsclient.StackConfig{
		DoHEndpoint:     cfg.DoHEndpoint,
		UDPServers:      cfg.UDPResolvers,
		UpstreamTimeout: cfg.LookupTimeout,
		Cache:           cache,
		MaxCacheTTL:     cfg.CacheTTL,
		Health:          telemetry.NewRegistry(),
		Metrics:         metrics,
	})
	if err != nil {
		return fmt.Errorf("resolver stack: %w", err)
	}

	chain := diagnostic.NewChain(resolver,
		diagnostic.WithLookupTimeout(cfg.LookupTimeout),
		diagnostic.WithRetries(cfg.LookupRetries),
		diagnostic.WithMetrics(metrics),
	)
	validator := assets.NewValidator(assets.WithValidatorMetrics(metrics))

	var (
		reports     handlers.ReportStore
		validations handlers.ValidationStore
		pinger      handlers.Pinger
	)
	if cfg.DatabaseURL != "" {
		db, err := store.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.Migrate(ctx); err != nil {
			return err
		}
		reports, validations, pinger = db, db, db
	} else {
		slog.Warn("DATABASE_URL not set, report history disabled")
	}

	var gen *generator.Service
	if cfg.GenerationEnabled() {
		gateway, err := generator.NewOpenAIGateway(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel)
		if err != nil {
			return err
		}
		gen = generator.NewService(gateway, validator, metrics)
		slog.Info("Asset generation enabled", "model", cfg.OpenAIModel)
	} else {
		slog.Info("OPENAI_API_KEY not set, asset generation disabled")
	}

	rateLimiter := middleware.NewInMemoryRateLimiter(cfg.RateLimitMaxRequests)
	defer rateLimiter.Close()
	slog.Info("Rate limiter initialized", "backend", "in-memory", "max_requests", cfg.RateLimitMaxRequests, "window_seconds", int(middleware.RateLimitWindow.Seconds()))

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/api/diagnose/stream"})))
	router.Use(middleware.RequestContext())
	router.Use(middleware.SecurityHeaders())

	diagnose := handlers.NewDiagnoseHandler(chain, reports, cfg.BatchMaxDomains, cfg.BatchConcurrency)
	handlers.Register(router, handlers.Routes{
		Diagnose: diagnose,
		Stream:   handlers.NewStreamHandler(diagnose, nil),
		Assets:   handlers.NewAssetsHandler(validator, gen, validations),
		Health:   handlers.NewHealthHandler(pinger, multi.Health(), cfg.AppVersion),
		Limiter:  rateLimiter,
		Metrics:  promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf("0.0.0.0:%s", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting BIMI compliance server", "address", srv.Addr, "version", cfg.AppVersion)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// openCache returns the shared Redis cache when REDIS_URL is set and an
// in-process LRU otherwise.
func openCache(ctx context.Context, cfg *config.Config) (dnsclient.Cache, func(), error) {
	if cfg.RedisURL == "" {
		return dnsclient.NewLRUCache(cfg.CacheSize, cfg.CacheTTL), func() {}, nil
	}
	client, err := dnsclient.DialRedis(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("redis: %w", err)
	}
	return dnsclient.NewRedisCache(client, ""), func() { _ = client.Close() }, nil
}
