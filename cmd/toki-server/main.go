// Command toki-server runs the HTTP calendar service: day and range
// endpoints backed by the lunisolar engine, with an optional Redis cache in
// front of the assembler.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hsato/toki/astronomy"
	"github.com/hsato/toki/astronomy/ephemeris"
	"github.com/hsato/toki/cache"
	"github.com/hsato/toki/config"
	"github.com/hsato/toki/httpapi"
	"github.com/hsato/toki/log"
	"github.com/hsato/toki/observability"
	"github.com/hsato/toki/record"
)

func main() {
	addr := flag.String("addr", "", "HTTP listen address, defaults to TOKI_HTTP_ADDR or :8080")
	collectorAddr := flag.String("otlp-collector", "", "OTLP gRPC collector address; empty exports spans to stdout")
	ephemerisPath := flag.String("ephemeris-path", "", "path to an SPK kernel file, overrides TOKI_EPHEMERIS_PATH")
	flag.Parse()

	logger := log.Logger()

	observer, err := observability.NewObserver(*collectorAddr)
	if err != nil {
		logger.Error("failed to initialize observer", "error", err)
		os.Exit(1)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := observer.Shutdown(ctx); err != nil {
			logger.Error("observer shutdown failed", "error", err)
		}
	}()

	ctx := context.Background()
	cfg, err := config.Load(ctx, config.Options{EphemerisPath: *ephemerisPath})
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.HTTPAddr = *addr
	}

	fallback := astronomy.NewAnalyticProvider()

	var primary astronomy.Provider = fallback
	ephemerisLabel := "analytic"
	if spk, err := astronomy.NewSPKProvider(cfg.EphemerisPath); err != nil {
		logger.Info("SPK ephemeris unavailable, serving from the analytic provider only", "path", cfg.EphemerisPath, "error", err)
	} else {
		primary = spk
		ephemerisLabel = cfg.EphemerisPath
		logger.Info("SPK ephemeris loaded", "path", cfg.EphemerisPath)
	}

	manager := ephemeris.NewManager(primary, fallback, ephemeris.NewMemoryCache(1024, time.Hour))
	defer func() {
		if err := manager.Close(); err != nil {
			logger.Error("ephemeris manager close failed", "error", err)
		}
	}()

	assembler := record.NewAssembler(manager, ephemerisLabel, cfg.DefaultLatitude, cfg.DefaultLongitude)

	var redisCache *cache.RedisCache
	if cfg.RedisAddr != "" {
		redisCache, err = cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, 24*time.Hour)
		if err != nil {
			logger.Error("failed to connect to Redis, continuing without a response cache", "error", err, "addr", cfg.RedisAddr)
			redisCache = nil
		} else {
			defer redisCache.Close()
		}
	}

	server := httpapi.NewServer(cfg.HTTPAddr, assembler, manager, redisCache, ephemerisLabel)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start(ctx)
	}()

	logger.Info("toki-server started", "addr", cfg.HTTPAddr, "ephemeris", ephemerisLabel)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		if err != nil {
			logger.Error("HTTP server failed", "error", err)
			os.Exit(1)
		}
	case sig := <-sigChan:
		logger.Info("shutdown signal received", "signal", sig.String())

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		stopped := make(chan struct{})
		go func() {
			if err := server.Stop(shutdownCtx); err != nil {
				logger.Error("graceful shutdown failed", "error", err)
			}
			close(stopped)
		}()

		select {
		case <-stopped:
			logger.Info("HTTP server stopped cleanly")
		case <-shutdownCtx.Done():
			logger.Error("graceful shutdown timed out, forcing exit")
			fmt.Fprintln(os.Stderr, "toki-server: shutdown timed out")
			os.Exit(1)
		}
	}
}
