package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kinotech/filmdex/internal/cache"
	"github.com/kinotech/filmdex/internal/config"
	dbRedis "github.com/kinotech/filmdex/internal/db/redis"
	logpkg "github.com/kinotech/filmdex/internal/logger"
	"github.com/kinotech/filmdex/internal/metrics"
	filmrepo "github.com/kinotech/filmdex/internal/repository/film"
	chiTransport "github.com/kinotech/filmdex/internal/transport/chi"
	filmuc "github.com/kinotech/filmdex/internal/usecase/film"
	personuc "github.com/kinotech/filmdex/internal/usecase/person"
	"github.com/kinotech/filmdex/internal/usecase/warmup"
	"github.com/kinotech/filmdex/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting filmdex API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("store_addrs", cfg.Store.Addrs),
		zap.Strings("cache_addrs", cfg.Cache.Addrs),
	)

	// Film document store
	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Store.Addrs,
		Username: cfg.Store.Username,
		Password: cfg.Store.Password,
		DB:       cfg.Store.DB,
	})
	if err != nil {
		logger.Fatal("Failed to create document store", zap.Error(err))
	}
	defer store.Close()

	// Cache tier. A separate client even when it shares the store's
	// address: cache outages must not take down document reads.
	cacheStore, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Cache.Addrs,
		Username: cfg.Cache.Username,
		Password: cfg.Cache.Password,
		DB:       cfg.Cache.DB,
	})
	if err != nil {
		logger.Fatal("Failed to create cache store", zap.Error(err))
	}
	defer cacheStore.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Store.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Document store not ready", zap.Error(err))
	}
	if err := cacheStore.WaitForReady(ctx, time.Duration(cfg.Cache.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Cache store not ready", zap.Error(err))
	}
	logger.Info("Connected to stores")

	cacheTTL := time.Duration(cfg.Cache.TTLSec) * time.Second

	// Repositories
	repo := filmrepo.New(store, logger).
		WithScan(cfg.Warmup.ScanBatchSize, time.Duration(cfg.Warmup.ScanBatchTTLSec)*time.Second)

	// Use case services
	readCache := cache.New(cacheStore, metrics.CacheTotal, logger)
	filmSvc := filmuc.New(repo, readCache).
		WithTTL(cacheTTL).
		WithListing(cfg.Listing.DefaultSize, cfg.Listing.MaxSize)
	personSvc := personuc.New(repo, readCache).WithTTL(cacheTTL)

	// Derived-index warmup runs detached; readers never wait for it.
	builder := warmup.New(repo, cacheStore, logger)
	if cfg.Warmup.Disabled {
		logger.Info("Warmup disabled by config")
	} else {
		go builder.Run(ctx)
	}

	server := chiTransport.NewServer(filmSvc, personSvc, store, builder, logger).
		WithAPIKeys(cfg.Auth.APIKeys)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      server.Router(),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}
