package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	auction "auction-bidding/internal/auctionService"
	"auction-bidding/internal/cache"
	"auction-bidding/internal/config"
	"auction-bidding/internal/metrics"
	"auction-bidding/internal/repository"
	"auction-bidding/internal/server"
	"auction-bidding/utils"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	if err := config.LoadEnvFile(); err != nil {
		utils.Fatal("Failed to load env file", map[string]any{"error": err.Error()})
	}

	cfg, err := config.Load(os.Getenv("AUCTION_CONFIG_FILE"))
	if err != nil {
		utils.Fatal("Failed to load configuration", map[string]any{"error": err.Error()})
	}
	utils.ConfigureLogger(cfg.LogLevel, cfg.LogFormat)

	if err := run(cfg); err != nil {
		utils.Fatal("Server stopped with error", map[string]any{"error": err.Error()})
	}
}

func run(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	checks := map[string]server.HealthCheck{}

	repo, closeRepo, err := openStore(ctx, cfg, checks)
	if err != nil {
		return err
	}
	defer closeRepo()

	auctionCache, closeCache, err := openCache(ctx, cfg, checks)
	if err != nil {
		return err
	}
	defer closeCache()

	loc, err := utils.LoadLocation(cfg.Auction.Timezone)
	if err != nil {
		return fmt.Errorf("load timezone: %w", err)
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	auctionSvc := auction.NewAuctionService(repo, auctionCache, auction.Config{
		CacheTTL:          cfg.Cache.TTL(),
		ListCacheKey:      cfg.Cache.ListCacheKey,
		InvalidateOnWrite: cfg.Cache.InvalidateOnWrite,
		Location:          loc,
		MaxBidAttempts:    cfg.Auction.MaxBidAttempts,
		Metrics:           m,
	})

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router, err := server.SetupRouter(auctionSvc, server.Options{
		Location:          loc,
		Metrics:           m,
		Gatherer:          prometheus.DefaultGatherer,
		RequestsPerSecond: cfg.Server.RateLimit.RequestsPerSecond,
		Burst:             cfg.Server.RateLimit.Burst,
		HealthChecks:      checks,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		utils.Info("Starting auction server", map[string]any{
			"addr":  srv.Addr,
			"store": cfg.Store.Driver,
			"cache": cfg.Cache.Driver,
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("serve http: %w", err)
	case <-ctx.Done():
		utils.Info("Shutdown signal received", nil)
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	utils.Info("Shutdown complete", nil)
	return nil
}

// openStore returns the configured store and its release func, registering its health check
func openStore(ctx context.Context, cfg config.Config, checks map[string]server.HealthCheck) (repository.AuctionDB, func(), error) {
	if cfg.Store.Driver != config.DriverPostgres {
		return repository.NewMemoryRepo(), func() {}, nil
	}

	if cfg.Database.Migrate {
		if err := repository.Migrate(cfg.Database.URL); err != nil {
			return nil, nil, err
		}
		utils.Info("Database migrations applied", nil)
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	pool, err := repository.NewPostgresPool(connectCtx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		return nil, nil, err
	}
	checks["database"] = pool.Ping
	return repository.NewPostgresRepo(pool), pool.Close, nil
}

// openCache returns the configured cache and its release func, registering its health check
func openCache(ctx context.Context, cfg config.Config, checks map[string]server.HealthCheck) (cache.Cache, func(), error) {
	if cfg.Cache.Driver != config.DriverRedis {
		return cache.NewMemoryCache(nil), func() {}, nil
	}

	rc, err := cache.NewRedisCache(ctx, cache.RedisOptions{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return nil, nil, err
	}
	checks["cache"] = rc.Ping
	return rc, func() {
		if err := rc.Close(); err != nil {
			utils.Warn("Failed to close redis client", map[string]any{"error": err.Error()})
		}
	}, nil
}
