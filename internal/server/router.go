package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"auction-bidding/internal/metrics"
	"auction-bidding/internal/validation"
	"auction-bidding/services/auction/handler"
	"auction-bidding/utils"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Options configures the HTTP surface
type Options struct {
	// Location is the zone request times are parsed in
	Location *time.Location
	Metrics  *metrics.Metrics
	// Gatherer backs GET /metrics; the route is not registered when nil
	Gatherer prometheus.Gatherer
	// RequestsPerSecond <= 0 disables rate limiting
	RequestsPerSecond float64
	Burst             int
	// HealthChecks are probed by GET /health; any failure answers 503
	HealthChecks map[string]HealthCheck
}

// HealthCheck reports whether a dependency is reachable
type HealthCheck func(ctx context.Context) error

// SetupRouter configures all Gin routes for the application
func SetupRouter(auctionService handler.AuctionServiceInterface, opts Options) (*gin.Engine, error) {
	if err := registerBindings(); err != nil {
		return nil, err
	}

	router := gin.New() // New router without default middleware for full control over middleware and logging

	router.Use(gin.Recovery())          // recover from panics
	router.Use(RequestLoggerMiddleware) // custom request logging
	if opts.Metrics != nil {
		router.Use(MetricsMiddleware(opts.Metrics))
	}

	router.GET("/health", healthHandler(opts.HealthChecks))
	if opts.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}

	auctionHandler := handler.NewAuctionHandler(auctionService, opts.Location)

	auctions := router.Group("/auction")
	if opts.RequestsPerSecond > 0 {
		auctions.Use(RateLimitMiddleware(NewClientRateLimiter(opts.RequestsPerSecond, opts.Burst)))
	}
	{
		auctions.POST("", auctionHandler.CreateAuctionHandler)
		auctions.GET("", auctionHandler.ListAuctionsHandler)
		auctions.GET("/:id", auctionHandler.GetAuctionHandler)
		auctions.POST("/:id/bid", auctionHandler.PlaceBidHandler)
	}

	return router, nil
}

// healthTimeout bounds each dependency probe
const healthTimeout = 2 * time.Second

func healthHandler(checks map[string]HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := gin.H{"status": "ok"}
		healthy := true
		for name, check := range checks {
			ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
			err := check(ctx)
			cancel()
			if err != nil {
				healthy = false
				status[name] = "unavailable"
				utils.Warn("health check failed", map[string]any{"dependency": name, "error": err.Error()})
				continue
			}
			status[name] = "ok"
		}

		if !healthy {
			status["status"] = "degraded"
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"statusCode": http.StatusServiceUnavailable,
				"data":       status,
				"message":    "Service is unhealthy",
				"error":      http.StatusText(http.StatusServiceUnavailable),
			})
			return
		}
		utils.JSONResponse(c, http.StatusOK, status, "Service is healthy")
	}
}

var (
	bindingsOnce sync.Once
	bindingsErr  error
)

// registerBindings adds the custom validation tags to gin's validator, once per process
func registerBindings() error {
	bindingsOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			bindingsErr = fmt.Errorf("server: unexpected validator engine %T", binding.Validator.Engine())
			return
		}
		if err := validation.RegisterBindings(v); err != nil {
			bindingsErr = fmt.Errorf("server: register validation bindings: %w", err)
		}
	})
	return bindingsErr
}
