package ratelimit

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"github.com/dalfonso89/forex-rates/internal/config"
	"github.com/dalfonso89/forex-rates/internal/logger"
)

// Limiter limits inbound requests per client IP
type Limiter struct {
	Configuration *config.Config
	logger        *logger.Logger
	limiter       *limiter.Limiter
}

// NewLimiter creates a limiter backed by an in-memory store
func NewLimiter(configuration *config.Config, logger *logger.Logger) *Limiter {
	rate := limiter.Rate{
		Period: configuration.RateLimitWindow,
		Limit:  configuration.RateLimitRequests,
	}
	store := memory.NewStoreWithOptions(limiter.StoreOptions{
		Prefix:          "forex-rates",
		CleanUpInterval: 5 * time.Minute,
	})

	return &Limiter{
		Configuration: configuration,
		logger:        logger,
		limiter:       limiter.New(store, rate),
	}
}

// Allow consumes one request for key and reports whether it may proceed
func (rateLimiter *Limiter) Allow(ctx context.Context, key string) (limiter.Context, bool, error) {
	if !rateLimiter.Configuration.RateLimitEnabled {
		return limiter.Context{}, true, nil
	}

	limitContext, err := rateLimiter.limiter.Get(ctx, key)
	if err != nil {
		return limiter.Context{}, false, err
	}
	return limitContext, !limitContext.Reached, nil
}

// Middleware rejects clients over their budget with 429
func (rateLimiter *Limiter) Middleware() gin.HandlerFunc {
	return func(context *gin.Context) {
		clientIP := context.ClientIP()

		limitContext, allowed, err := rateLimiter.Allow(context.Request.Context(), clientIP)
		if err != nil {
			rateLimiter.logger.Errorf("Failed to check rate limit for IP %s: %v", clientIP, err)
			context.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error during rate limit check"})
			return
		}

		if rateLimiter.Configuration.RateLimitEnabled {
			context.Header("X-RateLimit-Limit", strconv.FormatInt(limitContext.Limit, 10))
			context.Header("X-RateLimit-Remaining", strconv.FormatInt(limitContext.Remaining, 10))
			context.Header("X-RateLimit-Reset", strconv.FormatInt(limitContext.Reset, 10))
		}

		if !allowed {
			rateLimiter.logger.Warnf("Rate limit exceeded for IP: %s", clientIP)
			context.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
			return
		}

		context.Next()
	}
}
