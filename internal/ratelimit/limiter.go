package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bluecrumb/recipecost/internal/config"
	redis "github.com/redis/go-redis/v9"
)

const keyEndpoint = "ratelimit:%s:%s"

// EndpointLimiter budgets expensive endpoints per client. A nil limiter
// (rate limiting disabled) allows everything.
type EndpointLimiter struct {
	enabled bool
	bucket  *TokenBucket
	rate    float64
	burst   int
}

func NewEndpointLimiter(cfg config.Config) (*EndpointLimiter, error) {
	if !cfg.RateLimitEnabled {
		return nil, nil
	}

	addr := strings.TrimSpace(cfg.RedisAddr)
	if addr == "" {
		return nil, errors.New("rate limit redis addr is required")
	}
	if cfg.RateLimitRate <= 0 || cfg.RateLimitBurst <= 0 {
		return nil, errors.New("rate limit rate and burst must be positive")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(cfg.RedisPassword),
		DB:       cfg.RedisDB,
	})

	return &EndpointLimiter{
		enabled: true,
		bucket:  NewTokenBucket(client),
		rate:    cfg.RateLimitRate,
		burst:   cfg.RateLimitBurst,
	}, nil
}

func (l *EndpointLimiter) Enabled() bool {
	return l != nil && l.enabled
}

// Allow consumes one token from the endpoint/client bucket.
func (l *EndpointLimiter) Allow(ctx context.Context, endpoint, clientKey string) (*Result, error) {
	if !l.Enabled() {
		return &Result{Allowed: true}, nil
	}
	key := fmt.Sprintf(keyEndpoint, strings.TrimSpace(endpoint), strings.TrimSpace(clientKey))
	return l.bucket.Allow(ctx, key, l.rate, l.burst)
}
