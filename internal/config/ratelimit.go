package config

import (
	"os"
	"time"
)

// RateLimitConfig configures the Redis token-bucket limiter.  Capacity
// tokens are available up front and RefillTokens trickle back in over each
// RefillInterval.  Which requests share a bucket is decided where the
// limiter is mounted.
type RateLimitConfig struct {
	Enabled        bool
	Capacity       int
	RefillTokens   int
	RefillInterval time.Duration
	TTL            time.Duration
	Prefix         string

	// AuthCapacity is the bucket size for the unauthenticated register and
	// login endpoints, which are keyed by IP only.
	AuthCapacity int
}

// LoadRateLimitConfig reads RATE_LIMIT_* variables.  Malformed values fall
// back to their defaults.
func LoadRateLimitConfig() RateLimitConfig {
	return parseRateLimit(os.LookupEnv)
}

func parseRateLimit(lookup func(string) (string, bool)) RateLimitConfig {
	e := &env{lookup: lookup}
	cfg := RateLimitConfig{
		Enabled:        e.flag("RATE_LIMIT_ENABLED", true),
		Capacity:       e.num("RATE_LIMIT_CAPACITY", 60),
		RefillTokens:   e.num("RATE_LIMIT_REFILL_TOKENS", 1),
		RefillInterval: e.dur("RATE_LIMIT_REFILL_INTERVAL", time.Second),
		TTL:            e.dur("RATE_LIMIT_TTL", 10*time.Minute),
		Prefix:         e.str("RATE_LIMIT_PREFIX", "rl"),
		AuthCapacity:   e.num("RATE_LIMIT_AUTH_CAPACITY", 10),
	}
	if every := e.dur("RATE_LIMIT_REFILL_EVERY", 0); every > 0 {
		cfg.RefillTokens = 1
		cfg.RefillInterval = every
	}
	if cfg.Capacity < 1 {
		cfg.Capacity = 1
	}
	if cfg.AuthCapacity < 1 {
		cfg.AuthCapacity = 1
	}
	if cfg.RefillTokens < 1 {
		cfg.RefillTokens = 1
	}
	if cfg.RefillInterval < time.Millisecond {
		cfg.RefillInterval = time.Second
	}
	// Keep idle buckets around long enough to refill completely.
	if minTTL := 5 * cfg.RefillInterval; cfg.TTL < minTTL {
		cfg.TTL = minTTL
	}
	return cfg
}

// ForAuth returns a copy sized for the public auth endpoints.
func (c RateLimitConfig) ForAuth() RateLimitConfig {
	c.Capacity = c.AuthCapacity
	return c
}

// RefillPerMilli is the refill rate in tokens per millisecond.
func (c RateLimitConfig) RefillPerMilli() float64 {
	return float64(c.RefillTokens) / float64(c.RefillInterval.Milliseconds())
}
