package middleware

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/docmanager/internal/config"
	"github.com/iliyamo/docmanager/internal/logging"
)

// Scope decides which requests share a bucket.
type Scope int

const (
	// PerCaller gives every authenticated user one bucket across all
	// routes.  Requests without a user fall back to the client IP.
	PerCaller Scope = iota
	// PerClientRoute gives every client IP one bucket per route.  It is
	// meant for public endpoints such as login.
	PerClientRoute
)

// bucketScript refills continuously and tries to take one token.
// ARGV: now_ms, capacity, tokens_per_ms, ttl_s.
// Returns {allowed (0|1), whole tokens left, wait_ms}.
var bucketScript = redis.NewScript(`
local now, capacity, rate, ttl = tonumber(ARGV[1]), tonumber(ARGV[2]), tonumber(ARGV[3]), tonumber(ARGV[4])
local b = redis.call('HMGET', KEYS[1], 'tokens', 'at')
local tokens = tonumber(b[1]) or capacity
local at = tonumber(b[2]) or now
tokens = math.min(capacity, tokens + math.max(0, now - at) * rate)

local allowed, wait = 0, 0
if tokens >= 1 then
	allowed = 1
	tokens = tokens - 1
else
	wait = math.ceil((1 - tokens) / rate)
end

redis.call('HSET', KEYS[1], 'tokens', tokens, 'at', now)
redis.call('EXPIRE', KEYS[1], ttl)
return {allowed, math.floor(tokens), wait}
`)

// NewTokenBucket returns a Redis-backed rate limiter whose buckets are
// keyed by scope.  With rate limiting disabled or no Redis available it
// passes every request through.  Redis errors fail open.
func NewTokenBucket(cfg config.RateLimitConfig, scope Scope, rdb redis.Scripter, log logging.Logger) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	if log == nil {
		log = logging.Nop()
	}
	limit := strconv.Itoa(cfg.Capacity)
	rate := cfg.RefillPerMilli()
	ttl := int64(math.Ceil(cfg.TTL.Seconds()))

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := bucketKey(cfg.Prefix, scope, c)
			ctx := c.Request().Context()

			res, err := bucketScript.Run(ctx, rdb, []string{key},
				time.Now().UnixMilli(), cfg.Capacity, rate, ttl).Int64Slice()
			if err != nil || len(res) != 3 {
				log.Warn(ctx, "ratelimit: bucket unavailable, letting request through", "key", key, "err", err)
				return next(c)
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", limit)
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(res[1], 10))
			if res[0] == 1 {
				return next(c)
			}

			wait := int(math.Ceil(float64(res[2]) / 1000))
			h.Set("Retry-After", strconv.Itoa(wait))
			return c.JSON(http.StatusTooManyRequests, echo.Map{
				"message":    "Too many requests",
				"retryAfter": wait,
			})
		}
	}
}

// bucketKey names the bucket a request draws from, e.g.
// "rl:caller:<user id>", "rl:client:<ip>" or "rl:route:POST /api/auth/login:<ip>".
func bucketKey(prefix string, scope Scope, c echo.Context) string {
	ip := c.RealIP()
	if scope == PerClientRoute {
		return prefix + ":route:" + c.Request().Method + " " + c.Path() + ":" + ip
	}
	if u, ok := CurrentUser(c); ok && u.ID != "" {
		return prefix + ":caller:" + u.ID
	}
	return prefix + ":client:" + ip
}
