package ratelimit

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dietoteka/dietoteka-backend/internal/pkg/logger"
	"github.com/dietoteka/dietoteka-backend/internal/platform/envutil"
)

type Config struct {
	Enabled        bool
	Capacity       int
	RefillTokens   int
	RefillInterval time.Duration
	TTL            time.Duration
	Prefix         string
}

func ConfigFromEnv() Config {
	cfg := Config{
		Enabled:        envutil.Bool("RATE_LIMIT_ENABLED", true),
		Capacity:       envutil.Int("RATE_LIMIT_CAPACITY", 60),
		RefillTokens:   envutil.Int("RATE_LIMIT_REFILL_TOKENS", 1),
		RefillInterval: time.Duration(envutil.Int("RATE_LIMIT_REFILL_INTERVAL_MS", 1000)) * time.Millisecond,
		TTL:            time.Duration(envutil.Int("RATE_LIMIT_TTL_SECONDS", 600)) * time.Second,
		Prefix:         envutil.String("RATE_LIMIT_PREFIX", "rl"),
	}
	if cfg.Capacity < 1 {
		cfg.Capacity = 1
	}
	if cfg.RefillTokens < 1 {
		cfg.RefillTokens = 1
	}
	if cfg.RefillInterval <= 0 {
		cfg.RefillInterval = time.Second
	}
	if minTTL := 5 * cfg.RefillInterval; cfg.TTL < minTTL {
		cfg.TTL = minTTL
	}
	return cfg
}

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed    bool
	Remaining  int64
	RetryAfter time.Duration
}

// Limiter is a token bucket shared across instances through Redis.
// The refill and take run in a single Lua script so concurrent
// requests against the same key never double-spend a token.
type Limiter struct {
	log    *logger.Logger
	rdb    *redis.Client
	cfg    Config
	script *redis.Script
}

var tokenBucketScript = redis.NewScript(`
local key = KEYS[1]
local now_ms = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local refill_tokens = tonumber(ARGV[3])
local interval_ms = tonumber(ARGV[4])
local ttl_seconds = tonumber(ARGV[5])

local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
local tokens = tonumber(state[1])
local last_refill = tonumber(state[2])

if tokens == nil or last_refill == nil then
  tokens = capacity
  last_refill = now_ms
end

if interval_ms > 0 and refill_tokens > 0 then
  local elapsed = math.max(0, now_ms - last_refill)
  local intervals = math.floor(elapsed / interval_ms)
  if intervals > 0 then
    tokens = math.min(capacity, tokens + (intervals * refill_tokens))
    last_refill = last_refill + (intervals * interval_ms)
  end
end

local allowed = 0
local retry_after_ms = 0
if tokens > 0 then
  allowed = 1
  tokens = tokens - 1
else
  local until_next = interval_ms - (now_ms - last_refill)
  if until_next < 0 then until_next = 0 end
  retry_after_ms = until_next
end

redis.call('HMSET', key, 'tokens', tokens, 'last_refill_ms', last_refill)
redis.call('EXPIRE', key, ttl_seconds)

return { allowed, tokens, retry_after_ms }
`)

func NewLimiter(log *logger.Logger, rdb *redis.Client, cfg Config) *Limiter {
	return &Limiter{
		log:    log.With("service", "RateLimiter"),
		rdb:    rdb,
		cfg:    cfg,
		script: tokenBucketScript,
	}
}

func (l *Limiter) Capacity() int { return l.cfg.Capacity }

// Allow takes one token for key. Redis being down fails open: the
// request proceeds and the error is logged, not returned.
func (l *Limiter) Allow(ctx context.Context, key string) Decision {
	if l == nil || l.rdb == nil || !l.cfg.Enabled {
		return Decision{Allowed: true, Remaining: -1}
	}

	fullKey := l.cfg.Prefix + ":" + key
	args := []interface{}{
		time.Now().UnixMilli(),
		l.cfg.Capacity,
		l.cfg.RefillTokens,
		l.cfg.RefillInterval.Milliseconds(),
		int64(l.cfg.TTL / time.Second),
	}

	vals, err := l.script.Run(ctx, l.rdb, []string{fullKey}, args...).Result()
	if err != nil {
		l.log.Warn("Rate limiter redis error, failing open", "key", fullKey, "error", err)
		return Decision{Allowed: true, Remaining: -1}
	}

	arr, ok := vals.([]interface{})
	if !ok || len(arr) != 3 {
		l.log.Warn("Rate limiter unexpected script result", "key", fullKey)
		return Decision{Allowed: true, Remaining: -1}
	}

	return Decision{
		Allowed:    asInt64(arr[0]) == 1,
		Remaining:  asInt64(arr[1]),
		RetryAfter: time.Duration(asInt64(arr[2])) * time.Millisecond,
	}
}

func asInt64(v interface{}) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int:
		return int64(t)
	case float64:
		return int64(t)
	case string:
		if n, err := strconv.ParseInt(t, 10, 64); err == nil {
			return n
		}
	}
	return 0
}
