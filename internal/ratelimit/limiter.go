// Package ratelimit implements a Redis-backed token bucket. Redis failures are
// tolerated: the limiter fails open and a circuit breaker stops hammering an
// unavailable Redis.
package ratelimit

import (
	"context"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

// KEYS[1] bucket key; ARGV capacity, refill rate per second, now in ms, cost.
var tokenBucketScript = redis.NewScript(`
	local key = KEYS[1]
	local capacity = tonumber(ARGV[1])
	local rate = tonumber(ARGV[2])
	local now = tonumber(ARGV[3])
	local requested = tonumber(ARGV[4])

	local info = redis.call("HMGET", key, "tokens", "last_refill")
	local tokens = tonumber(info[1])
	local last_refill = tonumber(info[2])

	if tokens == nil then
		tokens = capacity
		last_refill = now
	end

	local delta = math.max(0, now - last_refill)
	local filled_tokens = math.min(capacity, tokens + (delta / 1000 * rate))

	local allowed = 0
	if filled_tokens >= requested then
		filled_tokens = filled_tokens - requested
		allowed = 1
	end
	redis.call("HMSET", key, "tokens", filled_tokens, "last_refill", now)
	redis.call("EXPIRE", key, math.ceil(capacity / rate) * 2)

	return allowed
`)

// Options tunes the bucket.
type Options struct {
	Capacity   int
	RatePerSec float64
	Prefix     string
	Timeout    time.Duration
	Logger     *logrus.Logger
}

// Limiter throttles callers identified by a key.
type Limiter struct {
	client   redis.Scripter
	cb       *gobreaker.CircuitBreaker
	log      *logrus.Logger
	capacity int
	rate     float64
	prefix   string
	timeout  time.Duration
	now      func() time.Time
}

// New builds a limiter over client. Non-positive options fall back to a
// bucket of 10 tokens refilled at one token per second.
func New(client redis.Scripter, opts Options) *Limiter {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if opts.Capacity <= 0 {
		opts.Capacity = 10
	}
	if opts.RatePerSec <= 0 {
		opts.RatePerSec = 1
	}
	if opts.Prefix == "" {
		opts.Prefix = "ratelimit"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 200 * time.Millisecond
	}

	st := gobreaker.Settings{
		Name:        "RedisRateLimiter",
		MaxRequests: 1,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warnf("ratelimit: circuit breaker %s changed from %s to %s", name, from, to)
		},
	}

	return &Limiter{
		client:   client,
		cb:       gobreaker.NewCircuitBreaker(st),
		log:      logger,
		capacity: opts.Capacity,
		rate:     opts.RatePerSec,
		prefix:   opts.Prefix,
		timeout:  opts.Timeout,
		now:      time.Now,
	}
}

// Allow consumes one token for key. It returns true when Redis is
// unreachable or the breaker is open.
func (l *Limiter) Allow(ctx context.Context, key string) bool {
	if l == nil {
		return true
	}
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	res, err := l.cb.Execute(func() (interface{}, error) {
		return tokenBucketScript.Run(ctx, l.client, []string{l.Key(key)},
			l.capacity, l.rate, l.now().UnixMilli(), 1).Int()
	})
	if err != nil {
		l.log.WithError(err).WithField("key", key).Warn("ratelimit: check failed, allowing request")
		return true
	}
	allowed, _ := res.(int)
	return allowed == 1
}

// Key returns the Redis key for a caller key.
func (l *Limiter) Key(key string) string {
	return l.prefix + ":" + key
}

// State exposes the breaker state for health reporting.
func (l *Limiter) State() gobreaker.State {
	return l.cb.State()
}
