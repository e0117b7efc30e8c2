package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type LimitType string

const (
	LimitTypeDefault LimitType = "default"
	// LimitTypeRedeem guards QR redemption, where a high rate means token guessing.
	LimitTypeRedeem LimitType = "redeem"
)

type Config struct {
	Enabled      bool
	Window       time.Duration
	DefaultLimit int
	RedeemLimit  int
	KeyPrefix    string
}

// Result represents rate limit check result
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetTime int64
}

// slidingWindow trims the window, counts, and records the hit atomically.
var slidingWindow = redis.NewScript(`
	local key = KEYS[1]
	local window_start = tonumber(ARGV[1])
	local now = tonumber(ARGV[2])
	local limit = tonumber(ARGV[3])
	local window_ms = tonumber(ARGV[4])
	local member = ARGV[5]

	redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)

	local current = redis.call('ZCARD', key)
	if current >= limit then
		redis.call('PEXPIRE', key, window_ms)
		return {current + 1, 0}
	end

	redis.call('ZADD', key, now, member)
	redis.call('PEXPIRE', key, window_ms)
	return {current + 1, limit - current - 1}
`)

// RateLimiter is a Redis sorted-set sliding window shared by all replicas.
type RateLimiter struct {
	client redis.Scripter
	config Config
	now    func() time.Time
}

func NewRateLimiter(client redis.Scripter, config Config) *RateLimiter {
	if config.KeyPrefix == "" {
		config.KeyPrefix = "venue-booking:ratelimit"
	}
	return &RateLimiter{
		client: client,
		config: config,
		now:    time.Now,
	}
}

// IsAllowed records one hit for subject under limitType.
func (r *RateLimiter) IsAllowed(ctx context.Context, subject string, limitType LimitType) (*Result, error) {
	limit := r.limit(limitType)
	now := r.now()

	if !r.config.Enabled || limit <= 0 {
		return &Result{
			Allowed:   true,
			Limit:     limit,
			Remaining: limit,
			ResetTime: now.Add(r.config.Window).Unix(),
		}, nil
	}

	key := fmt.Sprintf("%s:%s:%s", r.config.KeyPrefix, limitType, subject)
	windowStart := now.Add(-r.config.Window)

	values, err := slidingWindow.Run(ctx, r.client, []string{key},
		windowStart.UnixMilli(),
		now.UnixMilli(),
		limit,
		r.config.Window.Milliseconds(),
		uuid.NewString(),
	).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("rate limit script: %w", err)
	}
	if len(values) != 2 {
		return nil, fmt.Errorf("unexpected rate limit reply of %d values", len(values))
	}

	return &Result{
		Allowed:   values[0] <= int64(limit),
		Limit:     limit,
		Remaining: int(values[1]),
		ResetTime: now.Add(r.config.Window).Unix(),
	}, nil
}

func (r *RateLimiter) limit(limitType LimitType) int {
	switch limitType {
	case LimitTypeRedeem:
		return r.config.RedeemLimit
	default:
		return r.config.DefaultLimit
	}
}
