package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultMaxAttempts = 5
	defaultWindow      = 15 * time.Minute
)

// counterClient is the subset of *redis.Client used by AttemptLimiter.
type counterClient interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	ExpireNX(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// AttemptLimiter counts failed logins per identifier in fixed windows.
// Key format: login_attempts:<identifier>
type AttemptLimiter struct {
	client      counterClient
	maxAttempts int64
	window      time.Duration
}

// NewAttemptLimiter creates an AttemptLimiter. Non-positive values fall back
// to 5 attempts per 15 minutes.
func NewAttemptLimiter(client counterClient, maxAttempts int, window time.Duration) *AttemptLimiter {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	if window <= 0 {
		window = defaultWindow
	}
	return &AttemptLimiter{client: client, maxAttempts: int64(maxAttempts), window: window}
}

// Allowed reports whether another login attempt may proceed.
func (l *AttemptLimiter) Allowed(ctx context.Context, identifier string) (bool, error) {
	n, err := l.client.Get(ctx, l.key(identifier)).Int64()
	if errors.Is(err, redis.Nil) {
		return true, nil
	}
	if err != nil {
		return true, fmt.Errorf("attempt check: %w", err)
	}
	if n < l.maxAttempts {
		return true, nil
	}
	// A locked counter must still expire; re-arm a TTL lost to a failed EXPIRE.
	_ = l.client.ExpireNX(ctx, l.key(identifier), l.window).Err()
	return false, nil
}

// RecordFailure increments the failure counter. The window starts at the
// first failure: EXPIRE NX is sent on every failure so a counter never
// outlives a failed EXPIRE, while an existing TTL is left untouched.
func (l *AttemptLimiter) RecordFailure(ctx context.Context, identifier string) error {
	key := l.key(identifier)
	if err := l.client.Incr(ctx, key).Err(); err != nil {
		return fmt.Errorf("attempt record: %w", err)
	}
	if err := l.client.ExpireNX(ctx, key, l.window).Err(); err != nil {
		return fmt.Errorf("attempt expire: %w", err)
	}
	return nil
}

// Reset clears the failure counter.
func (l *AttemptLimiter) Reset(ctx context.Context, identifier string) error {
	if err := l.client.Del(ctx, l.key(identifier)).Err(); err != nil {
		return fmt.Errorf("attempt reset: %w", err)
	}
	return nil
}

func (l *AttemptLimiter) key(identifier string) string {
	return "login_attempts:" + identifier
}
