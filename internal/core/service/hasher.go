package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/taskboard/authd/internal/pkg/metrics"
)

// Runner executes fn off the calling goroutine and blocks until it ran.
// *queue.Pool satisfies it.
type Runner interface {
	Do(ctx context.Context, fn func()) error
}

type inlineRunner struct{}

func (inlineRunner) Do(_ context.Context, fn func()) error {
	fn()
	return nil
}

// BcryptHasher hashes and compares secrets with bcrypt. bcrypt embeds a fresh
// random salt in every hash and compares in constant time.
type BcryptHasher struct {
	cost   int
	runner Runner
}

// NewBcryptHasher returns a hasher using cost as the work factor. A nil
// runner executes jobs on the calling goroutine.
func NewBcryptHasher(cost int, runner Runner) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	if runner == nil {
		runner = inlineRunner{}
	}
	return &BcryptHasher{cost: cost, runner: runner}
}

// Hash returns the encoded bcrypt hash of secret.
func (h *BcryptHasher) Hash(ctx context.Context, secret string) (string, error) {
	var (
		hash []byte
		err  error
	)
	if runErr := h.runner.Do(ctx, func() {
		start := time.Now()
		hash, err = bcrypt.GenerateFromPassword([]byte(secret), h.cost)
		metrics.HashDuration.WithLabelValues("hash").Observe(time.Since(start).Seconds())
	}); runErr != nil {
		return "", fmt.Errorf("hash secret: %w", runErr)
	}
	if err != nil {
		return "", fmt.Errorf("hash secret: %w", err)
	}
	return string(hash), nil
}

// Compare reports whether secret matches hash. A malformed hash is an error;
// a mismatch is not.
func (h *BcryptHasher) Compare(ctx context.Context, secret, hash string) (bool, error) {
	var err error
	if runErr := h.runner.Do(ctx, func() {
		start := time.Now()
		err = bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret))
		metrics.HashDuration.WithLabelValues("compare").Observe(time.Since(start).Seconds())
	}); runErr != nil {
		return false, fmt.Errorf("compare secret: %w", runErr)
	}
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("compare secret: %w", err)
	}
}
