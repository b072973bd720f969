// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"
)

// backoffBase controls the base duration for exponential backoff. Tests
// override this to avoid real sleeps.
var backoffBase = time.Second

// retrying wraps a Generator with bounded retries and a per-call timeout.
type retrying struct {
	next       Generator
	maxRetries int
	timeout    time.Duration
	logger     *zap.Logger
}

// WithRetry retries failed or empty completions up to maxRetries times
// with exponential backoff (base 1s, doubling). Each attempt is bound by
// timeout when it is positive. Permanent errors and cancellation of the
// caller's context end the loop early.
func WithRetry(g Generator, maxRetries int, timeout time.Duration, logger *zap.Logger) Generator {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &retrying{next: g, maxRetries: maxRetries, timeout: timeout, logger: logger}
}

func (r *retrying) Complete(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			r.logger.Debug("retrying generation",
				zap.Int("attempt", attempt),
				zap.Duration("backoff", backoff),
				zap.Error(lastErr),
			)
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}

		out, err := r.once(ctx, prompt, maxTokens, temperature)
		if err == nil && strings.TrimSpace(out) == "" {
			err = ErrEmptyResponse
		}
		if err == nil {
			return out, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if IsPermanent(err) {
			return "", err
		}
	}
	if r.maxRetries == 0 {
		return "", lastErr
	}
	return "", fmt.Errorf("after %d retries: %w", r.maxRetries, lastErr)
}

func (r *retrying) once(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error) {
	if r.timeout <= 0 {
		return r.next.Complete(ctx, prompt, maxTokens, temperature)
	}
	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	out, err := r.next.Complete(callCtx, prompt, maxTokens, temperature)
	if err != nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		return "", fmt.Errorf("generation timed out after %v: %w", r.timeout, err)
	}
	return out, err
}
