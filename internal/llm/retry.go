package llm

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog"
)

// RetryProvider re-sends a request after transient failures, waiting an
// exponentially growing, jittered interval between attempts.
type RetryProvider struct {
	inner  Provider
	cfg    RetryConfig
	logger zerolog.Logger
}

// WithRetry wraps p. A MaxAttempts below two disables retries.
func WithRetry(p Provider, cfg RetryConfig, logger zerolog.Logger) Provider {
	return &RetryProvider{
		inner:  p,
		cfg:    cfg,
		logger: logger.With().Str("component", "llm-retry").Logger(),
	}
}

func (r *RetryProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	attempts := max(r.cfg.MaxAttempts, 1)
	reparsed := false

	for attempt := 1; ; attempt++ {
		resp, err := r.inner.Generate(ctx, req)
		if err == nil {
			return resp, nil
		}
		if attempt >= attempts || !retryable(err, &reparsed) {
			return nil, err
		}

		wait := r.delay(attempt, err)
		r.logger.Debug().Err(err).
			Int("attempt", attempt).
			Dur("wait", wait).
			Msg("retrying llm request")

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

func (r *RetryProvider) ModelID() string {
	return r.inner.ModelID()
}

// retryable reports whether err is worth another attempt. Malformed
// content is retried at most once per call, tracked through reparsed.
func retryable(err error, reparsed *bool) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var truncated *ErrMaxTokensExceeded
	var invalid *ErrInvalidResponse
	switch {
	case errors.As(err, &truncated):
		return false
	case errors.As(err, &invalid):
		if *reparsed {
			return false
		}
		*reparsed = true
		return true
	}

	if code, ok := StatusCode(err); ok {
		return code == 429 || code >= 500
	}
	return true
}

// delay is InitialWait * Multiplier^(attempt-1), capped at MaxWait, with
// up to 20% jitter either way. A rate limit carrying RetryAfter wins.
func (r *RetryProvider) delay(attempt int, err error) time.Duration {
	var rl *ErrRateLimit
	if errors.As(err, &rl) && rl.RetryAfter > 0 {
		return rl.RetryAfter
	}

	wait := float64(r.cfg.InitialWait)
	for range attempt - 1 {
		wait *= r.cfg.Multiplier
	}
	if limit := float64(r.cfg.MaxWait); limit > 0 && wait > limit {
		wait = limit
	}
	wait *= 0.8 + 0.4*rand.Float64()
	return time.Duration(max(wait, 0))
}
