package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// transientStatuses is the fixed allow-list of provider statuses that earn
// the single retry. Auth failures (401/403) and client errors are terminal
// on the first attempt.
var transientStatuses = map[int]bool{
	408: true,
	429: true,
	500: true,
	502: true,
	503: true,
	504: true,
	529: true, // anthropic overloaded
}

// retryGenerator applies a per-call deadline and exactly one retry for
// transient failures — never more, bounding worst-case stage latency. It also
// classifies its own deadline expiry as ErrTimeout so timeouts are reported
// as a distinct failure kind, not conflated with other provider errors.
type retryGenerator struct {
	inner       Generator
	callTimeout time.Duration
	logger      *slog.Logger
}

// NewRetryGenerator wraps inner with the one-retry transient policy and a
// per-call deadline.
func NewRetryGenerator(inner Generator, callTimeout time.Duration, logger *slog.Logger) Generator {
	return &retryGenerator{
		inner:       inner,
		callTimeout: callTimeout,
		logger:      logger,
	}
}

func (r *retryGenerator) Generate(ctx context.Context, req Request) (string, error) {
	var lastErr error

	for attempt := 0; attempt < 2; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, r.callTimeout)
		text, err := r.inner.Generate(callCtx, req)
		cancel()

		if err == nil {
			return text, nil
		}

		// Our own deadline fired while the request as a whole is still live:
		// report it as a timeout, which also counts as transient.
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			err = fmt.Errorf("%w after %s: %v", ErrTimeout, r.callTimeout, err)
		}
		lastErr = err

		if !transient(err) || ctx.Err() != nil {
			return "", lastErr
		}

		if attempt == 0 {
			r.logger.Warn("ai: transient provider failure, retrying once",
				"error", err,
				"tier", req.Tier,
			)
		}
	}

	return "", lastErr
}

// transient reports whether err is on the retry allow-list: listed provider
// statuses, an empty response, or a per-call timeout.
func transient(err error) bool {
	if errors.Is(err, ErrEmptyResponse) || errors.Is(err, ErrTimeout) {
		return true
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return transientStatuses[pe.Status]
	}
	return false
}
