// This file contains the fallback wrapper for cross-provider failover.
package genai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	apperrors "github.com/martinvidela/cursobot-go/internal/errors"
	"github.com/martinvidela/cursobot-go/internal/metrics"
)

// FallbackResponder wraps a primary and fallback Responder. Failure
// handling is layered:
// 1. Retry with backoff on the same provider
// 2. Provider fallback (primary → fallback provider)
// 3. Error to the caller, who sends the apology reply
type FallbackResponder struct {
	primary     Responder
	fallback    Responder
	retryConfig RetryConfig
	metrics     *metrics.Metrics
}

// NewFallbackResponder creates a fallback-enabled responder.
// If fallback is nil, only retry logic is applied to the primary provider.
func NewFallbackResponder(primary, fallback Responder, cfg RetryConfig, m *metrics.Metrics) *FallbackResponder {
	return &FallbackResponder{
		primary:     primary,
		fallback:    fallback,
		retryConfig: cfg,
		metrics:     m,
	}
}

// Respond tries the primary responder with retry, then the fallback.
func (f *FallbackResponder) Respond(ctx context.Context, req Request) (string, error) {
	if f == nil || f.primary == nil {
		return "", errors.New("responder not configured")
	}

	start := time.Now()
	provider := f.primary.Provider()

	text, err := f.respondWithRetry(ctx, f.primary, req)
	if err == nil {
		f.recordCall(provider, "success", time.Since(start))
		return text, nil
	}

	action := ClassifyError(err)
	slog.WarnContext(ctx, "primary responder failed",
		"provider", provider,
		"error", err,
		"action", action,
		"duration", time.Since(start))
	f.recordCall(provider, "error", time.Since(start))

	if action == ActionFail || f.fallback == nil {
		return "", fmt.Errorf("%w: %w", apperrors.ErrModelCall, err)
	}

	fallbackProvider := f.fallback.Provider()
	slog.InfoContext(ctx, "falling back to secondary provider",
		"from", provider,
		"to", fallbackProvider)
	if f.metrics != nil {
		f.metrics.RecordModelFallback(provider.String(), fallbackProvider.String())
	}

	fallbackStart := time.Now()
	text, err = f.respondWithRetry(ctx, f.fallback, req)
	if err == nil {
		f.recordCall(fallbackProvider, "success", time.Since(fallbackStart))
		return text, nil
	}

	f.recordCall(fallbackProvider, "error", time.Since(fallbackStart))
	slog.ErrorContext(ctx, "all responders failed",
		"primary", provider,
		"fallback", fallbackProvider,
		"error", err)

	return "", fmt.Errorf("%w: all providers failed: %w", apperrors.ErrModelCall, err)
}

// respondWithRetry attempts the call with backoff on transient errors.
func (f *FallbackResponder) respondWithRetry(ctx context.Context, responder Responder, req Request) (string, error) {
	var lastErr error

	for attempt := range f.retryConfig.MaxAttempts {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}

		text, err := responder.Respond(ctx, req)
		if err == nil {
			return text, nil
		}

		lastErr = err
		if ClassifyError(err) != ActionRetry {
			return "", err
		}

		if attempt == f.retryConfig.MaxAttempts-1 {
			break
		}

		backoff := CalculateBackoff(attempt+1, f.retryConfig.InitialDelay, f.retryConfig.MaxDelay)
		if !HasSufficientBudget(ctx, backoff) {
			return "", fmt.Errorf("%w during retry: %w", apperrors.ErrTimeout, lastErr)
		}

		slog.DebugContext(ctx, "retrying model call",
			"provider", responder.Provider(),
			"attempt", attempt+1,
			"backoff", backoff,
			"error", err)

		if err := Sleep(ctx, backoff); err != nil {
			return "", err
		}
	}

	return "", lastErr
}

func (f *FallbackResponder) recordCall(provider Provider, outcome string, duration time.Duration) {
	if f.metrics == nil {
		return
	}
	f.metrics.RecordModelCall(provider.String(), outcome, duration.Seconds())
}

// Provider returns the primary provider type.
func (f *FallbackResponder) Provider() Provider {
	if f == nil || f.primary == nil {
		return ""
	}
	return f.primary.Provider()
}

// Close closes both responders.
func (f *FallbackResponder) Close() error {
	if f == nil {
		return nil
	}

	var errs []error
	if f.primary != nil {
		if err := f.primary.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if f.fallback != nil {
		if err := f.fallback.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
