// Package sentry wraps Sentry SDK initialization against the Better
// Stack error-ingest backend.
package sentry

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
)

// Config holds error-reporting settings.
type Config struct {
	// Token is the Better Stack Errors application token. Empty
	// disables reporting entirely.
	Token string

	// Host is the ingest host, e.g. "errors.betterstack.com".
	Host string

	// Environment tags events with the deployment environment.
	Environment string

	// Release tags events with the application version.
	Release string

	// SampleRate is the error sampling rate in (0, 1]. Zero or
	// negative falls back to 1.0.
	SampleRate float64

	// Debug turns on SDK debug logging.
	Debug bool
}

// Initialize configures the global Sentry client. With an empty token
// it is a no-op and all capture calls become harmless no-ops too.
func Initialize(cfg Config) error {
	if cfg.Token == "" {
		return nil
	}
	if cfg.Host == "" {
		return fmt.Errorf("sentry host is required when token is provided")
	}

	sampleRate := cfg.SampleRate
	if sampleRate <= 0 {
		sampleRate = 1.0
	}

	// Better Stack ignores the project id but the SDK requires one.
	dsn := fmt.Sprintf("https://%s@%s/1", cfg.Token, cfg.Host)

	return sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Environment:      cfg.Environment,
		Release:          cfg.Release,
		SampleRate:       sampleRate,
		Debug:            cfg.Debug,
		AttachStacktrace: true,
	})
}

// Flush blocks until buffered events are delivered or the timeout
// expires. Returns false on timeout.
func Flush(timeout time.Duration) bool {
	return sentry.Flush(timeout)
}

// IsEnabled reports whether a client was initialized.
func IsEnabled() bool {
	return sentry.CurrentHub().Client() != nil
}

// CaptureException reports an error.
func CaptureException(err error) {
	sentry.CaptureException(err)
}
