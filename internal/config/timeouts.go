// Package config provides centralized timeout constants for the application.
//
// These values are tuned around messaging-channel constraints (webhooks must
// be acknowledged quickly) and model-provider latency (grounded completions
// over a serialized catalog can take tens of seconds).
package config

import "time"

// Webhook timeouts
const (
	// WebhookProcessing is the budget for processing a single inbound event.
	// The webhook handler acknowledges immediately; this bounds the async
	// pipeline (retrieval, model call, post-processing, outbound send).
	WebhookProcessing = 60 * time.Second

	// WebhookHTTPRead is the HTTP server read timeout for webhook requests.
	// Channel providers send small JSON payloads.
	WebhookHTTPRead = 10 * time.Second

	// WebhookHTTPWrite is the HTTP server write timeout.
	WebhookHTTPWrite = 15 * time.Second

	// WebhookHTTPIdle is the HTTP server idle timeout for keep-alive connections.
	WebhookHTTPIdle = 120 * time.Second
)

// Model call timeouts
const (
	// ModelCall bounds a single grounded completion, including provider
	// retries. The catalog context makes prompts large, so this is generous
	// but still well inside WebhookProcessing.
	ModelCall = 45 * time.Second
)

// Catalog source timeouts
const (
	// CatalogFetch is the timeout for downloading the catalog from an HTTP
	// URL or the object-store snapshot at startup.
	CatalogFetch = 30 * time.Second
)
