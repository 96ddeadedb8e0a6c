// Package genai provides the grounded language-model calls behind the
// assistant's replies.
//
// Architecture:
// - Gemini: uses google.golang.org/genai (official SDK)
// - Groq: uses github.com/openai/openai-go/v3 (OpenAI-compatible API)
//
// Failure handling is layered: a transient error is retried with backoff
// on the same provider, then the fallback provider gets the same chance,
// and only then does the caller see an error.
package genai

import (
	"context"
	"time"
)

// Provider represents an LLM provider.
type Provider string

const (
	// ProviderGemini represents Google's Gemini API (non-OpenAI-compatible).
	ProviderGemini Provider = "gemini"
	// ProviderGroq represents Groq's API (OpenAI-compatible, fast inference).
	ProviderGroq Provider = "groq"
)

// ProviderEndpoint defines the base URL for OpenAI-compatible providers.
// Gemini is not included as it uses a different SDK.
var ProviderEndpoint = map[Provider]string{
	ProviderGroq: "https://api.groq.com/openai/v1/",
}

// IsOpenAICompatible returns true if the provider uses the OpenAI-compatible API.
func (p Provider) IsOpenAICompatible() bool {
	_, ok := ProviderEndpoint[p]
	return ok
}

func (p Provider) String() string {
	return string(p)
}

// Default models per provider, tried in order.
var (
	DefaultGeminiModels = []string{"gemini-2.5-flash", "gemini-2.0-flash"}
	DefaultGroqModels   = []string{"llama-3.3-70b-versatile", "llama-3.1-8b-instant"}
)

// Role of a conversation turn sent to the model.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one conversational message in a request.
type Turn struct {
	Role Role
	Text string
}

// Request is a fully assembled model request: the system blocks carry the
// behavior rules and grounding data, the turns carry the conversation with
// the user's message last.
type Request struct {
	System []string
	Turns  []Turn
}

// Responder generates an assistant reply for a request.
type Responder interface {
	// Respond returns the model's reply text.
	Respond(ctx context.Context, req Request) (string, error)
	// Provider returns the provider type for metrics.
	Provider() Provider
	// Close releases any resources held by the responder.
	Close() error
}

// RetryConfig controls per-provider retry behavior.
type RetryConfig struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

// DefaultRetryConfig returns the standard retry settings for model calls.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  3,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     5 * time.Second,
	}
}

// Generation parameters shared by all providers. Temperature stays low so
// the model sticks to the catalog facts it is given.
const (
	generationTemperature = 0.3
	maxOutputTokens       = 1024
)
