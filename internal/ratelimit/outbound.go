package ratelimit

import "context"

// OutboundRateLimiter wraps the shared Limiter for channel send APIs.
// Both the WhatsApp Cloud API and the LINE Messaging API throttle
// outbound calls, so sends queue on the bucket instead of failing.
type OutboundRateLimiter struct {
	*Limiter
}

// NewOutboundRateLimiter creates a new rate limiter.
// maxTokens: maximum number of tokens in the bucket
// refillRate: number of tokens to add per second
func NewOutboundRateLimiter(maxTokens, refillRate float64) *OutboundRateLimiter {
	return &OutboundRateLimiter{
		Limiter: New(maxTokens, refillRate),
	}
}

// WaitForToken blocks until a token is available or the context is
// canceled.
func (rl *OutboundRateLimiter) WaitForToken(ctx context.Context) error {
	return rl.Wait(ctx)
}

// GetAvailableTokens returns the current number of available tokens.
func (rl *OutboundRateLimiter) GetAvailableTokens() float64 {
	return rl.Available()
}
