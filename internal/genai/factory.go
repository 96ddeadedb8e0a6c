// This file contains factory functions for creating responders from
// application configuration.
package genai

import (
	"context"
	"log/slog"

	"github.com/martinvidela/cursobot-go/internal/config"
	"github.com/martinvidela/cursobot-go/internal/metrics"
)

// CreateResponder builds the responder chain from configuration.
//
// Provider selection logic:
//  1. The primary provider is tried first, with retry.
//  2. If its error is not permanent, the fallback provider gets the
//     request.
//  3. With a single provider configured, its fallback model (when set and
//     different from the primary model) serves as the fallback leg.
//  4. Returns nil (no error) when no provider has an API key; the caller
//     runs without model replies.
func CreateResponder(ctx context.Context, cfg *config.Config, m *metrics.Metrics) (Responder, error) {
	build := func(provider Provider, model string) Responder {
		switch provider {
		case ProviderGemini:
			r, err := newGeminiResponder(ctx, cfg.GeminiAPIKey, model)
			if err != nil {
				slog.WarnContext(ctx, "failed to create gemini responder", "error", err)
				return nil
			}
			if r == nil {
				return nil
			}
			return r
		case ProviderGroq:
			r, err := newOpenAIResponder(ctx, ProviderGroq, cfg.GroqAPIKey, model)
			if err != nil {
				slog.WarnContext(ctx, "failed to create groq responder", "error", err)
				return nil
			}
			if r == nil {
				return nil
			}
			return r
		default:
			slog.WarnContext(ctx, "unknown LLM provider", "provider", provider)
			return nil
		}
	}
	modelFor := func(provider Provider, fallbackLeg bool) string {
		switch provider {
		case ProviderGemini:
			if fallbackLeg && cfg.GeminiFallbackModel != "" {
				return cfg.GeminiFallbackModel
			}
			return cfg.GeminiModel
		case ProviderGroq:
			if fallbackLeg && cfg.GroqFallbackModel != "" {
				return cfg.GroqFallbackModel
			}
			return cfg.GroqModel
		default:
			return ""
		}
	}

	primaryProvider := Provider(cfg.LLMPrimaryProvider)
	primary := build(primaryProvider, modelFor(primaryProvider, false))
	var fallback Responder
	if cfg.LLMFallbackProvider != cfg.LLMPrimaryProvider {
		fallbackProvider := Provider(cfg.LLMFallbackProvider)
		fallback = build(fallbackProvider, modelFor(fallbackProvider, true))
	} else if fm := modelFor(primaryProvider, true); fm != modelFor(primaryProvider, false) {
		// Same provider twice, different model.
		fallback = build(primaryProvider, fm)
	}

	// The configured primary may lack a key while the other provider has
	// one; promote the fallback rather than running without a model.
	if primary == nil && fallback != nil {
		primary = fallback
		fallback = nil
	}

	if primary == nil {
		slog.InfoContext(ctx, "no LLM provider configured, model replies disabled")
		return nil, nil
	}

	slog.InfoContext(ctx, "responder configured",
		"primary", primary.Provider(),
		"hasFallback", fallback != nil)

	return NewFallbackResponder(primary, fallback, DefaultRetryConfig(), m), nil
}
