package genai

import (
	"context"
	"testing"

	"github.com/martinvidela/cursobot-go/internal/config"
)

func TestCreateResponderNoKeys(t *testing.T) {
	t.Parallel()
	cfg := &config.Config{LLMPrimaryProvider: "gemini", LLMFallbackProvider: "groq"}

	r, err := CreateResponder(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("CreateResponder() error = %v", err)
	}
	if r != nil {
		t.Error("expected nil responder when no provider has an API key")
	}
}

func TestCreateResponderSameProviderFallbackModel(t *testing.T) {
	t.Parallel()
	cfg := &config.Config{
		LLMPrimaryProvider:  "groq",
		LLMFallbackProvider: "groq",
		GroqAPIKey:          "test-key",
		GroqModel:           "llama-primary",
		GroqFallbackModel:   "llama-fallback",
	}

	r, err := CreateResponder(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("CreateResponder() error = %v", err)
	}
	fr, ok := r.(*FallbackResponder)
	if !ok {
		t.Fatalf("responder type = %T, want *FallbackResponder", r)
	}
	primary, ok := fr.primary.(*openaiResponder)
	if !ok {
		t.Fatalf("primary = %T, want *openaiResponder", fr.primary)
	}
	if primary.model != "llama-primary" {
		t.Errorf("primary model = %q, want llama-primary", primary.model)
	}
	fallback, ok := fr.fallback.(*openaiResponder)
	if !ok {
		t.Fatalf("fallback = %T, want *openaiResponder on the fallback model", fr.fallback)
	}
	if fallback.model != "llama-fallback" {
		t.Errorf("fallback model = %q, want llama-fallback", fallback.model)
	}
}

func TestCreateResponderSameProviderNoFallbackModel(t *testing.T) {
	t.Parallel()
	cfg := &config.Config{
		LLMPrimaryProvider:  "groq",
		LLMFallbackProvider: "groq",
		GroqAPIKey:          "test-key",
		GroqModel:           "llama-primary",
	}

	r, err := CreateResponder(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("CreateResponder() error = %v", err)
	}
	fr, ok := r.(*FallbackResponder)
	if !ok {
		t.Fatalf("responder type = %T, want *FallbackResponder", r)
	}
	if fr.fallback != nil {
		t.Errorf("fallback = %v, want nil when no fallback model is configured", fr.fallback)
	}
}
