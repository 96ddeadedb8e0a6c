// This file contains the OpenAI-compatible implementation of the Responder
// interface. It works with any OpenAI-compatible provider (Groq) via
// custom BaseURL.
package genai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// openaiResponder generates replies using an OpenAI-compatible API.
type openaiResponder struct {
	client   openai.Client
	model    string
	provider Provider
}

// newOpenAIResponder creates an OpenAI-compatible responder.
// Returns nil if apiKey is empty (provider disabled).
func newOpenAIResponder(_ context.Context, provider Provider, apiKey, model string) (*openaiResponder, error) {
	if apiKey == "" {
		return nil, nil //nolint:nilnil // Intentional: provider disabled when no API key
	}

	baseURL, ok := ProviderEndpoint[provider]
	if !ok {
		return nil, fmt.Errorf("unsupported OpenAI-compatible provider: %s", provider)
	}

	if model == "" {
		switch provider {
		case ProviderGroq:
			model = DefaultGroqModels[0]
		default:
			return nil, fmt.Errorf("no default model for provider: %s", provider)
		}
	}

	client := openai.NewClient(
		option.WithBaseURL(baseURL),
		option.WithAPIKey(apiKey),
	)

	return &openaiResponder{
		client:   client,
		model:    model,
		provider: provider,
	}, nil
}

// Respond sends the assembled request and returns the reply text.
func (r *openaiResponder) Respond(ctx context.Context, req Request) (string, error) {
	if r == nil {
		return "", errors.New("responder is nil")
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.System)+len(req.Turns))
	for _, block := range req.System {
		messages = append(messages, openai.SystemMessage(block))
	}
	for _, turn := range req.Turns {
		if turn.Role == RoleAssistant {
			messages = append(messages, openai.AssistantMessage(turn.Text))
			continue
		}
		messages = append(messages, openai.UserMessage(turn.Text))
	}

	params := openai.ChatCompletionNewParams{
		Model:       r.model,
		Messages:    messages,
		Temperature: openai.Float(generationTemperature),
		MaxTokens:   openai.Int(maxOutputTokens),
	}

	start := time.Now()
	resp, err := r.client.Chat.Completions.New(ctx, params)
	duration := time.Since(start)

	if err != nil {
		slog.WarnContext(ctx, "model call failed",
			"provider", r.provider,
			"model", r.model,
			"duration_ms", duration.Milliseconds(),
			"error", err)
		return "", WrapError(fmt.Errorf("chat completion failed: %w", err), r.provider, 0)
	}

	if len(resp.Choices) == 0 {
		return "", WrapError(errors.New("empty response from model"), r.provider, 0)
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", WrapError(errors.New("blank reply from model"), r.provider, 0)
	}

	if resp.Usage.TotalTokens > 0 {
		slog.DebugContext(ctx, "model call completed",
			"provider", r.provider,
			"model", r.model,
			"input_tokens", resp.Usage.PromptTokens,
			"output_tokens", resp.Usage.CompletionTokens,
			"duration_ms", duration.Milliseconds())
	}

	return text, nil
}

// Provider returns the provider type for this responder.
func (r *openaiResponder) Provider() Provider {
	if r == nil {
		return ""
	}
	return r.provider
}

// Close releases resources.
// Safe to call on nil receiver.
func (r *openaiResponder) Close() error {
	// openai-go client doesn't require cleanup
	return nil
}
