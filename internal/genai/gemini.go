// This file contains the Gemini implementation of the Responder interface.
package genai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"
)

// geminiResponder generates replies using the Gemini API.
type geminiResponder struct {
	client *genai.Client
	model  string
}

// newGeminiResponder creates a Gemini-based responder.
// Returns nil if apiKey is empty (provider disabled).
func newGeminiResponder(ctx context.Context, apiKey, model string) (*geminiResponder, error) {
	if apiKey == "" {
		return nil, nil //nolint:nilnil // Intentional: provider disabled when no API key
	}

	if model == "" {
		model = DefaultGeminiModels[0]
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &geminiResponder{
		client: client,
		model:  model,
	}, nil
}

// Respond sends the assembled request to Gemini and returns the reply text.
func (r *geminiResponder) Respond(ctx context.Context, req Request) (string, error) {
	if r == nil {
		return "", errors.New("responder is nil")
	}

	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](generationTemperature),
		MaxOutputTokens: maxOutputTokens,
	}
	if len(req.System) > 0 {
		config.SystemInstruction = genai.NewContentFromText(strings.Join(req.System, "\n\n"), genai.RoleUser)
	}

	contents := make([]*genai.Content, 0, len(req.Turns))
	for _, turn := range req.Turns {
		role := genai.Role(genai.RoleUser)
		if turn.Role == RoleAssistant {
			role = genai.Role(genai.RoleModel)
		}
		contents = append(contents, genai.NewContentFromText(turn.Text, role))
	}

	start := time.Now()
	result, err := r.client.Models.GenerateContent(ctx, r.model, contents, config)
	duration := time.Since(start)

	if err != nil {
		slog.WarnContext(ctx, "model call failed",
			"provider", "gemini",
			"model", r.model,
			"duration_ms", duration.Milliseconds(),
			"error", err)
		return "", WrapError(fmt.Errorf("generate content failed: %w", err), ProviderGemini, 0)
	}

	text, err := extractGeminiText(result)
	if err != nil {
		return "", WrapError(err, ProviderGemini, 0)
	}

	if result.UsageMetadata != nil {
		slog.DebugContext(ctx, "model call completed",
			"provider", "gemini",
			"model", r.model,
			"input_tokens", result.UsageMetadata.PromptTokenCount,
			"output_tokens", result.UsageMetadata.CandidatesTokenCount,
			"duration_ms", duration.Milliseconds())
	}

	return text, nil
}

// extractGeminiText pulls the reply text out of the generation result.
func extractGeminiText(result *genai.GenerateContentResponse) (string, error) {
	if result == nil || len(result.Candidates) == 0 {
		return "", errors.New("empty response from model")
	}

	candidate := result.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", errors.New("no content in response")
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		sb.WriteString(part.Text)
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", errors.New("blank reply from model")
	}
	return text, nil
}

// Provider returns the provider type for this responder.
func (r *geminiResponder) Provider() Provider {
	return ProviderGemini
}

// Close releases resources held by the responder.
// Safe to call on nil receiver.
func (r *geminiResponder) Close() error {
	// Note: genai.Client does not require explicit cleanup in current SDK version
	return nil
}
