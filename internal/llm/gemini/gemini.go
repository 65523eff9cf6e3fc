// Package gemini implements the llm.Model interface with Google Gemini
// through the google.golang.org/genai SDK.
package gemini

import (
	"context"
	"fmt"
	"log/slog"

	"google.golang.org/genai"

	"github.com/nadzzz/sahayak/internal/config"
)

// Model wraps a genai client bound to one model name.
type Model struct {
	client *genai.Client
	model  string
	config *genai.GenerateContentConfig
}

// New creates a Gemini model. baseURL overrides the API host and is only
// set in tests.
func New(ctx context.Context, cfg config.GeminiConfig, baseURL string) (*Model, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}

	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = "gemini-2.5-flash"
	}

	gc := &genai.GenerateContentConfig{}
	if cfg.Temperature > 0 {
		gc.Temperature = genai.Ptr(float32(cfg.Temperature))
	}

	return &Model{client: client, model: model, config: gc}, nil
}

// Name returns the backend identifier.
func (m *Model) Name() string { return "gemini" }

// Generate sends the prompt as a single user turn.
func (m *Model) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := m.client.Models.GenerateContent(ctx, m.model, genai.Text(prompt), m.config)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}

	text := resp.Text()
	slog.Debug("gemini generation complete", "model", m.model, "length", len(text))
	return text, nil
}

// Close is a no-op; the genai client holds no long-lived connections.
func (m *Model) Close() error { return nil }
