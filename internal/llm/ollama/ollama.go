// Package ollama implements the llm.Model interface against a self-hosted
// Ollama server using the /api/generate endpoint.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/nadzzz/sahayak/internal/config"
)

// Model calls an Ollama server.
type Model struct {
	endpoint    string
	model       string
	temperature float64
	client      *http.Client
}

// New creates an Ollama model from config.
func New(cfg config.OllamaConfig) *Model {
	endpoint := strings.TrimSuffix(cfg.Endpoint, "/")
	if endpoint == "" {
		endpoint = "http://localhost:11434"
	}
	model := cfg.Model
	if model == "" {
		model = "mistral"
	}
	return &Model{
		endpoint:    endpoint,
		model:       model,
		temperature: cfg.Temperature,
		client:      &http.Client{},
	}
}

// Name returns the backend identifier.
func (m *Model) Name() string { return "ollama" }

type generateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// Generate sends the prompt to /api/generate with streaming disabled.
func (m *Model) Generate(ctx context.Context, prompt string) (string, error) {
	reqBody := generateRequest{
		Model:  m.model,
		Prompt: prompt,
		Stream: false,
	}
	if m.temperature > 0 {
		reqBody.Options = map[string]any{"temperature": m.temperature}
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshalling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint+"/api/generate", bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("ollama failed (status %d): %s", resp.StatusCode, respBody)
	}

	var genResp generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return "", fmt.Errorf("decoding ollama response: %w", err)
	}

	slog.Debug("ollama generation complete", "model", m.model, "length", len(genResp.Response))
	return genResp.Response, nil
}

// Close is a no-op.
func (m *Model) Close() error { return nil }
