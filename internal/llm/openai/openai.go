// Package openai implements the llm.Model interface using an OpenAI-compatible
// Chat Completions endpoint (api.openai.com, vLLM, llama.cpp server, Ollama's /v1).
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/nadzzz/sahayak/internal/config"
)

const defaultChatURL = "https://api.openai.com/v1/chat/completions"

// Model calls a Chat Completions endpoint with the prompt as a single user message.
type Model struct {
	apiKey      string
	endpoint    string
	model       string
	temperature float64
	client      *http.Client
}

// New creates an OpenAI-compatible model from config.
func New(cfg config.OpenAIConfig) *Model {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = defaultChatURL
	}
	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &Model{
		apiKey:      cfg.APIKey,
		endpoint:    endpoint,
		model:       model,
		temperature: cfg.Temperature,
		client:      &http.Client{},
	}
}

// Name returns the backend identifier.
func (m *Model) Name() string { return "openai" }

// Generate sends the prompt and returns the first choice's content.
func (m *Model) Generate(ctx context.Context, prompt string) (string, error) {
	reqBody := chatRequest{
		Model: m.model,
		Messages: []chatMessage{
			{Role: "user", Content: prompt},
		},
		Temperature: m.temperature,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshalling chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating chat request: %w", err)
	}
	if m.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+m.apiKey)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("chat failed (status %d): %s", resp.StatusCode, respBody)
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("decoding chat response: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned from chat API")
	}

	content := chatResp.Choices[0].Message.Content
	slog.Debug("chat completion complete", "model", m.model, "length", len(content))
	return content, nil
}

// Close is a no-op.
func (m *Model) Close() error { return nil }

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}
