// Package libre implements the translate.Translator interface against a
// self-hosted LibreTranslate server.
package libre

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/nadzzz/sahayak/internal/config"
)

// Translator calls LibreTranslate's POST /translate.
type Translator struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// New creates a LibreTranslate translator from config.
func New(cfg config.LibreConfig) *Translator {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = "http://localhost:5000/translate"
	}
	return &Translator{endpoint: endpoint, apiKey: cfg.APIKey, client: &http.Client{}}
}

// Name returns the backend identifier.
func (t *Translator) Name() string { return "libre" }

type translateRequest struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format"`
	APIKey string `json:"api_key,omitempty"`
}

// Translate converts text from source to target. LibreTranslate accepts
// "auto" as the source natively.
func (t *Translator) Translate(ctx context.Context, text, source, target string) (string, error) {
	if source == "" {
		source = "auto"
	}
	bodyBytes, err := json.Marshal(translateRequest{
		Q: text, Source: source, Target: target, Format: "text", APIKey: t.apiKey,
	})
	if err != nil {
		return "", fmt.Errorf("marshalling translate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating translate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("translate request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("translate failed (status %d): %s", resp.StatusCode, respBody)
	}

	var out struct {
		TranslatedText string `json:"translatedText"`
		Error          string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decoding translate response: %w", err)
	}
	if out.Error != "" {
		return "", fmt.Errorf("libretranslate: %s", out.Error)
	}
	return out.TranslatedText, nil
}
