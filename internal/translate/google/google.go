// Package google implements the translate.Translator interface with the
// Google Cloud Translation v2 REST API.
package google

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/nadzzz/sahayak/internal/config"
)

const defaultEndpoint = "https://translation.googleapis.com/language/translate/v2"

// Translator calls the Cloud Translation v2 endpoint.
type Translator struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// New creates a Google translator from config.
func New(cfg config.GoogleConfig) *Translator {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	return &Translator{
		endpoint: endpoint,
		apiKey:   cfg.APIKey,
		client:   &http.Client{},
	}
}

// Name returns the backend identifier.
func (t *Translator) Name() string { return "google" }

type translateRequest struct {
	Q      string `json:"q"`
	Source string `json:"source,omitempty"`
	Target string `json:"target"`
	Format string `json:"format"`
}

type translateResponse struct {
	Data struct {
		Translations []struct {
			TranslatedText         string `json:"translatedText"`
			DetectedSourceLanguage string `json:"detectedSourceLanguage"`
		} `json:"translations"`
	} `json:"data"`
}

// Translate converts text from source to target. A source of "auto" or ""
// lets the API detect the language.
func (t *Translator) Translate(ctx context.Context, text, source, target string) (string, error) {
	reqBody := translateRequest{Q: text, Target: target, Format: "text"}
	if source != "auto" {
		reqBody.Source = source
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshalling translate request: %w", err)
	}

	reqURL := t.endpoint
	if t.apiKey != "" {
		reqURL += "?key=" + url.QueryEscape(t.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(bodyBytes))
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

	var tr translateResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", fmt.Errorf("decoding translate response: %w", err)
	}
	if len(tr.Data.Translations) == 0 {
		return "", fmt.Errorf("no translations returned")
	}

	out := tr.Data.Translations[0]
	slog.Debug("translation complete", "backend", "google", "source", source, "target", target,
		"detected", out.DetectedSourceLanguage)
	return out.TranslatedText, nil
}
