package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
)

// ParserClient delegates PDF text extraction and OCR to a document-parsing
// service.
//
//	POST /pages                      body: PDF bytes  -> {"pages":[{"number":1,"text":"..."}]}
//	POST /ocr?page=N&lang=eng&dpi=300 body: PDF bytes -> {"text":"..."}
//
// Both endpoints reply {"error":"..."} on failure.
type ParserClient struct {
	endpoint string
	client   *http.Client
}

// NewParserClient creates a client for the parsing service at endpoint.
func NewParserClient(endpoint string) *ParserClient {
	if endpoint == "" {
		endpoint = "http://localhost:8082"
	}
	return &ParserClient{endpoint: strings.TrimSuffix(endpoint, "/"), client: &http.Client{}}
}

// Pages extracts the text layer of every page.
func (p *ParserClient) Pages(ctx context.Context, path string) ([]PageText, error) {
	var out struct {
		Pages []PageText `json:"pages"`
		Error string     `json:"error"`
	}
	if err := p.post(ctx, "/pages", path, &out); err != nil {
		return nil, err
	}
	if out.Error != "" {
		return nil, fmt.Errorf("parser: %s", out.Error)
	}
	return out.Pages, nil
}

// OCR recognizes the text of one rendered page.
func (p *ParserClient) OCR(ctx context.Context, path string, page int, opts OCROptions) (string, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	if opts.Language != "" {
		q.Set("lang", opts.Language)
	}
	if opts.DPI > 0 {
		q.Set("dpi", strconv.Itoa(opts.DPI))
	}

	var out struct {
		Text  string `json:"text"`
		Error string `json:"error"`
	}
	if err := p.post(ctx, "/ocr?"+q.Encode(), path, &out); err != nil {
		return "", err
	}
	if out.Error != "" {
		return "", fmt.Errorf("ocr: %s", out.Error)
	}
	return out.Text, nil
}

// Healthy reports whether the parsing service answers GET /health.
func (p *ParserClient) Healthy(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func (p *ParserClient) post(ctx context.Context, route, path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint+route, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/pdf")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("calling parser service: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		var e struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &e) == nil && e.Error != "" {
			return fmt.Errorf("parser service failed (status %d): %s", resp.StatusCode, e.Error)
		}
		return fmt.Errorf("parser service failed (status %d): %s", resp.StatusCode, truncate(body, 512))
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func truncate(b []byte, n int) []byte {
	if len(b) > n {
		return b[:n]
	}
	return b
}
