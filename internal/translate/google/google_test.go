package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nadzzz/sahayak/internal/config"
)

func TestTranslate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != "gkey" {
			t.Errorf("api key not sent: %s", r.URL.RawQuery)
		}
		var req translateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("bad body: %v", err)
		}
		if req.Q != "Yes." || req.Source != "en" || req.Target != "hi" || req.Format != "text" {
			t.Errorf("unexpected request: %+v", req)
		}
		w.Write([]byte(`{"data":{"translations":[{"translatedText":"हाँ।"}]}}`))
	}))
	defer server.Close()

	tr := New(config.GoogleConfig{APIKey: "gkey", Endpoint: server.URL})
	out, err := tr.Translate(context.Background(), "Yes.", "en", "hi")
	if err != nil {
		t.Fatalf("translate failed: %v", err)
	}
	if out != "हाँ।" {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestTranslate_AutoSourceOmitted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var raw map[string]any
		json.NewDecoder(r.Body).Decode(&raw)
		if _, ok := raw["source"]; ok {
			t.Errorf("source should be omitted for auto detection: %v", raw)
		}
		w.Write([]byte(`{"data":{"translations":[{"translatedText":"hello","detectedSourceLanguage":"hi"}]}}`))
	}))
	defer server.Close()

	tr := New(config.GoogleConfig{Endpoint: server.URL})
	if _, err := tr.Translate(context.Background(), "namaste", "auto", "en"); err != nil {
		t.Fatalf("translate failed: %v", err)
	}
}

func TestTranslate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "forbidden", status: http.StatusForbidden, body: `{"error":{"message":"API key not valid"}}`},
		{name: "empty translations", status: http.StatusOK, body: `{"data":{"translations":[]}}`},
		{name: "bad json", status: http.StatusOK, body: `not json`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			tr := New(config.GoogleConfig{Endpoint: server.URL})
			if _, err := tr.Translate(context.Background(), "x", "en", "hi"); err == nil {
				t.Error("expected error")
			}
		})
	}
}
