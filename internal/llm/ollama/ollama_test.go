package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nadzzz/sahayak/internal/config"
)

func TestGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("bad request body: %v", err)
		}
		if req.Model != "mistral" || req.Stream {
			t.Errorf("unexpected request: %+v", req)
		}
		if req.Prompt != "What is bail?" {
			t.Errorf("prompt not forwarded: %q", req.Prompt)
		}
		json.NewEncoder(w).Encode(map[string]any{"response": "Bail is release pending trial.", "done": true})
	}))
	defer server.Close()

	m := New(config.OllamaConfig{Endpoint: server.URL + "/"})
	out, err := m.Generate(context.Background(), "What is bail?")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if out != "Bail is release pending trial." {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestGenerate_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model 'mistral' not found", http.StatusNotFound)
	}))
	defer server.Close()

	m := New(config.OllamaConfig{Endpoint: server.URL})
	_, err := m.Generate(context.Background(), "hi")
	if err == nil {
		t.Fatal("should error on 404")
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Errorf("backend message should be kept: %v", err)
	}
}

func TestGenerate_Cancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := New(config.OllamaConfig{Endpoint: server.URL})
	if _, err := m.Generate(ctx, "hi"); err == nil {
		t.Error("cancelled context should fail the call")
	}
}
