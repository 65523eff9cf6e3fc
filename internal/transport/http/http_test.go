package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"strings"
	"testing"

	"github.com/nadzzz/sahayak/internal/config"
	"github.com/nadzzz/sahayak/internal/dispatch"
	"github.com/nadzzz/sahayak/internal/message"
)

type fakeFinder map[string][]message.AidCenter

func (f fakeFinder) Find(city string) []message.AidCenter {
	return f[strings.ToLower(city)]
}

type formFile struct {
	name        string
	contentType string
	data        []byte
}

func multipartBody(t *testing.T, fields map[string]string, file *formFile) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if file != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="audio_file"; filename="`+file.name+`"`)
		h.Set("Content-Type", file.contentType)
		part, err := w.CreatePart(h)
		if err != nil {
			t.Fatal(err)
		}
		part.Write(file.data)
	}
	w.Close()
	return body, w.FormDataContentType()
}

func newServer(t *testing.T, cfg config.HTTPConfig, handler func(context.Context, *message.ChatRequest) (*message.ChatResponse, error)) *httptest.Server {
	t.Helper()
	tr := New(cfg, fakeFinder{
		"delhi": {{City: "Delhi", State: "Delhi", Name: "DLSA Central", Address: "Tis Hazari", Phone: "011-1"}},
	}, "2.0.0")
	server := httptest.NewServer(tr.Routes(handler))
	t.Cleanup(server.Close)
	return server
}

func decodeDetail(t *testing.T, resp *http.Response) string {
	t.Helper()
	var body errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decoding error body: %v", err)
	}
	return body.Detail
}

func TestChat_TextQuery(t *testing.T) {
	var got *message.ChatRequest
	server := newServer(t, config.HTTPConfig{}, func(ctx context.Context, req *message.ChatRequest) (*message.ChatResponse, error) {
		got = req
		resp := &message.ChatResponse{TextAnswer: "उत्तर", Mode: req.Mode}
		resp.SetAudio([]byte("mp3"), "audio/mpeg")
		return resp, nil
	})

	body, ct := multipartBody(t, map[string]string{
		"text_query": "What is bail?",
		"language":   "hi",
		"mode":       "Legal Aid (RAG)",
	}, nil)
	resp, err := http.Post(server.URL+"/v2/chat", ct, body)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if got.Text != "What is bail?" || got.Language != "hi" || got.Mode != message.ModeLegalAid {
		t.Errorf("request not mapped: %+v", got)
	}
	if got.HasAudio() {
		t.Error("text request should carry no audio")
	}

	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out["text_answer"] != "उत्तर" {
		t.Errorf("text_answer = %v", out["text_answer"])
	}
	if out["audio_answer_base64"] != "bXAz" {
		t.Errorf("audio_answer_base64 = %v", out["audio_answer_base64"])
	}
}

func TestChat_AudioUpload(t *testing.T) {
	var got *message.ChatRequest
	server := newServer(t, config.HTTPConfig{}, func(ctx context.Context, req *message.ChatRequest) (*message.ChatResponse, error) {
		got = req
		return &message.ChatResponse{TextAnswer: "ok"}, nil
	})

	body, ct := multipartBody(t, map[string]string{"language": "ml"},
		&formFile{name: "q.webm", contentType: "audio/webm", data: []byte("OPUS")})
	resp, err := http.Post(server.URL+"/v2/chat", ct, body)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if string(got.Audio) != "OPUS" || got.ContentType != "audio/webm" {
		t.Errorf("audio not forwarded: %q %q", got.Audio, got.ContentType)
	}
	if got.Mode != message.ModeGeneralChat {
		t.Errorf("mode should default to general chat, got %q", got.Mode)
	}
}

func TestChat_URLEncodedDefaults(t *testing.T) {
	var got *message.ChatRequest
	server := newServer(t, config.HTTPConfig{}, func(ctx context.Context, req *message.ChatRequest) (*message.ChatResponse, error) {
		got = req
		return &message.ChatResponse{TextAnswer: "hello"}, nil
	})

	resp, err := http.PostForm(server.URL+"/v2/chat", url.Values{"text_query": {"hi there"}})
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if got.Language != "en" || got.Mode != message.ModeGeneralChat {
		t.Errorf("defaults not applied: %+v", got)
	}
}

func TestChat_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantDetail string
	}{
		{"invalid input", dispatch.ErrInvalidInput, http.StatusBadRequest, "No query provided."},
		{"generation failure", &dispatch.GenerationError{Err: errors.New("ollama: model not found")},
			http.StatusInternalServerError, "ollama: model not found"},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newServer(t, config.HTTPConfig{}, func(context.Context, *message.ChatRequest) (*message.ChatResponse, error) {
				return nil, tt.err
			})

			resp, err := http.PostForm(server.URL+"/v2/chat", url.Values{"text_query": {"q"}})
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if got := decodeDetail(t, resp); got != tt.wantDetail {
				t.Errorf("detail = %q, want %q", got, tt.wantDetail)
			}
		})
	}
}

func TestChat_UploadTooLarge(t *testing.T) {
	called := false
	server := newServer(t, config.HTTPConfig{MaxUploadMB: 1}, func(context.Context, *message.ChatRequest) (*message.ChatResponse, error) {
		called = true
		return &message.ChatResponse{}, nil
	})

	body, ct := multipartBody(t, nil,
		&formFile{name: "big.wav", contentType: "audio/wav", data: bytes.Repeat([]byte{1}, 2<<20)})
	resp, err := http.Post(server.URL+"/v2/chat", ct, body)
	// The server may close the connection before the client finishes writing.
	if err == nil {
		resp.Body.Close()
		if resp.StatusCode != http.StatusRequestEntityTooLarge {
			t.Errorf("status = %d, want 413", resp.StatusCode)
		}
	}
	if called {
		t.Error("handler should not run for oversized uploads")
	}
}

func TestFindAidCenters(t *testing.T) {
	server := newServer(t, config.HTTPConfig{}, nil)

	t.Run("match", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/find_aid_centers?city=Delhi")
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()

		var centers []message.AidCenter
		if err := json.NewDecoder(resp.Body).Decode(&centers); err != nil {
			t.Fatalf("expected an array: %v", err)
		}
		if len(centers) != 1 || centers[0].Name != "DLSA Central" {
			t.Errorf("unexpected centers: %+v", centers)
		}
	})

	t.Run("no match", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/find_aid_centers?city=Atlantis")
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()

		var body notFoundResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatal(err)
		}
		if body.Message != "No legal aid centers found for Atlantis." {
			t.Errorf("message = %q", body.Message)
		}
	})

	t.Run("missing city", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/find_aid_centers")
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusUnprocessableEntity {
			t.Errorf("status = %d, want 422", resp.StatusCode)
		}
	})
}

func TestHealth(t *testing.T) {
	server := newServer(t, config.HTTPConfig{}, nil)

	resp, err := http.Get(server.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var body healthResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Status != "ok" || body.Version != "2.0.0" {
		t.Errorf("unexpected health body: %+v", body)
	}
	if resp.Header.Get("Content-Type") != "application/json" {
		t.Errorf("content type = %q", resp.Header.Get("Content-Type"))
	}
}
