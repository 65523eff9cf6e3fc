package whisper

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nadzzz/sahayak/internal/config"
	"github.com/nadzzz/sahayak/internal/stt"
)

func TestTranscribe_OpenAIFlavor(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer key" {
			t.Errorf("unexpected auth header: %q", got)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("missing file part: %v", err)
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		if string(data) != "RIFFdata" {
			t.Errorf("unexpected audio payload: %q", data)
		}
		if header.Filename != "audio.webm" {
			t.Errorf("unexpected filename: %s", header.Filename)
		}
		if r.FormValue("language") != "hi" {
			t.Errorf("language not forwarded: %q", r.FormValue("language"))
		}
		json.NewEncoder(w).Encode(map[string]string{"text": "  namaste  ", "language": "hindi"})
	}))
	defer server.Close()

	tr := New(config.WhisperConfig{Endpoint: server.URL, APIKey: "key", Model: "base"})
	res, err := tr.Transcribe(context.Background(), []byte("RIFFdata"), "audio/webm", stt.TranscribeOpts{Language: "hi"})
	if err != nil {
		t.Fatalf("transcribe failed: %v", err)
	}
	if res.Text != "namaste" {
		t.Errorf("text not trimmed: %q", res.Text)
	}
	if res.Language != "hi" {
		t.Errorf("language not normalized: %q", res.Language)
	}
}

func TestTranscribe_ASRFlavor(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("task") != "transcribe" {
			t.Errorf("missing task param: %s", r.URL.RawQuery)
		}
		if r.URL.Query().Get("vad_filter") != "true" {
			t.Errorf("vad filter not forwarded: %s", r.URL.RawQuery)
		}
		if _, _, err := r.FormFile("audio_file"); err != nil {
			t.Errorf("missing audio_file part: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]string{"text": "hello", "language": "en"})
	}))
	defer server.Close()

	tr := New(config.WhisperConfig{Endpoint: server.URL, Type: "asr", VADFilter: true})
	res, err := tr.Transcribe(context.Background(), []byte{1, 2, 3}, "audio/wav", stt.TranscribeOpts{})
	if err != nil {
		t.Fatalf("transcribe failed: %v", err)
	}
	if res.Text != "hello" || res.Language != "en" {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestTranscribe_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	tr := New(config.WhisperConfig{Endpoint: server.URL})
	if _, err := tr.Transcribe(context.Background(), []byte{1}, "", stt.TranscribeOpts{}); err == nil {
		t.Error("should error on 503")
	}
}

func TestTranscribe_EmptyAudio(t *testing.T) {
	tr := New(config.WhisperConfig{Endpoint: "http://unused"})
	if _, err := tr.Transcribe(context.Background(), nil, "", stt.TranscribeOpts{}); err == nil {
		t.Error("should reject empty audio")
	}
}

func TestExtFromContentType(t *testing.T) {
	tests := map[string]string{
		"audio/webm;codecs=opus": ".webm",
		"audio/mpeg":             ".mp3",
		"audio/ogg":              ".ogg",
		"":                       ".wav",
	}
	for ct, want := range tests {
		if got := extFromContentType(ct); got != want {
			t.Errorf("extFromContentType(%q) = %q, want %q", ct, got, want)
		}
	}
}
