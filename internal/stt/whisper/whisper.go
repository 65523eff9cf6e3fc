// Package whisper implements the stt.Transcriber interface against Whisper
// transcription servers.
//
// Two flavors are supported:
//   - "openai": OpenAI-compatible API (api.openai.com, whisper.cpp server, faster-whisper)
//   - "asr":    ahmetoner/whisper-asr-webservice (POST /asr with query params)
package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/nadzzz/sahayak/internal/config"
	"github.com/nadzzz/sahayak/internal/stt"
)

// Transcriber sends audio to a Whisper-compatible endpoint.
type Transcriber struct {
	endpoint  string
	flavor    string // "openai" or "asr"
	apiKey    string
	model     string
	vadFilter bool
	client    *http.Client
}

// New creates a new Whisper transcriber from config.
func New(cfg config.WhisperConfig) *Transcriber {
	flavor := cfg.Type
	if flavor == "" {
		flavor = "openai"
	}
	return &Transcriber{
		endpoint:  cfg.Endpoint,
		flavor:    flavor,
		apiKey:    cfg.APIKey,
		model:     cfg.Model,
		vadFilter: cfg.VADFilter,
		client:    &http.Client{},
	}
}

// Name returns the backend identifier.
func (t *Transcriber) Name() string { return "whisper" }

// Transcribe sends audio to the configured Whisper endpoint.
func (t *Transcriber) Transcribe(ctx context.Context, audio []byte, contentType string, opts stt.TranscribeOpts) (*stt.Result, error) {
	if len(audio) == 0 {
		return nil, fmt.Errorf("empty audio for transcription")
	}
	switch t.flavor {
	case "asr":
		return t.transcribeASR(ctx, audio, contentType, opts)
	default:
		return t.transcribeOpenAI(ctx, audio, contentType, opts)
	}
}

// transcribeASR targets ahmetoner/whisper-asr-webservice:
// POST /asr?task=transcribe&output=json with the audio in "audio_file".
func (t *Transcriber) transcribeASR(ctx context.Context, audio []byte, contentType string, opts stt.TranscribeOpts) (*stt.Result, error) {
	body, formType, err := audioForm("audio_file", audio, contentType, nil)
	if err != nil {
		return nil, err
	}

	params := url.Values{
		"task":   {"transcribe"},
		"output": {"json"},
		"encode": {"true"},
	}
	if opts.Language != "" {
		params.Set("language", opts.Language)
	}
	if opts.Prompt != "" {
		params.Set("initial_prompt", opts.Prompt)
	}
	if t.vadFilter {
		params.Set("vad_filter", "true")
	}

	target := t.endpoint + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, body)
	if err != nil {
		return nil, fmt.Errorf("building asr request: %w", err)
	}
	req.Header.Set("Content-Type", formType)

	slog.Debug("whisper-asr request", "url", target, "bytes", len(audio))
	return t.do(req)
}

// transcribeOpenAI targets /v1/audio/transcriptions compatible servers.
func (t *Transcriber) transcribeOpenAI(ctx context.Context, audio []byte, contentType string, opts stt.TranscribeOpts) (*stt.Result, error) {
	fields := map[string]string{
		"model":           t.model,
		"language":        opts.Language,
		"prompt":          opts.Prompt,
		"response_format": "verbose_json",
	}
	body, formType, err := audioForm("file", audio, contentType, fields)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("building transcription request: %w", err)
	}
	req.Header.Set("Content-Type", formType)
	if t.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+t.apiKey)
	}
	return t.do(req)
}

// audioForm encodes audio as a multipart file part named field, followed by
// the non-empty text fields.
func audioForm(field string, audio []byte, contentType string, fields map[string]string) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)

	part, err := mw.CreateFormFile(field, "audio"+extFromContentType(contentType))
	if err != nil {
		return nil, "", fmt.Errorf("creating audio part: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return nil, "", fmt.Errorf("writing audio part: %w", err)
	}
	for name, value := range fields {
		if value == "" {
			continue
		}
		if err := mw.WriteField(name, value); err != nil {
			return nil, "", fmt.Errorf("writing %s field: %w", name, err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("closing form: %w", err)
	}
	return body, mw.FormDataContentType(), nil
}

func (t *Transcriber) do(req *http.Request) (*stt.Result, error) {
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("whisper %s: %w", t.flavor, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("whisper %s returned %d: %s", t.flavor, resp.StatusCode, detail)
	}

	// Both flavors answer with at least {"text", "language"}.
	var out transcription
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("whisper %s: decoding response: %w", t.flavor, err)
	}

	res := &stt.Result{
		Text:     strings.TrimSpace(out.Text),
		Language: languageCode(out.Language),
	}
	slog.Debug("transcription complete", "flavor", t.flavor, "chars", len(res.Text), "language", res.Language)
	return res, nil
}

type transcription struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

// Close is a no-op; connections are per-request.
func (t *Transcriber) Close() error { return nil }

// audioExts maps content-type fragments to file extensions. Whisper servers
// sniff the format from the upload filename.
var audioExts = []struct{ fragment, ext string }{
	{"wav", ".wav"},
	{"ogg", ".ogg"},
	{"mp3", ".mp3"},
	{"mpeg", ".mp3"},
	{"flac", ".flac"},
	{"webm", ".webm"},
	{"m4a", ".m4a"},
	{"mp4", ".m4a"},
}

func extFromContentType(ct string) string {
	for _, e := range audioExts {
		if strings.Contains(ct, e.fragment) {
			return e.ext
		}
	}
	return ".wav"
}

// languageNames maps the full names OpenAI reports to ISO-639-1 codes.
var languageNames = map[string]string{
	"english":   "en",
	"hindi":     "hi",
	"kannada":   "kn",
	"tamil":     "ta",
	"telugu":    "te",
	"malayalam": "ml",
	"marathi":   "mr",
	"bengali":   "bn",
	"gujarati":  "gu",
	"punjabi":   "pa",
	"urdu":      "ur",
}

func languageCode(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if code, ok := languageNames[lang]; ok {
		return code
	}
	return lang
}
