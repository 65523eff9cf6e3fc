// Package message defines the core data types flowing through the sahayak pipeline.
package message

import (
	"encoding/base64"
	"time"

	"github.com/google/uuid"
)

// WorkingLanguage is the ISO-639-1 code every query is normalized to before generation.
const WorkingLanguage = "en"

// Mode selects the answering policy for a chat request.
type Mode string

const (
	// ModeLegalAid answers strictly from the indexed legal corpus.
	ModeLegalAid Mode = "Legal Aid (RAG)"

	// ModeGeneralChat answers as a free-form conversational assistant.
	ModeGeneralChat Mode = "General Chat"
)

// ParseMode maps a caller-supplied mode string onto a known Mode.
// Anything other than the exact legal-aid selector falls back to general chat.
func ParseMode(s string) Mode {
	if Mode(s) == ModeLegalAid {
		return ModeLegalAid
	}
	return ModeGeneralChat
}

// ChatRequest represents one incoming query from any transport.
type ChatRequest struct {
	// ID is a unique identifier for this request (UUID).
	ID string `json:"id"`

	// Source identifies the transport or client that sent the request.
	Source string `json:"source"`

	// Text is the typed query. Ignored when Audio is non-empty.
	Text string `json:"text,omitempty"`

	// Audio is the raw spoken query. Nil if the request is text-only.
	Audio []byte `json:"-"`

	// ContentType is the MIME type of the audio (e.g., "audio/webm", "audio/wav").
	ContentType string `json:"content_type,omitempty"`

	// Language is the ISO-639-1 code the user speaks and wants the answer in.
	Language string `json:"language"`

	// Mode is the answering policy.
	Mode Mode `json:"mode"`

	// Timestamp is when the request was received.
	Timestamp time.Time `json:"timestamp"`
}

// NewChatRequest builds a request with a fresh ID and the documented defaults
// for empty language and mode.
func NewChatRequest(source, text, language, mode string) *ChatRequest {
	if language == "" {
		language = WorkingLanguage
	}
	if mode == "" {
		mode = string(ModeGeneralChat)
	}
	return &ChatRequest{
		ID:        uuid.NewString(),
		Source:    source,
		Text:      text,
		Language:  language,
		Mode:      ParseMode(mode),
		Timestamp: time.Now(),
	}
}

// HasAudio returns true if the request contains an audio payload.
func (r *ChatRequest) HasAudio() bool {
	return len(r.Audio) > 0
}

// Passage is one retrieved piece of the legal corpus.
type Passage struct {
	Text   string  `json:"text"`
	Source string  `json:"source"`
	Page   int     `json:"page"`
	Rank   int     `json:"rank"`
	Score  float64 `json:"score"`
}

// ChatResponse is the final payload returned to the caller.
type ChatResponse struct {
	// TextAnswer is the answer in the requested language.
	TextAnswer string `json:"text_answer"`

	// AudioAnswerBase64 is the synthesized answer, base64-encoded. Empty when synthesis
	// was disabled or failed.
	AudioAnswerBase64 string `json:"audio_answer_base64"`

	// AudioContentType is the MIME type of the synthesized audio (e.g., "audio/mpeg").
	AudioContentType string `json:"audio_content_type,omitempty"`

	// Transcript is the text recognized from the audio query.
	Transcript string `json:"transcript,omitempty"`

	// Mode is the effective answering policy.
	Mode Mode `json:"mode,omitempty"`

	// Degraded names the best-effort steps that fell back during this request.
	Degraded []string `json:"degraded,omitempty"`

	// AudioAnswer holds the raw synthesized bytes.
	AudioAnswer []byte `json:"-"`
}

// SetAudio stores raw audio bytes and their base64 wire form.
func (r *ChatResponse) SetAudio(audio []byte, contentType string) {
	if len(audio) == 0 {
		return
	}
	r.AudioAnswer = audio
	r.AudioAnswerBase64 = base64.StdEncoding.EncodeToString(audio)
	r.AudioContentType = contentType
}

// AidCenter is one row of the legal-aid center table.
type AidCenter struct {
	City    string `json:"city"`
	State   string `json:"state"`
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}
