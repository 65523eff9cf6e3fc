// Package stt defines the interface for speech-to-text transcription.
//
// A transcriber turns a spoken query into text in the language it was
// spoken in. Translation to the working language happens later in the
// dispatch pipeline, not here.
package stt

import "context"

// TranscribeOpts controls transcription behavior.
type TranscribeOpts struct {
	// Language is the ISO-639-1 code (e.g., "hi", "ta") to guide transcription.
	// Empty lets the backend detect the language.
	Language string

	// Prompt provides context to improve recognition of domain-specific terms.
	Prompt string
}

// Result holds the output of a transcription.
type Result struct {
	// Text is the recognized speech.
	Text string

	// Language is the ISO-639-1 code reported by the backend, if any.
	Language string
}

// Transcriber converts audio bytes to text.
type Transcriber interface {
	// Name returns the backend identifier (e.g., "whisper").
	Name() string

	// Transcribe converts audio bytes of the given MIME type to text.
	Transcribe(ctx context.Context, audio []byte, contentType string, opts TranscribeOpts) (*Result, error)

	// Close releases any resources held by the transcriber.
	Close() error
}
