// Package tts defines the interface for text-to-speech synthesis.
//
// The final answer is spoken in the language the user asked in. Synthesis is
// best effort: the dispatcher returns a text-only response when it fails.
package tts

import "context"

// SynthesizeOpts controls synthesis behavior.
type SynthesizeOpts struct {
	// Language is the ISO-639-1 code (e.g., "hi", "ta") selecting the voice.
	Language string

	// Voice overrides language-based voice selection.
	Voice string
}

// Result holds synthesized audio.
type Result struct {
	// Audio is a complete audio file (MP3 or WAV, see ContentType).
	Audio []byte

	// ContentType is the MIME type of Audio (e.g., "audio/mpeg", "audio/wav").
	ContentType string
}

// Synthesizer converts text to audio.
type Synthesizer interface {
	// Name returns the backend identifier (e.g., "gtts", "piper").
	Name() string

	// Synthesize generates audio for text. Empty text is an error.
	Synthesize(ctx context.Context, text string, opts SynthesizeOpts) (*Result, error)

	// Close releases any resources held by the synthesizer.
	Close() error
}
