package dispatch

import "errors"

// ErrInvalidInput is returned when a request resolves to an empty query.
var ErrInvalidInput = errors.New("no query provided")

// GenerationError reports a failed answer generation. Its message is the
// backend's own, so callers can pass it through unchanged.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string { return e.Err.Error() }

func (e *GenerationError) Unwrap() error { return e.Err }

// Step names recorded when a best-effort call falls back.
const (
	StepTranscription     = "transcription"
	StepQueryTranslation  = "query_translation"
	StepAnswerTranslation = "answer_translation"
	StepSynthesis         = "synthesis"
)

// Degradation records a best-effort step that failed and the fallback used.
type Degradation struct {
	Step string
	Err  error
}

var errNoTranscriber = errors.New("speech transcription is disabled")
