// Package translate defines the interface for text translation and the
// best-effort normalization step used by the dispatcher.
package translate

import (
	"context"
	"errors"
	"strings"
)

// ErrNoTranslator is reported when translation is needed but no backend is configured.
var ErrNoTranslator = errors.New("no translator configured")

// Translator converts text between languages.
type Translator interface {
	// Name returns the backend identifier (e.g., "google", "libre").
	Name() string

	// Translate converts text from source to target. Both are ISO-639-1 codes;
	// source may be "auto" to let the backend detect it.
	Translate(ctx context.Context, text, source, target string) (string, error)
}

// Result is the outcome of one normalization call.
type Result struct {
	// Text is the translated text, or the input text when the call was
	// skipped or failed.
	Text string

	// Skipped is true when no backend call was made.
	Skipped bool

	// Err is the backend failure that caused a fallback to the input text.
	Err error
}

// Degraded reports whether the result fell back to the untranslated input.
func (r Result) Degraded() bool { return r.Err != nil }

// Normalize translates text from source to target with pass-through semantics:
// no call is made when the languages match or the text is empty, and any
// backend failure returns the original text with Err set.
func Normalize(ctx context.Context, t Translator, text, source, target string) Result {
	if text == "" || strings.EqualFold(source, target) {
		return Result{Text: text, Skipped: true}
	}
	if t == nil {
		return Result{Text: text, Err: ErrNoTranslator}
	}

	out, err := t.Translate(ctx, text, source, target)
	if err != nil {
		return Result{Text: text, Err: err}
	}
	if strings.TrimSpace(out) == "" {
		return Result{Text: text, Err: errors.New("translator returned empty text")}
	}
	return Result{Text: out}
}
