// Package llm defines the interface for language-model backends.
//
// A Model completes a fully rendered prompt. Prompt construction and the
// answering policy live in the generate package.
package llm

import "context"

// Model is a text-completion backend.
type Model interface {
	// Name returns the backend identifier (e.g., "ollama", "gemini").
	Name() string

	// Generate completes the prompt and returns the raw model output.
	// An empty completion is not an error.
	Generate(ctx context.Context, prompt string) (string, error)

	// Close releases any resources held by the backend.
	Close() error
}
