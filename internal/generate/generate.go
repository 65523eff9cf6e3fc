// Package generate produces English answers under the legal-aid (RAG) and
// general-chat policies.
package generate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tmc/langchaingo/prompts"

	"github.com/nadzzz/sahayak/internal/llm"
	"github.com/nadzzz/sahayak/internal/message"
)

// TopK is the fixed number of passages supplied to the model in RAG mode.
const TopK = 2

// Fallback answers used when the model returns nothing.
const (
	EmptyRAGAnswer     = "No answer found."
	EmptyGeneralAnswer = "I am not sure how to respond."
)

// ErrNoRetriever is returned in RAG mode when no knowledge index is loaded.
var ErrNoRetriever = errors.New("knowledge index not loaded")

// Retriever fetches passages from the legal corpus.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]message.Passage, error)
}

// Answer is a generated English answer.
type Answer struct {
	Text     string
	Mode     message.Mode
	Passages []message.Passage
}

// Generator renders the policy prompt and calls the model.
type Generator struct {
	model     llm.Model
	retriever Retriever
	rag       prompts.PromptTemplate
	general   prompts.PromptTemplate
}

// New creates a Generator. retriever may be nil, in which case RAG requests fail.
func New(model llm.Model, retriever Retriever) *Generator {
	return &Generator{
		model:     model,
		retriever: retriever,
		rag:       newRAGPrompt(),
		general:   newGeneralPrompt(),
	}
}

// Generate answers query under the policy selected by mode.
func (g *Generator) Generate(ctx context.Context, query string, mode message.Mode) (*Answer, error) {
	if mode == message.ModeLegalAid {
		return g.generateRAG(ctx, query)
	}
	return g.generateGeneral(ctx, query)
}

func (g *Generator) generateRAG(ctx context.Context, query string) (*Answer, error) {
	if g.retriever == nil {
		return nil, ErrNoRetriever
	}

	passages, err := g.retriever.Retrieve(ctx, query, TopK)
	if err != nil {
		return nil, fmt.Errorf("retrieving context: %w", err)
	}

	prompt, err := g.RenderRAG(passages, query)
	if err != nil {
		return nil, err
	}

	out, err := g.model.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	text := strings.TrimSpace(out)
	if text == "" {
		text = EmptyRAGAnswer
	}
	slog.Debug("rag answer generated", "passages", len(passages), "model", g.model.Name())
	return &Answer{Text: text, Mode: message.ModeLegalAid, Passages: passages}, nil
}

func (g *Generator) generateGeneral(ctx context.Context, query string) (*Answer, error) {
	prompt, err := g.RenderGeneral(query)
	if err != nil {
		return nil, err
	}

	out, err := g.model.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	text := strings.TrimSpace(out)
	if text == "" {
		text = EmptyGeneralAnswer
	}
	return &Answer{Text: text, Mode: message.ModeGeneralChat}, nil
}

// RenderRAG builds the strict legal-text prompt. Passages are joined by a
// blank line in the order given.
func (g *Generator) RenderRAG(passages []message.Passage, query string) (string, error) {
	texts := make([]string, len(passages))
	for i, p := range passages {
		texts[i] = p.Text
	}
	out, err := g.rag.Format(map[string]any{
		"context":  strings.Join(texts, "\n\n"),
		"question": query,
	})
	if err != nil {
		return "", fmt.Errorf("rendering rag prompt: %w", err)
	}
	return out, nil
}

// RenderGeneral builds the Sahayak persona prompt.
func (g *Generator) RenderGeneral(query string) (string, error) {
	out, err := g.general.Format(map[string]any{"question": query})
	if err != nil {
		return "", fmt.Errorf("rendering general prompt: %w", err)
	}
	return out, nil
}
