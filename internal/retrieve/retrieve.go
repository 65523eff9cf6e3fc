// Package retrieve finds the legal-corpus passages most relevant to a query.
package retrieve

import (
	"context"
	"fmt"
	"strings"

	"github.com/nadzzz/sahayak/internal/embedding"
	"github.com/nadzzz/sahayak/internal/message"
	"github.com/nadzzz/sahayak/internal/vectordb"
)

// Searcher is the nearest-neighbour lookup over the vector index.
type Searcher interface {
	Search(ctx context.Context, query []float32, k int) ([]vectordb.Result, error)
}

// Retriever embeds queries and looks them up in the index.
type Retriever struct {
	embedder embedding.Embedder
	index    Searcher
}

// New creates a Retriever.
func New(embedder embedding.Embedder, index Searcher) *Retriever {
	return &Retriever{embedder: embedder, index: index}
}

// Retrieve returns up to k passages in the index's similarity order.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) ([]message.Passage, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("empty retrieval query")
	}

	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	hits, err := r.index.Search(ctx, vec, k)
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}

	passages := make([]message.Passage, len(hits))
	for i, h := range hits {
		passages[i] = message.Passage{
			Text:   h.Content,
			Source: h.Source,
			Page:   h.Page,
			Rank:   i + 1,
			Score:  h.Score,
		}
	}
	return passages, nil
}
