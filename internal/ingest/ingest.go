// Package ingest builds the vector index from a legal document.
//
// Each page's text layer is used directly unless it is too sparse, in which
// case the page is OCR'd. Pages are split into overlapping chunks, embedded in
// order, and written to the index, replacing whatever it held before.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/tmc/langchaingo/textsplitter"

	"github.com/nadzzz/sahayak/internal/config"
	"github.com/nadzzz/sahayak/internal/embedding"
	"github.com/nadzzz/sahayak/internal/vectordb"
)

// ErrNoText is returned when no page yielded any text.
var ErrNoText = errors.New("no text could be extracted from the document")

// Writer replaces the contents of the vector index.
type Writer interface {
	Replace(ctx context.Context, chunks []vectordb.Chunk) error
}

// Page is one page of extracted content with its provenance.
type Page struct {
	Source    string
	Number    int
	Text      string
	IsScanned bool
}

// Stats summarizes one ingestion run.
type Stats struct {
	Pages        int
	ScannedPages int
	SkippedPages int
	Chunks       int
	Duration     time.Duration
}

// Pipeline runs extraction, chunking, embedding and indexing.
type Pipeline struct {
	pdf          Extractor
	text         Extractor
	embedder     embedding.Embedder
	writer       Writer
	splitter     textsplitter.RecursiveCharacter
	minPageChars int
	ocr          OCROptions
}

// New creates a Pipeline. pdf handles .pdf files; .txt and .md are read locally.
func New(cfg config.IngestConfig, pdf Extractor, embedder embedding.Embedder, writer Writer) *Pipeline {
	return &Pipeline{
		pdf:      pdf,
		text:     TextExtractor{},
		embedder: embedder,
		writer:   writer,
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(cfg.ChunkSize),
			textsplitter.WithChunkOverlap(cfg.ChunkOverlap),
		),
		minPageChars: cfg.MinPageChars,
		ocr:          OCROptions{Language: cfg.OCRLanguage, DPI: cfg.OCRDPI},
	}
}

// Run ingests the document at path and overwrites the index with its chunks.
func (p *Pipeline) Run(ctx context.Context, path string) (*Stats, error) {
	start := time.Now()
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("document not found: %w", err)
	}

	stats := &Stats{}
	pages, err := p.ExtractPages(ctx, path, stats)
	if err != nil {
		return nil, err
	}
	slog.Info("extracted pages", "path", path, "pages", len(pages), "scanned", stats.ScannedPages, "skipped", stats.SkippedPages)

	chunks, err := p.Split(pages)
	if err != nil {
		return nil, err
	}
	slog.Info("split document", "chunks", len(chunks))

	for i := range chunks {
		emb, err := p.embedder.Embed(ctx, chunks[i].Content)
		if err != nil {
			return nil, fmt.Errorf("embedding chunk %d: %w", i, err)
		}
		chunks[i].Embedding = emb
		if (i+1)%50 == 0 {
			slog.Debug("embedding progress", "done", i+1, "total", len(chunks))
		}
	}

	if err := p.writer.Replace(ctx, chunks); err != nil {
		return nil, fmt.Errorf("writing index: %w", err)
	}

	stats.Pages = len(pages)
	stats.Chunks = len(chunks)
	stats.Duration = time.Since(start)
	slog.Info("ingestion complete", "path", path, "pages", stats.Pages, "chunks", stats.Chunks, "duration", stats.Duration)
	return stats, nil
}

// ExtractPages returns the usable pages of the document, falling back to OCR
// for sparse pages. Pages whose OCR fails or that end up empty are skipped.
func (p *Pipeline) ExtractPages(ctx context.Context, path string, stats *Stats) ([]Page, error) {
	ex, err := p.extractorFor(path)
	if err != nil {
		return nil, err
	}

	raw, err := ex.Pages(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("extracting pages: %w", err)
	}

	source := filepath.Base(path)
	var pages []Page
	for _, rp := range raw {
		page := Page{Source: source, Number: rp.Number, Text: rp.Text}

		if utf8.RuneCountInString(strings.TrimSpace(rp.Text)) < p.minPageChars {
			text, err := ex.OCR(ctx, path, rp.Number, p.ocr)
			switch {
			case errors.Is(err, ErrOCRUnsupported):
			case err != nil:
				slog.Warn("ocr failed, skipping page", "page", rp.Number, "error", err)
				stats.SkippedPages++
				continue
			default:
				page.Text = text
				page.IsScanned = true
				stats.ScannedPages++
			}
		}

		if strings.TrimSpace(page.Text) == "" {
			stats.SkippedPages++
			continue
		}
		pages = append(pages, page)
	}

	if len(pages) == 0 {
		return nil, ErrNoText
	}
	return pages, nil
}

// Split chunks every page, keeping page metadata on each chunk. Chunk
// indexes run across the whole document.
func (p *Pipeline) Split(pages []Page) ([]vectordb.Chunk, error) {
	var chunks []vectordb.Chunk
	for _, page := range pages {
		parts, err := p.splitter.SplitText(page.Text)
		if err != nil {
			return nil, fmt.Errorf("splitting page %d: %w", page.Number, err)
		}
		for _, part := range parts {
			if strings.TrimSpace(part) == "" {
				continue
			}
			chunks = append(chunks, vectordb.Chunk{
				Source:     page.Source,
				Page:       page.Number,
				ChunkIndex: len(chunks),
				IsScanned:  page.IsScanned,
				Content:    part,
			})
		}
	}
	return chunks, nil
}

func (p *Pipeline) extractorFor(path string) (Extractor, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md":
		return p.text, nil
	case ".pdf":
		if p.pdf == nil {
			return nil, fmt.Errorf("no pdf extractor configured")
		}
		return p.pdf, nil
	default:
		return nil, fmt.Errorf("unsupported document type %q", filepath.Ext(path))
	}
}
