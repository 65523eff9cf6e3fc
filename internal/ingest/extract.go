package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrOCRUnsupported is returned by extractors that cannot rasterize pages.
var ErrOCRUnsupported = errors.New("ocr not supported for this document type")

// PageText is the directly extractable text of one page.
type PageText struct {
	Number int    `json:"number"`
	Text   string `json:"text"`
}

// OCROptions controls the OCR fallback.
type OCROptions struct {
	Language string
	DPI      int
}

// Extractor reads page text from a document.
type Extractor interface {
	// Pages returns every page in order, numbered from 1.
	Pages(ctx context.Context, path string) ([]PageText, error)

	// OCR renders one page to an image and recognizes its text.
	OCR(ctx context.Context, path string, page int, opts OCROptions) (string, error)
}

// TextExtractor reads plain-text and markdown files. A form feed separates pages.
type TextExtractor struct{}

// Pages splits the file on form feeds.
func (TextExtractor) Pages(_ context.Context, path string) ([]PageText, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	parts := strings.Split(string(data), "\f")
	pages := make([]PageText, len(parts))
	for i, p := range parts {
		pages[i] = PageText{Number: i + 1, Text: p}
	}
	return pages, nil
}

// OCR is not available for text files.
func (TextExtractor) OCR(context.Context, string, int, OCROptions) (string, error) {
	return "", ErrOCRUnsupported
}
