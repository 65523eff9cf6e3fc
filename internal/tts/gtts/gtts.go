// Package gtts implements the tts.Synthesizer interface with the Google
// Translate text-to-speech endpoint, which covers every UI language
// (en, hi, kn, ta, te, ml) and returns MP3.
package gtts

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"unicode"

	"github.com/nadzzz/sahayak/internal/config"
	"github.com/nadzzz/sahayak/internal/tts"
)

// maxPieceRunes is the longest text the endpoint accepts per request.
const maxPieceRunes = 100

// Synthesizer fetches one MP3 segment per text piece and concatenates them.
type Synthesizer struct {
	endpoint string
	slow     bool
	client   *http.Client
}

// New creates a gtts synthesizer from config.
func New(cfg config.GTTSConfig) *Synthesizer {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = "https://translate.google.com/translate_tts"
	}
	return &Synthesizer{endpoint: endpoint, slow: cfg.Slow, client: &http.Client{}}
}

// Name returns the backend identifier.
func (s *Synthesizer) Name() string { return "gtts" }

// Synthesize speaks text in opts.Language.
func (s *Synthesizer) Synthesize(ctx context.Context, text string, opts tts.SynthesizeOpts) (*tts.Result, error) {
	pieces := splitText(text, maxPieceRunes)
	if len(pieces) == 0 {
		return nil, fmt.Errorf("empty text for synthesis")
	}

	lang := opts.Language
	if lang == "" {
		lang = "en"
	}

	var audio bytes.Buffer
	for i, piece := range pieces {
		seg, err := s.fetch(ctx, piece, lang, i, len(pieces))
		if err != nil {
			return nil, fmt.Errorf("piece %d/%d: %w", i+1, len(pieces), err)
		}
		audio.Write(seg)
	}

	slog.Debug("gtts synthesis complete", "language", lang, "pieces", len(pieces), "bytes", audio.Len())
	return &tts.Result{Audio: audio.Bytes(), ContentType: "audio/mpeg"}, nil
}

func (s *Synthesizer) fetch(ctx context.Context, piece, lang string, idx, total int) ([]byte, error) {
	q := url.Values{}
	q.Set("ie", "UTF-8")
	q.Set("client", "tw-ob")
	q.Set("q", piece)
	q.Set("tl", lang)
	q.Set("total", fmt.Sprint(total))
	q.Set("idx", fmt.Sprint(idx))
	q.Set("textlen", fmt.Sprint(len([]rune(piece))))
	if s.slow {
		q.Set("ttsspeed", "0.3")
	} else {
		q.Set("ttsspeed", "1")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tts request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("tts failed (status %d): %s", resp.StatusCode, body)
	}
	return io.ReadAll(resp.Body)
}

// Close is a no-op.
func (s *Synthesizer) Close() error { return nil }

// splitText breaks text into pieces of at most limit runes, preferring to
// cut after sentence punctuation, then at whitespace. Words longer than limit
// are hard-split.
func splitText(text string, limit int) []string {
	var pieces []string
	rest := []rune(strings.TrimSpace(text))

	for len(rest) > 0 {
		if len(rest) <= limit {
			pieces = append(pieces, string(rest))
			break
		}

		cut := -1
		for i := limit; i > 0; i-- {
			if isSentenceEnd(rest[i-1]) {
				cut = i
				break
			}
		}
		if cut < 0 {
			for i := limit; i > 0; i-- {
				if unicode.IsSpace(rest[i]) {
					cut = i
					break
				}
			}
		}
		if cut <= 0 {
			cut = limit
		}

		if piece := strings.TrimSpace(string(rest[:cut])); piece != "" {
			pieces = append(pieces, piece)
		}
		rest = []rune(strings.TrimSpace(string(rest[cut:])))
	}
	return pieces
}

func isSentenceEnd(r rune) bool {
	switch r {
	case '.', '!', '?', ';', ':', ',', '।', '॥':
		return true
	}
	return false
}
