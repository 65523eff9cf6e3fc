// Package piper implements the tts.Synthesizer interface against a Piper
// server speaking the Wyoming protocol over TCP (port 10200 by default).
package piper

import (
	"bufio"
	"bytes"
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/nadzzz/sahayak/internal/config"
	"github.com/nadzzz/sahayak/internal/tts"
)

// defaultVoices maps the UI languages Piper has models for. Kannada and
// Tamil have no Piper voice and need an explicit voices entry.
var defaultVoices = map[string]string{
	"en": "en_US-lessac-medium",
	"hi": "hi_IN-pratham-medium",
	"ml": "ml_IN-meera-medium",
	"te": "te_IN-maya-medium",
}

// Synthesizer talks to one Piper server, or one per language.
type Synthesizer struct {
	endpoint  string
	endpoints map[string]string
	voices    map[string]string
}

// New creates a Piper synthesizer from config. Per-language endpoints take
// precedence over the shared one; configured voices override the defaults.
func New(cfg config.PiperConfig) *Synthesizer {
	s := &Synthesizer{
		endpoint:  hostPort(cfg.Endpoint),
		endpoints: map[string]string{},
		voices:    map[string]string{},
	}
	for _, m := range []map[string]string{defaultVoices, cfg.Voices} {
		for lang, voice := range m {
			s.voices[lang] = voice
		}
	}
	for lang, ep := range cfg.Endpoints {
		s.endpoints[lang] = hostPort(ep)
	}
	return s
}

// hostPort strips URL schemes users tend to paste from the Piper docs.
func hostPort(ep string) string {
	for _, scheme := range []string{"tcp://", "http://"} {
		ep = strings.TrimPrefix(ep, scheme)
	}
	return ep
}

// Name returns the backend identifier.
func (s *Synthesizer) Name() string { return "piper" }

// route picks the voice and server for a synthesis call.
func (s *Synthesizer) route(opts tts.SynthesizeOpts) (voice, addr string, err error) {
	voice = cmp.Or(opts.Voice, s.voices[opts.Language])
	if voice == "" {
		return "", "", fmt.Errorf("no piper voice for language %q", opts.Language)
	}
	addr = cmp.Or(s.endpoints[opts.Language], s.endpoint)
	if addr == "" {
		return "", "", fmt.Errorf("no piper endpoint for language %q", opts.Language)
	}
	return voice, addr, nil
}

// Synthesize runs one Wyoming exchange and returns the streamed PCM as a WAV file.
func (s *Synthesizer) Synthesize(ctx context.Context, text string, opts tts.SynthesizeOpts) (*tts.Result, error) {
	if text == "" {
		return nil, fmt.Errorf("empty text for synthesis")
	}
	voice, addr, err := s.route(opts)
	if err != nil {
		return nil, err
	}

	conn, err := (&net.Dialer{Timeout: 10 * time.Second}).DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dialing piper at %s: %w", addr, err)
	}
	defer conn.Close()

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(30 * time.Second)
	}
	_ = conn.SetDeadline(deadline)

	synth := event{Type: "synthesize", Data: map[string]any{
		"text":  text,
		"voice": map[string]any{"name": voice},
	}}
	if err := writeEvent(conn, synth, nil); err != nil {
		return nil, fmt.Errorf("piper synthesize: %w", err)
	}

	audio, err := collect(bufio.NewReader(conn))
	if err != nil {
		return nil, err
	}
	slog.Debug("piper synthesis complete", "voice", voice, "wav_bytes", len(audio))
	return &tts.Result{Audio: audio, ContentType: "audio/wav"}, nil
}

// collect reads audio events until audio-stop and wraps the PCM in a WAV header.
func collect(r *bufio.Reader) ([]byte, error) {
	var pcm bytes.Buffer
	format := audioFormat{rate: 22050, channels: 1, width: 2}
	for {
		evt, payload, err := readEvent(r)
		if err != nil {
			return nil, fmt.Errorf("piper stream: %w", err)
		}

		switch evt.Type {
		case "audio-start":
			format = format.update(evt.Data)
		case "audio-chunk":
			pcm.Write(payload)
		case "audio-stop":
			return wavFile(pcm.Bytes(), format.rate, format.channels, format.width), nil
		case "error":
			msg, _ := evt.Data["text"].(string)
			return nil, fmt.Errorf("piper: %s", cmp.Or(msg, "unknown error"))
		}
	}
}

// Close is a no-op; connections are per-request.
func (s *Synthesizer) Close() error { return nil }

type audioFormat struct {
	rate, channels, width int
}

func (f audioFormat) update(data map[string]any) audioFormat {
	num := func(key string, def int) int {
		if v, ok := data[key].(float64); ok {
			return int(v)
		}
		return def
	}
	return audioFormat{
		rate:     num("rate", f.rate),
		channels: num("channels", f.channels),
		width:    num("width", f.width),
	}
}
