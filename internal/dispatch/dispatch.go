// Package dispatch implements the chat pipeline.
//
// A request runs strictly in order: transcribe (audio only), translate the
// query to English, generate, translate the answer back, synthesize speech.
// Only an empty query and a failed generation end the request with an error.
// Transcription, translation and synthesis failures degrade the response and
// are logged.
package dispatch

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/nadzzz/sahayak/internal/config"
	"github.com/nadzzz/sahayak/internal/generate"
	"github.com/nadzzz/sahayak/internal/message"
	"github.com/nadzzz/sahayak/internal/stt"
	"github.com/nadzzz/sahayak/internal/translate"
	"github.com/nadzzz/sahayak/internal/tts"
)

// Generator answers an English query under a mode.
type Generator interface {
	Generate(ctx context.Context, query string, mode message.Mode) (*generate.Answer, error)
}

// Deps are the collaborators shared by every request. Transcriber,
// Translator and Synthesizer may be nil.
type Deps struct {
	Transcriber stt.Transcriber
	Translator  translate.Translator
	Generator   Generator
	Synthesizer tts.Synthesizer
	Timeouts    config.TimeoutsConfig
}

// Dispatcher runs chat requests. It holds no per-request state and is safe
// for concurrent use.
type Dispatcher struct {
	deps Deps
}

// New creates a Dispatcher.
func New(deps Deps) *Dispatcher {
	return &Dispatcher{deps: deps}
}

// Handle processes one chat request through the full pipeline.
// This function is passed as the transport.Handler to each transport.
func (d *Dispatcher) Handle(ctx context.Context, req *message.ChatRequest) (*message.ChatResponse, error) {
	start := time.Now()
	logger := slog.With("message_id", req.ID, "source", req.Source)
	logger.Info("chat started", "language", req.Language, "mode", req.Mode, "audio", req.HasAudio())

	resp := &message.ChatResponse{Mode: req.Mode}
	degrade := func(dg Degradation) {
		logger.Warn("step degraded", "step", dg.Step, "error", dg.Err)
		resp.Degraded = append(resp.Degraded, dg.Step)
	}

	// Step 1: resolve the query. Audio always overrides typed text.
	query := req.Text
	if req.HasAudio() {
		transcript, dg := d.transcribe(ctx, req)
		if dg != nil {
			degrade(*dg)
		}
		query = transcript
		resp.Transcript = transcript
	}

	// Step 2: reject empty queries.
	query = strings.TrimSpace(query)
	if query == "" {
		logger.Info("rejected empty query")
		return nil, ErrInvalidInput
	}

	// Step 3: normalize to the working language.
	tctx, cancel := d.bound(ctx, d.deps.Timeouts.Translation)
	in := translate.Normalize(tctx, d.deps.Translator, query, req.Language, message.WorkingLanguage)
	cancel()
	if in.Degraded() {
		degrade(Degradation{Step: StepQueryTranslation, Err: in.Err})
	}

	// Steps 4-5: generate; failure is fatal.
	gctx, cancel := d.bound(ctx, d.deps.Timeouts.Generation)
	answer, err := d.deps.Generator.Generate(gctx, in.Text, req.Mode)
	cancel()
	if err != nil {
		logger.Error("generation failed", "error", err, "duration", time.Since(start))
		return nil, &GenerationError{Err: err}
	}
	logger.Info("answer generated", "mode", answer.Mode, "passages", len(answer.Passages), "length", len(answer.Text))

	// Step 6: translate the answer back.
	tctx, cancel = d.bound(ctx, d.deps.Timeouts.Translation)
	out := translate.Normalize(tctx, d.deps.Translator, answer.Text, message.WorkingLanguage, req.Language)
	cancel()
	if out.Degraded() {
		degrade(Degradation{Step: StepAnswerTranslation, Err: out.Err})
	}
	resp.TextAnswer = out.Text
	resp.Mode = answer.Mode

	// Step 7: speak the final answer.
	if dg := d.synthesize(ctx, resp, req.Language); dg != nil {
		degrade(*dg)
	}

	logger.Info("chat complete", "duration", time.Since(start), "audio_bytes", len(resp.AudioAnswer), "degraded", len(resp.Degraded))
	return resp, nil
}

func (d *Dispatcher) transcribe(ctx context.Context, req *message.ChatRequest) (string, *Degradation) {
	if d.deps.Transcriber == nil {
		return "", &Degradation{Step: StepTranscription, Err: errNoTranscriber}
	}

	ctx, cancel := d.bound(ctx, d.deps.Timeouts.Transcription)
	defer cancel()

	// The form defaults language to en, so only a non-default choice is a
	// real hint; otherwise Whisper detects the spoken language itself.
	var opts stt.TranscribeOpts
	if req.Language != message.WorkingLanguage {
		opts.Language = req.Language
	}

	res, err := d.deps.Transcriber.Transcribe(ctx, req.Audio, req.ContentType, opts)
	if err != nil {
		return "", &Degradation{Step: StepTranscription, Err: err}
	}
	slog.Debug("transcription complete", "message_id", req.ID, "text_length", len(res.Text), "language", res.Language)
	return res.Text, nil
}

func (d *Dispatcher) synthesize(ctx context.Context, resp *message.ChatResponse, language string) *Degradation {
	if d.deps.Synthesizer == nil || resp.TextAnswer == "" {
		return nil
	}

	ctx, cancel := d.bound(ctx, d.deps.Timeouts.Synthesis)
	defer cancel()

	res, err := d.deps.Synthesizer.Synthesize(ctx, resp.TextAnswer, tts.SynthesizeOpts{Language: language})
	if err != nil {
		return &Degradation{Step: StepSynthesis, Err: err}
	}
	resp.SetAudio(res.Audio, res.ContentType)
	return nil
}

// bound derives a context limited by timeout; zero leaves only the parent's limits.
func (d *Dispatcher) bound(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
