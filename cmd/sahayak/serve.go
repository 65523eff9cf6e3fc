package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	_ "github.com/nadzzz/sahayak/docs"
	"github.com/nadzzz/sahayak/internal/aidcenter"
	"github.com/nadzzz/sahayak/internal/config"
	"github.com/nadzzz/sahayak/internal/dispatch"
	"github.com/nadzzz/sahayak/internal/embedding"
	"github.com/nadzzz/sahayak/internal/generate"
	"github.com/nadzzz/sahayak/internal/health"
	"github.com/nadzzz/sahayak/internal/llm"
	"github.com/nadzzz/sahayak/internal/llm/gemini"
	"github.com/nadzzz/sahayak/internal/llm/ollama"
	"github.com/nadzzz/sahayak/internal/llm/openai"
	"github.com/nadzzz/sahayak/internal/retrieve"
	"github.com/nadzzz/sahayak/internal/stt"
	"github.com/nadzzz/sahayak/internal/stt/whisper"
	"github.com/nadzzz/sahayak/internal/translate"
	"github.com/nadzzz/sahayak/internal/translate/google"
	"github.com/nadzzz/sahayak/internal/translate/libre"
	"github.com/nadzzz/sahayak/internal/transport"
	httptransport "github.com/nadzzz/sahayak/internal/transport/http"
	mcptransport "github.com/nadzzz/sahayak/internal/transport/mcp"
	"github.com/nadzzz/sahayak/internal/tts"
	"github.com/nadzzz/sahayak/internal/tts/gtts"
	"github.com/nadzzz/sahayak/internal/tts/piper"
	"github.com/nadzzz/sahayak/internal/vectordb"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the chat API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
}

func serve(parent context.Context, cfg *config.Config) error {
	slog.Info("sahayak starting", "version", version)

	// Create root context with signal handling for graceful shutdown.
	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	model, err := newModel(ctx, cfg.LLM)
	if err != nil {
		return err
	}
	defer model.Close()

	// A missing index only disables legal-aid mode; general chat keeps working.
	var retriever generate.Retriever
	index, err := vectordb.Open(cfg.Knowledge.IndexPath, true)
	if err != nil {
		slog.Warn("vector index unavailable, legal-aid mode disabled",
			"path", cfg.Knowledge.IndexPath, "error", err)
	} else {
		defer index.Close()
		retriever = retrieve.New(embedding.NewOllama(cfg.Embedding), index)
		if n, err := index.Count(ctx); err == nil {
			slog.Info("vector index loaded", "path", cfg.Knowledge.IndexPath, "chunks", n)
		}
	}

	transcriber := newTranscriber(cfg.Transcriber)
	if transcriber != nil {
		defer transcriber.Close()
	}
	synth := newSynthesizer(cfg.TTS)
	if synth != nil {
		defer synth.Close()
	}

	dispatcher := dispatch.New(dispatch.Deps{
		Transcriber: transcriber,
		Translator:  newTranslator(cfg.Translator),
		Generator:   generate.New(model, retriever),
		Synthesizer: synth,
		Timeouts:    cfg.Timeouts,
	})

	centers, err := aidcenter.New(cfg.AidCenters.Path)
	if err != nil {
		return fmt.Errorf("loading aid centers: %w", err)
	}
	if cfg.AidCenters.Watch {
		go func() {
			if err := centers.Watch(ctx); err != nil {
				slog.Error("aid center watcher stopped", "error", err)
			}
		}()
	}

	// Initialize enabled transports.
	var transports []transport.Transport
	if cfg.Transports.HTTP.Enabled {
		transports = append(transports, httptransport.New(cfg.Transports.HTTP, centers, version))
	}
	if cfg.Transports.MCP.Enabled {
		transports = append(transports, mcptransport.New(cfg.Transports.MCP, centers, version))
	}
	if len(transports) == 0 {
		return errors.New("no transports enabled, enable at least one in config")
	}

	// Start health check server.
	healthServer := health.New(cfg.Server.HealthPort, cfg.Server.GRPCHealthPort)
	go func() {
		if err := healthServer.ListenAndServe(ctx); err != nil {
			slog.Error("health server failed", "error", err)
		}
	}()

	// Start all transports.
	var wg sync.WaitGroup
	for _, t := range transports {
		wg.Add(1)
		go func(t transport.Transport) {
			defer wg.Done()
			slog.Info("starting transport", "name", t.Name())
			if err := t.Listen(ctx, dispatcher.Handle); err != nil {
				slog.Error("transport failed", "name", t.Name(), "error", err)
			}
		}(t)
	}

	healthServer.SetReady(true)
	slog.Info("sahayak ready",
		"transports", len(transports),
		"llm", model.Name(),
		"legal_aid", retriever != nil,
		"aid_centers", centers.Len())

	// Block until shutdown signal.
	<-ctx.Done()
	slog.Info("shutdown signal received, draining...")
	healthServer.SetReady(false)

	for _, t := range transports {
		if err := t.Close(); err != nil {
			slog.Error("transport close error", "name", t.Name(), "error", err)
		}
	}

	wg.Wait()
	slog.Info("sahayak stopped")
	return nil
}

func newModel(ctx context.Context, cfg config.LLMConfig) (llm.Model, error) {
	switch cfg.Backend {
	case "openai":
		slog.Info("using OpenAI model", "model", cfg.OpenAI.Model)
		return openai.New(cfg.OpenAI), nil
	case "gemini":
		slog.Info("using Gemini model", "model", cfg.Gemini.Model)
		m, err := gemini.New(ctx, cfg.Gemini, "")
		if err != nil {
			return nil, fmt.Errorf("creating gemini model: %w", err)
		}
		return m, nil
	case "ollama":
		slog.Info("using Ollama model", "endpoint", cfg.Ollama.Endpoint, "model", cfg.Ollama.Model)
		return ollama.New(cfg.Ollama), nil
	default:
		return nil, fmt.Errorf("unknown llm backend %q", cfg.Backend)
	}
}

func newTranscriber(cfg config.TranscriberConfig) stt.Transcriber {
	if cfg.Backend != "whisper" {
		slog.Info("speech transcription disabled")
		return nil
	}
	slog.Info("using whisper transcriber", "endpoint", cfg.Whisper.Endpoint, "type", cfg.Whisper.Type)
	return whisper.New(cfg.Whisper)
}

func newTranslator(cfg config.TranslatorConfig) translate.Translator {
	switch cfg.Backend {
	case "google":
		if cfg.Google.APIKey == "" {
			slog.Warn("google translator has no api key, answers will stay in English")
		}
		return google.New(cfg.Google)
	case "libre":
		slog.Info("using LibreTranslate", "endpoint", cfg.Libre.Endpoint)
		return libre.New(cfg.Libre)
	default:
		slog.Info("translation disabled")
		return nil
	}
}

func newSynthesizer(cfg config.TTSConfig) tts.Synthesizer {
	if !cfg.Enabled {
		slog.Info("speech synthesis disabled")
		return nil
	}
	switch cfg.Backend {
	case "piper":
		slog.Info("using piper synthesizer", "endpoint", cfg.Piper.Endpoint)
		return piper.New(cfg.Piper)
	default:
		slog.Info("using gtts synthesizer")
		return gtts.New(cfg.GTTS)
	}
}
