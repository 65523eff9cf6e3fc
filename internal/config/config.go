// Package config handles loading and validating the sahayak configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration for the sahayak server and ingestion tool.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Transports  TransportsConfig  `mapstructure:"transports"`
	Transcriber TranscriberConfig `mapstructure:"transcriber"`
	Translator  TranslatorConfig  `mapstructure:"translator"`
	LLM         LLMConfig         `mapstructure:"llm"`
	Embedding   EmbeddingConfig   `mapstructure:"embedding"`
	Knowledge   KnowledgeConfig   `mapstructure:"knowledge"`
	TTS         TTSConfig         `mapstructure:"tts"`
	AidCenters  AidCentersConfig  `mapstructure:"aid_centers"`
	Ingest      IngestConfig      `mapstructure:"ingest"`
	Timeouts    TimeoutsConfig    `mapstructure:"timeouts"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

// ServerConfig holds the health check server settings.
type ServerConfig struct {
	HealthPort     int `mapstructure:"health_port"`
	GRPCHealthPort int `mapstructure:"grpc_health_port"` // 0 disables the gRPC health service
}

// TransportsConfig holds the configuration for each transport layer.
type TransportsConfig struct {
	HTTP HTTPConfig `mapstructure:"http"`
	MCP  MCPConfig  `mapstructure:"mcp"`
}

// HTTPConfig configures the public HTTP API.
type HTTPConfig struct {
	Enabled     bool `mapstructure:"enabled"`
	Port        int  `mapstructure:"port"`
	MaxUploadMB int  `mapstructure:"max_upload_mb"`
}

// MCPConfig configures the Model Context Protocol transport.
type MCPConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// TranscriberConfig selects and configures the speech-to-text backend.
type TranscriberConfig struct {
	Backend string        `mapstructure:"backend"` // "whisper" or "none"
	Whisper WhisperConfig `mapstructure:"whisper"`
}

// WhisperConfig holds Whisper-compatible transcription settings.
type WhisperConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	Type      string `mapstructure:"type"` // "openai" (default) or "asr" (ahmetoner/whisper-asr-webservice)
	APIKey    string `mapstructure:"api_key"`
	Model     string `mapstructure:"model"`
	VADFilter bool   `mapstructure:"vad_filter"`
}

// TranslatorConfig selects and configures the translation backend.
type TranslatorConfig struct {
	Backend string       `mapstructure:"backend"` // "google", "libre" or "none"
	Google  GoogleConfig `mapstructure:"google"`
	Libre   LibreConfig  `mapstructure:"libre"`
}

// GoogleConfig holds Google Cloud Translation v2 settings.
type GoogleConfig struct {
	APIKey   string `mapstructure:"api_key"`
	Endpoint string `mapstructure:"endpoint"`
}

// LibreConfig holds LibreTranslate settings.
type LibreConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	APIKey   string `mapstructure:"api_key"`
}

// LLMConfig selects and configures the language-model backend.
type LLMConfig struct {
	Backend string       `mapstructure:"backend"` // "ollama", "openai" or "gemini"
	Ollama  OllamaConfig `mapstructure:"ollama"`
	OpenAI  OpenAIConfig `mapstructure:"openai"`
	Gemini  GeminiConfig `mapstructure:"gemini"`
}

// OllamaConfig holds self-hosted Ollama settings.
type OllamaConfig struct {
	Endpoint    string  `mapstructure:"endpoint"`
	Model       string  `mapstructure:"model"`
	Temperature float64 `mapstructure:"temperature"`
}

// OpenAIConfig holds OpenAI-compatible chat completion settings.
type OpenAIConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	Endpoint    string  `mapstructure:"endpoint"`
	Model       string  `mapstructure:"model"`
	Temperature float64 `mapstructure:"temperature"`
}

// GeminiConfig holds Google Gemini settings.
type GeminiConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	Temperature float64 `mapstructure:"temperature"`
}

// EmbeddingConfig configures the sentence-embedding endpoint.
type EmbeddingConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	Model    string `mapstructure:"model"`
}

// KnowledgeConfig locates the vector index.
type KnowledgeConfig struct {
	IndexPath string `mapstructure:"index_path"`
}

// TTSConfig selects and configures the text-to-speech backend.
type TTSConfig struct {
	Enabled bool        `mapstructure:"enabled"`
	Backend string      `mapstructure:"backend"` // "gtts" or "piper"
	GTTS    GTTSConfig  `mapstructure:"gtts"`
	Piper   PiperConfig `mapstructure:"piper"`
}

// GTTSConfig holds Google Translate TTS settings.
type GTTSConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	Slow     bool   `mapstructure:"slow"`
}

// PiperConfig holds Piper TTS settings (Wyoming protocol).
//
// For a single Piper instance that serves all languages, set Endpoint.
// For per-language instances, set Endpoints which maps ISO-639-1 codes to
// individual Wyoming TCP endpoints. Endpoints takes precedence.
type PiperConfig struct {
	Endpoint  string            `mapstructure:"endpoint"`
	Endpoints map[string]string `mapstructure:"endpoints"`
	Voices    map[string]string `mapstructure:"voices"`
}

// AidCentersConfig locates the legal-aid center table.
type AidCentersConfig struct {
	Path  string `mapstructure:"path"`
	Watch bool   `mapstructure:"watch"`
}

// IngestConfig controls the document ingestion pipeline.
type IngestConfig struct {
	ParserEndpoint string `mapstructure:"parser_endpoint"`
	ChunkSize      int    `mapstructure:"chunk_size"`
	ChunkOverlap   int    `mapstructure:"chunk_overlap"`
	MinPageChars   int    `mapstructure:"min_page_chars"`
	OCRLanguage    string `mapstructure:"ocr_lang"`
	OCRDPI         int    `mapstructure:"ocr_dpi"`
}

// TimeoutsConfig bounds each external call made while serving a chat request.
// Zero means no bound beyond the request context.
type TimeoutsConfig struct {
	Transcription time.Duration `mapstructure:"transcription"`
	Translation   time.Duration `mapstructure:"translation"`
	Generation    time.Duration `mapstructure:"generation"`
	Synthesis     time.Duration `mapstructure:"synthesis"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, text
}

// Load reads the configuration from file, environment variables, and defaults.
// If configFile is non-empty it is used directly; otherwise the standard
// search order applies: ./sahayak.yaml, ./configs/sahayak.yaml, /etc/sahayak/sahayak.yaml.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("sahayak")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/sahayak")
	}

	// Environment variables: SAHAYAK_LLM_BACKEND, SAHAYAK_TRANSPORTS_HTTP_PORT, etc.
	v.SetEnvPrefix("SAHAYAK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		slog.Info("no config file found, using defaults and environment variables")
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	// Resolve env var references in sensitive fields (e.g., "${OPENAI_API_KEY}").
	cfg.Transcriber.Whisper.APIKey = resolveEnvRef(cfg.Transcriber.Whisper.APIKey)
	cfg.Translator.Google.APIKey = resolveEnvRef(cfg.Translator.Google.APIKey)
	cfg.Translator.Libre.APIKey = resolveEnvRef(cfg.Translator.Libre.APIKey)
	cfg.LLM.OpenAI.APIKey = resolveEnvRef(cfg.LLM.OpenAI.APIKey)
	cfg.LLM.Gemini.APIKey = resolveEnvRef(cfg.LLM.Gemini.APIKey)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.health_port", 8081)
	v.SetDefault("server.grpc_health_port", 50051)
	v.SetDefault("transports.http.enabled", true)
	v.SetDefault("transports.http.port", 8000)
	v.SetDefault("transports.http.max_upload_mb", 25)
	v.SetDefault("transports.mcp.enabled", false)
	v.SetDefault("transports.mcp.port", 8090)
	v.SetDefault("transcriber.backend", "whisper")
	v.SetDefault("transcriber.whisper.endpoint", "http://localhost:9000/v1/audio/transcriptions")
	v.SetDefault("transcriber.whisper.type", "openai")
	v.SetDefault("transcriber.whisper.model", "base")
	v.SetDefault("translator.backend", "google")
	v.SetDefault("translator.google.endpoint", "https://translation.googleapis.com/language/translate/v2")
	v.SetDefault("translator.libre.endpoint", "http://localhost:5000/translate")
	v.SetDefault("llm.backend", "ollama")
	v.SetDefault("llm.ollama.endpoint", "http://localhost:11434")
	v.SetDefault("llm.ollama.model", "mistral")
	v.SetDefault("llm.openai.endpoint", "https://api.openai.com/v1/chat/completions")
	v.SetDefault("llm.openai.model", "gpt-4o-mini")
	v.SetDefault("llm.gemini.model", "gemini-2.5-flash")
	v.SetDefault("embedding.endpoint", "http://localhost:11434")
	v.SetDefault("embedding.model", "nomic-embed-text")
	v.SetDefault("knowledge.index_path", "vector_store/index.db")
	v.SetDefault("tts.enabled", true)
	v.SetDefault("tts.backend", "gtts")
	v.SetDefault("tts.gtts.endpoint", "https://translate.google.com/translate_tts")
	v.SetDefault("tts.piper.endpoint", "localhost:10200")
	v.SetDefault("aid_centers.path", "data/legal_aid_centers.csv")
	v.SetDefault("aid_centers.watch", true)
	v.SetDefault("ingest.parser_endpoint", "http://localhost:8082")
	v.SetDefault("ingest.chunk_size", 1200)
	v.SetDefault("ingest.chunk_overlap", 150)
	v.SetDefault("ingest.min_page_chars", 150)
	v.SetDefault("ingest.ocr_lang", "eng")
	v.SetDefault("ingest.ocr_dpi", 300)
	v.SetDefault("timeouts.transcription", 60*time.Second)
	v.SetDefault("timeouts.translation", 15*time.Second)
	v.SetDefault("timeouts.generation", 120*time.Second)
	v.SetDefault("timeouts.synthesis", 30*time.Second)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Secrets have empty defaults so AutomaticEnv picks them up during Unmarshal.
	for _, key := range []string{
		"transcriber.whisper.api_key",
		"translator.google.api_key",
		"translator.libre.api_key",
		"llm.openai.api_key",
		"llm.gemini.api_key",
	} {
		v.SetDefault(key, "")
	}
}

// Validate checks the settings that would otherwise fail late at request time.
func (c *Config) Validate() error {
	switch c.LLM.Backend {
	case "ollama", "openai", "gemini":
	default:
		return fmt.Errorf("unknown llm backend %q", c.LLM.Backend)
	}
	switch c.Translator.Backend {
	case "google", "libre", "none":
	default:
		return fmt.Errorf("unknown translator backend %q", c.Translator.Backend)
	}
	switch c.Transcriber.Backend {
	case "whisper", "none":
	default:
		return fmt.Errorf("unknown transcriber backend %q", c.Transcriber.Backend)
	}
	if c.TTS.Enabled && c.TTS.Backend != "gtts" && c.TTS.Backend != "piper" {
		return fmt.Errorf("unknown tts backend %q", c.TTS.Backend)
	}
	if c.Ingest.ChunkOverlap >= c.Ingest.ChunkSize {
		return fmt.Errorf("ingest.chunk_overlap (%d) must be smaller than ingest.chunk_size (%d)",
			c.Ingest.ChunkOverlap, c.Ingest.ChunkSize)
	}
	return nil
}

// resolveEnvRef replaces "${VAR_NAME}" patterns with the corresponding env var value.
func resolveEnvRef(val string) string {
	if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
		envKey := val[2 : len(val)-1]
		if envVal := os.Getenv(envKey); envVal != "" {
			return envVal
		}
	}
	return val
}

// SetupLogging configures the global slog logger based on config.
func SetupLogging(cfg LoggingConfig) {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
