// Package config provides configuration loading from environment variables.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Speech providers.
const (
	ProviderGoogle  = "google"
	ProviderWhisper = "whisper"
)

// Static errors for configuration validation.
var (
	// ErrUnknownProvider is returned when SPEECH_PROVIDER is not google or whisper.
	ErrUnknownProvider = errors.New("config: SPEECH_PROVIDER must be google or whisper")
	// ErrGoogleAPIKeyRequired is returned when the google provider has no GOOGLE_API_KEY.
	ErrGoogleAPIKeyRequired = errors.New("config: GOOGLE_API_KEY is required for the google provider")
	// ErrWhisperURLRequired is returned when the whisper provider has no WHISPER_URL.
	ErrWhisperURLRequired = errors.New("config: WHISPER_URL is required for the whisper provider")
	// ErrInvalidChunkDuration is returned when CHUNK_DURATION_MS is not positive.
	ErrInvalidChunkDuration = errors.New("config: CHUNK_DURATION_MS must be positive")
	// ErrInvalidUploadLimit is returned when MAX_UPLOAD_MB is not positive.
	ErrInvalidUploadLimit = errors.New("config: MAX_UPLOAD_MB must be positive")
)

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	Port        int   `env:"PORT, default=8080" json:"port"`
	MaxUploadMB int64 `env:"MAX_UPLOAD_MB, default=100" json:"max_upload_mb"`

	// Speech settings
	SpeechProvider       string        `env:"SPEECH_PROVIDER, default=google" json:"speech_provider"`
	GoogleAPIKey         string        `env:"GOOGLE_API_KEY" json:"-"` // Masked in JSON
	GoogleSpeechEndpoint string        `env:"GOOGLE_SPEECH_ENDPOINT" json:"google_speech_endpoint,omitempty"`
	WhisperURL           string        `env:"WHISPER_URL" json:"whisper_url,omitempty"`
	WhisperModel         string        `env:"WHISPER_MODEL, default=whisper-1" json:"whisper_model"`
	WhisperAPIKey        string        `env:"WHISPER_API_KEY" json:"-"` // Masked in JSON
	SpeechTimeout        time.Duration `env:"SPEECH_TIMEOUT, default=60s" json:"speech_timeout"`

	// Storage settings
	TempDir          string `env:"TEMP_DIR, default=/tmp/transcribe" json:"temp_dir"`
	ChunkDir         string `env:"CHUNK_DIR" json:"chunk_dir,omitempty"` // Defaults to the upload's directory
	CleanupTempFiles bool   `env:"CLEANUP_TEMP_FILES, default=true" json:"cleanup_temp_files"`

	// Processing settings
	ChunkDurationMS     int    `env:"CHUNK_DURATION_MS, default=60000" json:"chunk_duration_ms"`
	MaxConcurrentChunks int    `env:"MAX_CONCURRENT_CHUNKS, default=0" json:"max_concurrent_chunks"`
	DefaultLanguage     string `env:"DEFAULT_LANGUAGE, default=en-US" json:"default_language"`
	FFmpegPath          string `env:"FFMPEG_PATH, default=ffmpeg" json:"ffmpeg_path"`

	// Analysis settings
	SentimentLexiconFile string `env:"SENTIMENT_LEXICON_FILE" json:"sentiment_lexicon_file,omitempty"` // YAML valence overrides

	// Optional S3 settings
	S3Bucket           string `env:"S3_BUCKET" json:"s3_bucket,omitempty"`
	S3Region           string `env:"S3_REGION" json:"s3_region,omitempty"`
	S3Endpoint         string `env:"S3_ENDPOINT" json:"s3_endpoint,omitempty"`
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID" json:"-"`     // Masked in JSON
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY" json:"-"` // Masked in JSON

	// Logging settings
	LogFormat string `env:"LOG_FORMAT, default=text" json:"log_format"` // "json" or "text"
	LogLevel  string `env:"LOG_LEVEL, default=info" json:"log_level"`   // "debug", "info", "warn", "error"
}

// S3Enabled returns true if S3 configuration is provided.
func (c *Config) S3Enabled() bool {
	return c.S3Bucket != "" && c.S3Region != ""
}

// ChunkDuration returns CHUNK_DURATION_MS as a time.Duration.
func (c *Config) ChunkDuration() time.Duration {
	return time.Duration(c.ChunkDurationMS) * time.Millisecond
}

// MaxUploadBytes returns MAX_UPLOAD_MB in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}

// Load reads configuration from environment variables using go-envconfig
// and validates the result.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := envconfig.Process(context.Background(), cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks provider-specific requirements and numeric ranges.
func (c *Config) Validate() error {
	switch strings.ToLower(c.SpeechProvider) {
	case ProviderGoogle:
		if c.GoogleAPIKey == "" {
			return ErrGoogleAPIKeyRequired
		}
	case ProviderWhisper:
		if c.WhisperURL == "" {
			return ErrWhisperURLRequired
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownProvider, c.SpeechProvider)
	}
	if c.ChunkDurationMS <= 0 {
		return ErrInvalidChunkDuration
	}
	if c.MaxUploadMB <= 0 {
		return ErrInvalidUploadLimit
	}
	return nil
}

// NewLogger creates a structured logger based on the configuration.
// When LogFormat is "json", it outputs JSON logs suitable for production.
// Otherwise, it outputs human-readable text logs.
func (c *Config) NewLogger() *slog.Logger {
	level := parseLogLevel(c.LogLevel)

	var handler slog.Handler
	if strings.ToLower(c.LogFormat) == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}

	return slog.New(handler)
}

// String returns a string representation of the config with sensitive values masked.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Port: %d, SpeechProvider: %s, GoogleAPIKey: %s, WhisperURL: %s, WhisperModel: %s, WhisperAPIKey: %s, SpeechTimeout: %s, TempDir: %s, ChunkDir: %s, ChunkDurationMS: %d, MaxConcurrentChunks: %d, DefaultLanguage: %s, SentimentLexiconFile: %s, S3Bucket: %s, S3Region: %s, LogFormat: %s, LogLevel: %s}",
		c.Port,
		c.SpeechProvider,
		mask(c.GoogleAPIKey),
		c.WhisperURL,
		c.WhisperModel,
		mask(c.WhisperAPIKey),
		c.SpeechTimeout,
		c.TempDir,
		c.ChunkDir,
		c.ChunkDurationMS,
		c.MaxConcurrentChunks,
		c.DefaultLanguage,
		c.SentimentLexiconFile,
		c.S3Bucket,
		c.S3Region,
		c.LogFormat,
		c.LogLevel,
	)
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	return "****"
}

// parseLogLevel converts a string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
