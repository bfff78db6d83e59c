// Package bootstrap provides dependency initialization for the transcription API.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/maauso/transcribe-api/internal/analysis"
	"github.com/maauso/transcribe-api/internal/audio"
	"github.com/maauso/transcribe-api/internal/config"
	"github.com/maauso/transcribe-api/internal/job"
	"github.com/maauso/transcribe-api/internal/speech"
	"github.com/maauso/transcribe-api/internal/storage"
	"github.com/maauso/transcribe-api/internal/transcribe"
)

// Dependencies holds all initialized dependencies for the HTTP server.
type Dependencies struct {
	Storage    storage.Storage
	Recognizer speech.Recognizer
	Pipeline   *transcribe.Pipeline
	JobService *job.Service
}

// NewDependencies creates and initializes all dependencies for the application.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	store, err := initStorage(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	recognizer, err := initRecognizer(ctx, cfg)
	if err != nil {
		return nil, err
	}
	logger.Info("speech recognizer configured",
		slog.String("provider", recognizer.Name()),
		slog.Duration("timeout", cfg.SpeechTimeout),
	)

	sentiment, err := initSentiment(cfg, logger)
	if err != nil {
		return nil, err
	}

	worker := transcribe.NewWorker(recognizer,
		transcribe.WithTimeout(cfg.SpeechTimeout),
		transcribe.WithWorkerLogger(logger),
	)
	dispatcher := transcribe.NewDispatcher(worker, cfg.MaxConcurrentChunks, logger)
	logger.Info("chunk dispatcher configured",
		slog.Int("max_concurrent_chunks", dispatcher.Limit()),
	)

	pipeline := transcribe.NewPipeline(
		audio.NewFFmpegNormalizer(cfg.FFmpegPath),
		audio.NewWAVSegmenter(),
		dispatcher,
		analysis.NewAnalyzer(analysis.NewLinguaDetector(), sentiment, logger),
		transcribe.WithSegmentOpts(audio.SegmentOpts{MaxDuration: cfg.ChunkDuration()}),
		transcribe.WithDefaultLanguage(cfg.DefaultLanguage),
		transcribe.WithCleanup(cfg.CleanupTempFiles),
		transcribe.WithChunkDir(cfg.ChunkDir),
		transcribe.WithLogger(logger),
	)

	svc := job.NewService(job.NewMemoryRepository(), pipeline, store, logger)

	return &Dependencies{
		Storage:    store,
		Recognizer: recognizer,
		Pipeline:   pipeline,
		JobService: svc,
	}, nil
}

// initRecognizer creates the speech recognizer selected by SPEECH_PROVIDER.
func initRecognizer(ctx context.Context, cfg *config.Config) (speech.Recognizer, error) {
	switch strings.ToLower(cfg.SpeechProvider) {
	case config.ProviderGoogle:
		opts := []speech.GoogleOption{speech.WithGoogleAPIKey(cfg.GoogleAPIKey)}
		if cfg.GoogleSpeechEndpoint != "" {
			opts = append(opts, speech.WithGoogleEndpoint(cfg.GoogleSpeechEndpoint))
		}
		rec, err := speech.NewGoogleRecognizer(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("create Google recognizer: %w", err)
		}
		return rec, nil
	case config.ProviderWhisper:
		rec, err := speech.NewWhisperRecognizer(cfg.WhisperURL,
			speech.WithWhisperModel(cfg.WhisperModel),
			speech.WithWhisperAPIKey(cfg.WhisperAPIKey),
			speech.WithWhisperTimeout(cfg.SpeechTimeout),
		)
		if err != nil {
			return nil, fmt.Errorf("create Whisper recognizer: %w", err)
		}
		return rec, nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownProvider, cfg.SpeechProvider)
	}
}

// initSentiment creates the VADER analyzer, applying the optional lexicon
// overrides file.
func initSentiment(cfg *config.Config, logger *slog.Logger) (*analysis.SentimentAnalyzer, error) {
	if cfg.SentimentLexiconFile == "" {
		return analysis.NewSentimentAnalyzer(nil), nil
	}

	lex, err := analysis.LoadLexicon(cfg.SentimentLexiconFile)
	if err != nil {
		return nil, fmt.Errorf("load sentiment lexicon: %w", err)
	}
	logger.Info("sentiment lexicon overrides loaded",
		slog.String("path", cfg.SentimentLexiconFile),
		slog.Int("words", len(lex)),
	)
	return analysis.NewSentimentAnalyzer(lex), nil
}

// initStorage creates the appropriate storage backend based on configuration.
func initStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.Storage, error) {
	if cfg.S3Enabled() {
		s3Cfg := storage.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
		}
		s3Store, err := storage.NewS3Storage(ctx, cfg.TempDir, s3Cfg)
		if err != nil {
			return nil, fmt.Errorf("create S3 storage: %w", err)
		}
		logger.Info("S3 archive configured",
			slog.String("bucket", cfg.S3Bucket),
			slog.String("region", cfg.S3Region),
		)
		return s3Store, nil
	}

	localStore, err := storage.NewLocalStorage(cfg.TempDir)
	if err != nil {
		return nil, fmt.Errorf("create local storage: %w", err)
	}
	logger.Info("local storage configured",
		slog.String("temp_dir", cfg.TempDir),
	)
	return localStore, nil
}
