package transcribe

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/maauso/transcribe-api/internal/analysis"
	"github.com/maauso/transcribe-api/internal/audio"
)

// DefaultLanguage is the language hint used when the caller provides none.
const DefaultLanguage = "en-US"

// Output is the terminal artifact of a transcription.
type Output struct {
	// Transcription holds one rendered entry per chunk, in chunk order.
	Transcription []string `json:"transcription"`
	// DetectedLanguage is an ISO 639-1 code or analysis.LanguageErrorTag.
	DetectedLanguage string             `json:"detected_language"`
	Sentiment        analysis.Sentiment `json:"sentiment_analysis"`
	// Chunks carries the typed per-chunk outcomes.
	Chunks []Result `json:"-"`
}

// Pipeline turns an audio file into an Output: normalize, segment,
// transcribe every chunk concurrently, then analyze the joined text.
type Pipeline struct {
	normalizer      audio.Normalizer
	segmenter       audio.Segmenter
	dispatcher      *Dispatcher
	analyzer        *analysis.Analyzer
	segmentOpts     audio.SegmentOpts
	defaultLanguage string
	cleanup         bool
	chunkDir        string
	logger          *slog.Logger
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithSegmentOpts sets the chunking options.
func WithSegmentOpts(opts audio.SegmentOpts) PipelineOption {
	return func(p *Pipeline) {
		p.segmentOpts = opts
	}
}

// WithDefaultLanguage sets the hint used when a request carries none.
func WithDefaultLanguage(lang string) PipelineOption {
	return func(p *Pipeline) {
		if lang != "" {
			p.defaultLanguage = lang
		}
	}
}

// WithCleanup controls whether chunk files and converted copies are removed
// when Transcribe returns. The input file is never removed.
func WithCleanup(enabled bool) PipelineOption {
	return func(p *Pipeline) {
		p.cleanup = enabled
	}
}

// WithChunkDir writes chunk files to dir instead of next to the normalized audio.
func WithChunkDir(dir string) PipelineOption {
	return func(p *Pipeline) {
		p.chunkDir = dir
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) PipelineOption {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewPipeline creates a Pipeline.
func NewPipeline(
	normalizer audio.Normalizer,
	segmenter audio.Segmenter,
	dispatcher *Dispatcher,
	analyzer *analysis.Analyzer,
	opts ...PipelineOption,
) *Pipeline {
	p := &Pipeline{
		normalizer:      normalizer,
		segmenter:       segmenter,
		dispatcher:      dispatcher,
		analyzer:        analyzer,
		segmentOpts:     audio.DefaultSegmentOpts(),
		defaultLanguage: DefaultLanguage,
		cleanup:         true,
		logger:          slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Transcribe runs the pipeline over the file at path. An empty languageHint
// uses the configured default.
//
// The only failure tied to the input itself is *audio.FormatError, returned
// before any chunk is dispatched. Per-chunk recognition failures and language
// detection failures are reported inside the Output.
func (p *Pipeline) Transcribe(ctx context.Context, path, languageHint string) (*Output, error) {
	start := time.Now()
	if languageHint == "" {
		languageHint = p.defaultLanguage
	}

	logger := p.logger.With(
		slog.String("input", filepath.Base(path)),
		slog.String("language_hint", languageHint),
	)

	src, err := audio.Probe(path)
	if err != nil {
		return nil, err
	}

	normalized, err := p.normalizer.Normalize(ctx, src)
	if err != nil {
		if audio.IsFormatError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("normalize audio: %w", err)
	}
	if p.cleanup && normalized.Path != src.Path {
		defer p.remove(logger, normalized.Path)
	}

	chunkDir := p.chunkDir
	if chunkDir == "" {
		chunkDir = filepath.Dir(normalized.Path)
	}

	chunks, err := p.segmenter.Segment(ctx, normalized, chunkDir, p.segmentOpts)
	if err != nil {
		if audio.IsFormatError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("segment audio: %w", err)
	}
	if p.cleanup {
		defer func() {
			for _, c := range chunks {
				p.remove(logger, c.Path)
			}
		}()
	}

	logger.InfoContext(ctx, "audio segmented",
		slog.Duration("duration", normalized.Duration),
		slog.Int("chunks", len(chunks)),
		slog.Bool("converted", normalized.Path != src.Path),
	)

	results := p.dispatcher.Dispatch(ctx, chunks, languageHint)
	rendered := RenderAll(results)
	report := p.analyzer.Analyze(ctx, rendered)

	logger.InfoContext(ctx, "transcription finished",
		slog.String("detected_language", report.Language),
		slog.Duration("elapsed", time.Since(start)),
	)

	return &Output{
		Transcription:    rendered,
		DetectedLanguage: report.Language,
		Sentiment:        report.Sentiment,
		Chunks:           results,
	}, nil
}

func (p *Pipeline) remove(logger *slog.Logger, path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logger.Warn("failed to remove temporary file",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
	}
}
