// Package analysis derives a language tag and sentiment scores from an
// ordered list of transcript fragments.
package analysis

import (
	"context"
	"log/slog"
	"strings"
)

// Report is the result of analyzing a transcript.
type Report struct {
	// Text is the space-joined transcript.
	Text string
	// Language is an ISO 639-1 code, or LanguageErrorTag.
	Language  string
	Sentiment Sentiment
}

// Join concatenates transcript fragments with single spaces. Empty fragments
// are kept, so ["hello", "world", ""] joins to "hello world ".
func Join(parts []string) string {
	return strings.Join(parts, " ")
}

// Analyzer runs language detection and sentiment scoring over a transcript.
type Analyzer struct {
	detector  LanguageDetector
	sentiment *SentimentAnalyzer
	logger    *slog.Logger
}

// NewAnalyzer creates an Analyzer. A nil detector makes every detection fall
// back to LanguageErrorTag.
func NewAnalyzer(detector LanguageDetector, sentiment *SentimentAnalyzer, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{
		detector:  detector,
		sentiment: sentiment,
		logger:    logger,
	}
}

// Analyze joins parts and scores the result. It never fails: detection
// problems are reported through Report.Language.
func (a *Analyzer) Analyze(ctx context.Context, parts []string) Report {
	text := Join(parts)

	lang, err := detect(a.detector, text)
	if err != nil {
		a.logger.WarnContext(ctx, "language detection failed",
			slog.Int("text_length", len(text)),
			slog.String("error", err.Error()),
		)
	}

	var s Sentiment
	if a.sentiment != nil {
		s = a.sentiment.Analyze(text)
	}

	return Report{
		Text:      text,
		Language:  lang,
		Sentiment: s,
	}
}
