package analysis

import (
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/jonreiter/govader"
	"gopkg.in/yaml.v3"
)

// maxValence bounds a VADER lexicon entry.
const maxValence = 4.0

// Sentiment holds the polarity and subjectivity of a text.
type Sentiment struct {
	// Polarity ranges from -1 (negative) to 1 (positive).
	Polarity float64 `json:"polarity"`
	// Subjectivity ranges from 0 (objective) to 1 (subjective).
	Subjectivity float64 `json:"subjectivity"`
}

// Lexicon maps lower-cased words to VADER valences in [-4, 4]. It is used to
// add or override entries of the standard VADER lexicon.
type Lexicon map[string]float64

type lexiconFile struct {
	Words map[string]float64 `yaml:"words"`
}

// ParseLexicon decodes a YAML document of the form
//
//	words:
//	  rollout: 1.5
//	  outage: -2.5
func ParseLexicon(data []byte) (Lexicon, error) {
	var f lexiconFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("analysis: parse lexicon: %w", err)
	}
	if len(f.Words) == 0 {
		return nil, fmt.Errorf("analysis: parse lexicon: no words defined")
	}

	lex := make(Lexicon, len(f.Words))
	for w, v := range f.Words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			return nil, fmt.Errorf("analysis: parse lexicon: empty word")
		}
		if math.IsNaN(v) || math.Abs(v) > maxValence {
			return nil, fmt.Errorf("analysis: parse lexicon: valence %v for %q outside [-4, 4]", v, w)
		}
		lex[w] = v
	}
	return lex, nil
}

// LoadLexicon reads and parses the YAML lexicon at path.
func LoadLexicon(path string) (Lexicon, error) {
	data, err := os.ReadFile(path) // #nosec G304 - path comes from configuration
	if err != nil {
		return nil, fmt.Errorf("analysis: read lexicon: %w", err)
	}
	return ParseLexicon(data)
}

// SentimentAnalyzer scores text with VADER. Polarity is the compound score
// and subjectivity is the share of non-neutral tokens.
//
// A SentimentAnalyzer is safe for concurrent use.
type SentimentAnalyzer struct {
	vader *govader.SentimentIntensityAnalyzer
}

// NewSentimentAnalyzer creates an analyzer over the standard VADER lexicon,
// with overrides applied on top. overrides may be nil.
func NewSentimentAnalyzer(overrides Lexicon) *SentimentAnalyzer {
	vader := govader.NewSentimentIntensityAnalyzer()
	for w, v := range overrides {
		vader.Lexicon[w] = v
	}
	return &SentimentAnalyzer{vader: vader}
}

// Analyze scores text. Text without any sentiment word, including empty
// text, scores zero on both axes.
func (a *SentimentAnalyzer) Analyze(text string) Sentiment {
	scores := a.vader.PolarityScores(text)
	if scores == (govader.Sentiment{}) {
		return Sentiment{}
	}
	return Sentiment{
		Polarity:     clamp(scores.Compound, -1, 1),
		Subjectivity: clamp(1-scores.Neutral, 0, 1),
	}
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return max(lo, min(hi, v))
}
