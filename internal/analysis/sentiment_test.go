package analysis

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLexicon(t *testing.T) {
	lex, err := ParseLexicon([]byte(`
words:
  Rollout: 2.0
  outage: -2.5
`))
	require.NoError(t, err)

	assert.Equal(t, Lexicon{"rollout": 2.0, "outage": -2.5}, lex)
}

func TestParseLexicon_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"malformed", "words: [unclosed"},
		{"no words", "intensifiers: {very: 1.3}"},
		{"valence out of range", "words: {ecstatic: 5}"},
		{"empty word", `words: {" ": 1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseLexicon([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestLoadLexicon(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lexicon.yaml")
	require.NoError(t, os.WriteFile(path, []byte("words:\n  rollout: 1.5\n"), 0o644))

	lex, err := LoadLexicon(path)
	require.NoError(t, err)
	assert.Equal(t, Lexicon{"rollout": 1.5}, lex)

	_, err = LoadLexicon(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestSentimentAnalyzer_Analyze(t *testing.T) {
	a := NewSentimentAnalyzer(nil)

	tests := []struct {
		name         string
		text         string
		polarity     float64
		subjectivity float64
	}{
		{"empty", "", 0, 0},
		{"no sentiment words", "the meeting starts at noon", 0, 0},
		{"placeholder only", "[Unintelligible audio] [Unintelligible audio]", 0, 0},
		{"single word", "good", 0.4404, 1},
		{"negation", "not good", -0.3412, 0.7064},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := a.Analyze(tt.text)
			assert.InDelta(t, tt.polarity, got.Polarity, 1e-3)
			assert.InDelta(t, tt.subjectivity, got.Subjectivity, 1e-3)
		})
	}
}

func TestSentimentAnalyzer_Direction(t *testing.T) {
	a := NewSentimentAnalyzer(nil)

	positive := a.Analyze("This was a really great talk, I loved it.")
	negative := a.Analyze("The audio was terrible and the speaker was boring.")

	assert.Greater(t, positive.Polarity, 0.0)
	assert.Less(t, negative.Polarity, 0.0)
	for _, s := range []Sentiment{positive, negative} {
		assert.GreaterOrEqual(t, s.Polarity, -1.0)
		assert.LessOrEqual(t, s.Polarity, 1.0)
		assert.Greater(t, s.Subjectivity, 0.0)
		assert.LessOrEqual(t, s.Subjectivity, 1.0)
	}
}

func TestSentimentAnalyzer_Overrides(t *testing.T) {
	plain := NewSentimentAnalyzer(nil)
	assert.Equal(t, Sentiment{}, plain.Analyze("rollout"))

	tuned := NewSentimentAnalyzer(Lexicon{"rollout": 2.0})
	got := tuned.Analyze("rollout")
	assert.InDelta(t, 0.4588, got.Polarity, 1e-3)
	assert.InDelta(t, 1.0, got.Subjectivity, 1e-9)

	// Overrides replace standard entries.
	flipped := NewSentimentAnalyzer(Lexicon{"good": -1.9})
	assert.InDelta(t, -0.4404, flipped.Analyze("good").Polarity, 1e-3)
}

func TestSentimentAnalyzer_ConcurrentUse(t *testing.T) {
	a := NewSentimentAnalyzer(nil)
	want := a.Analyze("good")

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, want, a.Analyze("good"))
		}()
	}
	wg.Wait()
}
