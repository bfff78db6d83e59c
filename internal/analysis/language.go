package analysis

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pemistahl/lingua-go"
)

// LanguageErrorTag is reported in place of a language code when detection fails.
const LanguageErrorTag = "Error detecting language."

// ErrLanguageUndetected is returned when the text carries too little signal
// to pick a language.
var ErrLanguageUndetected = errors.New("analysis: language could not be detected")

var errNoDetector = errors.New("analysis: no language detector configured")

// LanguageDetector identifies the language of a text.
type LanguageDetector interface {
	// Detect returns the ISO 639-1 code of the language of text, in lower case.
	Detect(text string) (string, error)
}

// LinguaDetector implements LanguageDetector with lingua-go.
type LinguaDetector struct {
	detector lingua.LanguageDetector
}

// NewLinguaDetector creates a detector over every language lingua knows.
// The high accuracy models are loaded, since a chunk transcript can be as
// short as a word or two.
func NewLinguaDetector() *LinguaDetector {
	return &LinguaDetector{
		detector: lingua.NewLanguageDetectorBuilder().
			FromAllLanguages().
			Build(),
	}
}

// Detect implements LanguageDetector.Detect.
func (d *LinguaDetector) Detect(text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrLanguageUndetected
	}

	lang, ok := d.detector.DetectLanguageOf(text)
	if !ok || lang == lingua.Unknown {
		return "", ErrLanguageUndetected
	}
	return strings.ToLower(lang.IsoCode639_1().String()), nil
}

// DetectLanguage runs d over text and returns the detected code, or
// LanguageErrorTag on any failure. It never fails or panics.
func DetectLanguage(d LanguageDetector, text string) string {
	lang, _ := detect(d, text)
	return lang
}

// detect is DetectLanguage that also reports the cause of a fallback.
func detect(d LanguageDetector, text string) (lang string, err error) {
	defer func() {
		if p := recover(); p != nil {
			lang, err = LanguageErrorTag, fmt.Errorf("language detector panic: %v", p)
		}
	}()

	if d == nil {
		return LanguageErrorTag, errNoDetector
	}
	code, err := d.Detect(text)
	if err != nil {
		return LanguageErrorTag, err
	}
	if code == "" {
		return LanguageErrorTag, ErrLanguageUndetected
	}
	return code, nil
}
