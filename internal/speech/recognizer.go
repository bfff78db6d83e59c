// Package speech provides speech-to-text recognizers used to transcribe
// individual audio chunks.
package speech

import (
	"context"
	"errors"
	"fmt"
)

// ErrNoSpeechDetected is returned when the service processed the audio but
// could not interpret any speech in it.
var ErrNoSpeechDetected = errors.New("speech: no intelligible speech detected")

// Recognizer turns a standalone WAV payload into text.
//
// Implementations hold no per-request state and are safe for concurrent use,
// so one instance is shared by every transcription in the process.
type Recognizer interface {
	// Recognize transcribes audio using languageHint (a BCP-47 tag such as
	// "en-US") to select the acoustic and language model.
	//
	// Returns ErrNoSpeechDetected when no speech could be interpreted and a
	// *ServiceError when the service could not be reached or rejected the request.
	Recognize(ctx context.Context, audio []byte, languageHint string) (string, error)

	// Name identifies the provider in logs.
	Name() string
}

// ServiceError is a transport or service-level recognition failure.
type ServiceError struct {
	Provider string
	// StatusCode is the HTTP status returned by the service, or 0 when no
	// response was received.
	StatusCode int
	Message    string
	Err        error
}

func (e *ServiceError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: status %d: %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// transportError wraps a failure that happened before any response arrived.
func transportError(provider string, err error) *ServiceError {
	return &ServiceError{Provider: provider, Message: err.Error(), Err: err}
}
