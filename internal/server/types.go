// Package server provides the HTTP API of the transcription service.
// It includes handlers, middleware, routes, and DTOs separated from domain types.
package server

import "time"

// TranscribeRequest holds the non-file fields of a POST /transcribe form.
type TranscribeRequest struct {
	// Language is an optional BCP-47 hint such as "en-US".
	Language string `validate:"omitempty,bcp47_language_tag"`
	// Archive requests that the transcript be stored in S3.
	Archive string `validate:"omitempty,boolean"`
}

// SentimentResponse is the sentiment block of a transcription.
type SentimentResponse struct {
	// Polarity is in [-1, 1].
	Polarity float64 `json:"polarity"`
	// Subjectivity is in [0, 1].
	Subjectivity float64 `json:"subjectivity"`
}

// TranscriptionResponse is the HTTP response of POST /transcribe.
type TranscriptionResponse struct {
	// ID identifies the transcription for later lookup.
	ID string `json:"id"`
	// Transcription holds one entry per chunk, in chunk order.
	Transcription []string `json:"transcription"`
	// DetectedLanguage is an ISO 639-1 code or "Error detecting language.".
	DetectedLanguage  string            `json:"detected_language"`
	SentimentAnalysis SentimentResponse `json:"sentiment_analysis"`
	// ArchiveURL is set when the transcript was archived.
	ArchiveURL string `json:"archive_url,omitempty"`
	// ArchiveError is set when archiving was requested but failed.
	ArchiveError string `json:"archive_error,omitempty"`
}

// JobResponse is the HTTP response for a stored transcription.
type JobResponse struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	Filename string `json:"filename,omitempty"`
	Language string `json:"language,omitempty"`
	// Error contains the error message if the job failed.
	Error             string             `json:"error,omitempty"`
	FailedChunks      int                `json:"failed_chunks"`
	Transcription     []string           `json:"transcription,omitempty"`
	DetectedLanguage  string             `json:"detected_language,omitempty"`
	SentimentAnalysis *SentimentResponse `json:"sentiment_analysis,omitempty"`
	ArchiveURL        string             `json:"archive_url,omitempty"`
	ArchiveError      string             `json:"archive_error,omitempty"`
	CreatedAt         time.Time          `json:"created_at"`
	CompletedAt       time.Time          `json:"completed_at,omitzero"`
}

// JobListResponse is the HTTP response of GET /transcriptions.
type JobListResponse struct {
	Transcriptions []JobResponse `json:"transcriptions"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	// Error is the human-readable error message.
	Error string `json:"error"`
	// Code is the error code for programmatic handling.
	Code string `json:"code"`
}

// HealthResponse is the HTTP response for the health check endpoint.
type HealthResponse struct {
	// Status is the health status of the service.
	Status string `json:"status"`
	// Provider is the configured speech recognizer.
	Provider string `json:"provider,omitempty"`
}
