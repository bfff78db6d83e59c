// Package storage persists uploaded audio for the duration of a
// transcription and optionally archives finished transcripts to S3.
package storage

import (
	"context"
	"io"
)

// Storage defines the interface for upload and archive storage.
type Storage interface {
	// SaveUpload writes data to a new file in the working directory and
	// returns its path. The file name is derived from filename: the
	// extension is kept so the audio format can be recognized, and a unique
	// suffix keeps concurrent uploads of the same name apart.
	SaveUpload(ctx context.Context, filename string, data io.Reader) (path string, err error)

	// Cleanup removes the specified files.
	// It continues cleanup even if some files fail to delete.
	Cleanup(ctx context.Context, paths []string) error

	// Archive stores data under key and returns its URL.
	// Returns ErrArchiveNotConfigured if no archive backend is configured.
	Archive(ctx context.Context, key, contentType string, data io.Reader) (url string, err error)
}
