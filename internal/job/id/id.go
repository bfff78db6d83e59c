// Package id provides unique identifier generation for transcription jobs.
package id

import "github.com/google/uuid"

// Generate creates a new random job ID.
// Example: 3f2b8c1e-9a4d-4c57-8e0f-6b1d2a7c9e45
func Generate() string {
	return uuid.NewString()
}

// Valid reports whether s has the shape of an ID returned by Generate.
func Valid(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil && len(s) == 36
}
