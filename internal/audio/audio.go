// Package audio provides format normalization and fixed-duration segmentation
// of uploaded audio files.
package audio

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// FormatWAV tags a RIFF/WAVE container holding integer PCM samples, stored
// under a .wav file name.
const FormatWAV = "wav"

// FormatUnknown tags a .wav file whose content is not integer PCM.
const FormatUnknown = "unknown"

// Sample rate bounds accepted by the speech services for LINEAR16 audio.
const (
	MinCanonicalSampleRate = 8000
	MaxCanonicalSampleRate = 48000
)

// DefaultMaxChunkDuration is the default upper bound for a single chunk.
const DefaultMaxChunkDuration = 60 * time.Second

// ErrInvalidChunkDuration is returned when the maximum chunk duration is not positive.
var ErrInvalidChunkDuration = errors.New("audio: max chunk duration must be positive")

// Handle references a decodable audio resource on disk.
type Handle struct {
	// Path is the location of the audio file.
	Path string
	// Format is FormatWAV for integer PCM wave files, FormatUnknown for .wav
	// files holding anything else, otherwise the lower-cased file extension
	// without the dot.
	Format string
	// Duration is the playback length. The stream fields are zero unless
	// Format is FormatWAV.
	Duration   time.Duration
	SampleRate int
	Channels   int
	BitDepth   int
}

// Canonical reports whether the handle is already in the canonical format:
// mono 16-bit PCM WAV at a sample rate the speech services accept. Any other
// wave file, stereo or 24-bit recordings included, must be converted first.
func (h Handle) Canonical() bool {
	return h.Format == FormatWAV &&
		h.Channels == 1 &&
		h.BitDepth == 16 &&
		h.SampleRate >= MinCanonicalSampleRate &&
		h.SampleRate <= MaxCanonicalSampleRate
}

// Chunk references a temporary audio segment file cut from a source Handle.
// The caller is responsible for cleaning up chunk files after use.
type Chunk struct {
	// Source is the normalized audio the chunk was cut from.
	Source Handle
	// Index is the zero-based position of the chunk in the source.
	Index int
	// Path is the standalone WAV file holding the chunk audio.
	Path string
	// Start is the offset of the chunk within the source.
	Start time.Duration
	// Duration is the chunk length.
	Duration time.Duration
}

// End returns the offset of the first instant after the chunk.
func (c Chunk) End() time.Duration {
	return c.Start + c.Duration
}

// String returns a human-readable representation for logging.
func (c Chunk) String() string {
	return fmt.Sprintf("chunk %d: %s-%s", c.Index, c.Start, c.End())
}

// SegmentOpts configures the behavior of audio segmentation.
type SegmentOpts struct {
	// MaxDuration is the length of every chunk except possibly the last,
	// which holds the remainder.
	// Default: 60 seconds.
	MaxDuration time.Duration
}

// DefaultSegmentOpts returns the default options for audio segmentation.
func DefaultSegmentOpts() SegmentOpts {
	return SegmentOpts{
		MaxDuration: DefaultMaxChunkDuration,
	}
}

// Normalizer converts audio into the canonical format.
type Normalizer interface {
	// Normalize returns a canonical handle for in. Canonical input is
	// returned unchanged; anything else is decoded and re-encoded to a new
	// file whose path is derived from the input path.
	//
	// Returns a *FormatError when the input cannot be decoded.
	Normalize(ctx context.Context, in Handle) (Handle, error)
}

// Segmenter splits canonical audio into fixed-duration chunks.
type Segmenter interface {
	// Segment divides src into consecutive, non-overlapping chunks written
	// to outputDir. Chunk file names embed the source name and the chunk
	// index. Chunks are returned in index order.
	//
	// The caller is responsible for cleaning up the returned chunk files.
	Segment(ctx context.Context, src Handle, outputDir string, opts SegmentOpts) ([]Chunk, error)
}

// FormatError is returned when an input file cannot be decoded as audio.
type FormatError struct {
	Path string
	Err  error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("audio: unsupported or corrupt input %s: %v", e.Path, e.Err)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// IsFormatError reports whether err is, or wraps, a *FormatError.
func IsFormatError(err error) bool {
	var fe *FormatError
	return errors.As(err, &fe)
}
