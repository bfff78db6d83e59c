package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// DefaultSampleRate is the sample rate used when re-encoding to the canonical format.
const DefaultSampleRate = 16000

// ErrFFmpegUnavailable is returned when the ffmpeg binary cannot be started.
var ErrFFmpegUnavailable = errors.New("audio: ffmpeg binary not available")

// FFmpegNormalizer implements Normalizer using the ffmpeg CLI.
type FFmpegNormalizer struct {
	// ffmpegPath is the path to the ffmpeg binary. Defaults to "ffmpeg".
	ffmpegPath string
	sampleRate int
}

// NormalizerOption configures an FFmpegNormalizer.
type NormalizerOption func(*FFmpegNormalizer)

// WithSampleRate sets the output sample rate for converted files. Rates
// outside [MinCanonicalSampleRate, MaxCanonicalSampleRate] are ignored.
func WithSampleRate(hz int) NormalizerOption {
	return func(n *FFmpegNormalizer) {
		if hz >= MinCanonicalSampleRate && hz <= MaxCanonicalSampleRate {
			n.sampleRate = hz
		}
	}
}

// NewFFmpegNormalizer creates a new FFmpegNormalizer.
// If ffmpegPath is empty, it defaults to "ffmpeg" (found via PATH).
func NewFFmpegNormalizer(ffmpegPath string, opts ...NormalizerOption) *FFmpegNormalizer {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	n := &FFmpegNormalizer{
		ffmpegPath: ffmpegPath,
		sampleRate: DefaultSampleRate,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize implements Normalizer.Normalize. Canonical input is returned as is;
// other input is converted to mono 16-bit PCM WAV next to the source file.
func (n *FFmpegNormalizer) Normalize(ctx context.Context, in Handle) (Handle, error) {
	if in.Canonical() {
		return in, nil
	}

	if _, err := os.Stat(in.Path); err != nil {
		return Handle{}, &FormatError{Path: in.Path, Err: err}
	}

	out := ConvertedPath(in.Path)
	// Mono 16-bit PCM, video streams dropped.
	args := []string{
		"-y",
		"-i", in.Path,
		"-vn",
		"-ac", "1",
		"-ar", strconv.Itoa(n.sampleRate),
		"-c:a", "pcm_s16le",
		out,
	}

	if err := n.runFFmpeg(ctx, args); err != nil {
		_ = os.Remove(out)
		if ctx.Err() != nil || errors.Is(err, ErrFFmpegUnavailable) {
			return Handle{}, err
		}
		return Handle{}, &FormatError{Path: in.Path, Err: err}
	}

	h, err := Probe(out)
	if err == nil && !h.Canonical() {
		err = errNotPCM
	}
	if err != nil {
		_ = os.Remove(out)
		return Handle{}, &FormatError{Path: in.Path, Err: err}
	}

	return h, nil
}

// ConvertedPath returns the deterministic path of the canonical copy of path.
// The extension is replaced with .wav; inputs that already carry a .wav
// extension get .pcm.wav so the source is never overwritten.
func ConvertedPath(path string) string {
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	if strings.EqualFold(ext, ".wav") {
		return base + ".pcm.wav"
	}
	return base + ".wav"
}

// runFFmpeg executes ffmpeg with the given arguments and returns an error
// containing stderr output if the command fails.
func (n *FFmpegNormalizer) runFFmpeg(ctx context.Context, args []string) error {
	// #nosec G204 - ffmpegPath is set by the application, not user input
	cmd := exec.CommandContext(ctx, n.ffmpegPath, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("ffmpeg cancelled: %w", ctx.Err())
		}
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %v", ErrFFmpegUnavailable, err)
		}
		return &FFmpegError{
			Args:   args,
			Stderr: stderr.String(),
			Err:    err,
		}
	}

	return nil
}

// FFmpegError represents an error from running ffmpeg, including the stderr output.
type FFmpegError struct {
	Args   []string
	Stderr string
	Err    error
}

func (e *FFmpegError) Error() string {
	return fmt.Sprintf("ffmpeg error: %v\nargs: %v\nstderr: %s", e.Err, e.Args, e.Stderr)
}

func (e *FFmpegError) Unwrap() error {
	return e.Err
}

// Verify interface implementation at compile time.
var _ Normalizer = (*FFmpegNormalizer)(nil)
