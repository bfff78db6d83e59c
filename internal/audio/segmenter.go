package audio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	goaudio "github.com/go-audio/audio"
)

// Span is a time range within a source file.
type Span struct {
	Start    time.Duration
	Duration time.Duration
}

// PlanSegments splits total into consecutive spans of length size. The last
// span holds the remainder. A total shorter than size yields a single span
// covering it, and a zero total yields one empty span.
func PlanSegments(total, size time.Duration) []Span {
	if size <= 0 {
		return nil
	}
	if total <= 0 {
		return []Span{{Start: 0, Duration: 0}}
	}

	n := int((total + size - 1) / size)
	spans := make([]Span, 0, n)
	for start := time.Duration(0); start < total; start += size {
		spans = append(spans, Span{
			Start:    start,
			Duration: min(size, total-start),
		})
	}
	return spans
}

// WAVSegmenter implements Segmenter by slicing canonical WAV files at
// sample-frame boundaries. Each chunk is written as a standalone WAV file.
type WAVSegmenter struct{}

// NewWAVSegmenter creates a new WAVSegmenter.
func NewWAVSegmenter() *WAVSegmenter {
	return &WAVSegmenter{}
}

// Segment implements Segmenter.Segment. Samples are streamed chunk by chunk,
// so memory use is bounded by MaxDuration rather than by the source length.
func (s *WAVSegmenter) Segment(ctx context.Context, src Handle, outputDir string, opts SegmentOpts) ([]Chunk, error) {
	if opts.MaxDuration <= 0 {
		return nil, ErrInvalidChunkDuration
	}

	f, dec, info, err := openPCM(src.Path)
	if err != nil {
		return nil, &FormatError{Path: src.Path, Err: err}
	}
	defer func() { _ = f.Close() }()

	if err := os.MkdirAll(outputDir, 0o750); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	spans := PlanSegments(info.Duration(), opts.MaxDuration)
	base := strings.TrimSuffix(filepath.Base(src.Path), filepath.Ext(src.Path))

	chunks := make([]Chunk, 0, len(spans))
	consumed := 0
	for i, span := range spans {
		if err := ctx.Err(); err != nil {
			removeChunks(chunks)
			return nil, fmt.Errorf("segment cancelled: %w", err)
		}

		end := durationToFrames(span.Start+span.Duration, info.SampleRate)
		if i == len(spans)-1 || end > info.Frames {
			end = info.Frames
		}

		samples, err := readFrames(dec, end-consumed, info.Channels)
		if err != nil {
			removeChunks(chunks)
			return nil, &FormatError{Path: src.Path, Err: fmt.Errorf("read chunk %d: %w", i, err)}
		}
		consumed = end

		path := filepath.Join(outputDir, chunkName(base, i))
		if err := writeWAV(path, samples, info); err != nil {
			removeChunks(chunks)
			return nil, fmt.Errorf("write chunk %d: %w", i, err)
		}

		chunks = append(chunks, Chunk{
			Source:   src,
			Index:    i,
			Path:     path,
			Start:    span.Start,
			Duration: span.Duration,
		})
	}

	return chunks, nil
}

// pcmReader is the subset of *wav.Decoder used to stream samples.
type pcmReader interface {
	PCMBuffer(buf *goaudio.IntBuffer) (int, error)
}

// readFrames reads up to frames interleaved frames. A short read means the
// data chunk ended early; the returned slice is trimmed accordingly.
func readFrames(r pcmReader, frames, channels int) ([]int, error) {
	if frames <= 0 {
		return []int{}, nil
	}

	data := make([]int, frames*channels)
	filled := 0
	for filled < len(data) {
		buf := &goaudio.IntBuffer{Data: data[filled:]}
		n, err := r.PCMBuffer(buf)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			break
		}
		filled += n
	}

	// Keep whole frames only.
	filled -= filled % channels
	return data[:filled], nil
}

func chunkName(base string, index int) string {
	return fmt.Sprintf("%s_chunk_%03d.wav", base, index)
}

func removeChunks(chunks []Chunk) {
	for _, c := range chunks {
		_ = os.Remove(c.Path)
	}
}

// Verify interface implementation at compile time.
var _ Segmenter = (*WAVSegmenter)(nil)
