package audio

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func formatSeconds(sec float64) string {
	return fmt.Sprintf("%.3f", sec)
}

// createTestWAV writes a 440 Hz tone of the given length as 16-bit PCM WAV.
func createTestWAV(t *testing.T, outputPath string, d time.Duration, sampleRate, channels int) {
	t.Helper()

	frames := durationToFrames(d, sampleRate)
	samples := make([]int, frames*channels)
	for i := 0; i < frames; i++ {
		v := int(8000 * math.Sin(2*math.Pi*440*float64(i)/float64(sampleRate)))
		for c := 0; c < channels; c++ {
			samples[i*channels+c] = v
		}
	}

	info := pcmInfo{SampleRate: sampleRate, Channels: channels, BitDepth: 16}
	if err := writeWAV(outputPath, samples, info); err != nil {
		t.Fatalf("failed to create test WAV: %v", err)
	}
}

func TestPlanSegments(t *testing.T) {
	tests := []struct {
		name  string
		total time.Duration
		size  time.Duration
		want  []time.Duration
	}{
		{"remainder chunk", 150 * time.Second, 60 * time.Second, []time.Duration{60 * time.Second, 60 * time.Second, 30 * time.Second}},
		{"evenly divisible", 120 * time.Second, 60 * time.Second, []time.Duration{60 * time.Second, 60 * time.Second}},
		{"shorter than size", 10 * time.Second, 60 * time.Second, []time.Duration{10 * time.Second}},
		{"exactly size", 60 * time.Second, 60 * time.Second, []time.Duration{60 * time.Second}},
		{"empty input", 0, 60 * time.Second, []time.Duration{0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spans := PlanSegments(tt.total, tt.size)
			if len(spans) != len(tt.want) {
				t.Fatalf("expected %d spans, got %d", len(tt.want), len(spans))
			}
			for i, want := range tt.want {
				if spans[i].Duration != want {
					t.Errorf("span %d: got %s, want %s", i, spans[i].Duration, want)
				}
			}
		})
	}
}

func TestPlanSegments_InvalidSize(t *testing.T) {
	if spans := PlanSegments(time.Minute, 0); spans != nil {
		t.Errorf("expected nil for zero size, got %v", spans)
	}
}

func TestPlanSegments_CoversInputWithoutGaps(t *testing.T) {
	for _, totalMs := range []int64{1, 999, 1000, 59_999, 60_000, 60_001, 150_000, 3_600_123} {
		for _, sizeMs := range []int64{1000, 7_000, 60_000} {
			total := time.Duration(totalMs) * time.Millisecond
			size := time.Duration(sizeMs) * time.Millisecond
			spans := PlanSegments(total, size)

			wantN := int((totalMs + sizeMs - 1) / sizeMs)
			if len(spans) != wantN {
				t.Errorf("total=%s size=%s: expected %d spans, got %d", total, size, wantN, len(spans))
				continue
			}

			var cursor time.Duration
			for i, s := range spans {
				if s.Start != cursor {
					t.Errorf("total=%s size=%s: span %d starts at %s, want %s", total, size, i, s.Start, cursor)
				}
				if i < len(spans)-1 && s.Duration != size {
					t.Errorf("total=%s size=%s: span %d has length %s, want %s", total, size, i, s.Duration, size)
				}
				cursor += s.Duration
			}
			if cursor != total {
				t.Errorf("total=%s size=%s: spans cover %s", total, size, cursor)
			}

			last := spans[len(spans)-1].Duration
			wantLast := total % size
			if wantLast == 0 {
				wantLast = size
			}
			if last != wantLast {
				t.Errorf("total=%s size=%s: last span %s, want %s", total, size, last, wantLast)
			}
		}
	}
}

func TestWAVSegmenter_Segment(t *testing.T) {
	tmpDir := t.TempDir()
	inputPath := filepath.Join(tmpDir, "lecture.wav")
	outputDir := filepath.Join(tmpDir, "chunks")
	createTestWAV(t, inputPath, 150*time.Second, 8000, 1)

	src, err := Probe(inputPath)
	if err != nil {
		t.Fatalf("Probe failed: %v", err)
	}

	chunks, err := NewWAVSegmenter().Segment(context.Background(), src, outputDir, DefaultSegmentOpts())
	if err != nil {
		t.Fatalf("Segment failed: %v", err)
	}

	want := []time.Duration{60 * time.Second, 60 * time.Second, 30 * time.Second}
	if len(chunks) != len(want) {
		t.Fatalf("expected %d chunks, got %d", len(want), len(chunks))
	}

	var cursor time.Duration
	for i, c := range chunks {
		if c.Index != i {
			t.Errorf("chunk %d has index %d", i, c.Index)
		}
		if c.Start != cursor {
			t.Errorf("chunk %d starts at %s, want %s", i, c.Start, cursor)
		}
		if c.Duration != want[i] {
			t.Errorf("chunk %d: got duration %s, want %s", i, c.Duration, want[i])
		}
		cursor = c.End()

		name := filepath.Base(c.Path)
		if !strings.HasPrefix(name, "lecture_chunk_") || !strings.Contains(name, fmt.Sprintf("%03d", i)) {
			t.Errorf("chunk %d has unexpected name %s", i, name)
		}

		// Each chunk is a standalone canonical file of the planned length.
		h, err := Probe(c.Path)
		if err != nil {
			t.Fatalf("Probe chunk %d: %v", i, err)
		}
		if !h.Canonical() {
			t.Errorf("chunk %d is not canonical", i)
		}
		if h.Duration != want[i] {
			t.Errorf("chunk %d file duration %s, want %s", i, h.Duration, want[i])
		}
	}
}

func TestWAVSegmenter_ShortAudio(t *testing.T) {
	tmpDir := t.TempDir()
	inputPath := filepath.Join(tmpDir, "short.wav")
	createTestWAV(t, inputPath, 10*time.Second, 8000, 1)

	src, err := Probe(inputPath)
	if err != nil {
		t.Fatalf("Probe failed: %v", err)
	}

	chunks, err := NewWAVSegmenter().Segment(context.Background(), src, tmpDir, DefaultSegmentOpts())
	if err != nil {
		t.Fatalf("Segment failed: %v", err)
	}

	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Duration != src.Duration {
		t.Errorf("expected chunk to span the whole input (%s), got %s", src.Duration, chunks[0].Duration)
	}
}

func TestWAVSegmenter_StereoKeepsFrames(t *testing.T) {
	tmpDir := t.TempDir()
	inputPath := filepath.Join(tmpDir, "stereo.wav")
	createTestWAV(t, inputPath, 5*time.Second, 8000, 2)

	src, err := Probe(inputPath)
	if err != nil {
		t.Fatalf("Probe failed: %v", err)
	}

	chunks, err := NewWAVSegmenter().Segment(context.Background(), src, tmpDir, SegmentOpts{MaxDuration: 2 * time.Second})
	if err != nil {
		t.Fatalf("Segment failed: %v", err)
	}

	want := []time.Duration{2 * time.Second, 2 * time.Second, time.Second}
	if len(chunks) != len(want) {
		t.Fatalf("expected %d chunks, got %d", len(want), len(chunks))
	}
	for i, c := range chunks {
		h, err := Probe(c.Path)
		if err != nil {
			t.Fatalf("Probe chunk %d: %v", i, err)
		}
		if h.Channels != 2 {
			t.Errorf("chunk %d: expected 2 channels, got %d", i, h.Channels)
		}
		if h.Duration != want[i] {
			t.Errorf("chunk %d: got %s, want %s", i, h.Duration, want[i])
		}
	}
}

func TestWAVSegmenter_InvalidDuration(t *testing.T) {
	_, err := NewWAVSegmenter().Segment(context.Background(), Handle{Path: "x.wav"}, t.TempDir(), SegmentOpts{})
	if err != ErrInvalidChunkDuration {
		t.Errorf("expected ErrInvalidChunkDuration, got %v", err)
	}
}

func TestWAVSegmenter_NonWAVInput(t *testing.T) {
	tmpDir := t.TempDir()
	inputPath := filepath.Join(tmpDir, "notes.wav")
	if err := os.WriteFile(inputPath, []byte("not a riff file"), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}

	_, err := NewWAVSegmenter().Segment(context.Background(), Handle{Path: inputPath, Format: FormatWAV}, tmpDir, DefaultSegmentOpts())
	if !IsFormatError(err) {
		t.Errorf("expected FormatError, got %v", err)
	}
}

func TestWAVSegmenter_ContextCancellation(t *testing.T) {
	tmpDir := t.TempDir()
	inputPath := filepath.Join(tmpDir, "test.wav")
	createTestWAV(t, inputPath, 3*time.Second, 8000, 1)

	src, err := Probe(inputPath)
	if err != nil {
		t.Fatalf("Probe failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = NewWAVSegmenter().Segment(ctx, src, tmpDir, SegmentOpts{MaxDuration: time.Second})
	if err == nil {
		t.Fatal("expected error with cancelled context")
	}

	chunks, _ := listChunks(tmpDir, inputPath)
	if len(chunks) != 0 {
		t.Errorf("expected no chunk files left behind, got %v", chunks)
	}
}

// listChunks returns the chunk files cut from source in dir, in index order.
func listChunks(dir, source string) ([]string, error) {
	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	return filepath.Glob(filepath.Join(dir, base+"_chunk_*.wav"))
}
