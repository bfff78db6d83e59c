package audio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// wavFormatPCM is the WAVE format tag for integer PCM.
const wavFormatPCM = 1

// errNotPCM is returned when a file is a WAVE container without integer PCM data.
var errNotPCM = errors.New("audio: not an integer PCM wave file")

// pcmInfo describes the PCM stream of a wave file.
type pcmInfo struct {
	SampleRate int
	Channels   int
	BitDepth   int
	Frames     int
}

// Duration returns the playback length of the stream.
func (p pcmInfo) Duration() time.Duration {
	return framesToDuration(p.Frames, p.SampleRate)
}

// Probe inspects the file at path and returns a Handle describing it.
// Files that are not PCM WAV are returned with their extension as format
// and zero duration; a .wav name over non-PCM content reports FormatUnknown.
// A missing or unreadable file yields a *FormatError.
func Probe(path string) (Handle, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))

	f, _, info, err := openPCM(path)
	if err != nil {
		var pe *os.PathError
		if errors.As(err, &pe) {
			return Handle{}, &FormatError{Path: path, Err: err}
		}
		if ext == FormatWAV {
			ext = FormatUnknown
		}
		return Handle{Path: path, Format: ext}, nil
	}
	_ = f.Close()

	if ext != FormatWAV {
		return Handle{Path: path, Format: ext}, nil
	}

	return Handle{
		Path:       path,
		Format:     FormatWAV,
		Duration:   info.Duration(),
		SampleRate: info.SampleRate,
		Channels:   info.Channels,
		BitDepth:   info.BitDepth,
	}, nil
}

// openPCM opens path and positions the decoder at the start of the PCM data.
// The caller must close the returned file.
func openPCM(path string) (*os.File, *wav.Decoder, pcmInfo, error) {
	f, err := os.Open(path) // #nosec G304 - path is provided by trusted caller
	if err != nil {
		return nil, nil, pcmInfo{}, err
	}

	dec := wav.NewDecoder(f)
	if err := dec.FwdToPCM(); err != nil {
		_ = f.Close()
		return nil, nil, pcmInfo{}, fmt.Errorf("read wave headers: %w", err)
	}
	if err := dec.Err(); err != nil {
		_ = f.Close()
		return nil, nil, pcmInfo{}, fmt.Errorf("read wave headers: %w", err)
	}
	if dec.PCMChunk == nil || dec.WavAudioFormat != wavFormatPCM {
		_ = f.Close()
		return nil, nil, pcmInfo{}, errNotPCM
	}

	info := pcmInfo{
		SampleRate: int(dec.SampleRate),
		Channels:   int(dec.NumChans),
		BitDepth:   int(dec.BitDepth),
	}
	switch {
	case info.SampleRate <= 0, info.Channels <= 0:
		_ = f.Close()
		return nil, nil, pcmInfo{}, errNotPCM
	case info.BitDepth != 8 && info.BitDepth != 16 && info.BitDepth != 24 && info.BitDepth != 32:
		_ = f.Close()
		return nil, nil, pcmInfo{}, fmt.Errorf("%w: unsupported bit depth %d", errNotPCM, info.BitDepth)
	}

	frameBytes := info.Channels * info.BitDepth / 8
	info.Frames = dec.PCMSize / frameBytes

	return f, dec, info, nil
}

// writeWAV encodes interleaved PCM samples into a new wave file at path.
func writeWAV(path string, samples []int, info pcmInfo) error {
	f, err := os.Create(path) // #nosec G304 - path is built by the segmenter
	if err != nil {
		return fmt.Errorf("create wave file: %w", err)
	}

	enc := wav.NewEncoder(f, info.SampleRate, info.BitDepth, info.Channels, wavFormatPCM)
	buf := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: info.Channels,
			SampleRate:  info.SampleRate,
		},
		Data:           samples,
		SourceBitDepth: info.BitDepth,
	}

	if err := enc.Write(buf); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return fmt.Errorf("encode wave data: %w", err)
	}
	if err := enc.Close(); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return fmt.Errorf("finalize wave file: %w", err)
	}
	return f.Close()
}

func durationToFrames(d time.Duration, sampleRate int) int {
	return int(int64(d) * int64(sampleRate) / int64(time.Second))
}

func framesToDuration(frames, sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	return time.Duration(int64(frames) * int64(time.Second) / int64(sampleRate))
}
