package transcribe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/maauso/transcribe-api/internal/audio"
	"github.com/maauso/transcribe-api/internal/speech"
)

// ChunkTranscriber converts one chunk into a Result. Implementations never
// fail: every error is captured in the returned Result.
type ChunkTranscriber interface {
	Transcribe(ctx context.Context, chunk audio.Chunk, languageHint string) Result
}

// Worker transcribes chunks with a shared Recognizer.
type Worker struct {
	recognizer speech.Recognizer
	timeout    time.Duration
	logger     *slog.Logger
	readFile   func(string) ([]byte, error)
}

// WorkerOption configures a Worker.
type WorkerOption func(*Worker)

// WithTimeout bounds each recognition call. Zero means no bound beyond the
// caller's context.
func WithTimeout(d time.Duration) WorkerOption {
	return func(w *Worker) {
		w.timeout = d
	}
}

// WithWorkerLogger sets the logger.
func WithWorkerLogger(logger *slog.Logger) WorkerOption {
	return func(w *Worker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// NewWorker creates a Worker backed by recognizer.
func NewWorker(recognizer speech.Recognizer, opts ...WorkerOption) *Worker {
	w := &Worker{
		recognizer: recognizer,
		logger:     slog.Default(),
		readFile:   os.ReadFile,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Transcribe implements ChunkTranscriber.Transcribe. A recognizer reporting
// no speech yields KindUnintelligible; any other failure, including an
// unreadable chunk file or a recognizer panic, yields KindServiceError.
func (w *Worker) Transcribe(ctx context.Context, chunk audio.Chunk, languageHint string) (res Result) {
	res.Index = chunk.Index
	start := time.Now()

	defer func() {
		if p := recover(); p != nil {
			res = Result{Index: chunk.Index, Kind: KindServiceError, Err: fmt.Errorf("recognizer panic: %v", p)}
		}
		w.log(ctx, chunk, res, time.Since(start))
	}()

	data, err := w.readFile(chunk.Path)
	if err != nil {
		res.Kind = KindServiceError
		res.Err = fmt.Errorf("read chunk: %w", err)
		return res
	}

	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}

	text, err := w.recognizer.Recognize(ctx, data, languageHint)
	switch {
	case err == nil:
		res.Kind = KindText
		res.Text = text
	case errors.Is(err, speech.ErrNoSpeechDetected):
		res.Kind = KindUnintelligible
	default:
		res.Kind = KindServiceError
		res.Err = err
	}
	return res
}

func (w *Worker) log(ctx context.Context, chunk audio.Chunk, res Result, elapsed time.Duration) {
	attrs := []any{
		slog.Int("chunk_index", chunk.Index),
		slog.String("provider", w.recognizer.Name()),
		slog.String("outcome", string(res.Kind)),
		slog.Duration("elapsed", elapsed),
	}
	if res.Kind == KindServiceError {
		attrs = append(attrs, slog.String("error", res.Render()))
		w.logger.WarnContext(ctx, "chunk transcription failed", attrs...)
		return
	}
	w.logger.DebugContext(ctx, "chunk transcribed", attrs...)
}

// Verify interface implementation at compile time.
var _ ChunkTranscriber = (*Worker)(nil)
