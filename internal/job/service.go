package job

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/maauso/transcribe-api/internal/analysis"
	"github.com/maauso/transcribe-api/internal/job/id"
	"github.com/maauso/transcribe-api/internal/transcribe"
)

// ArchivePrefix is the key prefix of archived transcripts.
const ArchivePrefix = "transcriptions/"

// Transcriber runs the transcription pipeline over a file.
type Transcriber interface {
	Transcribe(ctx context.Context, path, languageHint string) (*transcribe.Output, error)
}

// Archiver stores finished transcripts.
type Archiver interface {
	Archive(ctx context.Context, key, contentType string, data io.Reader) (string, error)
}

// Compile-time check that the pipeline satisfies Transcriber.
var _ Transcriber = (*transcribe.Pipeline)(nil)

// Input contains the parameters of a transcription request.
type Input struct {
	// Path is the local path of the uploaded audio.
	Path string
	// Filename is the client-supplied name of the upload.
	Filename string
	// Language is the optional BCP-47 hint.
	Language string
	// Archive requests that the transcript be stored through the Archiver.
	Archive bool
}

// Service runs transcription requests and keeps their jobs.
type Service struct {
	repo        Repository
	transcriber Transcriber
	archiver    Archiver
	logger      *slog.Logger
}

// NewService creates a new Service. archiver may be nil, in which case
// archive requests are recorded as failed on the job.
func NewService(repo Repository, transcriber Transcriber, archiver Archiver, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:        repo,
		transcriber: transcriber,
		archiver:    archiver,
		logger:      logger,
	}
}

// Process creates a job for in and runs the pipeline synchronously.
//
// The returned job is always non-nil once it has been persisted. When the
// pipeline fails the job is marked FAILED and the pipeline error is returned
// unchanged, so callers can still test it with audio.IsFormatError.
// Archiving failures are recorded on the job and never fail the request.
func (s *Service) Process(ctx context.Context, in Input) (*Job, error) {
	job := New(in.Filename, in.Language)
	logger := s.logger.With(slog.String("job_id", job.ID))

	if err := s.repo.Save(ctx, job); err != nil {
		return nil, fmt.Errorf("save job: %w", err)
	}
	logger.Info("transcription started",
		slog.String("filename", in.Filename),
		slog.String("language", in.Language),
		slog.Bool("archive", in.Archive),
	)

	out, err := s.transcriber.Transcribe(ctx, in.Path, in.Language)
	if err != nil {
		logger.Warn("transcription failed", slog.String("error", err.Error()))
		if ferr := job.Fail(err.Error()); ferr != nil {
			return job.Clone(), errors.Join(err, ferr)
		}
		if serr := s.repo.Save(ctx, job); serr != nil {
			logger.Error("failed to save job", slog.String("error", serr.Error()))
		}
		return job.Clone(), err
	}

	if err := job.Complete(out); err != nil {
		return job.Clone(), err
	}

	if in.Archive {
		s.archive(ctx, logger, job)
	}

	if err := s.repo.Save(ctx, job); err != nil {
		return job.Clone(), fmt.Errorf("save job: %w", err)
	}

	logger.Info("transcription completed",
		slog.Int("chunks", len(out.Transcription)),
		slog.Int("failed_chunks", job.FailedChunks),
		slog.String("detected_language", out.DetectedLanguage),
	)
	return job.Clone(), nil
}

// archiveRecord is the JSON document stored for an archived transcript.
type archiveRecord struct {
	ID               string             `json:"id"`
	Filename         string             `json:"filename"`
	Language         string             `json:"language,omitempty"`
	Transcription    []string           `json:"transcription"`
	DetectedLanguage string             `json:"detected_language"`
	Sentiment        analysis.Sentiment `json:"sentiment_analysis"`
	CreatedAt        time.Time          `json:"created_at"`
	CompletedAt      time.Time          `json:"completed_at"`
}

func (s *Service) archive(ctx context.Context, logger *slog.Logger, job *Job) {
	if s.archiver == nil {
		job.SetArchive("", "archive storage is not configured")
		return
	}

	snap := job.Clone()
	data, err := json.Marshal(archiveRecord{
		ID:               snap.ID,
		Filename:         snap.Filename,
		Language:         snap.Language,
		Transcription:    snap.Result.Transcription,
		DetectedLanguage: snap.Result.DetectedLanguage,
		Sentiment:        snap.Result.Sentiment,
		CreatedAt:        snap.CreatedAt,
		CompletedAt:      snap.CompletedAt,
	})
	if err != nil {
		job.SetArchive("", err.Error())
		return
	}

	url, err := s.archiver.Archive(ctx, ArchivePrefix+snap.ID+".json", "application/json", bytes.NewReader(data))
	if err != nil {
		logger.Warn("failed to archive transcript", slog.String("error", err.Error()))
		job.SetArchive("", err.Error())
		return
	}

	logger.Info("transcript archived", slog.String("url", url))
	job.SetArchive(url, "")
}

// GetJob retrieves a job by ID. Malformed IDs are reported as ErrJobNotFound.
func (s *Service) GetJob(ctx context.Context, jobID string) (*Job, error) {
	if !id.Valid(jobID) {
		return nil, ErrJobNotFound
	}
	return s.repo.FindByID(ctx, jobID)
}

// ListJobs returns all jobs, newest first.
func (s *Service) ListJobs(ctx context.Context) ([]*Job, error) {
	return s.repo.List(ctx)
}

// DeleteJob removes a job.
func (s *Service) DeleteJob(ctx context.Context, jobID string) error {
	if !id.Valid(jobID) {
		return ErrJobNotFound
	}
	return s.repo.Delete(ctx, jobID)
}
