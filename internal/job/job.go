// Package job tracks transcription requests. A Job records the upload it was
// created for, its lifecycle state and the finished transcript, so results
// can be looked up after the request that produced them has returned.
package job

import (
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/maauso/transcribe-api/internal/job/id"
	"github.com/maauso/transcribe-api/internal/transcribe"
)

// Status represents the current state of a Job.
type Status string

const (
	// StatusRunning indicates the pipeline is processing the upload.
	StatusRunning Status = "RUNNING"
	// StatusCompleted indicates a transcript was produced. Individual chunks
	// may still have failed; see FailedChunks.
	StatusCompleted Status = "COMPLETED"
	// StatusFailed indicates the upload could not be transcribed at all.
	StatusFailed Status = "FAILED"
)

// ErrInvalidTransition is returned when an invalid state transition is attempted.
var ErrInvalidTransition = errors.New("invalid state transition")

// validTransitions defines which state transitions are allowed.
var validTransitions = map[Status][]Status{
	StatusRunning:   {StatusCompleted, StatusFailed},
	StatusCompleted: {},
	StatusFailed:    {},
}

// canTransition checks if a transition from one status to another is valid.
func canTransition(from, to Status) bool {
	return slices.Contains(validTransitions[from], to)
}

// Job represents one transcription request.
type Job struct {
	mu sync.RWMutex

	// ID is the unique identifier for this job.
	ID string
	// Status is the current job state.
	Status Status
	// Filename is the client-supplied name of the uploaded file.
	Filename string
	// Language is the language hint the job was submitted with.
	Language string
	// Result is the transcript. Set once the job completes.
	Result *transcribe.Output
	// FailedChunks counts chunks that did not yield text.
	FailedChunks int
	// Error contains the error message if the job failed.
	Error string
	// ArchiveURL is the location of the archived transcript, if any.
	ArchiveURL string
	// ArchiveError records why archiving was skipped or failed.
	ArchiveError string
	// CreatedAt is when the job was created.
	CreatedAt time.Time
	// UpdatedAt is when the job was last updated.
	UpdatedAt time.Time
	// CompletedAt is when processing finished.
	CompletedAt time.Time
}

// New creates a new RUNNING Job with a generated ID.
func New(filename, language string) *Job {
	return NewWithID(id.Generate(), filename, language)
}

// NewWithID creates a new RUNNING Job with the specified ID.
func NewWithID(jobID, filename, language string) *Job {
	now := time.Now()
	return &Job{
		ID:        jobID,
		Status:    StatusRunning,
		Filename:  filename,
		Language:  language,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// transitionLocked changes the status. The caller must hold j.mu.
func (j *Job) transitionLocked(status Status) error {
	if !canTransition(j.Status, status) {
		return ErrInvalidTransition
	}

	j.Status = status
	j.UpdatedAt = time.Now()
	if status == StatusCompleted || status == StatusFailed {
		j.CompletedAt = j.UpdatedAt
	}
	return nil
}

// TransitionTo attempts to change the job status to the specified state.
// Returns ErrInvalidTransition if the transition is not allowed.
func (j *Job) TransitionTo(status Status) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.transitionLocked(status)
}

// Complete stores the transcript and transitions the job to COMPLETED.
func (j *Job) Complete(out *transcribe.Output) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if err := j.transitionLocked(StatusCompleted); err != nil {
		return err
	}
	j.Result = out
	j.FailedChunks = 0
	if out != nil {
		for _, r := range out.Chunks {
			if r.Failed() {
				j.FailedChunks++
			}
		}
	}
	return nil
}

// Fail transitions the job to FAILED state with an error message.
// Returns ErrInvalidTransition if the transition is not allowed.
func (j *Job) Fail(errMsg string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if err := j.transitionLocked(StatusFailed); err != nil {
		return err
	}
	j.Error = errMsg
	return nil
}

// SetArchive records the outcome of archiving the transcript.
func (j *Job) SetArchive(url, errMsg string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.ArchiveURL = url
	j.ArchiveError = errMsg
	j.UpdatedAt = time.Now()
}

// GetStatus returns the current job status (thread-safe).
func (j *Job) GetStatus() Status {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.Status
}

// IsTerminal returns true if the job is in a terminal state.
func (j *Job) IsTerminal() bool {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.Status == StatusCompleted || j.Status == StatusFailed
}

// Clone creates a deep copy of the job for safe reads.
func (j *Job) Clone() *Job {
	j.mu.RLock()
	defer j.mu.RUnlock()

	var result *transcribe.Output
	if j.Result != nil {
		out := *j.Result
		out.Transcription = slices.Clone(j.Result.Transcription)
		out.Chunks = slices.Clone(j.Result.Chunks)
		result = &out
	}

	return &Job{
		ID:           j.ID,
		Status:       j.Status,
		Filename:     j.Filename,
		Language:     j.Language,
		Result:       result,
		FailedChunks: j.FailedChunks,
		Error:        j.Error,
		ArchiveURL:   j.ArchiveURL,
		ArchiveError: j.ArchiveError,
		CreatedAt:    j.CreatedAt,
		UpdatedAt:    j.UpdatedAt,
		CompletedAt:  j.CompletedAt,
	}
}
