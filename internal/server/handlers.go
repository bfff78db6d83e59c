package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/maauso/transcribe-api/internal/audio"
	"github.com/maauso/transcribe-api/internal/job"
	"github.com/maauso/transcribe-api/internal/storage"
)

const (
	// DefaultMaxUploadBytes bounds the multipart request body.
	DefaultMaxUploadBytes int64 = 100 << 20
	// multipartMemory is the part of a form kept in memory; the rest spills to disk.
	multipartMemory int64 = 32 << 20
)

// Handlers contains the HTTP handlers for the API.
type Handlers struct {
	service        *job.Service
	storage        storage.Storage
	validator      *validator.Validate
	logger         *slog.Logger
	provider       string
	maxUploadBytes int64
	cleanup        bool
}

// HandlerOption is a function that configures a Handlers instance.
type HandlerOption func(*Handlers)

// WithMaxUploadBytes sets the request body limit for uploads.
func WithMaxUploadBytes(n int64) HandlerOption {
	return func(h *Handlers) {
		if n > 0 {
			h.maxUploadBytes = n
		}
	}
}

// WithUploadCleanup controls whether the saved upload is removed once the
// request has been processed.
func WithUploadCleanup(enabled bool) HandlerOption {
	return func(h *Handlers) {
		h.cleanup = enabled
	}
}

// WithProviderName sets the recognizer name reported by /health.
func WithProviderName(name string) HandlerOption {
	return func(h *Handlers) {
		h.provider = name
	}
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(service *job.Service, store storage.Storage, logger *slog.Logger, opts ...HandlerOption) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handlers{
		service:        service,
		storage:        store,
		validator:      validator.New(),
		logger:         logger,
		maxUploadBytes: DefaultMaxUploadBytes,
		cleanup:        true,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Health handles GET /health requests.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Provider: h.provider})
}

// Transcribe handles POST /transcribe requests. The audio is read from the
// "file" form field; "language" and "archive" are optional.
func (h *Handlers) Transcribe(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "upload exceeds "+strconv.FormatInt(tooLarge.Limit, 10)+" bytes", "FILE_TOO_LARGE")
			return
		}
		h.logger.Warn("failed to parse multipart form",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, "invalid multipart form", "INVALID_FORM")
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no file uploaded", "NO_FILE")
		return
	}
	defer file.Close()

	req := TranscribeRequest{
		Language: r.FormValue("language"),
		Archive:  r.FormValue("archive"),
	}
	if err := h.validator.Struct(req); err != nil {
		h.logger.Warn("request validation failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return
	}
	archive, _ := strconv.ParseBool(req.Archive)

	path, err := h.storage.SaveUpload(r.Context(), header.Filename, file)
	if err != nil {
		h.logger.Error("failed to save upload",
			slog.String("filename", header.Filename),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to save upload", "UPLOAD_FAILED")
		return
	}
	if h.cleanup {
		defer func() {
			if err := h.storage.Cleanup(r.Context(), []string{path}); err != nil {
				h.logger.Warn("failed to remove upload",
					slog.String("path", path),
					slog.String("error", err.Error()),
				)
			}
		}()
	}

	result, err := h.service.Process(r.Context(), job.Input{
		Path:     path,
		Filename: header.Filename,
		Language: req.Language,
		Archive:  archive,
	})
	if err != nil {
		if audio.IsFormatError(err) {
			writeError(w, http.StatusUnprocessableEntity, err.Error(), "UNSUPPORTED_AUDIO")
			return
		}
		h.logger.Error("transcription failed",
			slog.String("filename", header.Filename),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "transcription failed", "TRANSCRIPTION_FAILED")
		return
	}

	out := result.Result
	writeJSON(w, http.StatusOK, TranscriptionResponse{
		ID:               result.ID,
		Transcription:    out.Transcription,
		DetectedLanguage: out.DetectedLanguage,
		SentimentAnalysis: SentimentResponse{
			Polarity:     out.Sentiment.Polarity,
			Subjectivity: out.Sentiment.Subjectivity,
		},
		ArchiveURL:   result.ArchiveURL,
		ArchiveError: result.ArchiveError,
	})
}

// GetTranscription handles GET /transcriptions/{id} requests.
func (h *Handlers) GetTranscription(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")
	if jobID == "" {
		writeError(w, http.StatusBadRequest, "transcription ID is required", "MISSING_JOB_ID")
		return
	}

	found, err := h.service.GetJob(r.Context(), jobID)
	if err != nil {
		h.writeJobError(w, jobID, err)
		return
	}

	writeJSON(w, http.StatusOK, toJobResponse(found))
}

// ListTranscriptions handles GET /transcriptions requests.
func (h *Handlers) ListTranscriptions(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.service.ListJobs(r.Context())
	if err != nil {
		h.logger.Error("failed to list jobs",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list transcriptions", "JOB_FETCH_FAILED")
		return
	}

	resp := JobListResponse{Transcriptions: make([]JobResponse, 0, len(jobs))}
	for _, j := range jobs {
		resp.Transcriptions = append(resp.Transcriptions, toJobResponse(j))
	}
	writeJSON(w, http.StatusOK, resp)
}

// DeleteTranscription handles DELETE /transcriptions/{id} requests.
func (h *Handlers) DeleteTranscription(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")
	if jobID == "" {
		writeError(w, http.StatusBadRequest, "transcription ID is required", "MISSING_JOB_ID")
		return
	}

	if err := h.service.DeleteJob(r.Context(), jobID); err != nil {
		h.writeJobError(w, jobID, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) writeJobError(w http.ResponseWriter, jobID string, err error) {
	if errors.Is(err, job.ErrJobNotFound) {
		writeError(w, http.StatusNotFound, "transcription not found", "JOB_NOT_FOUND")
		return
	}
	h.logger.Error("failed to get job",
		slog.String("job_id", jobID),
		slog.String("error", err.Error()),
	)
	writeError(w, http.StatusInternalServerError, "failed to get transcription", "JOB_FETCH_FAILED")
}

func toJobResponse(j *job.Job) JobResponse {
	resp := JobResponse{
		ID:           j.ID,
		Status:       string(j.Status),
		Filename:     j.Filename,
		Language:     j.Language,
		Error:        j.Error,
		FailedChunks: j.FailedChunks,
		ArchiveURL:   j.ArchiveURL,
		ArchiveError: j.ArchiveError,
		CreatedAt:    j.CreatedAt,
		CompletedAt:  j.CompletedAt,
	}
	if out := j.Result; out != nil {
		resp.Transcription = out.Transcription
		resp.DetectedLanguage = out.DetectedLanguage
		resp.SentimentAnalysis = &SentimentResponse{
			Polarity:     out.Sentiment.Polarity,
			Subjectivity: out.Sentiment.Subjectivity,
		}
	}
	return resp
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}

// writeError writes an error response in the standard format.
func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}
