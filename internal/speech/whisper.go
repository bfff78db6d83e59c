package speech

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const whisperProvider = "whisper"

// ErrWhisperURLRequired is returned when the Whisper base URL is not provided.
var ErrWhisperURLRequired = errors.New("speech: whisper URL is required")

// maxErrorBody bounds how much of an error response is kept in the message.
const maxErrorBody = 512

// WhisperRecognizer calls the audio transcription endpoint of an
// OpenAI-compatible API (OpenAI itself, faster-whisper-server, LocalAI, ...).
type WhisperRecognizer struct {
	client *openai.Client
	model  string
}

type whisperSettings struct {
	model      string
	apiKey     string
	httpClient *http.Client
}

// WhisperOption configures a WhisperRecognizer.
type WhisperOption func(*whisperSettings)

// WithWhisperModel sets the model form field. Defaults to "whisper-1".
func WithWhisperModel(model string) WhisperOption {
	return func(s *whisperSettings) {
		if model != "" {
			s.model = model
		}
	}
}

// WithWhisperAPIKey sets the bearer token sent with every request.
func WithWhisperAPIKey(key string) WhisperOption {
	return func(s *whisperSettings) {
		s.apiKey = key
	}
}

// WithWhisperHTTPClient sets a custom HTTP client.
func WithWhisperHTTPClient(c *http.Client) WhisperOption {
	return func(s *whisperSettings) {
		s.httpClient = c
	}
}

// WithWhisperTimeout sets the timeout of the default HTTP client.
func WithWhisperTimeout(d time.Duration) WhisperOption {
	return func(s *whisperSettings) {
		if d > 0 {
			s.httpClient = &http.Client{Timeout: d}
		}
	}
}

// NewWhisperRecognizer creates a recognizer for the API rooted at baseURL,
// e.g. "https://api.openai.com/v1". Requests go to baseURL + "/audio/transcriptions".
func NewWhisperRecognizer(baseURL string, opts ...WhisperOption) (*WhisperRecognizer, error) {
	if baseURL == "" {
		return nil, ErrWhisperURLRequired
	}

	s := newWhisperSettings(opts)

	cfg := openai.DefaultConfig(s.apiKey)
	cfg.BaseURL = strings.TrimRight(baseURL, "/")
	cfg.HTTPClient = s.httpClient

	return &WhisperRecognizer{
		client: openai.NewClientWithConfig(cfg),
		model:  s.model,
	}, nil
}

func newWhisperSettings(opts []WhisperOption) whisperSettings {
	s := whisperSettings{
		model:      openai.Whisper1,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// Name implements Recognizer.Name.
func (w *WhisperRecognizer) Name() string {
	return whisperProvider
}

// Recognize implements Recognizer.Recognize. Whisper reports silence as an
// empty transcript, which is returned as a successful empty result.
func (w *WhisperRecognizer) Recognize(ctx context.Context, audio []byte, languageHint string) (string, error) {
	resp, err := w.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    w.model,
		FilePath: "chunk.wav",
		Reader:   bytes.NewReader(audio),
		Language: primarySubtag(languageHint),
		Format:   openai.AudioResponseFormatJSON,
	})
	if err != nil {
		return "", whisperError(err)
	}

	return strings.TrimSpace(resp.Text), nil
}

// whisperError converts a go-openai error into a *ServiceError.
func whisperError(err error) *ServiceError {
	var (
		apiErr *openai.APIError
		reqErr *openai.RequestError
		urlErr *url.Error
	)
	switch {
	case errors.As(err, &apiErr):
		return &ServiceError{
			Provider:   whisperProvider,
			StatusCode: apiErr.HTTPStatusCode,
			Message:    apiErr.Message,
			Err:        err,
		}
	case errors.As(err, &reqErr):
		return &ServiceError{
			Provider:   whisperProvider,
			StatusCode: reqErr.HTTPStatusCode,
			Message:    bodyMessage(reqErr.Body, reqErr.HTTPStatusCode),
			Err:        err,
		}
	case errors.As(err, &urlErr):
		return transportError(whisperProvider, err)
	default:
		return &ServiceError{
			Provider: whisperProvider,
			Message:  "invalid response: " + err.Error(),
			Err:      err,
		}
	}
}

// primarySubtag returns the lower-cased language subtag of a BCP-47 tag,
// e.g. "en" for "en-US".
func primarySubtag(tag string) string {
	tag = strings.TrimSpace(tag)
	if i := strings.IndexAny(tag, "-_"); i >= 0 {
		tag = tag[:i]
	}
	return strings.ToLower(tag)
}

// bodyMessage turns a non-JSON error body into a short message.
func bodyMessage(body []byte, status int) string {
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		return http.StatusText(status)
	}
	if len(msg) > maxErrorBody {
		msg = msg[:maxErrorBody]
	}
	return msg
}

// Verify interface implementation at compile time.
var _ Recognizer = (*WhisperRecognizer)(nil)
