package speech

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	speechapi "google.golang.org/api/speech/v1"
)

const googleProvider = "google"

// ErrCredentialsRequired is returned when neither an API key nor a custom
// HTTP client is configured for the Google recognizer.
var ErrCredentialsRequired = errors.New("speech: google API key or HTTP client is required")

// GoogleRecognizer calls the Google Cloud Speech-to-Text v1 synchronous
// recognize method. Synchronous requests accept up to one minute of audio,
// which matches the default chunk duration.
type GoogleRecognizer struct {
	svc *speechapi.Service
}

type googleSettings struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
}

// GoogleOption configures a GoogleRecognizer.
type GoogleOption func(*googleSettings)

// WithGoogleAPIKey sets the API key used to authenticate requests.
func WithGoogleAPIKey(key string) GoogleOption {
	return func(s *googleSettings) {
		s.apiKey = key
	}
}

// WithGoogleEndpoint overrides the service base URL.
func WithGoogleEndpoint(endpoint string) GoogleOption {
	return func(s *googleSettings) {
		s.endpoint = endpoint
	}
}

// WithGoogleHTTPClient sets a custom HTTP client. The client is used as is,
// so it must add its own credentials if the endpoint requires them.
func WithGoogleHTTPClient(c *http.Client) GoogleOption {
	return func(s *googleSettings) {
		s.httpClient = c
	}
}

// NewGoogleRecognizer creates a Google Speech-to-Text recognizer.
func NewGoogleRecognizer(ctx context.Context, opts ...GoogleOption) (*GoogleRecognizer, error) {
	var s googleSettings
	for _, opt := range opts {
		opt(&s)
	}

	var clientOpts []option.ClientOption
	switch {
	case s.httpClient != nil:
		clientOpts = append(clientOpts, option.WithHTTPClient(s.httpClient))
	case s.apiKey != "":
		clientOpts = append(clientOpts, option.WithAPIKey(s.apiKey))
	default:
		return nil, ErrCredentialsRequired
	}
	if s.endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(s.endpoint))
	}

	svc, err := speechapi.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("speech: create google service: %w", err)
	}

	return &GoogleRecognizer{svc: svc}, nil
}

// Name implements Recognizer.Name.
func (g *GoogleRecognizer) Name() string {
	return googleProvider
}

// Recognize implements Recognizer.Recognize. The encoding and sample rate are
// read by the service from the WAV header.
func (g *GoogleRecognizer) Recognize(ctx context.Context, audio []byte, languageHint string) (string, error) {
	req := &speechapi.RecognizeRequest{
		Config: &speechapi.RecognitionConfig{
			LanguageCode: languageHint,
		},
		Audio: &speechapi.RecognitionAudio{
			Content: base64.StdEncoding.EncodeToString(audio),
		},
	}

	resp, err := g.svc.Speech.Recognize(req).Context(ctx).Do()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) {
			msg := apiErr.Message
			if msg == "" {
				msg = http.StatusText(apiErr.Code)
			}
			return "", &ServiceError{
				Provider:   googleProvider,
				StatusCode: apiErr.Code,
				Message:    msg,
				Err:        err,
			}
		}
		return "", transportError(googleProvider, err)
	}

	var parts []string
	for _, result := range resp.Results {
		if result == nil || len(result.Alternatives) == 0 || result.Alternatives[0] == nil {
			continue
		}
		if t := strings.TrimSpace(result.Alternatives[0].Transcript); t != "" {
			parts = append(parts, t)
		}
	}

	if len(parts) == 0 {
		return "", ErrNoSpeechDetected
	}
	return strings.Join(parts, " "), nil
}

// Verify interface implementation at compile time.
var _ Recognizer = (*GoogleRecognizer)(nil)
