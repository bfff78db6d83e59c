package speech

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWhisperRecognizer_MissingURL(t *testing.T) {
	_, err := NewWhisperRecognizer("")
	assert.ErrorIs(t, err, ErrWhisperURLRequired)
}

func TestNewWhisperRecognizer_Defaults(t *testing.T) {
	w, err := NewWhisperRecognizer("http://localhost:9000/v1")
	require.NoError(t, err)

	assert.Equal(t, "whisper-1", w.model)
	assert.Equal(t, "whisper", w.Name())
	assert.Equal(t, 60*time.Second, newWhisperSettings(nil).httpClient.Timeout)
}

func TestNewWhisperRecognizer_Options(t *testing.T) {
	opts := []WhisperOption{
		WithWhisperModel("large-v3"),
		WithWhisperAPIKey("secret"),
		WithWhisperTimeout(5 * time.Second),
	}
	w, err := NewWhisperRecognizer("http://localhost", opts...)
	require.NoError(t, err)
	assert.Equal(t, "large-v3", w.model)

	s := newWhisperSettings(opts)
	assert.Equal(t, "secret", s.apiKey)
	assert.Equal(t, 5*time.Second, s.httpClient.Timeout)
}

func TestWhisperRecognizer_Recognize(t *testing.T) {
	audio := []byte("RIFF fake wave payload")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/audio/transcriptions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NoError(t, r.ParseMultipartForm(1<<20))

		assert.Equal(t, "whisper-1", r.FormValue("model"))
		assert.Equal(t, "pt", r.FormValue("language"))
		assert.Equal(t, "json", r.FormValue("response_format"))

		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer func() { _ = f.Close() }()
		assert.Equal(t, "chunk.wav", hdr.Filename)

		data, err := io.ReadAll(f)
		require.NoError(t, err)
		assert.Equal(t, audio, data)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":"  olá mundo "}`))
	}))
	defer server.Close()

	rec, err := NewWhisperRecognizer(server.URL+"/v1/", WithWhisperAPIKey("secret"))
	require.NoError(t, err)

	text, err := rec.Recognize(context.Background(), audio, "pt-BR")
	require.NoError(t, err)
	assert.Equal(t, "olá mundo", text)
}

func TestWhisperRecognizer_EmptyTranscriptIsSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"text":""}`))
	}))
	defer server.Close()

	rec, err := NewWhisperRecognizer(server.URL)
	require.NoError(t, err)

	text, err := rec.Recognize(context.Background(), []byte("audio"), "en-US")
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestWhisperRecognizer_ServiceErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"openai error body", http.StatusBadRequest, `{"error":{"message":"Invalid file format.","type":"invalid_request_error"}}`, "Invalid file format."},
		{"rate limited", http.StatusTooManyRequests, `{"error":{"message":"Rate limit reached","type":"requests"}}`, "Rate limit reached"},
		{"plain text body", http.StatusBadGateway, "upstream down\n", "upstream down"},
		{"empty body", http.StatusServiceUnavailable, "", "Service Unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			rec, err := NewWhisperRecognizer(server.URL)
			require.NoError(t, err)

			_, err = rec.Recognize(context.Background(), []byte("audio"), "en-US")

			var se *ServiceError
			require.True(t, errors.As(err, &se), "expected *ServiceError, got %T", err)
			assert.Equal(t, tt.status, se.StatusCode)
			assert.Equal(t, tt.wantMsg, se.Message)
		})
	}
}

func TestWhisperRecognizer_MalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer server.Close()

	rec, err := NewWhisperRecognizer(server.URL)
	require.NoError(t, err)

	_, err = rec.Recognize(context.Background(), []byte("audio"), "en-US")

	var se *ServiceError
	require.True(t, errors.As(err, &se))
	assert.Zero(t, se.StatusCode)
	assert.True(t, strings.HasPrefix(se.Message, "invalid response"), se.Message)
}

func TestWhisperRecognizer_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"text":"late"}`))
	}))
	defer server.Close()

	rec, err := NewWhisperRecognizer(server.URL)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = rec.Recognize(ctx, []byte("audio"), "en-US")

	var se *ServiceError
	require.True(t, errors.As(err, &se))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPrimarySubtag(t *testing.T) {
	tests := map[string]string{
		"en-US":   "en",
		"pt_BR":   "pt",
		"FR":      "fr",
		"zh-Hant": "zh",
		"":        "",
		" de-DE ": "de",
	}
	for in, want := range tests {
		assert.Equal(t, want, primarySubtag(in), "primarySubtag(%q)", in)
	}
}
