package storage

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestS3Storage(t *testing.T, endpoint string) *S3Storage {
	t.Helper()

	dir := filepath.Join(os.TempDir(), "transcribe_s3_test_"+randomSuffix())
	t.Cleanup(func() { _ = os.RemoveAll(dir) })

	cfg := S3Config{
		Bucket:          "test-bucket",
		Region:          "us-east-1",
		Endpoint:        endpoint,
		AccessKeyID:     "test-access-key",
		SecretAccessKey: "test-secret-key",
	}

	storage, err := NewS3Storage(context.Background(), dir, cfg)
	if err != nil {
		t.Fatalf("NewS3Storage() error = %v", err)
	}
	return storage
}

func TestNewS3Storage(t *testing.T) {
	storage := newTestS3Storage(t, "http://localhost:4566/")

	if storage.bucket != "test-bucket" {
		t.Errorf("bucket = %v, want test-bucket", storage.bucket)
	}
	if storage.region != "us-east-1" {
		t.Errorf("region = %v, want us-east-1", storage.region)
	}
	if storage.endpoint != "http://localhost:4566" {
		t.Errorf("endpoint = %v, want trailing slash trimmed", storage.endpoint)
	}
}

func TestS3Storage_InheritsLocalStorage(t *testing.T) {
	storage := newTestS3Storage(t, "http://localhost:4566")
	ctx := context.Background()

	path, err := storage.SaveUpload(ctx, "talk.flac", bytes.NewReader([]byte("test data")))
	if err != nil {
		t.Fatalf("SaveUpload() error = %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read: %v", err)
	}
	if string(content) != "test data" {
		t.Errorf("got %q, want %q", string(content), "test data")
	}

	if err := storage.Cleanup(ctx, []string{path}); err != nil {
		t.Fatalf("Cleanup() error = %v", err)
	}
}

func TestS3Storage_Archive_MockServer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("expected PUT method, got %s", r.Method)
		}

		if !strings.HasSuffix(r.URL.Path, "/test-bucket/transcriptions/abc.json") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content type: %s", ct)
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("failed to read body: %v", err)
		}
		if string(body) != `{"id":"abc"}` {
			t.Errorf("unexpected body: %s", string(body))
		}

		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	storage := newTestS3Storage(t, server.URL)

	url, err := storage.Archive(context.Background(), "transcriptions/abc.json", "application/json",
		bytes.NewReader([]byte(`{"id":"abc"}`)))
	if err != nil {
		t.Fatalf("Archive() error = %v", err)
	}

	expectedURL := server.URL + "/test-bucket/transcriptions/abc.json"
	if url != expectedURL {
		t.Errorf("url = %v, want %v", url, expectedURL)
	}
}

func TestS3Storage_Archive_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`<Error><Code>AccessDenied</Code><Message>denied</Message></Error>`))
	}))
	defer server.Close()

	storage := newTestS3Storage(t, server.URL)

	_, err := storage.Archive(context.Background(), "k.json", "", bytes.NewReader([]byte("{}")))
	if err == nil {
		t.Fatal("expected error on 403")
	}
}

func TestS3Storage_ObjectURL(t *testing.T) {
	s := &S3Storage{bucket: "b", region: "eu-west-1"}
	if got, want := s.objectURL("transcriptions/x.json"), "https://b.s3.eu-west-1.amazonaws.com/transcriptions/x.json"; got != want {
		t.Errorf("objectURL() = %q, want %q", got, want)
	}

	s.endpoint = "http://minio:9000"
	if got, want := s.objectURL("x.json"), "http://minio:9000/b/x.json"; got != want {
		t.Errorf("objectURL() = %q, want %q", got, want)
	}
}
