package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// ErrArchiveNotConfigured is returned when archive operations are attempted
// without an S3 bucket configured.
var ErrArchiveNotConfigured = errors.New("storage: archive is not configured")

// maxStemLength bounds the part of the upload name kept in the file name.
const maxStemLength = 64

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// LocalStorage implements the Storage interface using local disk.
// It does not support archiving unless wrapped with S3Storage.
type LocalStorage struct {
	dir string
}

// NewLocalStorage creates a new LocalStorage instance.
// The dir parameter specifies where uploads are stored.
// If dir is empty, a "transcribe" directory under os.TempDir() is used.
// The directory is created if it doesn't exist.
func NewLocalStorage(dir string) (*LocalStorage, error) {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "transcribe")
	}

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}

	return &LocalStorage{dir: dir}, nil
}

// Dir returns the upload directory path.
func (s *LocalStorage) Dir() string {
	return s.dir
}

// SaveUpload implements Storage.SaveUpload.
func (s *LocalStorage) SaveUpload(ctx context.Context, filename string, data io.Reader) (string, error) {
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("context cancelled: %w", ctx.Err())
	default:
	}

	f, err := os.CreateTemp(s.dir, uploadPattern(filename))
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}

	name := f.Name()
	if _, err := io.Copy(f, data); err != nil {
		_ = f.Close()
		_ = os.Remove(name)
		return "", fmt.Errorf("write upload file: %w", err)
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(name)
		return "", fmt.Errorf("close upload file: %w", err)
	}

	return name, nil
}

// uploadPattern turns a client-supplied file name into an os.CreateTemp
// pattern: "My Talk (1).MP3" becomes "My_Talk_1_*.mp3".
func uploadPattern(filename string) string {
	base := filepath.Base(strings.ReplaceAll(filename, `\`, "/"))
	ext := strings.ToLower(filepath.Ext(base))
	if ext == "." || unsafeNameChars.MatchString(strings.TrimPrefix(ext, ".")) {
		ext = ""
	}

	stem := strings.Trim(unsafeNameChars.ReplaceAllString(strings.TrimSuffix(base, filepath.Ext(base)), "_"), "_")
	if len(stem) > maxStemLength {
		stem = stem[:maxStemLength]
	}
	if stem == "" {
		stem = "upload"
	}

	return stem + "_*" + ext
}

// Cleanup implements Storage.Cleanup.
// It returns the first error encountered.
func (s *LocalStorage) Cleanup(ctx context.Context, paths []string) error {
	var firstErr error
	for _, p := range paths {
		select {
		case <-ctx.Done():
			return fmt.Errorf("context cancelled: %w", ctx.Err())
		default:
		}

		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			if firstErr == nil {
				firstErr = fmt.Errorf("remove file %s: %w", p, err)
			}
		}
	}
	return firstErr
}

// Archive is not supported by LocalStorage and returns ErrArchiveNotConfigured.
func (s *LocalStorage) Archive(_ context.Context, _, _ string, _ io.Reader) (string, error) {
	return "", ErrArchiveNotConfigured
}

// Verify interface implementation at compile time.
var _ Storage = (*LocalStorage)(nil)
