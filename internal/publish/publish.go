package publish

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CacheControl is attached to every published artifact. Keys are never
// reused, so the object can be cached forever.
const CacheControl = "public, max-age=31536000, immutable"

// ContentType of every composed artifact
const ContentType = "video/mp4"

// Publisher uploads a finished composition and returns its public URL
type Publisher interface {
	Publish(ctx context.Context, localPath, key string) (string, error)
}

// PublishError wraps any failure to store an artifact
type PublishError struct {
	Key string
	Err error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("publish %s: %v", e.Key, e.Err)
}

func (e *PublishError) Unwrap() error {
	return e.Err
}

// ObjectKey builds a collision-resistant key for an owner's artifact:
// composed/<owner>/<unix-millis>-<shortid>.mp4
func ObjectKey(ownerScopeID string, now time.Time) string {
	owner := sanitizeSegment(ownerScopeID)
	if owner == "" {
		owner = "anonymous"
	}
	shortID := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return fmt.Sprintf("composed/%s/%d-%s.mp4", owner, now.UnixMilli(), shortID)
}

// sanitizeSegment keeps an owner id usable as a single path segment
func sanitizeSegment(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, s)
}

// sanitizeKey normalizes a key and prevents escaping the storage root
func sanitizeKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", errors.New("key is required")
	}
	key = strings.ReplaceAll(key, "\\", "/")
	key = strings.TrimPrefix(key, "./")
	key = strings.TrimLeft(key, "/")
	cleaned := filepath.ToSlash(filepath.Clean(key))
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("invalid key %q", key)
	}
	return cleaned, nil
}

// ProgressFunc reports upload progress in bytes
type ProgressFunc func(read, total int64)

// progressReader wraps an io.Reader to report progress
type progressReader struct {
	reader       io.Reader
	total        int64
	read         int64
	progressFunc ProgressFunc
}

func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.reader.Read(p)
	pr.read += int64(n)
	if pr.progressFunc != nil {
		pr.progressFunc(pr.read, pr.total)
	}
	return n, err
}

// openArtifact opens a local artifact and wraps it for progress reporting
func openArtifact(localPath string, fn ProgressFunc) (*os.File, *progressReader, error) {
	file, err := os.Open(localPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open artifact: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, nil, fmt.Errorf("failed to stat artifact: %w", err)
	}
	if info.Size() == 0 {
		_ = file.Close()
		return nil, nil, errors.New("artifact is empty")
	}
	return file, &progressReader{reader: file, total: info.Size(), progressFunc: fn}, nil
}

// joinURL appends a key to a public base URL
func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + key
}
