package publish

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// FilePublisher stores artifacts on the local filesystem. It is intended for
// development and tests where no object store is available.
type FilePublisher struct {
	basePath      string
	publicBaseURL string
	logger        zerolog.Logger
}

// NewFilePublisher initializes a FilePublisher rooted at basePath.
// An empty publicBaseURL yields file:// URLs.
func NewFilePublisher(basePath, publicBaseURL string, logger zerolog.Logger) (*FilePublisher, error) {
	basePath = strings.TrimSpace(basePath)
	if basePath == "" {
		return nil, errors.New("base path is required")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("ensure base path: %w", err)
	}
	return &FilePublisher{basePath: basePath, publicBaseURL: publicBaseURL, logger: logger}, nil
}

// BasePath returns the configured root directory
func (p *FilePublisher) BasePath() string {
	return p.basePath
}

// Publish copies localPath under key and removes the local file
func (p *FilePublisher) Publish(ctx context.Context, localPath, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &PublishError{Key: key, Err: err}
	}
	cleanKey, err := sanitizeKey(key)
	if err != nil {
		return "", &PublishError{Key: key, Err: err}
	}

	fullPath := filepath.Join(p.basePath, filepath.FromSlash(cleanKey))
	if _, err := os.Stat(fullPath); err == nil {
		return "", &PublishError{Key: cleanKey, Err: errors.New("object already exists")}
	}
	if err := p.copyInto(localPath, fullPath); err != nil {
		return "", &PublishError{Key: cleanKey, Err: err}
	}

	if err := os.Remove(localPath); err != nil {
		p.logger.Warn().Err(err).Str("path", localPath).Msg("publish: failed to remove local artifact")
	}

	p.logger.Info().Str("key", cleanKey).Str("path", fullPath).Msg("publish: stored artifact")

	if p.publicBaseURL == "" {
		return (&url.URL{Scheme: "file", Path: filepath.ToSlash(fullPath)}).String(), nil
	}
	return joinURL(p.publicBaseURL, cleanKey), nil
}

func (p *FilePublisher) copyInto(localPath, fullPath string) error {
	src, reader, err := openArtifact(localPath, nil)
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return fmt.Errorf("ensure directory: %w", err)
	}

	tmp := fullPath + ".part"
	dst, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create object: %w", err)
	}
	if _, err := io.Copy(dst, reader); err != nil {
		_ = dst.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("write object: %w", err)
	}
	if err := dst.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("close object: %w", err)
	}
	if err := os.Rename(tmp, fullPath); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("finalize object: %w", err)
	}
	return nil
}
