package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/kartoza/kartoza-video-composer/internal/models"
)

// DownloadError reports a remote asset that could not be fetched
type DownloadError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *DownloadError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("download %s: unexpected status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("download %s: %v", e.URL, e.Err)
}

func (e *DownloadError) Unwrap() error {
	return e.Err
}

// ErrShortTransfer marks a body that ended before Content-Length bytes arrived
var ErrShortTransfer = errors.New("incomplete transfer")

// Fetcher downloads remote videos and images to local disk
type Fetcher struct {
	client *http.Client
	logger zerolog.Logger
}

// New creates a Fetcher. A nil client gets a client with a generous timeout.
func New(client *http.Client, logger zerolog.Logger) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Minute}
	}
	return &Fetcher{client: client, logger: logger}
}

// Fetch streams url to destPath, creating parent directories as needed.
// The body is written to a sibling .part file and renamed only once the
// whole transfer arrived, so a failed download never leaves a short file.
func (f *Fetcher) Fetch(ctx context.Context, url, destPath string) (*models.LocalAsset, error) {
	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return nil, &DownloadError{URL: url, Err: fmt.Errorf("failed to create destination directory: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &DownloadError{URL: url, Err: err}
	}

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &DownloadError{URL: url, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))
		return nil, &DownloadError{URL: url, StatusCode: resp.StatusCode}
	}

	partPath := destPath + ".part"
	written, err := writeBody(partPath, resp.Body, resp.ContentLength)
	if err != nil {
		_ = os.Remove(partPath)
		return nil, &DownloadError{URL: url, Err: err}
	}

	if err := os.Rename(partPath, destPath); err != nil {
		_ = os.Remove(partPath)
		return nil, &DownloadError{URL: url, Err: fmt.Errorf("failed to move download into place: %w", err)}
	}

	asset := &models.LocalAsset{
		SourceURL: url,
		LocalPath: destPath,
		Kind:      assetKind(resp.Header.Get("Content-Type"), url),
		Bytes:     written,
	}

	f.logger.Debug().
		Str("url", url).
		Str("path", destPath).
		Int64("bytes", written).
		Dur("took", time.Since(start)).
		Msg("fetch: downloaded asset")

	return asset, nil
}

func writeBody(path string, body io.Reader, expected int64) (int64, error) {
	out, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create file: %w", err)
	}

	written, copyErr := io.Copy(out, body)
	closeErr := out.Close()

	if copyErr != nil {
		return written, fmt.Errorf("failed to write body: %w", copyErr)
	}
	if closeErr != nil {
		return written, fmt.Errorf("failed to close file: %w", closeErr)
	}
	if expected >= 0 && written != expected {
		return written, fmt.Errorf("%w: got %d of %d bytes", ErrShortTransfer, written, expected)
	}
	return written, nil
}

func assetKind(contentType, url string) models.AssetKind {
	if kind, ok := models.KindFromContentType(contentType); ok {
		return kind
	}
	if models.DetectBackgroundKind(url) == models.BackgroundVideo {
		return models.AssetVideo
	}
	return models.AssetImage
}

// Target pairs a URL with the path it should be written to
type Target struct {
	URL  string
	Path string
}

// FetchAll downloads every target concurrently. On any failure the files
// that did arrive are removed and the first error is returned.
func (f *Fetcher) FetchAll(ctx context.Context, targets ...Target) ([]*models.LocalAsset, error) {
	assets := make([]*models.LocalAsset, len(targets))

	g, gctx := errgroup.WithContext(ctx)
	for i, target := range targets {
		g.Go(func() error {
			asset, err := f.Fetch(gctx, target.URL, target.Path)
			if err != nil {
				return err
			}
			assets[i] = asset
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		for _, asset := range assets {
			if asset != nil {
				_ = os.Remove(asset.LocalPath)
			}
		}
		return nil, err
	}

	return assets, nil
}
