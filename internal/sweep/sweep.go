package sweep

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/rs/zerolog"

	"github.com/kartoza/kartoza-video-composer/internal/metrics"
	"github.com/kartoza/kartoza-video-composer/internal/orchestrator"
)

// LockFileName guards the temp root against concurrent sweepers
const LockFileName = ".sweep.lock"

// Result contains the outcome of a sweep
type Result struct {
	Removed []string
	Errors  []CleanupError
	// Skipped is set when another process held the sweep lock
	Skipped bool
}

// CleanupError pairs a directory path with its cleanup error
type CleanupError struct {
	Path  string
	Error error
}

// CleanStale removes request work directories older than maxAge. These are
// left behind when a composition is killed by its timeout before cleanup ran.
// Outputs kept after a failed upload expire the same way. Only directories
// carrying one of those two prefixes are considered.
func CleanStale(ctx context.Context, root string, maxAge time.Duration, logger zerolog.Logger) Result {
	result := Result{}

	root = strings.TrimSpace(root)
	if root == "" {
		return result
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		result.Errors = append(result.Errors, CleanupError{Path: root, Error: err})
		return result
	}

	lock := flock.New(filepath.Join(root, LockFileName))
	locked, err := lock.TryLock()
	if err != nil {
		result.Errors = append(result.Errors, CleanupError{Path: lock.Path(), Error: fmt.Errorf("acquire sweep lock: %w", err)})
		return result
	}
	if !locked {
		logger.Debug().Str("root", root).Msg("sweep: another sweeper holds the lock")
		result.Skipped = true
		return result
	}
	defer func() { _ = lock.Unlock() }()

	dirs, err := List(root)
	if err != nil {
		result.Errors = append(result.Errors, CleanupError{Path: root, Error: err})
		return result
	}

	cutoff := time.Now().Add(-maxAge)
	for _, dir := range dirs {
		if ctx.Err() != nil {
			break
		}
		if !dir.ModTime.Before(cutoff) {
			continue
		}

		if err := os.RemoveAll(dir.Path); err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: dir.Path, Error: err})
			logger.Warn().Err(err).Str("path", dir.Path).Msg("sweep: failed to remove stale work directory")
			continue
		}

		result.Removed = append(result.Removed, dir.Path)
		metrics.SweepRemovedTotal.Inc()
		logger.Info().
			Str("path", dir.Path).
			Dur("age", time.Since(dir.ModTime)).
			Int64("bytes", dir.Size).
			Msg("sweep: removed stale work directory")
	}

	return result
}

// Run sweeps once immediately and then every interval until ctx is done
func Run(ctx context.Context, root string, maxAge, interval time.Duration, logger zerolog.Logger) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		res := CleanStale(ctx, root, maxAge, logger)
		if len(res.Removed) > 0 || len(res.Errors) > 0 {
			logger.Info().
				Int("removed", len(res.Removed)).
				Int("errors", len(res.Errors)).
				Msg("sweep: pass complete")
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// DirInfo contains metadata about a work directory
type DirInfo struct {
	Name    string
	Path    string
	ModTime time.Time
	Size    int64
}

// List returns the work directories under root
func List(root string) ([]DirInfo, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var dirs []DirInfo
	for _, entry := range entries {
		if !entry.IsDir() || !sweepable(entry.Name()) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		dirPath := filepath.Join(root, entry.Name())
		size, _ := dirSize(dirPath)

		dirs = append(dirs, DirInfo{
			Name:    entry.Name(),
			Path:    dirPath,
			ModTime: info.ModTime(),
			Size:    size,
		})
	}

	return dirs, nil
}

func sweepable(name string) bool {
	return strings.HasPrefix(name, orchestrator.WorkDirPrefix) ||
		strings.HasPrefix(name, orchestrator.UnpublishedPrefix)
}

// dirSize calculates the total size of a directory recursively
func dirSize(path string) (int64, error) {
	var size int64
	err := filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			size += info.Size()
		}
		return nil
	})
	return size, err
}
