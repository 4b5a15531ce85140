package orchestrator

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kartoza/kartoza-video-composer/internal/compositor"
	"github.com/kartoza/kartoza-video-composer/internal/fetch"
	"github.com/kartoza/kartoza-video-composer/internal/metrics"
	"github.com/kartoza/kartoza-video-composer/internal/models"
	"github.com/kartoza/kartoza-video-composer/internal/publish"
)

// WorkDirPrefix names per-request work directories under the temp root.
// The sweep only touches directories carrying it or UnpublishedPrefix.
const WorkDirPrefix = "compose-"

// UnpublishedPrefix names directories holding composed outputs whose upload
// failed. They outlive the request so the video can be recovered by hand.
const UnpublishedPrefix = "unpublished-"

// Executor runs fetch, compose and publish for one request and returns the
// published URL. Failures come back as *StageError; fallback policy belongs
// to the caller.
type Executor interface {
	Execute(ctx context.Context, req models.CompositionRequest) (string, error)
}

// Hooks receive progress notifications. Nil funcs are skipped.
type Hooks struct {
	OnStage    func(stage models.Stage)
	OnProgress func(percent float64)
}

func (h Hooks) stage(s models.Stage) {
	if h.OnStage != nil {
		h.OnStage(s)
	}
}

func (h Hooks) progress(p float64) {
	if h.OnProgress != nil {
		h.OnProgress(p)
	}
}

// LocalExecutor runs the whole pipeline in process with a local ffmpeg
type LocalExecutor struct {
	TempRoot    string
	Margin      int
	FFmpegPath  string
	FFprobePath string
	Fetcher     *fetch.Fetcher
	Publisher   publish.Publisher
	Logger      zerolog.Logger
	Hooks       Hooks

	// Now is used for object keys; defaults to time.Now
	Now func() time.Time
}

// Execute implements Executor. Everything written for the request lives in
// its own directory, which is removed before returning.
func (e *LocalExecutor) Execute(ctx context.Context, req models.CompositionRequest) (outputURL string, err error) {
	requestID := uuid.NewString()
	workDir := filepath.Join(e.TempRoot, WorkDirPrefix+requestID)
	logger := e.Logger.With().Str("request_id", requestID).Str("owner", req.OwnerScopeID).Logger()

	if err := os.MkdirAll(workDir, 0755); err != nil {
		return "", &StageError{Stage: models.StageFetching, Err: fmt.Errorf("failed to create work directory: %w", err)}
	}
	defer func() {
		e.Hooks.stage(models.StageCleaningUp)
		start := time.Now()
		if rmErr := os.RemoveAll(workDir); rmErr != nil {
			logger.Warn().Err(rmErr).Str("dir", workDir).Msg("orchestrator: cleanup failed")
		}
		metrics.StageDuration.WithLabelValues(string(models.StageCleaningUp)).Observe(time.Since(start).Seconds())
	}()

	// Fetching
	done := e.enter(models.StageFetching)
	assets, err := e.Fetcher.FetchAll(ctx,
		fetch.Target{URL: req.BaseVideoURL, Path: filepath.Join(workDir, "base"+extensionFor(req.BaseVideoURL, ".mp4"))},
		fetch.Target{URL: req.BackgroundURL, Path: filepath.Join(workDir, "background"+extensionFor(req.BackgroundURL, ".png"))},
	)
	done()
	if err != nil {
		return "", &StageError{Stage: models.StageFetching, Err: err}
	}
	base, background := assets[0], assets[1]
	bg := backgroundFor(req, background)

	logger.Debug().
		Str("background_kind", string(bg.Kind)).
		Int64("base_bytes", base.Bytes).
		Int64("background_bytes", background.Bytes).
		Msg("orchestrator: inputs fetched")

	// Composing
	outputPath := filepath.Join(workDir, "output.mp4")
	comp := compositor.New(e.FFmpegPath, e.FFprobePath, logger)
	comp.SetPercentCallback(e.Hooks.progress)

	done = e.enter(models.StageComposing)
	err = comp.Compose(ctx, bg, base.LocalPath, outputPath, compositor.LayoutFor(req, e.Margin))
	done()
	if err != nil {
		return "", &StageError{Stage: models.StageComposing, Err: err}
	}

	// Publishing
	now := time.Now
	if e.Now != nil {
		now = e.Now
	}
	key := publish.ObjectKey(req.OwnerScopeID, now())

	done = e.enter(models.StagePublishing)
	outputURL, err = e.Publisher.Publish(ctx, outputPath, key)
	done()
	if err != nil {
		kept, keepErr := e.keepUnpublished(outputPath, requestID, key)
		if keepErr != nil {
			logger.Warn().Err(keepErr).Msg("orchestrator: could not keep unpublished output")
		} else {
			logger.Warn().Str("path", kept).Str("key", key).Msg("orchestrator: unpublished output kept for recovery")
			err = fmt.Errorf("%w (output kept at %s)", err, kept)
		}
		return "", &StageError{Stage: models.StagePublishing, Err: err}
	}

	logger.Info().Str("key", key).Str("url", outputURL).Msg("orchestrator: composition published")
	return outputURL, nil
}

// keepUnpublished moves a composed output out of the work directory before
// cleanup removes it. The file is named after the object key it was meant for.
func (e *LocalExecutor) keepUnpublished(outputPath, requestID, key string) (string, error) {
	if _, err := os.Stat(outputPath); err != nil {
		return "", err
	}
	dir := filepath.Join(e.TempRoot, UnpublishedPrefix+requestID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	kept := filepath.Join(dir, path.Base(key))
	if err := os.Rename(outputPath, kept); err != nil {
		_ = os.Remove(dir)
		return "", err
	}
	return kept, nil
}

// enter notifies hooks and returns a func recording the stage duration
func (e *LocalExecutor) enter(stage models.Stage) func() {
	e.Hooks.stage(stage)
	start := time.Now()
	return func() {
		metrics.StageDuration.WithLabelValues(string(stage)).Observe(time.Since(start).Seconds())
	}
}

// backgroundFor picks the compositor branch: an explicit kind wins, then
// the URL extension, then the served Content-Type
func backgroundFor(req models.CompositionRequest, asset *models.LocalAsset) models.Background {
	if req.BackgroundKind != "" {
		return asset.AsBackground(req.BackgroundKind)
	}
	if urlExtension(req.BackgroundURL) != "" {
		return asset.AsBackground(models.DetectBackgroundKind(req.BackgroundURL))
	}
	return asset.AsBackground("")
}

func urlExtension(rawURL string) string {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	}
	return strings.ToLower(path.Ext(p))
}

// extensionFor keeps the source extension on local copies so the encoder
// can pick the right demuxer
func extensionFor(rawURL, fallback string) string {
	ext := urlExtension(rawURL)
	if ext == "" || len(ext) > 6 {
		return fallback
	}
	return ext
}
