package compositor

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/kartoza/kartoza-video-composer/internal/models"
)

// CompositionError carries the encoder diagnostic of a failed composition
type CompositionError struct {
	Step   string // "build", "encode" or "verify"
	Stderr string
	Err    error
}

func (e *CompositionError) Error() string {
	msg := fmt.Sprintf("composition %s failed: %v", e.Step, e.Err)
	if e.Stderr != "" {
		msg += ", stderr: " + e.Stderr
	}
	return msg
}

func (e *CompositionError) Unwrap() error {
	return e.Err
}

// PercentCallback is called to report encoding progress
type PercentCallback func(percent float64)

// maxStderr bounds how much encoder output is kept for diagnostics
const maxStderr = 4096

// Compositor runs the ffmpeg composition for one output file
type Compositor struct {
	ffmpegPath  string
	ffprobePath string
	logger      zerolog.Logger
	onPercent   PercentCallback
}

// New creates a Compositor. Empty paths resolve ffmpeg/ffprobe from PATH.
func New(ffmpegPath, ffprobePath string, logger zerolog.Logger) *Compositor {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Compositor{ffmpegPath: ffmpegPath, ffprobePath: ffprobePath, logger: logger}
}

// SetPercentCallback sets the callback for percentage progress updates
func (c *Compositor) SetPercentCallback(cb PercentCallback) {
	c.onPercent = cb
}

func (c *Compositor) reportPercent(percent float64) {
	if c.onPercent != nil {
		c.onPercent(percent)
	}
}

// Compose overlays the circular cut of overlayPath onto bg and writes an
// MP4 to outputPath. On any failure the output file is removed.
func (c *Compositor) Compose(ctx context.Context, bg models.Background, overlayPath, outputPath string, layout Layout) (err error) {
	defer func() {
		if err != nil {
			_ = os.Remove(outputPath)
		}
	}()

	args, err := BuildArgs(bg, overlayPath, outputPath, layout)
	if err != nil {
		return &CompositionError{Step: "build", Err: err}
	}

	c.logger.Debug().
		Str("background", bg.Path).
		Str("background_kind", string(bg.Kind)).
		Str("overlay", overlayPath).
		Str("output", outputPath).
		Msg("compositor: starting ffmpeg")

	durationUs := int64(layout.DurationSeconds * 1000000)
	if err := c.runFFmpegWithProgress(ctx, durationUs, args...); err != nil {
		return err
	}

	if err := c.verify(ctx, outputPath, layout); err != nil {
		return &CompositionError{Step: "verify", Err: err}
	}

	return nil
}

// verify makes sure the encoder produced a playable file of the right shape
func (c *Compositor) verify(ctx context.Context, outputPath string, layout Layout) error {
	info, err := os.Stat(outputPath)
	if err != nil {
		return fmt.Errorf("output missing: %w", err)
	}
	if info.Size() == 0 {
		return errors.New("output is empty")
	}

	meta, err := Probe(ctx, c.ffprobePath, outputPath)
	if err != nil {
		return err
	}
	if meta.Width != layout.CanvasWidth || meta.Height != layout.CanvasHeight {
		return fmt.Errorf("unexpected output dimensions %dx%d", meta.Width, meta.Height)
	}
	return nil
}

// runFFmpegWithProgress runs ffmpeg and reports progress.
// durationUs is the expected output duration in microseconds.
func (c *Compositor) runFFmpegWithProgress(ctx context.Context, durationUs int64, args ...string) error {
	// -progress pipe:1 emits key=value lines on stdout every stats period
	progressArgs := append([]string{"-progress", "pipe:1", "-stats_period", "0.5", "-nostats"}, args...)

	cmd := exec.CommandContext(ctx, c.ffmpegPath, progressArgs...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return &CompositionError{Step: "encode", Err: fmt.Errorf("failed to create stdout pipe: %w", err)}
	}

	var stderrBuf strings.Builder
	cmd.Stderr = &stderrBuf

	if err := cmd.Start(); err != nil {
		return &CompositionError{Step: "encode", Err: fmt.Errorf("failed to start ffmpeg: %w", err)}
	}

	c.reportPercent(0)

	// out_time_us can be "N/A" at the start, which we skip
	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "out_time_us=") {
			continue
		}
		timeStr := strings.TrimPrefix(line, "out_time_us=")
		if timeStr == "N/A" {
			continue
		}
		if timeUs, err := strconv.ParseInt(timeStr, 10, 64); err == nil && durationUs > 0 && timeUs >= 0 {
			percent := float64(timeUs) / float64(durationUs) * 100
			if percent > 100 {
				percent = 100
			}
			c.reportPercent(percent)
		}
	}

	if err := cmd.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = fmt.Errorf("%w (%v)", ctxErr, err)
		}
		return &CompositionError{Step: "encode", Stderr: tail(stderrBuf.String(), maxStderr), Err: err}
	}

	c.reportPercent(100)
	return nil
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
