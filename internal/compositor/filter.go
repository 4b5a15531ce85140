package compositor

import (
	"fmt"
	"strconv"

	"github.com/kartoza/kartoza-video-composer/internal/geometry"
	"github.com/kartoza/kartoza-video-composer/internal/mask"
	"github.com/kartoza/kartoza-video-composer/internal/models"
)

// Output canvas and encoding constants
const (
	CanvasWidth  = 1920
	CanvasHeight = 1080
	FrameRate    = 30
)

// Layout carries everything the filter graph needs besides the inputs
type Layout struct {
	CanvasWidth     int
	CanvasHeight    int
	Size            int // overlay diameter in output pixels
	Margin          int
	Position        models.Position
	DurationSeconds float64
	FrameRate       int
}

// DefaultLayout returns the reference 1920x1080, 300px bottom-right layout
func DefaultLayout() Layout {
	return Layout{
		CanvasWidth:     CanvasWidth,
		CanvasHeight:    CanvasHeight,
		Size:            models.DefaultOverlaySize,
		Margin:          geometry.DefaultMargin,
		Position:        models.PositionBottomRight,
		DurationSeconds: models.DefaultDurationSeconds,
		FrameRate:       FrameRate,
	}
}

// LayoutFor builds a layout from a request, keeping the canvas defaults
func LayoutFor(req models.CompositionRequest, margin int) Layout {
	l := DefaultLayout()
	l.Size = req.Size
	l.Margin = margin
	l.Position = req.Position
	l.DurationSeconds = req.DurationSeconds
	return l
}

// Validate rejects layouts that cannot produce a circle
func (l Layout) Validate() error {
	if l.Size <= 0 {
		return fmt.Errorf("overlay size must be positive, got %d", l.Size)
	}
	if l.DurationSeconds <= 0 {
		return fmt.Errorf("duration must be positive, got %g", l.DurationSeconds)
	}
	if l.Margin < 0 {
		return fmt.Errorf("margin must not be negative, got %d", l.Margin)
	}
	if l.CanvasWidth <= 0 || l.CanvasHeight <= 0 || l.FrameRate <= 0 {
		return fmt.Errorf("invalid canvas %dx%d@%d", l.CanvasWidth, l.CanvasHeight, l.FrameRate)
	}
	return nil
}

// CropOffset returns the crop x/y expressions used for a background kind.
// Scrolling captures are center cropped; screenshots keep the top of the
// page, where the hero section lives.
func CropOffset(kind models.BackgroundKind, l Layout) (x, y string) {
	if kind == models.BackgroundVideo {
		return fmt.Sprintf("(in_w-%d)/2", l.CanvasWidth), fmt.Sprintf("(in_h-%d)/2", l.CanvasHeight)
	}
	return "0", "0"
}

// PrepareBackground builds the filter fragment producing [bg] from input 0
func PrepareBackground(bg models.Background, l Layout) string {
	cropX, cropY := CropOffset(bg.Kind, l)
	return fmt.Sprintf(
		"[0:v]scale=%d:%d:force_original_aspect_ratio=increase,crop=%d:%d:%s:%s,setsar=1,fps=%d[bg]",
		l.CanvasWidth, l.CanvasHeight,
		l.CanvasWidth, l.CanvasHeight, cropX, cropY,
		l.FrameRate,
	)
}

// buildCircleOverlay builds the fragment turning input 1 into a masked
// [circle] of the display size
func buildCircleOverlay(g mask.Geometry) string {
	return fmt.Sprintf(
		"[1:v]scale=%d:%d:force_original_aspect_ratio=increase,crop=%d:%d,format=yuva420p,"+
			"geq=lum='p(X,Y)':cb='p(X,Y)':cr='p(X,Y)':a='%s',"+
			"scale=%d:%d:flags=lanczos[circle]",
		g.Working, g.Working,
		g.Working, g.Working,
		mask.GeqExpr(g),
		g.Size, g.Size,
	)
}

// BuildFilterGraph assembles the full filter_complex for one composition.
// Only the background fragment depends on the background kind.
func BuildFilterGraph(bg models.Background, l Layout) (string, error) {
	if err := l.Validate(); err != nil {
		return "", err
	}
	g, err := mask.ForSize(l.Size)
	if err != nil {
		return "", err
	}

	pos := geometry.ResolvePosition(l.Position, l.Margin)
	overlay := fmt.Sprintf(
		"[bg][circle]overlay=%s:%s:enable='between(t,0,%s)':format=auto,format=yuv420p[outv]",
		pos.XExpr, pos.YExpr, formatSeconds(l.DurationSeconds),
	)

	return PrepareBackground(bg, l) + ";" + buildCircleOverlay(g) + ";" + overlay, nil
}

// BuildArgs returns the ffmpeg argument list for a composition.
// Video comes from the composited graph, audio only from the overlay source.
func BuildArgs(bg models.Background, overlayPath, outputPath string, l Layout) ([]string, error) {
	filter, err := BuildFilterGraph(bg, l)
	if err != nil {
		return nil, err
	}

	duration := formatSeconds(l.DurationSeconds)
	args := []string{"-y"}
	if bg.IsVideo() {
		args = append(args, "-i", bg.Path)
	} else {
		// Still images are looped into a video stream of the target length
		args = append(args, "-loop", "1", "-framerate", strconv.Itoa(l.FrameRate), "-t", duration, "-i", bg.Path)
	}
	args = append(args, "-i", overlayPath)

	args = append(args,
		"-filter_complex", filter,
		"-map", "[outv]",
		"-map", "1:a?",
		"-c:v", "libx264",
		"-preset", "medium",
		"-crf", "18",
		"-r", strconv.Itoa(l.FrameRate),
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		"-b:a", "320k",
		"-t", duration,
		"-movflags", "+faststart",
		outputPath,
	)
	return args, nil
}

func formatSeconds(s float64) string {
	return strconv.FormatFloat(s, 'f', -1, 64)
}
