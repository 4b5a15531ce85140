package compositor

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/kartoza/kartoza-video-composer/internal/models"
)

const fakeProbeJSON = `{"streams":[{"codec_type":"video","codec_name":"h264","width":1920,"height":1080,"r_frame_rate":"30/1"},{"codec_type":"audio","codec_name":"aac"}],"format":{"duration":"30.000000"}}`

// writeScript creates an executable shell script in dir
func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func skipWithoutShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake encoder scripts need a POSIX shell")
	}
}

func TestCompose_Success(t *testing.T) {
	skipWithoutShell(t)
	dir := t.TempDir()

	ffmpeg := writeScript(t, dir, "ffmpeg", `for last; do :; done
printf 'encoded' > "$last"
echo "out_time_us=N/A"
echo "out_time_us=15000000"
echo "out_time_us=45000000"
echo "progress=end"
`)
	ffprobe := writeScript(t, dir, "ffprobe", "echo '"+fakeProbeJSON+"'\n")

	c := New(ffmpeg, ffprobe, zerolog.Nop())

	var mu sync.Mutex
	var percents []float64
	c.SetPercentCallback(func(p float64) {
		mu.Lock()
		defer mu.Unlock()
		percents = append(percents, p)
	})

	out := filepath.Join(dir, "out.mp4")
	err := c.Compose(context.Background(), models.StaticImage(filepath.Join(dir, "bg.png")), filepath.Join(dir, "talking.mp4"), out, DefaultLayout())
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}

	if _, err := os.Stat(out); err != nil {
		t.Errorf("expected output file: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(percents) < 3 {
		t.Fatalf("expected progress updates, got %v", percents)
	}
	if percents[0] != 0 {
		t.Errorf("expected first update to be 0, got %f", percents[0])
	}
	if percents[1] != 50 {
		t.Errorf("expected 50%% at 15s of 30s, got %f", percents[1])
	}
	for _, p := range percents {
		if p > 100 {
			t.Errorf("percent should be capped at 100, got %f", p)
		}
	}
}

func TestCompose_EncoderFailureRemovesOutput(t *testing.T) {
	skipWithoutShell(t)
	dir := t.TempDir()

	ffmpeg := writeScript(t, dir, "ffmpeg", `for last; do :; done
printf 'partial' > "$last"
echo "Error initializing filter 'geq'" >&2
exit 1
`)
	ffprobe := writeScript(t, dir, "ffprobe", "echo '"+fakeProbeJSON+"'\n")

	c := New(ffmpeg, ffprobe, zerolog.Nop())
	out := filepath.Join(dir, "out.mp4")
	err := c.Compose(context.Background(), models.ScrollingVideo(filepath.Join(dir, "bg.mp4")), filepath.Join(dir, "talking.mp4"), out, DefaultLayout())

	var compErr *CompositionError
	if !errors.As(err, &compErr) {
		t.Fatalf("expected CompositionError, got %v", err)
	}
	if compErr.Step != "encode" {
		t.Errorf("expected encode step, got %q", compErr.Step)
	}
	if !strings.Contains(compErr.Stderr, "geq") {
		t.Errorf("expected encoder diagnostic in error, got %q", compErr.Stderr)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Error("partial output should be removed after a failure")
	}
}

func TestCompose_VerifyRejectsWrongDimensions(t *testing.T) {
	skipWithoutShell(t)
	dir := t.TempDir()

	ffmpeg := writeScript(t, dir, "ffmpeg", `for last; do :; done
printf 'encoded' > "$last"
`)
	small := strings.Replace(fakeProbeJSON, `"width":1920,"height":1080`, `"width":640,"height":360`, 1)
	ffprobe := writeScript(t, dir, "ffprobe", "echo '"+small+"'\n")

	c := New(ffmpeg, ffprobe, zerolog.Nop())
	out := filepath.Join(dir, "out.mp4")
	err := c.Compose(context.Background(), models.StaticImage(filepath.Join(dir, "bg.png")), filepath.Join(dir, "talking.mp4"), out, DefaultLayout())

	var compErr *CompositionError
	if !errors.As(err, &compErr) || compErr.Step != "verify" {
		t.Fatalf("expected verify CompositionError, got %v", err)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Error("unverified output should be removed")
	}
}

func TestCompose_BuildErrorForInvalidLayout(t *testing.T) {
	c := New("ffmpeg", "ffprobe", zerolog.Nop())
	l := DefaultLayout()
	l.Size = -1

	err := c.Compose(context.Background(), models.StaticImage("/tmp/bg.png"), "/tmp/talking.mp4", filepath.Join(t.TempDir(), "out.mp4"), l)

	var compErr *CompositionError
	if !errors.As(err, &compErr) || compErr.Step != "build" {
		t.Fatalf("expected build CompositionError, got %v", err)
	}
}

func TestCompose_MissingBinary(t *testing.T) {
	c := New("/nonexistent/ffmpeg", "/nonexistent/ffprobe", zerolog.Nop())
	err := c.Compose(context.Background(), models.StaticImage("/tmp/bg.png"), "/tmp/talking.mp4", filepath.Join(t.TempDir(), "out.mp4"), DefaultLayout())

	var compErr *CompositionError
	if !errors.As(err, &compErr) {
		t.Fatalf("expected CompositionError, got %v", err)
	}
}

func TestCompose_RealEncoder(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping encoder run in short mode")
	}
	ffmpeg, err := exec.LookPath("ffmpeg")
	if err != nil {
		t.Skip("ffmpeg not installed")
	}
	if _, err := exec.LookPath("ffprobe"); err != nil {
		t.Skip("ffprobe not installed")
	}
	encoders, err := exec.Command(ffmpeg, "-hide_banner", "-encoders").Output()
	if err != nil || !strings.Contains(string(encoders), "libx264") {
		t.Skip("ffmpeg built without libx264")
	}

	dir := t.TempDir()
	talking := filepath.Join(dir, "talking.mp4")
	background := filepath.Join(dir, "shot.png")

	gen := exec.Command(ffmpeg, "-y",
		"-f", "lavfi", "-i", "testsrc=size=640x480:rate=30:duration=2",
		"-f", "lavfi", "-i", "sine=frequency=440:duration=2",
		"-c:v", "libx264", "-c:a", "aac", "-shortest", talking)
	if out, err := gen.CombinedOutput(); err != nil {
		t.Fatalf("generate talking head: %v\n%s", err, out)
	}
	gen = exec.Command(ffmpeg, "-y", "-f", "lavfi", "-i", "color=c=blue:size=1920x3000", "-frames:v", "1", background)
	if out, err := gen.CombinedOutput(); err != nil {
		t.Fatalf("generate screenshot: %v\n%s", err, out)
	}

	l := DefaultLayout()
	l.DurationSeconds = 1

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	out := filepath.Join(dir, "out.mp4")
	c := New("", "", zerolog.Nop())
	if err := c.Compose(ctx, models.StaticImage(background), talking, out, l); err != nil {
		t.Fatalf("Compose: %v", err)
	}

	meta, err := Probe(ctx, "", out)
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if meta.Width != 1920 || meta.Height != 1080 {
		t.Errorf("expected 1920x1080, got %dx%d", meta.Width, meta.Height)
	}
	if !meta.HasAudio {
		t.Error("expected audio from the talking head")
	}
}
