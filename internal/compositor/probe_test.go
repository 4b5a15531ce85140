package compositor

import (
	"testing"
	"time"
)

func TestParseProbe(t *testing.T) {
	meta, err := parseProbe([]byte(fakeProbeJSON))
	if err != nil {
		t.Fatalf("parseProbe: %v", err)
	}

	if meta.Width != 1920 || meta.Height != 1080 {
		t.Errorf("unexpected dimensions %dx%d", meta.Width, meta.Height)
	}
	if meta.FPS != 30 {
		t.Errorf("expected 30 fps, got %f", meta.FPS)
	}
	if meta.Duration != 30 {
		t.Errorf("expected 30s duration, got %f", meta.Duration)
	}
	if meta.Codec != "h264" {
		t.Errorf("expected h264, got %q", meta.Codec)
	}
	if !meta.HasAudio {
		t.Error("expected audio stream to be detected")
	}
}

func TestParseProbe_NoVideo(t *testing.T) {
	_, err := parseProbe([]byte(`{"streams":[{"codec_type":"audio"}],"format":{}}`))
	if err == nil {
		t.Error("expected error when no video stream is present")
	}
}

func TestParseProbe_InvalidJSON(t *testing.T) {
	if _, err := parseProbe([]byte("not json")); err == nil {
		t.Error("expected parse error")
	}
}

func TestFormatTimestamp(t *testing.T) {
	tests := []struct {
		in       time.Duration
		expected string
	}{
		{0, "00:00:00.000"},
		{1500 * time.Millisecond, "00:00:01.500"},
		{61 * time.Second, "00:01:01.000"},
		{time.Hour + 2*time.Minute + 3*time.Second, "01:02:03.000"},
	}

	for _, tt := range tests {
		if got := formatTimestamp(tt.in); got != tt.expected {
			t.Errorf("formatTimestamp(%v) = %q, want %q", tt.in, got, tt.expected)
		}
	}
}
