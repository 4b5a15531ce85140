package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		level    string
		env      string
		expected zerolog.Level
	}{
		{"", "development", zerolog.DebugLevel},
		{"", "production", zerolog.InfoLevel},
		{"warn", "development", zerolog.WarnLevel},
		{"ERROR", "production", zerolog.ErrorLevel},
		{"nonsense", "production", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.level, tt.env); got != tt.expected {
			t.Errorf("ParseLevel(%q, %q) = %v, want %v", tt.level, tt.env, got, tt.expected)
		}
	}
}

func TestNewWithWriter_JSONInProduction(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "production", "")

	logger.Info().Str("stage", "fetching").Msg("orchestrator: test")
	logger.Debug().Msg("hidden")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one line, got %d: %q", len(lines), buf.String())
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("expected JSON log line: %v", err)
	}
	if entry["stage"] != "fetching" || entry["message"] != "orchestrator: test" {
		t.Errorf("unexpected entry: %v", entry)
	}
	if _, ok := entry["time"]; !ok {
		t.Error("expected timestamp field")
	}
}

func TestNewWithWriter_ConsoleInDevelopment(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "development", "")

	logger.Debug().Msg("visible")

	out := buf.String()
	if !strings.Contains(out, "visible") {
		t.Errorf("expected debug output in development, got %q", out)
	}
	if strings.HasPrefix(strings.TrimSpace(out), "{") {
		t.Error("development output should not be JSON")
	}
}
