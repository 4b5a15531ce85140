package notify

import (
	"os/exec"

	"github.com/kartoza/kartoza-video-composer/internal/models"
)

// Urgency levels for notifications
type Urgency string

const (
	UrgencyLow      Urgency = "low"
	UrgencyNormal   Urgency = "normal"
	UrgencyCritical Urgency = "critical"
)

const title = "Video Composer"

// runner executes notify-send; replaced in tests
var runner = func(args ...string) error {
	return exec.Command("notify-send", args...).Run()
}

// Send sends a desktop notification using notify-send
func Send(title, body string, urgency Urgency, icon string) error {
	args := []string{title, body}

	if urgency != "" {
		args = append(args, "--urgency="+string(urgency))
	}

	if icon != "" {
		args = append(args, "--icon="+icon)
	}

	return runner(args...)
}

// Info sends an informational notification
func Info(title, body string) error {
	return Send(title, body, UrgencyNormal, "video-x-generic")
}

// Warning sends a warning notification
func Warning(title, body string) error {
	return Send(title, body, UrgencyLow, "dialog-warning")
}

// Error sends an error notification
func Error(title, body string) error {
	return Send(title, body, UrgencyCritical, "dialog-error")
}

// Result notifies about the outcome of a composition
func Result(res models.CompositionResult) error {
	switch {
	case !res.Success:
		return Error(title, "Composition failed: "+res.Error)
	case res.Fallback:
		return Warning(title, "Composition failed at "+string(res.Stage)+", using the base video")
	default:
		return Info(title, "Published "+res.OutputURL)
	}
}
