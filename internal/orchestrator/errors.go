package orchestrator

import (
	"fmt"

	"github.com/kartoza/kartoza-video-composer/internal/models"
)

// EngineUnavailableError is returned when no compositing engine can run.
// It is an expected condition and always ends in the base video fallback.
type EngineUnavailableError struct {
	Detail string
}

func (e *EngineUnavailableError) Error() string {
	if e.Detail == "" {
		return "compositing engine unavailable"
	}
	return "compositing engine unavailable: " + e.Detail
}

// StageError tags a pipeline error with the stage it happened in
type StageError struct {
	Stage models.Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
