package models

// Stage names a step of the composition pipeline
type Stage string

const (
	StageCheckingEngine Stage = "checking_engine"
	StageFetching       Stage = "fetching"
	StageComposing      Stage = "composing"
	StagePublishing     Stage = "publishing"
	StageCleaningUp     Stage = "cleaning_up"
	StageDone           Stage = "done"
)

// CompositionResult is the terminal value handed back to the caller
type CompositionResult struct {
	Success         bool    `json:"success"`
	OutputURL       string  `json:"outputURL,omitempty"`
	DurationSeconds float64 `json:"durationSeconds,omitempty"`
	Error           string  `json:"error,omitempty"`

	// Fallback is set when OutputURL is the untouched base video
	Fallback bool `json:"fallback,omitempty"`
	// Stage is where a fallback or failure happened
	Stage Stage `json:"stage,omitempty"`
}

// Succeeded builds the result for a published composition
func Succeeded(outputURL string, durationSeconds float64) CompositionResult {
	return CompositionResult{
		Success:         true,
		OutputURL:       outputURL,
		DurationSeconds: durationSeconds,
		Stage:           StageDone,
	}
}

// FellBack builds the best-effort result pointing at the base video.
// The diagnostic is kept for operators; callers still see success.
func FellBack(baseVideoURL string, durationSeconds float64, stage Stage, diagnostic error) CompositionResult {
	res := CompositionResult{
		Success:         true,
		OutputURL:       baseVideoURL,
		DurationSeconds: durationSeconds,
		Fallback:        true,
		Stage:           stage,
	}
	if diagnostic != nil {
		res.Error = diagnostic.Error()
	}
	return res
}

// Failed builds a structured failure, used across the remote boundary
func Failed(stage Stage, err error) CompositionResult {
	res := CompositionResult{Success: false, Stage: stage}
	if err != nil {
		res.Error = err.Error()
	}
	return res
}
