package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/kartoza/kartoza-video-composer/internal/models"
)

// ProcessingStep represents a single pipeline step
type ProcessingStep struct {
	Name      string
	Stage     models.Stage
	Status    StepStatus
	StartTime time.Time
	EndTime   time.Time
}

// StepStatus represents the status of a processing step
type StepStatus int

const (
	StepPending StepStatus = iota
	StepRunning
	StepComplete
	StepFailed
	StepSkipped
)

// ProcessingState holds the state of all pipeline steps
type ProcessingState struct {
	Steps        []ProcessingStep
	CurrentStep  int
	IsProcessing bool
	StartTime    time.Time
	Error        error
}

// NewProcessingState creates a processing state with one step per stage
func NewProcessingState() *ProcessingState {
	return &ProcessingState{
		Steps: []ProcessingStep{
			{Name: "Checking engine", Stage: models.StageCheckingEngine},
			{Name: "Downloading inputs", Stage: models.StageFetching},
			{Name: "Compositing overlay", Stage: models.StageComposing},
			{Name: "Publishing video", Stage: models.StagePublishing},
			{Name: "Cleaning up", Stage: models.StageCleaningUp},
		},
		CurrentStep: -1,
	}
}

// Start begins processing
func (p *ProcessingState) Start() {
	p.IsProcessing = true
	p.StartTime = time.Now()
}

// indexOf returns the step index for a stage, or -1
func (p *ProcessingState) indexOf(stage models.Stage) int {
	for i, step := range p.Steps {
		if step.Stage == stage {
			return i
		}
	}
	return -1
}

// EnterStage marks stage as running. The running step completes and steps
// jumped over are skipped, which is how a fallback shows up.
func (p *ProcessingState) EnterStage(stage models.Stage) {
	if stage == models.StageDone {
		p.finishCurrent(StepComplete)
		p.IsProcessing = false
		return
	}

	idx := p.indexOf(stage)
	if idx < 0 || idx <= p.CurrentStep {
		return
	}

	p.finishCurrent(StepComplete)
	for i := p.CurrentStep + 1; i < idx; i++ {
		if p.Steps[i].Status == StepPending {
			p.Steps[i].Status = StepSkipped
		}
	}

	p.CurrentStep = idx
	p.Steps[idx].Status = StepRunning
	p.Steps[idx].StartTime = time.Now()
}

// finishCurrent closes the running step with status
func (p *ProcessingState) finishCurrent(status StepStatus) {
	if p.CurrentStep >= 0 && p.CurrentStep < len(p.Steps) && p.Steps[p.CurrentStep].Status == StepRunning {
		p.Steps[p.CurrentStep].Status = status
		p.Steps[p.CurrentStep].EndTime = time.Now()
	}
}

// Finish applies the terminal result. A fallback marks the stage it came
// from as failed; steps never reached are skipped.
func (p *ProcessingState) Finish(res models.CompositionResult) {
	p.finishCurrent(StepComplete)

	if res.Fallback || !res.Success {
		if idx := p.indexOf(res.Stage); idx >= 0 {
			p.Steps[idx].Status = StepFailed
			if p.Steps[idx].EndTime.IsZero() {
				p.Steps[idx].EndTime = time.Now()
			}
		}
		if res.Error != "" {
			p.Error = fmt.Errorf("%s", res.Error)
		}
	}

	for i := range p.Steps {
		if p.Steps[i].Status == StepPending {
			p.Steps[i].Status = StepSkipped
		}
	}
	p.IsProcessing = false
}

// Donut animation frames (Unicode block characters for spinning effect)
var donutFrames = []string{
	"◐", "◓", "◑", "◒",
}

// renderSteps renders the step list with donut indicators
func renderSteps(state *ProcessingState, frame int) string {
	lines := make([]string, 0, len(state.Steps))
	for _, step := range state.Steps {
		lines = append(lines, renderStepLine(step, frame))
	}
	return strings.Join(lines, "\n")
}

// renderStepLine renders a single processing step with appropriate indicator
func renderStepLine(step ProcessingStep, frame int) string {
	var indicator string
	var nameStyle lipgloss.Style

	switch step.Status {
	case StepPending:
		indicator = lipgloss.NewStyle().Foreground(ColorGray).Render("○")
		nameStyle = lipgloss.NewStyle().Foreground(ColorGray)

	case StepRunning:
		donutStyle := lipgloss.NewStyle().Foreground(ColorOrange).Bold(true)
		indicator = donutStyle.Render(donutFrames[frame%len(donutFrames)])
		nameStyle = lipgloss.NewStyle().Foreground(ColorWhite).Bold(true)

	case StepComplete:
		indicator = lipgloss.NewStyle().Foreground(ColorGreen).Render("●")
		nameStyle = lipgloss.NewStyle().Foreground(ColorGreen)

	case StepFailed:
		indicator = lipgloss.NewStyle().Foreground(ColorRed).Render("✗")
		nameStyle = lipgloss.NewStyle().Foreground(ColorRed)

	case StepSkipped:
		indicator = lipgloss.NewStyle().Foreground(ColorGray).Render("○")
		nameStyle = lipgloss.NewStyle().Foreground(ColorGray).Strikethrough(true)
	}

	var duration string
	if (step.Status == StepComplete || step.Status == StepFailed) && !step.StartTime.IsZero() {
		d := step.EndTime.Sub(step.StartTime).Round(100 * time.Millisecond)
		durationStyle := lipgloss.NewStyle().Foreground(ColorGray).Italic(true)
		duration = durationStyle.Render(fmt.Sprintf(" (%s)", d))
	}

	return fmt.Sprintf("  %s %s%s", indicator, nameStyle.Render(step.Name), duration)
}
