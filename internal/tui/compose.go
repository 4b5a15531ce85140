package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kartoza/kartoza-video-composer/internal/models"
	"github.com/kartoza/kartoza-video-composer/internal/orchestrator"
)

// RunFunc performs one composition, reporting through hooks
type RunFunc func(ctx context.Context, hooks orchestrator.Hooks) models.CompositionResult

// Messages for processing updates
type stageMsg struct{ Stage models.Stage }
type percentMsg struct{ Percent float64 }
type resultMsg struct{ Result models.CompositionResult }
type processingTickMsg struct{}

// processingTickCmd returns a command that ticks the processing animation
func processingTickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return processingTickMsg{}
	})
}

// ComposeModel shows the progress of a single composition
type ComposeModel struct {
	state    *ProcessingState
	spinner  spinner.Model
	progress progress.Model
	percent  float64
	frame    int
	result   *models.CompositionResult
	cancel   context.CancelFunc
	width    int
	height   int
}

// NewComposeModel creates the progress view. cancel is invoked on ctrl+c.
func NewComposeModel(cancel context.CancelFunc) ComposeModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(ColorOrange)

	state := NewProcessingState()
	state.Start()

	return ComposeModel{
		state:    state,
		spinner:  s,
		progress: progress.New(progress.WithGradient(string(ColorOrange), string(ColorBlue))),
		cancel:   cancel,
		width:    HeaderWidth,
		height:   20,
	}
}

// Init implements tea.Model
func (m ComposeModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, processingTickCmd())
}

// Update implements tea.Model
func (m ComposeModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = min(msg.Width-20, HeaderWidth)
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, key.NewBinding(key.WithKeys("ctrl+c"))) {
			if m.cancel != nil {
				m.cancel()
			}
			return m, nil
		}
		if m.result != nil && key.Matches(msg, key.NewBinding(key.WithKeys("q", "esc", "enter"))) {
			return m, tea.Quit
		}
		return m, nil

	case stageMsg:
		m.state.EnterStage(msg.Stage)
		return m, nil

	case percentMsg:
		m.percent = msg.Percent
		return m, nil

	case resultMsg:
		res := msg.Result
		m.result = &res
		m.state.Finish(res)
		return m, tea.Quit

	case processingTickMsg:
		if m.result != nil {
			return m, nil
		}
		m.frame++
		return m, processingTickCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View implements tea.Model
func (m ComposeModel) View() string {
	header := RenderHeader("Compose")

	elapsed := time.Since(m.state.StartTime).Round(time.Second)
	elapsedStr := lipgloss.NewStyle().
		Foreground(ColorGray).
		Italic(true).
		Render(fmt.Sprintf("Elapsed: %s", elapsed))

	var bar string
	if idx := m.state.indexOf(models.StageComposing); idx >= 0 && m.state.Steps[idx].Status == StepRunning {
		bar = m.progress.ViewAs(m.percent / 100)
	}

	content := lipgloss.JoinVertical(
		lipgloss.Center,
		header,
		"",
		elapsedStr,
		"",
		renderSteps(m.state, m.frame),
		"",
		bar,
		m.statusLine(),
	)

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Top, content)
}

func (m ComposeModel) statusLine() string {
	if m.result == nil {
		return lipgloss.NewStyle().Foreground(ColorGray).Render(m.spinner.View() + " Please wait...")
	}
	return RenderResult(*m.result)
}

// Result returns the final composition result once available
func (m ComposeModel) Result() (models.CompositionResult, bool) {
	if m.result == nil {
		return models.CompositionResult{}, false
	}
	return *m.result, true
}

// RenderResult renders a composition result for terminal output
func RenderResult(res models.CompositionResult) string {
	var headline string
	switch {
	case !res.Success:
		headline = ErrorStyle.Render("✗ Composition failed")
	case res.Fallback:
		headline = WarnStyle.Render("● Returned the base video")
	default:
		headline = SuccessStyle.Render("● Composition published")
	}

	lines := []string{headline}
	if res.OutputURL != "" {
		lines = append(lines, LabelStyle.Render("URL:      ")+ValueStyle.Render(res.OutputURL))
	}
	if res.DurationSeconds > 0 {
		lines = append(lines, LabelStyle.Render("Duration: ")+ValueStyle.Render(fmt.Sprintf("%gs", res.DurationSeconds)))
	}
	if res.Error != "" {
		lines = append(lines, LabelStyle.Render("Reason:   ")+lipgloss.NewStyle().Foreground(ColorRed).Render(res.Error))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// RunCompose runs fn while showing the progress view and returns its result
func RunCompose(ctx context.Context, fn RunFunc) (models.CompositionResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(NewComposeModel(cancel))

	hooks := orchestrator.Hooks{
		OnStage:    func(s models.Stage) { p.Send(stageMsg{Stage: s}) },
		OnProgress: func(pct float64) { p.Send(percentMsg{Percent: pct}) },
	}

	resultCh := make(chan models.CompositionResult, 1)
	go func() {
		res := fn(ctx, hooks)
		resultCh <- res
		p.Send(resultMsg{Result: res})
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		return <-resultCh, fmt.Errorf("progress view failed: %w", err)
	}
	return <-resultCh, nil
}
