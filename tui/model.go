// Package tui provides the Bubble Tea terminal UI for xmlrpcfind,
// displaying live resolution progress and a styled summary of results.
package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lukemcguire/xmlrpcfind/batch"
	"github.com/lukemcguire/xmlrpcfind/result"
)

// Model is the Bubble Tea model for a batch resolution.
type Model struct {
	ctx        context.Context
	cancel     context.CancelFunc
	runner     *batch.Runner
	spinner    spinner.Model
	progressCh <-chan batch.Event

	finished int
	total    int
	resolved int
	failed   int
	current  string
	causes   map[result.ErrorCategory]int
	quitting bool
	done     bool
	result   *result.Result
	err      error
	width    int
}

// NewModel creates a TUI model wired to the given runner and progress channel.
func NewModel(ctx context.Context, cancel context.CancelFunc, runner *batch.Runner, progressCh <-chan batch.Event) Model {
	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	return Model{
		ctx:        ctx,
		cancel:     cancel,
		runner:     runner,
		spinner:    spin,
		progressCh: progressCh,
	}
}

// Init starts the spinner, the batch, and the progress listener concurrently.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.startBatch(), waitForProgress(m.progressCh))
}

// startBatch returns a tea.Cmd that runs the batch and sends DoneMsg.
func (m Model) startBatch() tea.Cmd {
	return func() tea.Msg {
		res, err := m.runner.Run(m.ctx)
		return DoneMsg{Result: res, Err: err}
	}
}

// Update handles messages from the Bubble Tea runtime.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			m.cancel()
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width

	case ProgressMsg:
		m.finished = msg.Done
		m.total = msg.Total
		m.resolved = msg.Resolved
		m.failed = msg.Failed
		m.current = msg.URL
		if msg.Category != "" {
			causes := make(map[result.ErrorCategory]int, len(m.causes)+1)
			for k, v := range m.causes {
				causes[k] = v
			}
			causes[msg.Category]++
			m.causes = causes
		}
		return m, waitForProgress(m.progressCh)

	case DoneMsg:
		m.done = true
		m.result = msg.Result
		m.err = msg.Err
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the current TUI state.
func (m Model) View() string {
	if m.done && m.result != nil {
		return RenderSummary(m.result) + RenderProbeFailures(m.causes)
	}
	if m.done && m.err != nil {
		return errorStyle.Render("Error: "+m.err.Error()) + "\n"
	}
	return fmt.Sprintf("%s Resolving... %d/%d sites, %d resolved, %d failed\n%s\n",
		m.spinner.View(), m.finished, m.total, m.resolved, m.failed,
		dimStyle.Render("  "+m.current))
}

// HasFailures reports whether the batch was interrupted or any site failed
// to resolve.
func (m Model) HasFailures() bool {
	if m.err != nil || m.result == nil {
		return true
	}
	return m.result.Stats.Failed > 0
}

// GetResult returns the batch result for output formatting.
func (m Model) GetResult() *result.Result {
	return m.result
}

// Err returns the error that ended the batch, if any.
func (m Model) Err() error {
	return m.err
}
