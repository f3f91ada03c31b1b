package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/lukemcguire/xmlrpcfind/batch"
	"github.com/lukemcguire/xmlrpcfind/result"
)

// ProgressMsg reports batch progress after a probe or a finished site.
type ProgressMsg struct {
	Done     int
	Total    int
	Resolved int
	Failed   int
	URL      string
	Category result.ErrorCategory // set when a probe failed
}

// DoneMsg signals the batch has completed.
type DoneMsg struct {
	Result *result.Result
	Err    error
}

// waitForProgress returns a tea.Cmd that reads one event from the progress
// channel. A closed channel yields no message; the result arrives from
// startBatch.
func waitForProgress(ch <-chan batch.Event) tea.Cmd {
	return func() tea.Msg {
		evt, ok := <-ch
		if !ok {
			return nil
		}
		current := evt.URL
		if evt.SiteDone {
			current = evt.Site
		}
		return ProgressMsg{
			Done:     evt.Done,
			Total:    evt.Total,
			Resolved: evt.Resolved,
			Failed:   evt.Failed,
			URL:      current,
			Category: evt.Category,
		}
	}
}
