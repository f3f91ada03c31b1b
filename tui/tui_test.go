package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/lukemcguire/xmlrpcfind/batch"
	"github.com/lukemcguire/xmlrpcfind/result"
)

func TestNewModel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	progressCh := make(chan batch.Event, 10)
	runner := batch.New(batch.DefaultConfig("mywordpresssite.com"), progressCh)

	model := NewModel(ctx, cancel, runner, progressCh)

	if model.ctx != ctx {
		t.Error("expected ctx to be stored in model")
	}
	if model.cancel == nil {
		t.Error("expected cancel to be stored in model")
	}
	if model.runner != runner {
		t.Error("expected runner to be stored in model")
	}
	if model.progressCh != progressCh {
		t.Error("expected progressCh to be stored in model")
	}
	if model.finished != 0 || model.resolved != 0 || model.failed != 0 {
		t.Error("expected initial counters to be zero")
	}
	if model.done {
		t.Error("expected done to be false initially")
	}
}

func TestHasFailures(t *testing.T) {
	tests := []struct {
		name   string
		result *result.Result
		err    error
		want   bool
	}{
		{
			name: "nil result",
			want: true,
		},
		{
			name:   "interrupted",
			result: &result.Result{},
			err:    context.Canceled,
			want:   true,
		},
		{
			name:   "all resolved",
			result: &result.Result{Stats: result.Stats{Total: 2, Resolved: 2}},
			want:   false,
		},
		{
			name:   "one failed",
			result: &result.Result{Stats: result.Stats{Total: 2, Resolved: 1, Failed: 1}},
			want:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := Model{result: tt.result, err: tt.err}
			if got := model.HasFailures(); got != tt.want {
				t.Errorf("HasFailures() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetResult(t *testing.T) {
	res := &result.Result{Sites: []result.SiteResult{{Site: "mywordpresssite.com"}}}
	model := Model{result: res}
	if got := model.GetResult(); got != res {
		t.Errorf("GetResult() = %v, want %v", got, res)
	}
	if got := (Model{}).GetResult(); got != nil {
		t.Errorf("GetResult() = %v, want nil", got)
	}
}

func TestRenderSummary_NilResult(t *testing.T) {
	output := RenderSummary(nil)
	if output == "" {
		t.Error("expected non-empty output for nil result")
	}
}

func TestRenderSummary_AllResolved(t *testing.T) {
	res := &result.Result{
		Sites: []result.SiteResult{
			{Site: "mywordpresssite.com", Endpoint: "http://mywordpresssite.com/xmlrpc.php", Methods: 80, Probes: 1},
			{Site: "blog.example", Endpoint: "https://blog.example/xmlrpc.php", Fault: "XML-RPC services are disabled", Probes: 1},
		},
		Stats: result.Stats{Total: 2, Resolved: 2, Duration: 2 * time.Second},
	}
	output := RenderSummary(res)

	for _, want := range []string{
		"Resolved (2)",
		"http://mywordpresssite.com/xmlrpc.php",
		"80 methods",
		"fault: XML-RPC services are disabled",
		"Resolved 2 of 2 sites, 0 failed",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output, got: %s", want, output)
		}
	}
}

func TestRenderSummary_WithFailures(t *testing.T) {
	res := &result.Result{
		Sites: []result.SiteResult{
			{Site: "mywordpresssite.com", Endpoint: "http://mywordpresssite.com/xmlrpc.php", Methods: 3, Probes: 1},
			{Site: "static.example", ErrorKind: "no_reachable_endpoint", Error: `no reachable XML-RPC endpoint for "static.example"`, Probes: 2},
			{Site: "ftp://files.example", ErrorKind: "unsupported_scheme", Error: "unsupported scheme"},
			{Site: "odd", ErrorKind: "something_new", Error: "boom"},
		},
		Stats: result.Stats{Total: 4, Resolved: 1, Failed: 3, Duration: 3 * time.Second},
	}
	output := RenderSummary(res)

	for _, want := range []string{
		"No Reachable Endpoint (1)",
		"static.example",
		"Unsupported Scheme (1)",
		"Other Errors (1)",
		"boom",
		"Resolved 1 of 4 sites, 3 failed",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output, got: %s", want, output)
		}
	}
	if strings.Index(output, "No Reachable Endpoint") > strings.Index(output, "Unsupported Scheme") {
		t.Error("expected unreachable sites listed before unsupported schemes")
	}
}

func TestInit_ReturnsBatchCmd(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	progressCh := make(chan batch.Event, 10)
	runner := batch.New(batch.DefaultConfig("mywordpresssite.com"), progressCh)

	model := NewModel(ctx, cancel, runner, progressCh)
	if cmd := model.Init(); cmd == nil {
		t.Error("Init() should return a non-nil batch command")
	}
}

func TestUpdate_ProgressMsg(t *testing.T) {
	model := Model{
		progressCh: make(chan batch.Event, 10),
	}

	msg := ProgressMsg{Done: 2, Total: 5, Resolved: 1, Failed: 1, URL: "http://mywordpresssite.com/xmlrpc.php"}
	updatedModel, cmd := model.Update(msg)
	updated := updatedModel.(Model)

	if updated.finished != 2 || updated.total != 5 {
		t.Errorf("expected 2/5, got %d/%d", updated.finished, updated.total)
	}
	if updated.resolved != 1 || updated.failed != 1 {
		t.Errorf("expected resolved=1 failed=1, got %d/%d", updated.resolved, updated.failed)
	}
	if updated.current != "http://mywordpresssite.com/xmlrpc.php" {
		t.Errorf("expected current URL to be set, got %s", updated.current)
	}
	if cmd == nil {
		t.Error("expected non-nil cmd to re-subscribe to progress channel")
	}
}

func TestWaitForProgress(t *testing.T) {
	ch := make(chan batch.Event, 2)
	ch <- batch.Event{Site: "mywordpresssite.com", URL: "http://mywordpresssite.com/xmlrpc.php", Done: 0, Total: 1}
	ch <- batch.Event{Site: "mywordpresssite.com", SiteDone: true, Done: 1, Resolved: 1, Total: 1}
	close(ch)

	probe, ok := waitForProgress(ch)().(ProgressMsg)
	if !ok || probe.URL != "http://mywordpresssite.com/xmlrpc.php" {
		t.Errorf("probe message = %+v", probe)
	}
	site, ok := waitForProgress(ch)().(ProgressMsg)
	if !ok || site.URL != "mywordpresssite.com" || site.Done != 1 || site.Resolved != 1 {
		t.Errorf("site message = %+v", site)
	}
	if msg := waitForProgress(ch)(); msg != nil {
		t.Errorf("closed channel produced %#v, want nil", msg)
	}
}

func TestUpdate_DoneMsg(t *testing.T) {
	model := Model{}
	res := &result.Result{
		Sites: []result.SiteResult{{Site: "mywordpresssite.com", Endpoint: "http://mywordpresssite.com/xmlrpc.php"}},
		Stats: result.Stats{Total: 1, Resolved: 1},
	}

	updatedModel, _ := model.Update(DoneMsg{Result: res})
	updated := updatedModel.(Model)

	if !updated.done {
		t.Error("expected done=true after DoneMsg")
	}
	if updated.result != res {
		t.Error("expected result to be stored")
	}
}

func TestUpdate_QuitCancels(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	model := Model{ctx: ctx, cancel: cancel}

	updatedModel, cmd := model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	updated := updatedModel.(Model)

	if !updated.quitting {
		t.Error("expected quitting=true")
	}
	if ctx.Err() == nil {
		t.Error("expected context to be cancelled")
	}
	if cmd == nil {
		t.Error("expected quit command")
	}
}

func TestUpdate_SpinnerTickMsg(t *testing.T) {
	model := Model{}
	updatedModel, _ := model.Update(spinner.TickMsg{})
	_ = updatedModel.(Model)
}

func TestUpdate_WindowSizeMsg(t *testing.T) {
	model := Model{}
	updatedModel, _ := model.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	updated := updatedModel.(Model)

	if updated.width != 120 {
		t.Errorf("expected width=120, got %d", updated.width)
	}
}

func TestView_InProgress(t *testing.T) {
	model := Model{
		finished: 3,
		total:    7,
		resolved: 2,
		failed:   1,
		current:  "http://mywordpresssite.com/xmlrpc.php",
	}
	output := model.View()
	if !strings.Contains(output, "Resolving") {
		t.Errorf("expected 'Resolving' in progress view, got: %s", output)
	}
	if !strings.Contains(output, "3/7") {
		t.Errorf("expected progress count in view, got: %s", output)
	}
}

func TestView_DoneWithResult(t *testing.T) {
	model := Model{
		done: true,
		result: &result.Result{
			Stats: result.Stats{Total: 0, Duration: time.Second},
		},
	}
	output := model.View()
	if !strings.Contains(output, "Resolved 0 of 0 sites") {
		t.Errorf("expected summary in done view, got: %s", output)
	}
}

func TestView_DoneWithError(t *testing.T) {
	model := Model{
		done: true,
		err:  context.Canceled,
	}
	output := model.View()
	if !strings.Contains(output, "Error") {
		t.Errorf("expected error message in done view, got: %s", output)
	}
}

func TestUpdate_TalliesProbeFailures(t *testing.T) {
	model := Model{progressCh: make(chan batch.Event, 1)}

	for _, cat := range []result.ErrorCategory{result.Category4xx, result.Category4xx, result.CategoryNotXML, ""} {
		updatedModel, _ := model.Update(ProgressMsg{Total: 1, URL: "http://mywordpresssite.com/xmlrpc.php", Category: cat})
		model = updatedModel.(Model)
	}

	if model.causes[result.Category4xx] != 2 || model.causes[result.CategoryNotXML] != 1 {
		t.Errorf("causes = %v, want 2 client errors and 1 not-xml", model.causes)
	}
	if _, ok := model.causes[""]; ok {
		t.Error("resolved probes should not be tallied")
	}
}

func TestRenderProbeFailures(t *testing.T) {
	if got := RenderProbeFailures(nil); got != "" {
		t.Errorf("RenderProbeFailures(nil) = %q, want empty", got)
	}

	output := RenderProbeFailures(map[result.ErrorCategory]int{
		result.CategoryTimeout: 1,
		result.Category4xx:     3,
		"brand_new":            2,
	})
	for _, want := range []string{"Client Errors (4xx): 3", "Timeouts: 1", "Other Errors: 2"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output, got: %s", want, output)
		}
	}
	if strings.Index(output, "Client Errors") > strings.Index(output, "Timeouts") {
		t.Error("expected client errors listed before timeouts")
	}
}
