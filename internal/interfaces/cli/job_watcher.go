package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"prinsight.ai/cli/internal/core/jobs"
)

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}

// runWatcher polls job behind a live terminal view until it finishes, the
// user quits or ctx is cancelled.
func runWatcher(ctx context.Context, fetcher jobs.StatusFetcher, job *jobs.Job, interval, timeout time.Duration, out io.Writer) (jobs.Status, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := newWatchModel(job, interval, cancel)
	program := tea.NewProgram(model, tea.WithOutput(out), tea.WithContext(ctx))

	go func() {
		poller := jobs.NewPoller(fetcher, interval, timeout, jobs.WithStatusCallback(func(st jobs.Status) {
			program.Send(statusMsg(st))
		}))
		st, err := poller.Wait(ctx, job)
		program.Send(doneMsg{status: st, err: err})
	}()

	final, err := program.Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return jobs.Status{}, fmt.Errorf("job watcher failed: %w", err)
	}
	m, ok := final.(watchModel)
	if !ok || !m.done {
		return jobs.Status{ID: job.ID(), State: job.State()}, context.Canceled
	}
	return m.final, m.err
}

// watchModel holds the state of the job watcher
type watchModel struct {
	job      *jobs.Job
	interval time.Duration
	cancel   context.CancelFunc
	statuses []jobs.Status
	frame    int
	done     bool
	final    jobs.Status
	err      error
}

func newWatchModel(job *jobs.Job, interval time.Duration, cancel context.CancelFunc) watchModel {
	return watchModel{
		job:      job,
		interval: interval,
		cancel:   cancel,
	}
}

// statusMsg carries one observed status
type statusMsg jobs.Status

// doneMsg is sent when polling stops
type doneMsg struct {
	status jobs.Status
	err    error
}

// tickMsg drives the spinner
type tickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(120*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Init implements tea.Model
func (m watchModel) Init() tea.Cmd {
	return tickCmd()
}

// Update implements tea.Model
func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.cancel()
			return m, tea.Quit
		}

	case tickMsg:
		if m.done {
			return m, nil
		}
		m.frame++
		return m, tickCmd()

	case statusMsg:
		m.statuses = append(m.statuses, jobs.Status(msg))
		return m, nil

	case doneMsg:
		m.done = true
		m.final = msg.status
		m.err = msg.err
		return m, tea.Quit
	}
	return m, nil
}

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// View implements tea.Model
func (m watchModel) View() string {
	title := titleStyle.Render("Review job " + m.job.ID().Value())
	if tool := m.job.Tool(); tool != "" {
		title += mutedStyle.Render(" (" + tool + ")")
	}

	state := m.job.State()
	var status string
	switch {
	case m.done && m.err != nil:
		status = errorStyle.Render("✗ " + m.err.Error())
	case state == jobs.StateCompleted:
		status = successStyle.Render("✓ completed")
	case state == jobs.StateFailed:
		status = errorStyle.Render("✗ failed")
	default:
		status = warningStyle.Render(spinnerFrames[m.frame%len(spinnerFrames)] + " " + string(state))
	}

	header := lipgloss.JoinHorizontal(lipgloss.Left,
		title, "  ", status, "  ",
		mutedStyle.Render(fmt.Sprintf("%s elapsed, polling every %s", m.job.Duration().Round(time.Second), m.interval)),
	)

	rows := []string{header}
	for _, st := range m.statuses {
		rows = append(rows, "  "+formatStatusLine(st))
	}
	if m.done && m.final.Result != "" {
		rows = append(rows, "", m.final.Result)
	}
	if !m.done {
		rows = append(rows, "", mutedStyle.Render("[q] stop watching"))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...) + "\n"
}
