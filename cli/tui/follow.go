package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/justapithecus/adit/types"
)

// SnapshotMsg delivers a freshly parsed run to the live view.
type SnapshotMsg struct {
	Run *types.TestRun
}

// DoneMsg delivers the terminal session outcome to the live view.
type DoneMsg struct {
	Outcome *types.FollowOutcome
}

// FollowModel is a Bubble Tea model for a live follow session. It
// renders the latest snapshot and, once the session finishes, the
// outcome banner.
type FollowModel struct {
	logName  string
	run      *types.TestRun
	outcome  *types.FollowOutcome
	bar      progress.Model
	polls    int
	width    int
	height   int
	quitting bool
}

// NewFollowModel creates a live follow model.
func NewFollowModel(logName string) FollowModel {
	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = 40
	return FollowModel{
		logName: logName,
		bar:     bar,
	}
}

// Init implements tea.Model.
func (m FollowModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m FollowModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case SnapshotMsg:
		m.run = msg.Run
		m.polls++
		return m, nil

	case DoneMsg:
		m.outcome = msg.Outcome
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, keys.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
	}

	return m, nil
}

// View implements tea.Model.
func (m FollowModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render(fmt.Sprintf("Following %s", m.logName)))
	b.WriteString("\n\n")

	if m.run == nil {
		b.WriteString(HelpStyle.Render("Waiting for the first snapshot..."))
	} else {
		inner := NewRunModel(m.run)
		inner.bar = m.bar
		b.WriteString(inner.renderRun())
		b.WriteString("\n")
		b.WriteString(HelpStyle.Render(fmt.Sprintf("%d snapshots received", m.polls)))
	}

	if m.outcome != nil {
		b.WriteString("\n")
		b.WriteString(m.renderOutcome())
	}

	help := HelpStyle.Render("Press q or Ctrl+C to quit")
	return b.String() + "\n" + help
}

func (m FollowModel) renderOutcome() string {
	var style = ValueStyle
	switch m.outcome.Status {
	case types.OutcomeSuccess:
		style = SuccessStyle
	case types.OutcomeTestFailure:
		style = ErrorStyle
	case types.OutcomeIncomplete:
		style = WarningStyle
	}
	line := fmt.Sprintf("%s: %s", m.outcome.Status, m.outcome.Message)
	return style.Render(line)
}

// FollowProgram runs the live follow view. It implements the follow
// loop's notifier contract so snapshots stream into the model.
type FollowProgram struct {
	program *tea.Program
}

// NewFollowProgram creates the live view for the named log.
func NewFollowProgram(logName string) *FollowProgram {
	model := NewFollowModel(logName)
	return &FollowProgram{
		program: tea.NewProgram(model, tea.WithAltScreen()),
	}
}

// Notify feeds a parsed snapshot into the view. Never fails; the view
// must not abort the session.
func (fp *FollowProgram) Notify(_ context.Context, run *types.TestRun) error {
	fp.program.Send(SnapshotMsg{Run: run})
	return nil
}

// Done shows the terminal outcome. The view stays open until the user
// quits.
func (fp *FollowProgram) Done(outcome *types.FollowOutcome) {
	fp.program.Send(DoneMsg{Outcome: outcome})
}

// Quit closes the view.
func (fp *FollowProgram) Quit() {
	fp.program.Quit()
}

// Run blocks until the view exits.
func (fp *FollowProgram) Run() error {
	_, err := fp.program.Run()
	return err
}
