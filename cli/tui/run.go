package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/justapithecus/adit/types"
)

// RunModel is a Bubble Tea model for a parsed test run summary.
type RunModel struct {
	run      *types.TestRun
	bar      progress.Model
	width    int
	height   int
	quitting bool
}

// NewRunModel creates a new run summary model.
func NewRunModel(run *types.TestRun) RunModel {
	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = 40
	return RunModel{
		run: run,
		bar: bar,
	}
}

// Init implements tea.Model.
func (m RunModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m RunModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
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
func (m RunModel) View() string {
	if m.quitting {
		return ""
	}

	content := m.renderRun()
	help := HelpStyle.Render("Press q or Ctrl+C to quit")
	return content + "\n" + help
}

func (m RunModel) renderRun() string {
	run := m.run
	if run == nil {
		return "No test run loaded"
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render("Test Run"))
	b.WriteString("\n\n")

	if !run.Planned {
		b.WriteString(ValueStyle.Render("No test plan detected; raw log follows.\n"))
		b.WriteString(truncate(run.Raw, 20))
		return BoxStyle.Render(b.String())
	}

	b.WriteString(m.bar.ViewAs(float64(run.Percent) / 100))
	b.WriteString(fmt.Sprintf("  %d%%\n\n", run.Percent))

	rows := [][]string{
		{"Total", fmt.Sprintf("%d", run.Total)},
		{"Passed", fmt.Sprintf("%d", run.Passed)},
		{"Failed", fmt.Sprintf("%d", run.Failed)},
		{"Skipped", fmt.Sprintf("%d", run.Skipped)},
		{"Retries", fmt.Sprintf("%d", run.Retries)},
		{"Left", fmt.Sprintf("%d", run.Left)},
	}
	for _, row := range rows {
		label := LabelStyle.Render(row[0] + ":")
		b.WriteString(fmt.Sprintf("%s %s\n", label, ValueStyle.Render(row[1])))
	}

	if run.CountMismatch {
		b.WriteString("\n")
		b.WriteString(WarningStyle.Render("More results than the plan declared"))
		b.WriteString("\n")
	}

	if len(run.Overview) > 0 {
		b.WriteString("\n")
		b.WriteString(TitleStyle.Render("Needs Attention"))
		b.WriteString("\n")
		for _, e := range run.Overview {
			state := StateStyle(e.State).Render(string(e.State))
			b.WriteString(fmt.Sprintf("  %s %s %s\n",
				ValueStyle.Render(e.ID), state, ValueStyle.Render(e.Title)))
			if e.Reason != "" {
				b.WriteString(fmt.Sprintf("    %s\n", HelpStyle.Render(e.Reason)))
			}
		}
	}

	return BoxStyle.Render(b.String())
}

// truncate returns at most n lines of text.
func truncate(text string, n int) string {
	lines := strings.Split(text, "\n")
	if len(lines) <= n {
		return text
	}
	return strings.Join(lines[:n], "\n") + "\n..."
}

// keyMap defines key bindings.
type keyMap struct {
	Quit key.Binding
}

var keys = keyMap{
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// RunSummaryTUI runs the run summary TUI.
func RunSummaryTUI(data any) error {
	run, ok := data.(*types.TestRun)
	if !ok {
		return fmt.Errorf("run summary view requires a *types.TestRun, got %T", data)
	}
	model := NewRunModel(run)
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// RenderRunStatic renders the run summary without full TUI (for fallback).
func RenderRunStatic(run *types.TestRun) string {
	model := NewRunModel(run)
	model.width = 80
	model.height = 24
	return lipgloss.NewStyle().Padding(1, 2).Render(model.View())
}
