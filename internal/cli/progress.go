package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

type cloneStartedMsg struct {
	name string
}

type cloneFinishedMsg struct {
	name string
	err  error
}

type allDoneMsg struct{}

type cloneFailure struct {
	name string
	err  error
}

// progressModel renders the batch-clone progress of `workon pull` while the
// clones run in a background goroutine feeding it messages.
type progressModel struct {
	total    int
	finished int
	current  string
	failures []cloneFailure
	done     bool
}

func newProgressModel(total int) progressModel {
	return progressModel{total: total}
}

func (m progressModel) Init() tea.Cmd {
	return nil
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case cloneStartedMsg:
		m.current = msg.name
		return m, nil

	case cloneFinishedMsg:
		m.finished++
		m.current = ""
		if msg.err != nil {
			m.failures = append(m.failures, cloneFailure{name: msg.name, err: msg.err})
		}
		return m, nil

	case allDoneMsg:
		m.done = true
		return m, tea.Quit

	case tea.KeyMsg:
		// The clone in flight finishes on its own; cancellation comes
		// from the signal context, not from keys.
		return m, nil
	}
	return m, nil
}

func (m progressModel) View() string {
	if m.done {
		return ""
	}

	var b strings.Builder
	b.WriteString(headingStyle.Render(fmt.Sprintf("Pulling %d projects", m.total)))
	b.WriteString("\n")

	bar := renderBar(m.finished, m.total, 30)
	b.WriteString(fmt.Sprintf("%s %d/%d", bar, m.finished, m.total))
	if len(m.failures) > 0 {
		b.WriteString(errorStyle.Render(fmt.Sprintf("  %d failed", len(m.failures))))
	}
	b.WriteString("\n")

	if m.current != "" {
		b.WriteString(mutedStyle.Render("cloning " + m.current))
		b.WriteString("\n")
	}
	return b.String()
}

func renderBar(done, total, width int) string {
	if total == 0 {
		return strings.Repeat("─", width)
	}
	filled := done * width / total
	return goodStyle.Render(strings.Repeat("█", filled)) + mutedStyle.Render(strings.Repeat("░", width-filled))
}
