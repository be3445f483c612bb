package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/JaimeStill/triage/internal/workflow"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#5B8DEF"))
	textStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)
	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#AAAAAA"))
	resultStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#3FB950"))
	warnStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B"))
)

// reviewModel prompts a reviewer for the intents of an escalated request.
type reviewModel struct {
	request    workflow.EscalationRequest
	categories []string
	input      textinput.Model
	answer     string
	cancelled  bool
	done       bool
}

func newReviewModel(req workflow.EscalationRequest, categories []string) reviewModel {
	ti := textinput.New()
	ti.Placeholder = strings.Join(categories, ", ")
	ti.Prompt = "Intents: "
	ti.CharLimit = 256
	ti.Width = 60
	ti.Focus()

	return reviewModel{
		request:    req,
		categories: categories,
		input:      ti,
	}
}

func (m reviewModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m reviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyEnter:
			m.answer = strings.TrimSpace(m.input.Value())
			m.done = true
			return m, tea.Quit
		case tea.KeyEsc, tea.KeyCtrlC:
			m.cancelled = true
			m.done = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m reviewModel) View() string {
	if m.done {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(m.request.Title))
	b.WriteString("\n")
	b.WriteString(textStyle.Render(m.request.OriginalText))
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(hintStyle.Render(fmt.Sprintf(
		"known: %s · enter to submit · esc to cancel",
		strings.Join(m.categories, ", "),
	)))
	b.WriteString("\n")
	return b.String()
}

func renderOutcome(out *workflow.Outcome) string {
	switch out.Status {
	case workflow.StatusCompleted:
		if len(out.State.Categories) == 0 {
			return warnStyle.Render("No intents identified.")
		}
		return resultStyle.Render("Intents: " + strings.Join(out.State.Categories, ", "))
	case workflow.StatusSuspended:
		return warnStyle.Render("Awaiting review: " + out.RunID)
	default:
		return warnStyle.Render(fmt.Sprintf("Run %s ended %s.", out.RunID, out.Status))
	}
}
