package main

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#CC342D")).
			Padding(0, 1)

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	commandStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// maxEntries bounds the scrollback kept in the model.
const maxEntries = 200

type entry struct {
	input  string
	output string
	err    error
}

type interactiveModel struct {
	ctx     context.Context
	sh      *shell
	backend string
	input   textinput.Model
	entries []entry
	history []string
	histIdx int
	busy    bool
	height  int
}

type execResultMsg struct {
	entry entry
}

func newInteractiveModel(ctx context.Context, sh *shell, backend string) *interactiveModel {
	ti := textinput.New()
	ti.Prompt = promptStyle.Render("rb> ")
	ti.Placeholder = "Ruby code or %help"
	ti.Width = 80
	ti.Focus()
	return &interactiveModel{
		ctx:     ctx,
		sh:      sh,
		backend: backend,
		input:   ti,
	}
}

func (m *interactiveModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "ctrl+d":
			return m, tea.Quit

		case "enter":
			if m.busy {
				return m, nil
			}
			line := strings.TrimSpace(m.input.Value())
			if line == "" {
				return m, nil
			}
			if line == "exit" || line == "quit" {
				return m, tea.Quit
			}
			m.history = append(m.history, line)
			m.histIdx = len(m.history)
			m.input.SetValue("")
			m.busy = true
			return m, m.execute(line)

		case "up":
			if m.histIdx > 0 {
				m.histIdx--
				m.input.SetValue(m.history[m.histIdx])
				m.input.CursorEnd()
			}
			return m, nil

		case "down":
			if m.histIdx < len(m.history)-1 {
				m.histIdx++
				m.input.SetValue(m.history[m.histIdx])
				m.input.CursorEnd()
			} else {
				m.histIdx = len(m.history)
				m.input.SetValue("")
			}
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.height = msg.Height
		m.input.Width = msg.Width - 6

	case execResultMsg:
		m.busy = false
		m.entries = append(m.entries, msg.entry)
		if len(m.entries) > maxEntries {
			m.entries = m.entries[len(m.entries)-maxEntries:]
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *interactiveModel) execute(line string) tea.Cmd {
	return func() tea.Msg {
		var buf bytes.Buffer
		err := m.sh.exec(m.ctx, line, &buf)
		return execResultMsg{entry: entry{input: line, output: buf.String(), err: err}}
	}
}

func (m *interactiveModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Ruby Bridge"))
	b.WriteString(" ")
	b.WriteString(m.backend)
	b.WriteString("\n\n")

	var lines []string
	for _, e := range m.entries {
		lines = append(lines, promptStyle.Render("rb> ")+commandStyle.Render(e.input))
		if out := strings.TrimRight(e.output, "\n"); out != "" {
			lines = append(lines, resultStyle.Render(out))
		}
		if e.err != nil {
			lines = append(lines, errorStyle.Render(fmt.Sprintf("Error: %v", e.err)))
		}
	}
	// Keep the prompt on screen: show only the tail that fits.
	if m.height > 0 {
		all := strings.Split(strings.Join(lines, "\n"), "\n")
		if room := m.height - 6; room > 0 && len(all) > room {
			all = all[len(all)-room:]
		}
		lines = all
	}
	if len(lines) > 0 {
		b.WriteString(strings.Join(lines, "\n"))
		b.WriteString("\n")
	}

	if m.busy {
		b.WriteString(helpStyle.Render("running..."))
		b.WriteString("\n")
	}
	b.WriteString(m.input.View())
	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render("enter run • ↑/↓ history • %help commands • ctrl+c quit"))

	return b.String()
}

func runInteractive(ctx context.Context, sh *shell, backend string) error {
	p := tea.NewProgram(newInteractiveModel(ctx, sh, backend), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
