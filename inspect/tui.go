package inspect

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// maxScrollback is the number of output lines the TUI keeps.
const maxScrollback = 200

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type tuiModel struct {
	console *Console
	title   string
	input   textinput.Model
	lines   []string
	history []string
	recall  int
}

func newTUIModel(title string, c *Console) *tuiModel {
	ti := textinput.New()
	ti.Prompt = c.Prompt()
	ti.Placeholder = "help"
	ti.Width = 60
	ti.Focus()

	return &tuiModel{
		console: c,
		title:   title,
		input:   ti,
	}
}

func (m *tuiModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			return m, m.submit()
		case tea.KeyUp:
			m.recallHistory(-1)
			return m, nil
		case tea.KeyDown:
			m.recallHistory(1)
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)

	return m, cmd
}

func (m *tuiModel) submit() tea.Cmd {
	line := m.input.Value()
	m.input.SetValue("")

	m.appendLines(promptStyle.Render(m.console.Prompt()) + line)

	if strings.TrimSpace(line) != "" {
		m.history = append(m.history, line)
	}

	m.recall = len(m.history)

	out, err := m.console.Exec(line)
	if err != nil {
		m.appendLines(errorStyle.Render("error: " + err.Error()))
	} else if out != "" {
		m.appendLines(strings.Split(strings.TrimRight(out, "\n"), "\n")...)
	}

	m.input.Prompt = m.console.Prompt()

	if m.console.Done() {
		return tea.Quit
	}

	return nil
}

func (m *tuiModel) recallHistory(delta int) {
	next := m.recall + delta
	if next < 0 || next > len(m.history) {
		return
	}

	m.recall = next

	if next == len(m.history) {
		m.input.SetValue("")
		return
	}

	m.input.SetValue(m.history[next])
	m.input.CursorEnd()
}

func (m *tuiModel) appendLines(lines ...string) {
	m.lines = append(m.lines, lines...)

	if over := len(m.lines) - maxScrollback; over > 0 {
		m.lines = m.lines[over:]
	}
}

func (m *tuiModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n\n")

	for _, l := range m.lines {
		b.WriteString(l)
		b.WriteString("\n")
	}

	b.WriteString(m.input.View())
	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render("enter run • ↑/↓ history • esc quit"))

	return b.String()
}

// RunTUI runs the console as a full screen terminal program.
func RunTUI(title string, c *Console) error {
	_, err := tea.NewProgram(newTUIModel(title, c)).Run()
	return err
}
