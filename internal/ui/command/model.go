package command

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/mailmuse/internal/theme"
)

// Names lists the commands the palette understands, offered as
// completions while typing.
var Names = []string{
	"inbox",
	"dashboard",
	"account",
	"filter all",
	"filter pending",
	"filter resolved",
	"search ",
	"clear",
	"reload",
	"quit",
}

// CommandMsg is emitted when the user executes a command.
type CommandMsg struct {
	Name string
	Arg  string
}

// Parse splits input into a lower-cased command name and the rest of the
// line as its argument.
func Parse(input string) CommandMsg {
	input = strings.TrimSpace(input)
	name, arg, _ := strings.Cut(input, " ")
	return CommandMsg{
		Name: strings.ToLower(name),
		Arg:  strings.TrimSpace(arg),
	}
}

// Model is the command palette view.
type Model struct {
	input  textinput.Model
	width  int
	height int
}

// New creates a new command palette model.
func New(width, height int) Model {
	ti := textinput.New()
	ti.Placeholder = "type a command..."
	ti.Prompt = ": "
	ti.ShowSuggestions = true
	ti.SetSuggestions(Names)
	ti.Focus()
	ti.Width = width - 6

	return Model{
		input:  ti,
		width:  width,
		height: height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages for the command palette.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "enter" {
		line := strings.TrimSpace(m.input.Value())
		m.input.Reset()
		if line == "" {
			return m, nil
		}
		parsed := Parse(line)
		return m, func() tea.Msg {
			return parsed
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the command palette.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	title := titleStyle.Render("Command Palette")
	input := m.input.View()
	hint := theme.HelpStyle.Render(strings.Join(Names, " · "))

	content := lipgloss.JoinVertical(lipgloss.Left, title, input, "", hint)

	return theme.DetailPanelStyle.
		Width(m.width - 4).
		Render(content)
}

// SetSize updates the command palette dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = width - 6
}

// Focus gives keyboard focus to the text input.
func (m *Model) Focus() tea.Cmd {
	m.input.Reset()
	return m.input.Focus()
}
