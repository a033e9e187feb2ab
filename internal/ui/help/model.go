package help

import (
	"strings"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/mailmuse/internal/keys"
	"github.com/nhle/mailmuse/internal/theme"
	"github.com/nhle/mailmuse/internal/ui/command"
)

// Model is the help overlay: key bindings plus palette commands.
type Model struct {
	keys   *keys.KeyMap
	help   help.Model
	width  int
	height int
}

// New creates a new help view model.
func New(keys *keys.KeyMap, width, height int) Model {
	h := help.New()
	h.Width = width
	h.ShowAll = true
	return Model{
		keys:   keys,
		help:   h,
		width:  width,
		height: height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the help view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	return m, nil
}

// View renders the help overlay.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	commands := make([]string, len(command.Names))
	for i, name := range command.Names {
		commands[i] = ":" + strings.TrimSpace(name)
	}

	content := lipgloss.JoinVertical(
		lipgloss.Left,
		titleStyle.Render("Keyboard Shortcuts"),
		m.help.View(m.keys),
		"",
		titleStyle.Render("Commands"),
		theme.HelpStyle.Render(strings.Join(commands, "  ")),
	)

	return theme.DetailPanelStyle.
		Width(m.width - 4).
		Height(max(0, m.height-4)).
		Render(content)
}

// SetSize updates the help view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width - 4
}
