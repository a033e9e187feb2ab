package maillist

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/mailmuse/internal/keys"
	"github.com/nhle/mailmuse/internal/mailbox"
	"github.com/nhle/mailmuse/internal/model"
	"github.com/nhle/mailmuse/internal/theme"
)

// Model renders the visible emails and holds the cursor and search input.
// It never decides membership or selection itself. After each key the
// parent reads SearchValue and CursorID and pushes the controller's answer
// back through SetEmails.
type Model struct {
	list        list.Model
	keys        *keys.KeyMap
	filter      mailbox.StatusFilter
	searchMode  bool
	searchInput textinput.Model
	width       int
	height      int
}

// New creates a new email list model.
func New(k *keys.KeyMap, previewLength, width, height int) Model {
	delegate := ItemDelegate{previewLength: previewLength}
	l := list.New([]list.Item{}, delegate, width, height-2)
	l.Title = "Inbox"
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()
	l.Styles.Title = theme.HeaderStyle

	si := textinput.New()
	si.Placeholder = "search sender, subject, body..."
	si.Prompt = "/ "
	si.Width = width - 4

	return Model{
		list:        l,
		keys:        k,
		filter:      mailbox.FilterAll,
		searchInput: si,
		width:       width,
		height:      height,
	}
}

// SetEmails replaces the rendered emails and moves the cursor to the
// selected index. A negative index means nothing is selected.
func (m *Model) SetEmails(emails []model.Email, selected int) tea.Cmd {
	items := make([]list.Item, len(emails))
	for i, e := range emails {
		items[i] = EmailItem{Email: e}
	}
	cmd := m.list.SetItems(items)
	if selected >= 0 && selected < len(items) {
		m.list.Select(selected)
	}
	return cmd
}

// SetFilter records the active status filter for the title and empty state.
func (m *Model) SetFilter(f mailbox.StatusFilter) {
	m.filter = f
	if f == mailbox.FilterAll {
		m.list.Title = "Inbox"
		return
	}
	m.list.Title = fmt.Sprintf("Inbox · %s", f)
}

// SetSearchTerm shows term in the search input without entering search mode.
func (m *Model) SetSearchTerm(term string) {
	m.searchInput.SetValue(term)
}

// SearchValue returns the text in the search input.
func (m Model) SearchValue() string {
	return m.searchInput.Value()
}

// CursorID returns the ID of the email under the cursor.
func (m Model) CursorID() (string, bool) {
	item, ok := m.list.SelectedItem().(EmailItem)
	if !ok {
		return "", false
	}
	return item.Email.ID, true
}

// Searching reports whether the search input has focus.
func (m Model) Searching() bool {
	return m.searchMode
}

// Init returns nil; emails are pushed by the parent.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the email list.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if m.searchMode {
			return m.handleSearchKeys(msg)
		}
		return m.handleNormalKeys(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// handleSearchKeys processes key input while in search mode. Enter keeps
// the term and leaves search mode; esc clears it.
func (m Model) handleSearchKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searchMode = false
		m.searchInput.Blur()
		return m, nil

	case "esc":
		m.searchMode = false
		m.searchInput.Blur()
		m.searchInput.Reset()
		return m, nil
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

// handleNormalKeys moves the cursor or opens the search input.
func (m Model) handleNormalKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Search):
		m.searchMode = true
		return m, m.searchInput.Focus()

	case key.Matches(msg, m.keys.Down):
		m.list.CursorDown()
		return m, nil

	case key.Matches(msg, m.keys.Up):
		m.list.CursorUp()
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the email list.
func (m Model) View() string {
	var body string
	if len(m.list.Items()) == 0 {
		body = m.renderEmptyState()
	} else {
		body = m.list.View()
	}

	if m.searchMode || m.searchInput.Value() != "" {
		searchBar := lipgloss.NewStyle().
			Foreground(theme.ColorWhite).
			Padding(0, 1).
			Render(m.searchInput.View())
		return lipgloss.JoinVertical(lipgloss.Left, searchBar, body)
	}
	return body
}

// renderEmptyState shows guidance text when no emails are visible.
func (m Model) renderEmptyState() string {
	style := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height-2).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	if m.filter != mailbox.FilterAll || m.searchInput.Value() != "" {
		return style.Render("No emails found.\nTry another filter or search.")
	}
	return style.Render("No emails found.")
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
	m.searchInput.Width = width - 4
}
