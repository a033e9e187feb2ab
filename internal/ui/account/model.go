// Package account shows the signed-in account and edits it with a form.
package account

import (
	"fmt"
	"net/mail"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/mailmuse/internal/keys"
	"github.com/nhle/mailmuse/internal/model"
	"github.com/nhle/mailmuse/internal/theme"
)

// Plans lists the plans offered in the form.
var Plans = []string{"Free", "Pro", "Business"}

var editKey = key.NewBinding(
	key.WithKeys("e"),
	key.WithHelp("e", "edit account"),
)

// SavedMsg is dispatched when the form is submitted. APIKey is empty when
// the user left the key field blank.
type SavedMsg struct {
	Account model.Account
	APIKey  string
}

// CloseMsg signals the parent to leave the account view.
type CloseMsg struct{}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	name        string
	email       string
	plan        string
	memberSince string
	apiKey      string
}

// Model shows account details and, while editing, the account form.
type Model struct {
	account   model.Account
	hasAPIKey bool
	form      *huh.Form
	fb        *formBindings
	keys      *keys.KeyMap
	width     int
	height    int
}

// New creates an account view for acct.
func New(acct model.Account, hasAPIKey bool, k *keys.KeyMap, width, height int) Model {
	return Model{
		account:   acct,
		hasAPIKey: hasAPIKey,
		fb:        &formBindings{},
		keys:      k,
		width:     width,
		height:    height,
	}
}

// SetAccount replaces the displayed account.
func (m *Model) SetAccount(acct model.Account, hasAPIKey bool) {
	m.account = acct
	m.hasAPIKey = hasAPIKey
}

// Editing reports whether the form is open.
func (m Model) Editing() bool {
	return m.form != nil
}

// Init returns nil; the view opens read-only.
func (m Model) Init() tea.Cmd {
	return nil
}

// StartEdit opens the form prefilled with the current account.
func (m *Model) StartEdit() tea.Cmd {
	m.fb.name = m.account.Name
	m.fb.email = m.account.Email
	m.fb.plan = m.account.Plan
	m.fb.memberSince = m.account.MemberSince
	m.fb.apiKey = ""
	m.form = m.buildForm()
	return m.form.Init()
}

// Update handles messages for the account view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		if msg, ok := msg.(tea.KeyMsg); ok {
			switch {
			case key.Matches(msg, m.keys.Back), key.Matches(msg, m.keys.Account):
				return m, func() tea.Msg { return CloseMsg{} }
			case key.Matches(msg, editKey):
				return m, m.StartEdit()
			}
		}
		return m, nil
	}

	if msg, ok := msg.(tea.KeyMsg); ok && key.Matches(msg, m.keys.Back) {
		m.form = nil
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		saved := m.submit()
		m.form = nil
		return m, func() tea.Msg { return saved }
	case huh.StateAborted:
		m.form = nil
		return m, nil
	}

	return m, cmd
}

func (m Model) submit() SavedMsg {
	return SavedMsg{
		Account: model.Account{
			Name:        strings.TrimSpace(m.fb.name),
			Email:       strings.TrimSpace(m.fb.email),
			Plan:        m.fb.plan,
			MemberSince: strings.TrimSpace(m.fb.memberSince),
		},
		APIKey: strings.TrimSpace(m.fb.apiKey),
	}
}

// View renders the account card or the form.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	if m.form != nil {
		return lipgloss.NewStyle().
			Padding(1, 2).
			Render(titleStyle.Render("Edit Account") + "\n" + m.form.View())
	}

	labelStyle := lipgloss.NewStyle().Foreground(theme.ColorGray).Width(14).Align(lipgloss.Right)
	row := func(label, value string) string {
		return fmt.Sprintf("%s  %s", labelStyle.Render(label), value)
	}

	keyStatus := lipgloss.NewStyle().Foreground(theme.ColorRed).Render("not configured")
	if m.hasAPIKey {
		keyStatus = lipgloss.NewStyle().Foreground(theme.ColorGreen).Render("configured")
	}

	content := lipgloss.JoinVertical(
		lipgloss.Left,
		titleStyle.Render("Account"),
		row("Name", m.account.Name),
		row("Email", m.account.Email),
		row("Plan", m.account.Plan),
		row("Member Since", m.account.MemberSince),
		row("AI key", keyStatus),
		"",
		theme.HelpStyle.Render("e edit · esc back"),
	)

	return theme.DetailPanelStyle.
		Width(min(m.width-4, 60)).
		Render(content)
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) buildForm() *huh.Form {
	plans := make([]huh.Option[string], len(Plans))
	for i, p := range Plans {
		plans[i] = huh.NewOption(p, p)
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Value(&m.fb.name).
				Validate(validateRequired("Name")),
			huh.NewInput().
				Title("Email").
				Value(&m.fb.email).
				Validate(validateEmail),
			huh.NewSelect[string]().
				Title("Plan").
				Options(plans...).
				Value(&m.fb.plan),
			huh.NewInput().
				Title("Member Since").
				Placeholder("January 2024").
				Value(&m.fb.memberSince),
			huh.NewInput().
				Title("Anthropic API Key").
				Description("Stored in the system keyring. Leave blank to keep the current key.").
				EchoMode(huh.EchoModePassword).
				Value(&m.fb.apiKey),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) formWidth() int {
	return min(max(m.width-4, 40), 100)
}

func (m Model) formHeight() int {
	return max(m.height-4, 10)
}

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}

func validateEmail(s string) error {
	if _, err := mail.ParseAddress(strings.TrimSpace(s)); err != nil {
		return fmt.Errorf("invalid email address")
	}
	return nil
}
