// Package toast shows one transient notification at a time.
package toast

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/nhle/mailmuse/internal/model"
	"github.com/nhle/mailmuse/internal/theme"
)

// DefaultTTL is how long a toast stays on screen unless dismissed.
const DefaultTTL = 4 * time.Second

// ShowMsg asks the toast model to display a notification.
type ShowMsg struct {
	Notification model.Notification
}

// expireMsg clears the toast with the given ID if it is still showing.
type expireMsg struct {
	id string
}

// Show returns a command that raises a notification.
func Show(level model.NotificationLevel, emailID, title, message string) tea.Cmd {
	n := model.Notification{
		ID:        uuid.NewString(),
		EmailID:   emailID,
		Level:     level,
		Title:     title,
		Message:   message,
		CreatedAt: time.Now(),
	}
	return func() tea.Msg {
		return ShowMsg{Notification: n}
	}
}

// Info raises an informational notification.
func Info(title, message string) tea.Cmd {
	return Show(model.LevelInfo, "", title, message)
}

// Error raises an error notification for emailID.
func Error(emailID, title, message string) tea.Cmd {
	return Show(model.LevelError, emailID, title, message)
}

// Model holds the notification currently on screen, if any.
type Model struct {
	current *model.Notification
	ttl     time.Duration
	width   int
}

// New creates a toast model. A ttl of zero uses DefaultTTL.
func New(ttl time.Duration) Model {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return Model{ttl: ttl, width: 40}
}

// Update shows new notifications and expires old ones. A newer toast
// replaces the current one; the older toast's timer then does nothing.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ShowMsg:
		n := msg.Notification
		m.current = &n
		id := n.ID
		return m, tea.Tick(m.ttl, func(time.Time) tea.Msg {
			return expireMsg{id: id}
		})

	case expireMsg:
		if m.current != nil && m.current.ID == msg.id {
			m.current = nil
		}
	}
	return m, nil
}

// Dismiss clears the current toast and reports whether one was showing.
func (m *Model) Dismiss() bool {
	if m.current == nil {
		return false
	}
	m.current = nil
	return true
}

// Current returns the notification on screen.
func (m Model) Current() (model.Notification, bool) {
	if m.current == nil {
		return model.Notification{}, false
	}
	return *m.current, true
}

// SetWidth sets the maximum toast width.
func (m *Model) SetWidth(width int) {
	m.width = max(20, width/3)
}

// View renders the toast, or an empty string when nothing is showing.
func (m Model) View() string {
	if m.current == nil {
		return ""
	}

	style := theme.ToastStyle
	if m.current.Level == model.LevelError {
		style = theme.ErrorToastStyle
	}

	title := lipgloss.NewStyle().Bold(true).Render(m.current.Title)
	body := lipgloss.NewStyle().Foreground(theme.ColorWhite).Render(m.current.Message)

	return style.
		Width(m.width).
		Render(lipgloss.JoinVertical(lipgloss.Left, title, body))
}
