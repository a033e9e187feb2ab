// Package dashboard shows mailbox statistics and recent notifications.
package dashboard

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"

	"github.com/nhle/mailmuse/internal/keys"
	"github.com/nhle/mailmuse/internal/model"
	"github.com/nhle/mailmuse/internal/store"
	"github.com/nhle/mailmuse/internal/theme"
)

// recentLimit is the number of notifications listed on the dashboard.
const recentLimit = 8

// barWidth is the width of a full-scale distribution bar.
const barWidth = 30

// CloseMsg signals the parent to leave the dashboard.
type CloseMsg struct{}

// LoadedMsg carries freshly queried dashboard data.
type LoadedMsg struct {
	Stats  model.MailStats
	Recent []model.Notification
	Err    error
}

// Model is the dashboard view.
type Model struct {
	store  store.Store
	keys   *keys.KeyMap
	stats  model.MailStats
	recent []model.Notification
	err    error
	width  int
	height int
}

// New creates a dashboard backed by s.
func New(s store.Store, k *keys.KeyMap, width, height int) Model {
	return Model{store: s, keys: k, width: width, height: height}
}

// Init loads the dashboard data.
func (m Model) Init() tea.Cmd {
	return m.Load()
}

// Load returns a command that queries stats and recent notifications.
func (m Model) Load() tea.Cmd {
	s := m.store
	return func() tea.Msg {
		ctx := context.Background()
		stats, err := s.GetStats(ctx)
		if err != nil {
			return LoadedMsg{Err: err}
		}
		recent, err := s.RecentNotifications(ctx, recentLimit)
		if err != nil {
			return LoadedMsg{Err: err}
		}
		return LoadedMsg{Stats: stats, Recent: recent}
	}
}

// Update handles messages for the dashboard.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case LoadedMsg:
		m.err = msg.Err
		if msg.Err == nil {
			m.stats = msg.Stats
			m.recent = msg.Recent
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Back), key.Matches(msg, m.keys.Dashboard):
			return m, func() tea.Msg { return CloseMsg{} }
		case key.Matches(msg, m.keys.Reload):
			return m, m.Load()
		}
	}
	return m, nil
}

// View renders the dashboard.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	if m.err != nil {
		return theme.DetailPanelStyle.
			Width(m.width - 4).
			Render(lipgloss.JoinVertical(
				lipgloss.Left,
				titleStyle.Render("Dashboard"),
				lipgloss.NewStyle().Foreground(theme.ColorRed).Render("Could not load statistics: "+m.err.Error()),
			))
	}

	cards := lipgloss.JoinHorizontal(
		lipgloss.Top,
		card("Total Emails", m.stats.Total, theme.ColorBlue),
		card("Pending", m.stats.Pending, theme.ColorYellow),
		card("Resolved", m.stats.Resolved, theme.ColorGreen),
	)

	sentiment := make([]bar, 0, len(model.Sentiments))
	for _, s := range model.Sentiments {
		sentiment = append(sentiment, bar{
			label: string(s),
			count: m.stats.BySentiment[s],
			style: theme.SentimentStyle(s),
		})
	}

	priority := make([]bar, 0, len(model.Priorities))
	for _, p := range model.Priorities {
		priority = append(priority, bar{
			label: string(p),
			count: m.stats.ByPriority[p],
			style: theme.PriorityStyle(p),
		})
	}

	charts := lipgloss.JoinHorizontal(
		lipgloss.Top,
		chart("Sentiment Distribution", sentiment, m.stats.Total),
		"  ",
		chart("Priority Distribution", priority, m.stats.Total),
	)

	content := lipgloss.JoinVertical(
		lipgloss.Left,
		titleStyle.Render("Dashboard"),
		cards,
		"",
		charts,
		"",
		m.renderRecent(),
	)

	return theme.DetailPanelStyle.
		Width(m.width - 4).
		Render(content)
}

func card(title string, value int, color lipgloss.AdaptiveColor) string {
	return theme.BorderStyle.
		Padding(0, 2).
		MarginRight(1).
		Width(18).
		Render(lipgloss.JoinVertical(
			lipgloss.Left,
			lipgloss.NewStyle().Foreground(theme.ColorGray).Render(title),
			lipgloss.NewStyle().Bold(true).Foreground(color).Render(fmt.Sprintf("%d", value)),
		))
}

type bar struct {
	label string
	count int
	style lipgloss.Style
}

// chart renders one horizontal bar per entry, scaled against total.
func chart(title string, bars []bar, total int) string {
	lines := []string{lipgloss.NewStyle().Bold(true).Render(title)}
	for _, b := range bars {
		n := 0
		if total > 0 {
			n = b.count * barWidth / total
		}
		lines = append(lines, fmt.Sprintf(
			"%-9s %s %d",
			strings.ToUpper(b.label[:1])+b.label[1:],
			b.style.Render(strings.Repeat("█", n)+strings.Repeat("·", barWidth-n)),
			b.count,
		))
	}
	return theme.BorderStyle.Padding(0, 1).Render(strings.Join(lines, "\n"))
}

func (m Model) renderRecent() string {
	title := lipgloss.NewStyle().Bold(true).Render("Recent Activity")
	if len(m.recent) == 0 {
		return lipgloss.JoinVertical(
			lipgloss.Left,
			title,
			theme.HelpStyle.Render("Nothing yet."),
		)
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(theme.ColorBorder)).
		Headers("WHEN", "TITLE", "MESSAGE").
		StyleFunc(func(row, col int) lipgloss.Style {
			style := lipgloss.NewStyle().Padding(0, 1)
			if row == table.HeaderRow {
				return style.Bold(true).Foreground(theme.ColorGray)
			}
			if row >= 0 && row < len(m.recent) && m.recent[row].Level == model.LevelError {
				return style.Foreground(theme.ColorRed)
			}
			return style
		})

	for _, n := range m.recent {
		t.Row(humanize.Time(n.CreatedAt), n.Title, n.Message)
	}

	return lipgloss.JoinVertical(lipgloss.Left, title, t.Render())
}

// SetSize updates the dashboard dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
