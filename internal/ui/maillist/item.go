package maillist

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/nhle/mailmuse/internal/model"
	"github.com/nhle/mailmuse/internal/theme"
)

// EmailItem wraps a model.Email so it can be used in a bubbles/list.
type EmailItem struct {
	Email model.Email
}

// FilterValue is unused; filtering is done by the mailbox controller.
func (i EmailItem) FilterValue() string { return i.Email.Subject }

// Title returns the sender name.
func (i EmailItem) Title() string { return i.Email.Sender }

// Description returns the subject line.
func (i EmailItem) Description() string { return i.Email.Subject }

// ItemDelegate renders one email as three lines: sender and age,
// subject, then preview and labels.
type ItemDelegate struct {
	previewLength int
	now           func() time.Time
}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 3 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 1 }

// Update handles per-item messages (unused).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single email.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(EmailItem)
	if !ok {
		return
	}
	e := it.Email
	width := m.Width() - 4

	avatar := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorMagenta).
		Render(fmt.Sprintf("[%s]", e.Initials()))
	sender := lipgloss.NewStyle().Bold(true).Render(e.Sender)
	age := lipgloss.NewStyle().
		Foreground(theme.ColorGray).
		Render(relativeTime(e.ReceivedAt, d.now))

	header := fmt.Sprintf("%s %s", avatar, sender)
	if gap := width - lipgloss.Width(header) - lipgloss.Width(age); gap > 0 {
		header += strings.Repeat(" ", gap) + age
	} else {
		header += " " + age
	}

	subject := truncate(e.Subject, width)

	labels := fmt.Sprintf(
		"%s %s %s",
		theme.StatusStyle(e.Status).Render(string(e.Status)),
		theme.PriorityStyle(e.Priority).Render(theme.PriorityIcon(e.Priority)),
		theme.SentimentStyle(e.Sentiment).Render(string(e.Sentiment)),
	)
	preview := lipgloss.NewStyle().
		Foreground(theme.ColorGray).
		Render(truncate(Preview(e.Body, d.previewLength), max(0, width-lipgloss.Width(labels)-1)))

	lines := lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		subject,
		preview+" "+labels,
	)

	if index == m.Index() {
		lines = theme.SelectedItemStyle.Render(lines)
	} else {
		lines = theme.ListItemStyle.Render(lines)
	}

	fmt.Fprint(w, lines)
}

// Preview collapses whitespace in body and cuts it to n runes, adding an
// ellipsis when text was dropped. n <= 0 disables the cut.
func Preview(body string, n int) string {
	flat := strings.Join(strings.Fields(body), " ")
	if n <= 0 {
		return flat
	}
	return truncate(flat, n)
}

func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}

// relativeTime returns a human-friendly age such as "3 hours ago".
func relativeTime(t time.Time, now func() time.Time) string {
	if t.IsZero() {
		return ""
	}
	if now == nil {
		now = time.Now
	}
	return humanize.RelTime(t, now(), "ago", "from now")
}
