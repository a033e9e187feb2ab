package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/mailmuse/internal/theme"
)

// listShare is the fraction of the inbox width given to the email list.
const listShare = 0.4

// minListWidth keeps the list readable on narrow terminals.
const minListWidth = 28

// Layout manages the terminal layout dimensions.
type Layout struct {
	Width           int
	Height          int
	HeaderHeight    int
	StatusBarHeight int
}

// NewLayout creates a Layout with the given terminal dimensions.
// HeaderHeight and StatusBarHeight default to 1.
func NewLayout(width, height int) Layout {
	return Layout{
		Width:           width,
		Height:          height,
		HeaderHeight:    1,
		StatusBarHeight: 1,
	}
}

// ContentWidth returns the full available width.
func (l Layout) ContentWidth() int {
	return l.Width
}

// ContentHeight returns the height available for the main content area,
// accounting for the header and status bar.
func (l Layout) ContentHeight() int {
	h := l.Height - l.HeaderHeight - l.StatusBarHeight
	if h < 0 {
		return 0
	}
	return h
}

// InboxWidths splits the content width between the email list and the
// message display, leaving one column for the divider. The list never
// drops below minListWidth unless the terminal itself is narrower.
func (l Layout) InboxWidths() (list, display int) {
	list = int(float64(l.Width) * listShare)
	if list < minListWidth {
		list = min(minListWidth, l.Width)
	}
	return list, max(0, l.Width-list-1)
}

// RenderHeader renders the top header bar with a title and reload status.
func (l Layout) RenderHeader(title string, status string) string {
	titleRendered := theme.HeaderStyle.Render(title)

	statusRendered := theme.HeaderStyle.
		Align(lipgloss.Right).
		Render(status)

	gap := l.Width -
		lipgloss.Width(titleRendered) -
		lipgloss.Width(statusRendered)
	if gap < 0 {
		gap = 0
	}

	filler := theme.HeaderStyle.Render(
		lipgloss.NewStyle().
			Width(gap).
			Background(theme.HeaderStyle.GetBackground()).
			Render(""),
	)

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		titleRendered,
		filler,
		statusRendered,
	)
}

// RenderStatusBar renders the bottom status bar with keyboard hints.
func (l Layout) RenderStatusBar(hints string) string {
	rendered := theme.StatusBarStyle.Render(hints)

	gap := l.Width - lipgloss.Width(rendered)
	if gap < 0 {
		gap = 0
	}

	filler := theme.StatusBarStyle.Render(
		lipgloss.NewStyle().
			Width(gap).
			Background(theme.StatusBarStyle.GetBackground()).
			Render(""),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, rendered, filler)
}

// RenderToast draws a notification in the bottom-right corner of content,
// replacing the last lines of the content area. An empty toast returns
// content unchanged.
func (l Layout) RenderToast(content, toast string) string {
	if toast == "" {
		return content
	}

	lines := strings.Split(content, "\n")
	toastLines := strings.Split(toast, "\n")
	if len(toastLines) >= len(lines) {
		return lipgloss.PlaceHorizontal(l.Width, lipgloss.Right, toast)
	}

	placed := strings.Split(
		lipgloss.PlaceHorizontal(l.Width, lipgloss.Right, toast),
		"\n",
	)
	copy(lines[len(lines)-len(placed):], placed)
	return strings.Join(lines, "\n")
}

// JoinPanes places two panes side by side with a divider between them.
func JoinPanes(left, right string) string {
	height := max(lipgloss.Height(left), lipgloss.Height(right))
	divider := lipgloss.NewStyle().
		Foreground(theme.ColorBorder).
		Render(strings.TrimSuffix(strings.Repeat("│\n", height), "\n"))
	return lipgloss.JoinHorizontal(lipgloss.Top, left, divider, right)
}

// RenderWithFrame composes a full terminal view by vertically joining
// the header, content area, and status bar.
func (l Layout) RenderWithFrame(
	header string,
	content string,
	statusBar string,
) string {
	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		lipgloss.NewStyle().Height(l.ContentHeight()).MaxHeight(l.ContentHeight()).Render(content),
		statusBar,
	)
}
