// Package maildisplay renders the selected email and runs the AI actions
// for it: summarize, draft a reply and send the draft.
package maildisplay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/mailmuse/internal/keys"
	"github.com/nhle/mailmuse/internal/model"
	"github.com/nhle/mailmuse/internal/store"
	"github.com/nhle/mailmuse/internal/theme"
	"github.com/nhle/mailmuse/internal/ui/toast"
)

// Assistant produces summaries and reply drafts. *ai.Dispatcher
// satisfies it.
type Assistant interface {
	Summarize(ctx context.Context, body string) (string, error)
	GenerateReply(ctx context.Context, body string) (string, error)
}

// ResultStore caches generated results for the session.
type ResultStore interface {
	SaveAIResult(ctx context.Context, r model.AIResult) error
	GetAIResult(ctx context.Context, emailID string, kind model.AIResultKind) (*model.AIResult, error)
	DeleteAIResult(ctx context.Context, emailID string, kind model.AIResultKind) error
}

// ResultMsg carries a finished AI request. EmailID and Seq identify the
// request it answers.
type ResultMsg struct {
	EmailID string
	Kind    model.AIResultKind
	Seq     int
	Content string
	Err     error
}

// cachedMsg carries a result stored earlier in the session.
type cachedMsg struct {
	emailID string
	kind    model.AIResultKind
	content string
}

// SentMsg reports that the draft for an email was sent.
type SentMsg struct {
	EmailID string
}

// panel tracks one kind of AI output for the displayed email. seq counts
// requests over the whole session and is never reset, so a response can
// only match the latest request of its kind.
type panel struct {
	content string
	seq     int
	loading bool
}

// Model is the message display pane.
type Model struct {
	email     model.Email
	hasEmail  bool
	summary   panel
	draft     panel
	editing   bool
	assistant Assistant
	results   ResultStore
	viewport  viewport.Model
	input     textarea.Model
	spinner   spinner.Model
	keys      *keys.KeyMap
	logger    *slog.Logger
	width     int
	height    int
}

// New creates a display pane. assistant may be nil when no API key is
// configured; results may be nil to disable caching.
func New(
	assistant Assistant,
	results ResultStore,
	k *keys.KeyMap,
	logger *slog.Logger,
	width, height int,
) Model {
	if logger == nil {
		logger = slog.Default()
	}

	vp := viewport.New(width, height)
	vp.Style = lipgloss.NewStyle()

	ta := textarea.New()
	ta.Placeholder = "Your reply..."
	ta.ShowLineNumbers = false
	ta.CharLimit = 4000
	ta.SetWidth(width - 4)
	ta.SetHeight(6)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.ColorMagenta)

	return Model{
		assistant: assistant,
		results:   results,
		viewport:  vp,
		input:     ta,
		spinner:   sp,
		keys:      k,
		logger:    logger.With("component", "maildisplay"),
		width:     width,
		height:    height,
	}
}

// SetEmail shows e, or the empty state when ok is false. Switching to a
// different email drops its summary and draft and loads cached ones;
// showing a new version of the same email keeps them.
func (m *Model) SetEmail(e model.Email, ok bool) tea.Cmd {
	same := ok && m.hasEmail && e.ID == m.email.ID
	m.email = e
	m.hasEmail = ok

	if same {
		m.refresh()
		return nil
	}

	m.summary = panel{seq: m.summary.seq}
	m.draft = panel{seq: m.draft.seq}
	m.editing = false
	m.input.Reset()
	m.input.Blur()
	m.refresh()
	m.viewport.GotoTop()

	if !ok {
		return nil
	}
	return tea.Batch(
		m.loadCached(e.ID, model.AIResultSummary),
		m.loadCached(e.ID, model.AIResultDraft),
	)
}

// SetAssistant swaps the assistant used for new requests.
func (m *Model) SetAssistant(a Assistant) {
	m.assistant = a
}

// Email returns the displayed email.
func (m Model) Email() (model.Email, bool) {
	return m.email, m.hasEmail
}

// Summary returns the summary text shown for the current email.
func (m Model) Summary() string {
	return m.summary.content
}

// Draft returns the current draft text.
func (m Model) Draft() string {
	return m.input.Value()
}

// Loading reports whether a request of kind is in flight for the
// displayed email.
func (m Model) Loading(kind model.AIResultKind) bool {
	return m.panel(kind).loading
}

// Editing reports whether the draft textarea has focus.
func (m Model) Editing() bool {
	return m.editing
}

// Init returns nil.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the display pane.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ResultMsg:
		return m.handleResult(msg)

	case cachedMsg:
		p := m.panel(msg.kind)
		if !m.hasEmail || msg.emailID != m.email.ID || p.loading || m.hasPanel(msg.kind) {
			return m, nil
		}
		m.setContent(msg.kind, msg.content)
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		if !m.summary.loading && !m.draft.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.refresh()
		return m, cmd

	case tea.KeyMsg:
		if m.editing {
			return m.handleEditKeys(msg)
		}
		return m.handleKeys(msg)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) handleKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Summarize):
		return m.request(model.AIResultSummary)

	case key.Matches(msg, m.keys.Draft):
		return m.request(model.AIResultDraft)

	case key.Matches(msg, m.keys.EditDraft):
		if !m.hasPanel(model.AIResultDraft) {
			return m, nil
		}
		m.editing = true
		m.refresh()
		return m, m.input.Focus()

	case key.Matches(msg, m.keys.Send):
		return m.send()
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) handleEditKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Back) {
		m.editing = false
		m.input.Blur()
		m.draft.content = m.input.Value()
		m.refresh()
		return m, m.saveCached(model.AIResultDraft, m.draft.content)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// request starts an AI call of kind for the displayed email. The previous
// result stays on screen until the new one succeeds.
func (m Model) request(kind model.AIResultKind) (Model, tea.Cmd) {
	if !m.hasEmail {
		return m, nil
	}
	if m.assistant == nil {
		return m, toast.Error(m.email.ID, "AI unavailable",
			"Set ANTHROPIC_API_KEY or run 'mailmuse account set-key'.")
	}

	p := m.panel(kind)
	p.seq++
	p.loading = true
	m.refresh()

	emailID, seq, body := m.email.ID, p.seq, m.email.Body
	assistant := m.assistant
	call := func() tea.Msg {
		var content string
		var err error
		switch kind {
		case model.AIResultSummary:
			content, err = assistant.Summarize(context.Background(), body)
		default:
			content, err = assistant.GenerateReply(context.Background(), body)
		}
		return ResultMsg{EmailID: emailID, Kind: kind, Seq: seq, Content: content, Err: err}
	}

	m.logger.Debug("ai request", "email_id", emailID, "kind", kind, "seq", seq)
	return m, tea.Batch(call, m.spinner.Tick)
}

// handleResult applies msg when it answers the latest request for the
// displayed email and drops it otherwise.
func (m Model) handleResult(msg ResultMsg) (Model, tea.Cmd) {
	p := m.panel(msg.Kind)
	if !m.hasEmail || msg.EmailID != m.email.ID || msg.Seq != p.seq {
		m.logger.Debug("discarding stale ai result",
			"email_id", msg.EmailID, "kind", msg.Kind, "seq", msg.Seq)
		return m, nil
	}

	p.loading = false
	if msg.Err != nil {
		m.logger.Warn("ai request failed", "email_id", msg.EmailID, "kind", msg.Kind, "error", msg.Err)
		m.refresh()
		return m, toast.Error(msg.EmailID, "AI Error", failureMessage(msg.Kind))
	}

	m.setContent(msg.Kind, msg.Content)
	m.refresh()
	return m, m.saveCached(msg.Kind, msg.Content)
}

// send simulates sending the draft: it raises a confirmation and clears
// the draft panel.
func (m Model) send() (Model, tea.Cmd) {
	if !m.hasEmail || !m.hasPanel(model.AIResultDraft) {
		return m, nil
	}

	e := m.email
	m.draft = panel{seq: m.draft.seq}
	m.editing = false
	m.input.Reset()
	m.refresh()

	return m, tea.Batch(
		toast.Show(model.LevelInfo, e.ID, "Mail Sent!",
			fmt.Sprintf("Your reply to %s has been sent.", e.Sender)),
		m.deleteCached(e.ID, model.AIResultDraft),
		func() tea.Msg { return SentMsg{EmailID: e.ID} },
	)
}

func failureMessage(kind model.AIResultKind) string {
	if kind == model.AIResultDraft {
		return "Failed to generate draft reply. Please try again."
	}
	return "Failed to generate summary. Please try again."
}

func (m *Model) panel(kind model.AIResultKind) *panel {
	if kind == model.AIResultDraft {
		return &m.draft
	}
	return &m.summary
}

func (m Model) hasPanel(kind model.AIResultKind) bool {
	if kind == model.AIResultDraft {
		return m.draft.content != "" || m.input.Value() != ""
	}
	return m.summary.content != ""
}

func (m *Model) setContent(kind model.AIResultKind, content string) {
	m.panel(kind).content = content
	if kind == model.AIResultDraft {
		m.input.SetValue(content)
	}
}

func (m Model) loadCached(emailID string, kind model.AIResultKind) tea.Cmd {
	if m.results == nil {
		return nil
	}
	results, logger := m.results, m.logger
	return func() tea.Msg {
		r, err := results.GetAIResult(context.Background(), emailID, kind)
		if err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				logger.Warn("loading cached result failed", "email_id", emailID, "kind", kind, "error", err)
			}
			return nil
		}
		return cachedMsg{emailID: r.EmailID, kind: r.Kind, content: r.Content}
	}
}

func (m Model) saveCached(kind model.AIResultKind, content string) tea.Cmd {
	if m.results == nil || !m.hasEmail {
		return nil
	}
	if content == "" {
		return m.deleteCached(m.email.ID, kind)
	}
	r := model.AIResult{EmailID: m.email.ID, Kind: kind, Content: content, CreatedAt: time.Now()}
	results, logger := m.results, m.logger
	return func() tea.Msg {
		if err := results.SaveAIResult(context.Background(), r); err != nil {
			logger.Warn("caching result failed", "email_id", r.EmailID, "kind", kind, "error", err)
		}
		return nil
	}
}

func (m Model) deleteCached(emailID string, kind model.AIResultKind) tea.Cmd {
	if m.results == nil {
		return nil
	}
	results, logger := m.results, m.logger
	return func() tea.Msg {
		if err := results.DeleteAIResult(context.Background(), emailID, kind); err != nil {
			logger.Warn("deleting cached result failed", "email_id", emailID, "kind", kind, "error", err)
		}
		return nil
	}
}

// View renders the display pane.
func (m Model) View() string {
	if !m.hasEmail {
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render("No email selected\n\nSelect an email from the list to read it.")
	}

	if !m.hasPanel(model.AIResultDraft) && !m.editing && !m.draft.loading {
		return m.viewport.View()
	}

	draft := m.renderDraft()
	vp := m.viewport
	vp.Height = max(1, m.height-lipgloss.Height(draft))
	return lipgloss.JoinVertical(lipgloss.Left, vp.View(), draft)
}

// refresh rebuilds the viewport content from the current state.
func (m *Model) refresh() {
	m.viewport.SetContent(m.renderContent())
}

func (m Model) renderContent() string {
	if !m.hasEmail {
		return ""
	}
	e := m.email
	width := max(10, m.width-2)

	var sections []string

	avatar := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorMagenta).
		Render(fmt.Sprintf("[%s]", e.Initials()))
	sender := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).Render(e.Sender)
	sections = append(sections, fmt.Sprintf("%s %s", avatar, sender))

	metaStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
	if e.SenderAddress != "" {
		sections = append(sections, metaStyle.Render("<"+e.SenderAddress+">"))
	}
	if !e.ReceivedAt.IsZero() {
		sections = append(sections, metaStyle.Render(e.ReceivedAt.Format("Jan 2, 2006 at 3:04 PM")))
	}
	sections = append(sections, "")

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).Width(width)
	sections = append(sections, titleStyle.Render(e.Subject))

	badges := lipgloss.JoinHorizontal(
		lipgloss.Top,
		theme.StatusStyle(e.Status).Render(strings.ToUpper(string(e.Status))),
		"  ",
		theme.PriorityStyle(e.Priority).Render(theme.PriorityIcon(e.Priority)+" "+string(e.Priority)),
		"  ",
		theme.SentimentStyle(e.Sentiment).Render(string(e.Sentiment)),
	)
	sections = append(sections, badges, "")

	if summary := m.renderSummary(width); summary != "" {
		sections = append(sections, summary, "")
	}

	sections = append(sections, lipgloss.NewStyle().Width(width).Render(e.Body))

	return strings.Join(sections, "\n")
}

func (m Model) renderSummary(width int) string {
	var body string
	switch {
	case m.summary.loading:
		body = m.spinner.View() + " AI is thinking..."
	case m.summary.content != "":
		body = m.summary.content
	default:
		return ""
	}

	title := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorMagenta).Render("AI Summary")
	return theme.BorderStyle.
		Width(width-2).
		Padding(0, 1).
		Render(lipgloss.JoinVertical(lipgloss.Left, title, body))
}

func (m Model) renderDraft() string {
	title := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorMagenta).Render("Draft Reply")
	if m.draft.loading {
		title += " " + m.spinner.View()
	}

	hint := "e edit · enter send"
	if m.editing {
		hint = "esc done editing"
	}

	return theme.BorderStyle.
		Width(max(10, m.width-4)).
		Render(lipgloss.JoinVertical(
			lipgloss.Left,
			title,
			m.input.View(),
			theme.HelpStyle.Render(hint),
		))
}

// SetSize updates the display dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
	m.input.SetWidth(max(10, width-6))
	m.refresh()
}
