package app

import (
	"fmt"
	"log/slog"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"github.com/nhle/mailmuse/internal/keys"
	"github.com/nhle/mailmuse/internal/mailbox"
	"github.com/nhle/mailmuse/internal/model"
	"github.com/nhle/mailmuse/internal/store"
	appsync "github.com/nhle/mailmuse/internal/sync"
	"github.com/nhle/mailmuse/internal/ui"
	"github.com/nhle/mailmuse/internal/ui/account"
	"github.com/nhle/mailmuse/internal/ui/command"
	"github.com/nhle/mailmuse/internal/ui/dashboard"
	helpview "github.com/nhle/mailmuse/internal/ui/help"
	"github.com/nhle/mailmuse/internal/ui/maildisplay"
	"github.com/nhle/mailmuse/internal/ui/maillist"
	"github.com/nhle/mailmuse/internal/ui/toast"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewInbox ViewState = iota
	ViewDashboard
	ViewAccount
	ViewHelp
	ViewCommand
)

// Options carries the collaborators of the root model.
type Options struct {
	Store store.Store

	// Assistant runs AI actions. Nil disables them.
	Assistant maildisplay.Assistant

	// NewAssistant builds an assistant from an API key entered in the
	// account form. Nil keeps the current assistant.
	NewAssistant func(apiKey string) maildisplay.Assistant

	// SaveAPIKey stores an API key entered in the account form. Nil uses
	// the system keyring.
	SaveAPIKey func(apiKey string) error

	// Poller reloads the mailbox source. Nil disables reloading.
	Poller *appsync.Poller

	Config     *model.AppConfig
	ConfigPath string
	Logger     *slog.Logger
}

// Model is the root Bubble Tea model. It owns the mailbox controller and
// routes intents from the views into it.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	opts         Options
	keys         *keys.KeyMap
	mailbox      *mailbox.Controller
	mailList     maillist.Model
	display      maildisplay.Model
	dashboard    dashboard.Model
	accountView  account.Model
	helpView     helpview.Model
	commandView  command.Model
	toast        toast.Model
	logger       *slog.Logger
	ready        bool

	// savingStatus is set while a status toggle is being written.
	savingStatus bool
}

// New creates the root model over the initial email set.
func New(emails []model.Email, opts Options) Model {
	if opts.Config == nil {
		opts.Config = model.DefaultAppConfig()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	k := keys.DefaultKeyMap()

	m := Model{
		currentView: ViewInbox,
		opts:        opts,
		keys:        k,
		mailbox:     mailbox.New(emails),
		mailList:    maillist.New(k, opts.Config.Display.PreviewLength, 40, 24),
		display:     maildisplay.New(opts.Assistant, opts.Store, k, opts.Logger, 60, 24),
		dashboard:   dashboard.New(opts.Store, k, 80, 24),
		accountView: account.New(opts.Config.Account, opts.Assistant != nil, k, 80, 24),
		helpView:    helpview.New(k, 80, 24),
		commandView: command.New(80, 24),
		toast:       toast.New(0),
		logger:      opts.Logger.With("component", "app"),
	}
	m.syncViews()
	return m
}

// Mailbox exposes the view-state controller.
func (m Model) Mailbox() *mailbox.Controller {
	return m.mailbox
}

// CurrentView returns the active view.
func (m Model) CurrentView() ViewState {
	return m.currentView
}

// Init starts the reload poller.
func (m Model) Init() tea.Cmd {
	if m.opts.Poller == nil {
		return nil
	}
	return m.opts.Poller.Start()
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		contentWidth := m.layout.ContentWidth()
		contentHeight := m.layout.ContentHeight()
		listWidth, displayWidth := m.layout.InboxWidths()
		m.mailList.SetSize(listWidth, contentHeight)
		m.display.SetSize(displayWidth, contentHeight)
		m.dashboard.SetSize(contentWidth, contentHeight)
		m.accountView.SetSize(contentWidth, contentHeight)
		m.helpView.SetSize(contentWidth, contentHeight)
		m.commandView.SetSize(contentWidth, contentHeight)
		m.toast.SetWidth(contentWidth)
		return m, m.syncViews()

	case appsync.ReloadResultMsg:
		return m.handleReload(msg)

	case statusSavedMsg:
		m.savingStatus = false
		if msg.err != nil {
			m.logger.Warn("saving status failed", "email_id", msg.email.ID, "error", msg.err)
			return m, toast.Error(msg.email.ID, "Update failed", "Could not change the email status.")
		}
		if records, ok := mailbox.ReplaceByID(m.mailbox.Records(), msg.email); ok {
			m.mailbox.ReplaceRecords(records)
		}
		return m, m.syncViews()

	case toast.ShowMsg:
		var cmd tea.Cmd
		m.toast, cmd = m.toast.Update(msg)
		return m, tea.Batch(cmd, m.recordNotification(msg.Notification))

	case maildisplay.SentMsg:
		m.logger.Info("reply sent", "email_id", msg.EmailID)
		return m, nil

	case dashboard.CloseMsg, account.CloseMsg:
		m.currentView = ViewInbox
		return m, nil

	case account.SavedMsg:
		return m, m.saveAccount(msg)

	case accountSavedMsg:
		return m.handleAccountSaved(msg)

	case command.CommandMsg:
		m.currentView = m.previousView
		return m, m.executeCommand(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.forward(msg)
}

// forward hands non-key messages to the display, which owns in-flight AI
// work regardless of the active view, and to the active view.
func (m Model) forward(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	m.toast, cmd = m.toast.Update(msg)
	cmds = append(cmds, cmd)

	m.display, cmd = m.display.Update(msg)
	cmds = append(cmds, cmd)

	switch m.currentView {
	case ViewInbox:
		m.mailList, cmd = m.mailList.Update(msg)
	case ViewDashboard:
		m.dashboard, cmd = m.dashboard.Update(msg)
	case ViewAccount:
		m.accountView, cmd = m.accountView.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewCommand:
		m.commandView, cmd = m.commandView.Update(msg)
	}
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// handleKey processes global keys and routes the rest to the active view.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.stop()
		return m, tea.Quit
	}

	switch m.currentView {
	case ViewInbox:
		return m.handleInboxKey(msg)

	case ViewHelp:
		if key.Matches(msg, m.keys.Help) || key.Matches(msg, m.keys.Back) {
			m.currentView = m.previousView
		}
		return m, nil

	case ViewCommand:
		if key.Matches(msg, m.keys.Back) {
			m.currentView = m.previousView
			return m, nil
		}
		var cmd tea.Cmd
		m.commandView, cmd = m.commandView.Update(msg)
		return m, cmd

	case ViewDashboard:
		if cmd, ok := m.globalKey(msg); ok {
			return m, cmd
		}
		var cmd tea.Cmd
		m.dashboard, cmd = m.dashboard.Update(msg)
		return m, cmd

	case ViewAccount:
		if !m.accountView.Editing() {
			if cmd, ok := m.globalKey(msg); ok {
				return m, cmd
			}
		}
		var cmd tea.Cmd
		m.accountView, cmd = m.accountView.Update(msg)
		return m, cmd
	}

	return m, nil
}

// globalKey handles the help and command palette toggles shared by the
// non-input views.
func (m *Model) globalKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case key.Matches(msg, m.keys.Help):
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return nil, true
	case key.Matches(msg, m.keys.Command):
		m.previousView = m.currentView
		m.currentView = ViewCommand
		return m.commandView.Focus(), true
	}
	return nil, false
}

// handleInboxKey turns inbox keys into controller intents. Keys go
// straight to the list or display while one of them is taking text input.
func (m Model) handleInboxKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if m.mailList.Searching() {
		return m.updateList(msg)
	}
	if m.display.Editing() {
		m.display, cmd = m.display.Update(msg)
		return m, cmd
	}

	if cmd, ok := m.globalKey(msg); ok {
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.stop()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Back):
		if m.toast.Dismiss() {
			return m, nil
		}
		if m.mailbox.SearchTerm() != "" {
			m.mailbox.SetSearchTerm("")
			m.mailList.SetSearchTerm("")
			return m, m.syncViews()
		}
		return m, nil

	case key.Matches(msg, m.keys.FilterAll):
		return m, m.setFilter(mailbox.FilterAll)
	case key.Matches(msg, m.keys.FilterPending):
		return m, m.setFilter(mailbox.FilterPending)
	case key.Matches(msg, m.keys.FilterResolved):
		return m, m.setFilter(mailbox.FilterResolved)
	case key.Matches(msg, m.keys.CycleFilter):
		return m, m.setFilter(m.mailbox.StatusFilter().Next())

	case key.Matches(msg, m.keys.ToggleStatus):
		return m, m.toggleSelected()

	case key.Matches(msg, m.keys.Reload):
		return m, m.reload()

	case key.Matches(msg, m.keys.Dashboard):
		m.previousView = m.currentView
		m.currentView = ViewDashboard
		return m, m.dashboard.Load()

	case key.Matches(msg, m.keys.Account):
		m.previousView = m.currentView
		m.currentView = ViewAccount
		return m, nil

	case key.Matches(msg, m.keys.Up), key.Matches(msg, m.keys.Down), key.Matches(msg, m.keys.Search):
		return m.updateList(msg)
	}

	m.display, cmd = m.display.Update(msg)
	return m, cmd
}

// updateList hands a key to the list and applies the edited search term or
// the moved cursor to the controller in the same update, so the controller
// always holds the latest intent.
func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.mailList, cmd = m.mailList.Update(msg)

	if term := m.mailList.SearchValue(); term != m.mailbox.SearchTerm() {
		m.mailbox.SetSearchTerm(term)
	} else if id, ok := m.mailList.CursorID(); ok {
		m.mailbox.SelectEmail(id)
	}
	return m, tea.Batch(cmd, m.syncViews())
}

func (m *Model) setFilter(f mailbox.StatusFilter) tea.Cmd {
	m.mailbox.SetStatusFilter(f)
	return m.syncViews()
}

// syncViews pushes the controller's visible set and selection into the
// list and display.
func (m *Model) syncViews() tea.Cmd {
	m.mailList.SetFilter(m.mailbox.StatusFilter())
	listCmd := m.mailList.SetEmails(m.mailbox.VisibleEmails(), m.mailbox.SelectedIndex())
	selected, ok := m.mailbox.SelectedEmail()
	return tea.Batch(listCmd, m.display.SetEmail(selected, ok))
}

func (m Model) handleReload(msg appsync.ReloadResultMsg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	if m.opts.Poller != nil {
		cmds = append(cmds, m.opts.Poller.WaitForNextResult())
	}

	if msg.Error != nil {
		cmds = append(cmds, toast.Error("", "Reload failed", msg.Error.Error()))
		return m, tea.Batch(cmds...)
	}

	m.mailbox.ReplaceRecords(msg.Emails)
	cmds = append(cmds, m.syncViews())
	if msg.NewCount > 0 {
		cmds = append(cmds, toast.Info("New mail",
			fmt.Sprintf("%d new %s", msg.NewCount, plural(msg.NewCount, "email", "emails"))))
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) reload() tea.Cmd {
	if m.opts.Poller == nil {
		return toast.Info("Reload", "Reloading is not available for this session.")
	}
	m.opts.Poller.Trigger()
	return nil
}

func (m *Model) stop() {
	if m.opts.Poller != nil {
		m.opts.Poller.Stop()
	}
}

// executeCommand handles a command from the command palette.
func (m *Model) executeCommand(c command.CommandMsg) tea.Cmd {
	switch c.Name {
	case "inbox":
		m.currentView = ViewInbox
		return nil
	case "dashboard":
		m.currentView = ViewDashboard
		return m.dashboard.Load()
	case "account":
		m.currentView = ViewAccount
		return nil
	case "filter":
		f, err := mailbox.ParseStatusFilter(c.Arg)
		if err != nil {
			return toast.Error("", "Unknown filter", err.Error())
		}
		m.currentView = ViewInbox
		return m.setFilter(f)
	case "search":
		m.currentView = ViewInbox
		m.mailbox.SetSearchTerm(c.Arg)
		m.mailList.SetSearchTerm(c.Arg)
		return m.syncViews()
	case "clear":
		m.currentView = ViewInbox
		m.mailbox.SetStatusFilter(mailbox.FilterAll)
		m.mailbox.SetSearchTerm("")
		m.mailList.SetSearchTerm("")
		return m.syncViews()
	case "reload", "refresh":
		return m.reload()
	case "quit", "q":
		m.stop()
		return tea.Quit
	default:
		return toast.Error("", "Unknown command", fmt.Sprintf("%q is not a command.", c.Name))
	}
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.layout.RenderHeader(m.title(), m.status())
	content := m.layout.RenderToast(m.renderContent(), m.toast.View())
	statusBar := m.layout.RenderStatusBar(m.keyHints())

	return m.layout.RenderWithFrame(header, content, statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewInbox:
		return ui.JoinPanes(m.mailList.View(), m.display.View())
	case ViewDashboard:
		return m.dashboard.View()
	case ViewAccount:
		return m.accountView.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.commandView.View()
	default:
		return ""
	}
}

func (m Model) title() string {
	switch m.currentView {
	case ViewDashboard:
		return "MailMuse · Dashboard"
	case ViewAccount:
		return "MailMuse · Account"
	default:
		return "MailMuse · Inbox"
	}
}

// status summarises the visible count and the reload state.
func (m Model) status() string {
	counts := fmt.Sprintf("%d of %d shown", len(m.mailbox.VisibleEmails()), len(m.mailbox.Records()))
	if m.opts.Poller == nil {
		return counts
	}

	st := m.opts.Poller.Status()
	switch st.State {
	case appsync.ReloadRunning:
		return counts + " · reloading"
	case appsync.ReloadError:
		return counts + " · ⚠ reload failed"
	}
	if st.LastReload.IsZero() {
		return counts
	}
	return counts + " · updated " + humanize.Time(st.LastReload)
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	switch m.currentView {
	case ViewHelp:
		return "? close help | esc back"
	case ViewCommand:
		return "enter execute | tab complete | esc back"
	case ViewDashboard:
		return "r refresh | esc back | ? help"
	case ViewAccount:
		if m.accountView.Editing() {
			return "enter next | esc cancel"
		}
		return "e edit | esc back"
	}

	if m.mailList.Searching() {
		return "enter keep search | esc clear search"
	}
	if m.display.Editing() {
		return "esc done editing"
	}

	hint := "q quit | ? help | / search | tab filter | x resolve | s summarize | g reply"
	if term := m.mailbox.SearchTerm(); term != "" {
		hint = fmt.Sprintf("search %q | esc clear | ", term) + hint
	}
	if f := m.mailbox.StatusFilter(); f != mailbox.FilterAll {
		hint = fmt.Sprintf("filter: %s | ", f) + hint
	}
	return hint
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
