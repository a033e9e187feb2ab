package app

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/mailmuse/internal/mailbox"
	"github.com/nhle/mailmuse/internal/model"
	appsync "github.com/nhle/mailmuse/internal/sync"
	"github.com/nhle/mailmuse/internal/ui/command"
	"github.com/nhle/mailmuse/internal/ui/toast"
	"github.com/nhle/mailmuse/tests/testutil"
)

func seeded(t *testing.T) (Model, []model.Email) {
	t.Helper()
	s := testutil.NewTestStore(t)

	resolved := testutil.Email("2", "Bob Smith")
	resolved.Status = model.StatusResolved
	emails := []model.Email{
		testutil.Email("1", "Alice Johnson"),
		resolved,
		testutil.Email("3", "Carol White"),
	}
	testutil.SeedEmails(t, s, emails...)

	m := New(emails, Options{Store: s})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return next.(Model), emails
}

func press(t *testing.T, m Model, keys string) (Model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, r := range keys {
		var next tea.Model
		next, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		m = next.(Model)
	}
	return m, cmd
}

// drain runs cmd, feeds every resulting message back into m and repeats
// until no messages remain. Commands that would block, such as ticks, are
// skipped by only following message types the test cares about.
func drain(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		switch msg := c().(type) {
		case tea.BatchMsg:
			queue = append(queue, msg...)
		case statusSavedMsg, command.CommandMsg:
			next, more := m.Update(msg)
			m = next.(Model)
			queue = append(queue, more)
		}
	}
	return m
}

func selectedID(m Model) string {
	id, _ := m.Mailbox().SelectedID()
	return id
}

func TestStartsWithFirstEmailSelected(t *testing.T) {
	m, _ := seeded(t)
	if got := selectedID(m); got != "1" {
		t.Errorf("selected = %q, want 1", got)
	}
	if !strings.Contains(m.View(), "Alice Johnson") {
		t.Error("View() missing first sender")
	}
}

func TestFilterKeys(t *testing.T) {
	m, _ := seeded(t)

	m, _ = press(t, m, "3")
	if got := m.Mailbox().StatusFilter(); got != mailbox.FilterResolved {
		t.Fatalf("filter = %q, want resolved", got)
	}
	if got := selectedID(m); got != "2" {
		t.Errorf("selected = %q, want 2", got)
	}

	m, _ = press(t, m, "1")
	if got := selectedID(m); got != "2" {
		t.Errorf("selection should survive widening the filter, got %q", got)
	}
}

func TestNavigateAndToggle(t *testing.T) {
	m, _ := seeded(t)

	m, cmd := press(t, m, "j")
	m = drain(t, m, cmd)
	if got := selectedID(m); got != "2" {
		t.Fatalf("selected = %q after j, want 2", got)
	}

	m, _ = press(t, m, "2")
	if got := selectedID(m); got != "1" {
		t.Fatalf("selected = %q under pending filter, want 1", got)
	}

	m, cmd = press(t, m, "x")
	m = drain(t, m, cmd)

	e, ok := m.Mailbox().SelectedEmail()
	if !ok || e.ID != "3" {
		t.Errorf("selected = %+v, want 3 after resolving 1 under pending filter", e)
	}
	for _, r := range m.Mailbox().Records() {
		if r.ID == "1" && r.Status != model.StatusResolved {
			t.Errorf("email 1 status = %q, want resolved", r.Status)
		}
	}

	stored, err := m.opts.Store.GetEmail(context.Background(), "1")
	if err != nil {
		t.Fatalf("GetEmail: %v", err)
	}
	if stored.Status != model.StatusResolved {
		t.Errorf("stored status = %q, want resolved", stored.Status)
	}
}

func TestSearchFlow(t *testing.T) {
	m, _ := seeded(t)

	m, _ = press(t, m, "/")
	m, cmd := press(t, m, "carol")
	m = drain(t, m, cmd)

	if got := m.Mailbox().SearchTerm(); got != "carol" {
		t.Fatalf("search term = %q", got)
	}
	if got := selectedID(m); got != "3" {
		t.Errorf("selected = %q, want 3", got)
	}

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = drain(t, next.(Model), cmd)
	if got := m.Mailbox().SearchTerm(); got != "" {
		t.Errorf("search term = %q after esc, want empty", got)
	}
	if got := len(m.Mailbox().VisibleEmails()); got != 3 {
		t.Errorf("visible = %d, want 3", got)
	}
}

func TestSearchAppliedOnEachKeystroke(t *testing.T) {
	m, _ := seeded(t)

	// No command is run: the controller must already hold the typed term.
	m, _ = press(t, m, "/")
	m, _ = press(t, m, "c")
	if got := len(m.Mailbox().VisibleEmails()); got != 3 {
		t.Fatalf("visible = %d after \"c\", want 3", got)
	}
	m, _ = press(t, m, "a")

	if got := m.Mailbox().SearchTerm(); got != "ca" {
		t.Errorf("search term = %q, want ca", got)
	}
	if got := m.mailList.SearchValue(); got != m.Mailbox().SearchTerm() {
		t.Errorf("input %q and controller %q disagree", got, m.Mailbox().SearchTerm())
	}
	if got := len(m.Mailbox().VisibleEmails()); got != 1 {
		t.Errorf("visible = %d, want 1", got)
	}
	if got := selectedID(m); got != "3" {
		t.Errorf("selected = %q, want 3", got)
	}

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	m = next.(Model)
	if got := m.Mailbox().SearchTerm(); got != "c" {
		t.Errorf("search term = %q after backspace, want c", got)
	}
}

func TestNavigationAppliedOnEachKeystroke(t *testing.T) {
	m, _ := seeded(t)

	m, _ = press(t, m, "jj")
	if got := selectedID(m); got != "3" {
		t.Fatalf("selected = %q after jj, want 3", got)
	}
	if id, _ := m.mailList.CursorID(); id != "3" {
		t.Errorf("cursor = %q, want 3", id)
	}

	m, _ = press(t, m, "k")
	if got := selectedID(m); got != "2" {
		t.Errorf("selected = %q after k, want 2", got)
	}
}

func TestToggleIgnoredWhileSaving(t *testing.T) {
	m, _ := seeded(t)

	m, first := press(t, m, "x")
	if first == nil {
		t.Fatal("expected a save command")
	}
	m, second := press(t, m, "x")
	if second != nil {
		t.Fatal("second toggle ran while the first was saving")
	}

	m = drain(t, m, first)
	e, _ := m.Mailbox().SelectedEmail()
	if e.Status != model.StatusResolved {
		t.Fatalf("status = %q after first save, want resolved", e.Status)
	}

	m, cmd := press(t, m, "x")
	m = drain(t, m, cmd)
	e, _ = m.Mailbox().SelectedEmail()
	if e.Status != model.StatusPending {
		t.Errorf("status = %q after second toggle, want pending", e.Status)
	}
	stored, err := m.opts.Store.GetEmail(context.Background(), "1")
	if err != nil {
		t.Fatalf("GetEmail: %v", err)
	}
	if stored.Status != model.StatusPending {
		t.Errorf("stored status = %q, want pending", stored.Status)
	}
}

func TestCommandPalette(t *testing.T) {
	m, _ := seeded(t)

	m, _ = press(t, m, ":")
	if m.CurrentView() != ViewCommand {
		t.Fatalf("view = %v, want command", m.CurrentView())
	}

	next, cmd := m.Update(command.CommandMsg{Name: "filter", Arg: "resolved"})
	m = drain(t, next.(Model), cmd)
	if m.CurrentView() != ViewInbox {
		t.Errorf("view = %v, want inbox", m.CurrentView())
	}
	if got := m.Mailbox().StatusFilter(); got != mailbox.FilterResolved {
		t.Errorf("filter = %q", got)
	}

	_, cmd = m.Update(command.CommandMsg{Name: "filter", Arg: "archived"})
	msg, ok := cmd().(toast.ShowMsg)
	if !ok || msg.Notification.Title != "Unknown filter" {
		t.Errorf("got %#v, want unknown filter toast", msg)
	}
}

func TestReloadReplacesRecords(t *testing.T) {
	m, emails := seeded(t)

	more := append(emails, testutil.Email("4", "Dan Brown"))
	next, _ := m.Update(appsync.ReloadResultMsg{Emails: more, NewCount: 1})
	m = next.(Model)

	if got := len(m.Mailbox().Records()); got != 4 {
		t.Errorf("records = %d, want 4", got)
	}
	if got := selectedID(m); got != "1" {
		t.Errorf("selection changed on reload: %q", got)
	}
}

func TestToastDismissedByEsc(t *testing.T) {
	m, _ := seeded(t)

	next, _ := m.Update(toast.Info("Hello", "world")())
	m = next.(Model)
	if _, ok := m.toast.Current(); !ok {
		t.Fatal("toast not showing")
	}

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = next.(Model)
	if _, ok := m.toast.Current(); ok {
		t.Error("esc did not dismiss toast")
	}
}

func TestDashboardAndBack(t *testing.T) {
	m, _ := seeded(t)

	m, cmd := press(t, m, "d")
	if m.CurrentView() != ViewDashboard {
		t.Fatalf("view = %v, want dashboard", m.CurrentView())
	}
	next, _ := m.Update(cmd())
	m = next.(Model)
	if !strings.Contains(m.View(), "Total Emails") {
		t.Error("dashboard not rendered")
	}

	next, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	next, _ = next.(Model).Update(cmd())
	if next.(Model).CurrentView() != ViewInbox {
		t.Error("esc did not return to inbox")
	}
}
