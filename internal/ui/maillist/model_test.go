package maillist

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/mailmuse/internal/keys"
	"github.com/nhle/mailmuse/internal/mailbox"
	"github.com/nhle/mailmuse/internal/model"
)

func emails() []model.Email {
	return []model.Email{
		{ID: "1", Sender: "Alice Johnson", Subject: "Q3 report", Body: "Numbers attached.", Status: model.StatusPending},
		{ID: "2", Sender: "Bob Smith", Subject: "Lunch", Body: "Tacos?", Status: model.StatusResolved},
		{ID: "3", Sender: "Carol White", Subject: "Outage", Body: "The API is down.", Status: model.StatusPending},
	}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestNavigationMovesCursor(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 80, 60, 30)
	m.SetEmails(emails(), 0)

	m, _ = m.Update(runes("j"))
	if id, ok := m.CursorID(); !ok || id != "2" {
		t.Errorf("cursor = %q, %v; want 2", id, ok)
	}

	m, _ = m.Update(runes("k"))
	if id, ok := m.CursorID(); !ok || id != "1" {
		t.Errorf("cursor = %q, %v; want 1", id, ok)
	}

	m.SetEmails(nil, -1)
	if _, ok := m.CursorID(); ok {
		t.Error("empty list reported a cursor")
	}
}

func TestSetEmailsMovesCursor(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 80, 60, 30)
	m.SetEmails(emails(), 2)

	if got := m.list.Index(); got != 2 {
		t.Errorf("cursor = %d, want 2", got)
	}

	m.SetEmails(nil, -1)
	if !strings.Contains(m.View(), "No emails found.") {
		t.Errorf("empty view = %q", m.View())
	}
}

func TestSearchModeEditsValue(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 80, 60, 30)
	m.SetEmails(emails(), 0)

	m, _ = m.Update(runes("/"))
	if !m.Searching() {
		t.Fatal("expected search mode after /")
	}

	m, _ = m.Update(runes("q"))
	if got := m.SearchValue(); got != "q" {
		t.Fatalf("search value = %q, want q", got)
	}
	if !m.Searching() {
		t.Error("typing q in search mode must not leave search mode")
	}

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.Searching() {
		t.Error("enter should leave search mode")
	}
	if got := m.SearchValue(); got != "q" {
		t.Errorf("enter cleared the term: %q", got)
	}

	m, _ = m.Update(runes("/"))
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if got := m.SearchValue(); got != "" {
		t.Errorf("esc left %q, want empty", got)
	}
}

func TestEmptyStateMentionsFilter(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 80, 60, 30)
	m.SetFilter(mailbox.FilterResolved)
	if !strings.Contains(m.View(), "Try another filter") {
		t.Errorf("View() = %q", m.View())
	}
}

func TestPreview(t *testing.T) {
	tests := []struct {
		body string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"line one\n\nline   two", 0, "line one line two"},
		{"abcdefghij", 5, "abcd…"},
		{"", 5, ""},
	}
	for _, tt := range tests {
		if got := Preview(tt.body, tt.n); got != tt.want {
			t.Errorf("Preview(%q, %d) = %q, want %q", tt.body, tt.n, got, tt.want)
		}
	}
}

func TestRelativeTime(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	if got := relativeTime(time.Time{}, clock); got != "" {
		t.Errorf("zero time = %q, want empty", got)
	}
	if got := relativeTime(now.Add(-3*time.Hour), clock); got != "3 hours ago" {
		t.Errorf("relativeTime = %q, want 3 hours ago", got)
	}
}
