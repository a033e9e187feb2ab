package dashboard

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/mailmuse/internal/keys"
	"github.com/nhle/mailmuse/internal/model"
	"github.com/nhle/mailmuse/tests/testutil"
)

func TestLoadAndRender(t *testing.T) {
	s := testutil.NewTestStore(t)

	resolved := testutil.Email("2", "Bob Smith")
	resolved.Status = model.StatusResolved
	resolved.Sentiment = model.SentimentPositive
	testutil.SeedEmails(t, s, testutil.Email("1", "Alice Johnson"), resolved)

	if err := s.CreateNotification(context.Background(), model.Notification{
		ID:        "n1",
		Level:     model.LevelError,
		Title:     "AI Error",
		Message:   "Failed to generate summary. Please try again.",
		CreatedAt: time.Now(),
	}); err != nil {
		t.Fatalf("CreateNotification: %v", err)
	}

	m := New(s, keys.DefaultKeyMap(), 120, 40)
	msg, ok := m.Load()().(LoadedMsg)
	if !ok {
		t.Fatal("Load did not return LoadedMsg")
	}
	if msg.Err != nil {
		t.Fatalf("Load: %v", msg.Err)
	}
	if msg.Stats.Total != 2 || msg.Stats.Pending != 1 || msg.Stats.Resolved != 1 {
		t.Errorf("stats = %+v", msg.Stats)
	}

	m, _ = m.Update(msg)
	view := m.View()
	for _, want := range []string{"Total Emails", "Sentiment Distribution", "Priority Distribution", "AI Error"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q", want)
		}
	}
}

func TestEscCloses(t *testing.T) {
	m := New(testutil.NewTestStore(t), keys.DefaultKeyMap(), 80, 24)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if cmd == nil {
		t.Fatal("expected a command")
	}
	if _, ok := cmd().(CloseMsg); !ok {
		t.Error("esc did not produce CloseMsg")
	}
}

func TestChartScalesToTotal(t *testing.T) {
	out := chart("T", []bar{{label: "high", count: 2}, {label: "low", count: 0}}, 2)
	if !strings.Contains(out, strings.Repeat("█", barWidth)) {
		t.Errorf("full bar missing in %q", out)
	}
	if !strings.Contains(out, "High") {
		t.Errorf("label not capitalised in %q", out)
	}
}
