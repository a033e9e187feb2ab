package command

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input string
		want  CommandMsg
	}{
		{"inbox", CommandMsg{Name: "inbox"}},
		{"  Filter   Pending ", CommandMsg{Name: "filter", Arg: "Pending"}},
		{"search quarterly report", CommandMsg{Name: "search", Arg: "quarterly report"}},
		{"", CommandMsg{}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Parse(tt.input); got != tt.want {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestEnterEmitsCommand(t *testing.T) {
	m := New(80, 24)
	for _, r := range "reload" {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected a command on enter")
	}
	if got, ok := cmd().(CommandMsg); !ok || got.Name != "reload" {
		t.Errorf("got %#v, want reload", cmd())
	}

	if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter}); cmd != nil {
		t.Error("empty input should not emit a command")
	}
}
