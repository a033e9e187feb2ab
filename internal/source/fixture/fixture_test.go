package fixture

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/nhle/mailmuse/internal/model"
	"github.com/nhle/mailmuse/internal/source"
)

func TestSampleInbox(t *testing.T) {
	s := NewSample()
	if s.Kind() != source.KindSample {
		t.Errorf("Kind = %q, want sample", s.Kind())
	}

	emails, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(emails) == 0 {
		t.Fatal("sample inbox is empty")
	}
	if emails[0].ID != "1" || emails[0].Sender != "Alice Johnson" {
		t.Errorf("first email = %s/%s, want 1/Alice Johnson", emails[0].ID, emails[0].Sender)
	}

	for _, e := range emails {
		if source.NeedsClassification(e) {
			t.Errorf("sample email %s is missing labels", e.ID)
		}
		if err := source.Normalize(&e); err != nil {
			t.Errorf("sample email %s: %v", e.ID, err)
		}
		if e.ReceivedAt.IsZero() {
			t.Errorf("sample email %s has no received_at", e.ID)
		}
	}
}

func TestParseDefaultsStatus(t *testing.T) {
	data := []byte(`
- id: a
  sender: Ann
  subject: Hi
  body: Hello
`)
	emails, err := Parse("inline", data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := []model.Email{{ID: "a", Sender: "Ann", Subject: "Hi", Body: "Hello", Status: model.StatusPending}}
	if diff := cmp.Diff(want, emails); diff != "" {
		t.Errorf("Parse (-want +got):\n%s", diff)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not a list", "id: a"},
		{"missing id", "- sender: Ann"},
		{"missing sender", "- id: a"},
		{"duplicate id", "- {id: a, sender: Ann}\n- {id: a, sender: Bob}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("inline", []byte(tt.data))
			if !source.IsParseError(err) {
				t.Fatalf("Parse error = %v, want ParseError", err)
			}
		})
	}
}

func TestNewFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inbox.yaml")
	if err := os.WriteFile(path, []byte("- {id: x, sender: Xavier, status: resolved}\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	s := NewFile(path)
	if s.Kind() != source.KindYAML || s.Location() != path {
		t.Errorf("Kind/Location = %q/%q", s.Kind(), s.Location())
	}
	emails, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(emails) != 1 || emails[0].Status != model.StatusResolved {
		t.Errorf("emails = %+v", emails)
	}

	if _, err := NewFile(path + ".missing").Load(context.Background()); err == nil {
		t.Error("expected error for missing file")
	}
}
