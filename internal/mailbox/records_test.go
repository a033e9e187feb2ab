package mailbox

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/nhle/mailmuse/internal/model"
)

func TestToggleStatus(t *testing.T) {
	e := email("1", "Alice", model.StatusPending)

	got := ToggleStatus(e)
	if got.Status != model.StatusResolved {
		t.Errorf("pending toggled to %q, want resolved", got.Status)
	}
	if e.Status != model.StatusPending {
		t.Errorf("ToggleStatus mutated its argument")
	}
	if back := ToggleStatus(got); back.Status != model.StatusPending {
		t.Errorf("resolved toggled to %q, want pending", back.Status)
	}
}

func TestReplaceByID(t *testing.T) {
	records := []model.Email{
		email("1", "Alice", model.StatusPending),
		email("2", "Bob", model.StatusPending),
	}

	updated := ToggleStatus(records[1])
	got, ok := ReplaceByID(records, updated)
	if !ok {
		t.Fatal("ReplaceByID(2) = false, want true")
	}
	want := []model.Email{records[0], updated}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ReplaceByID (-want +got):\n%s", diff)
	}
	if records[1].Status != model.StatusPending {
		t.Error("ReplaceByID mutated the input slice")
	}

	same, ok := ReplaceByID(records, email("9", "Zed", model.StatusResolved))
	if ok {
		t.Error("ReplaceByID(9) = true, want false")
	}
	if diff := cmp.Diff(records, same); diff != "" {
		t.Errorf("unmatched replace changed records (-want +got):\n%s", diff)
	}
}
