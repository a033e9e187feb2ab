package sync

import (
	"context"
	"errors"
	gosync "sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/go-cmp/cmp"

	"github.com/nhle/mailmuse/internal/model"
	"github.com/nhle/mailmuse/internal/source"
	"github.com/nhle/mailmuse/internal/store"
	"github.com/nhle/mailmuse/tests/testutil"
)

// fakeSource returns whatever emails it currently holds.
type fakeSource struct {
	mu     gosync.Mutex
	emails []model.Email
	err    error
}

func (f *fakeSource) Kind() source.Kind { return source.KindYAML }
func (f *fakeSource) Location() string  { return "fake" }

func (f *fakeSource) set(e ...model.Email) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.emails = e
}

func (f *fakeSource) Load(context.Context) ([]model.Email, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]model.Email, len(f.emails))
	copy(out, f.emails)
	return out, nil
}

// labelClassifier marks every email it sees as positive/high.
type labelClassifier struct {
	seen []string
}

func (c *labelClassifier) ClassifyAll(_ context.Context, emails []model.Email) ([]model.Email, error) {
	out := make([]model.Email, len(emails))
	for i, e := range emails {
		c.seen = append(c.seen, e.ID)
		if e.Sentiment == "" {
			e.Sentiment = model.SentimentPositive
		}
		if e.Priority == "" {
			e.Priority = model.PriorityHigh
		}
		out[i] = e
	}
	return out, nil
}

func ids(emails []model.Email) []string {
	var out []string
	for _, e := range emails {
		out = append(out, e.ID)
	}
	return out
}

func unlabelled(id string) model.Email {
	e := testutil.Email(id, "Sender "+id)
	e.Sentiment = ""
	e.Priority = ""
	return e
}

func TestIngesterRun(t *testing.T) {
	s := testutil.NewTestStore(t)
	src := &fakeSource{}
	cls := &labelClassifier{}
	in := NewIngester(src, s, cls, nil)
	ctx := context.Background()

	src.set(unlabelled("1"), testutil.Email("2", "Bob"))
	fresh, err := in.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if diff := cmp.Diff([]string{"1", "2"}, ids(fresh)); diff != "" {
		t.Errorf("fresh (-want +got):\n%s", diff)
	}

	got, err := s.GetEmail(ctx, "1")
	if err != nil {
		t.Fatalf("GetEmail: %v", err)
	}
	if got.Sentiment != model.SentimentPositive || got.Priority != model.PriorityHigh {
		t.Errorf("classified labels = %s/%s", got.Sentiment, got.Priority)
	}

	// Resolve one, then reload with a new email in front: order stays
	// insertion order and the status survives.
	got.Status = model.StatusResolved
	if err := s.UpdateEmail(ctx, *got); err != nil {
		t.Fatalf("UpdateEmail: %v", err)
	}
	src.set(testutil.Email("0", "Zed"), testutil.Email("1", "Sender 1"), testutil.Email("2", "Bob"))

	fresh, err = in.Run(ctx)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if diff := cmp.Diff([]string{"0"}, ids(fresh)); diff != "" {
		t.Errorf("second fresh (-want +got):\n%s", diff)
	}

	all, err := s.ListEmails(ctx, store.EmailFilter{})
	if err != nil {
		t.Fatalf("ListEmails: %v", err)
	}
	if diff := cmp.Diff([]string{"1", "2", "0"}, ids(all)); diff != "" {
		t.Errorf("stored order (-want +got):\n%s", diff)
	}
	if all[0].Status != model.StatusResolved {
		t.Errorf("reload reset status to %q", all[0].Status)
	}
}

func TestIngesterWithoutClassifier(t *testing.T) {
	s := testutil.NewTestStore(t)
	src := &fakeSource{}
	src.set(unlabelled("1"))

	if _, err := NewIngester(src, s, nil, nil).Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	got, err := s.GetEmail(context.Background(), "1")
	if err != nil {
		t.Fatalf("GetEmail: %v", err)
	}
	if got.Sentiment != model.SentimentNeutral || got.Priority != model.PriorityMedium {
		t.Errorf("default labels = %s/%s, want neutral/medium", got.Sentiment, got.Priority)
	}
}

func TestIngesterSourceError(t *testing.T) {
	s := testutil.NewTestStore(t)
	src := &fakeSource{err: errors.New("disk gone")}
	if _, err := NewIngester(src, s, nil, nil).Run(context.Background()); err == nil {
		t.Fatal("expected error from failing source")
	}
}

func runCmd(t *testing.T, cmd tea.Cmd) tea.Msg {
	t.Helper()
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for poller result")
		return nil
	}
}

func TestPollerTrigger(t *testing.T) {
	s := testutil.NewTestStore(t)
	src := &fakeSource{}
	in := NewIngester(src, s, nil, nil)

	src.set(testutil.Email("1", "Alice"))
	if _, err := in.Run(context.Background()); err != nil {
		t.Fatalf("initial Run: %v", err)
	}

	p := New(in, s, 0, nil)
	cmd := p.Start()
	defer p.Stop()

	src.set(testutil.Email("1", "Alice"), testutil.Email("2", "Bob"))
	p.Trigger()

	msg, ok := runCmd(t, cmd).(ReloadResultMsg)
	if !ok {
		t.Fatalf("unexpected message %T", msg)
	}
	if msg.Error != nil {
		t.Fatalf("reload error: %v", msg.Error)
	}
	if msg.NewCount != 1 {
		t.Errorf("NewCount = %d, want 1", msg.NewCount)
	}
	if diff := cmp.Diff([]string{"1", "2"}, ids(msg.Emails)); diff != "" {
		t.Errorf("emails (-want +got):\n%s", diff)
	}

	notes, err := s.RecentNotifications(context.Background(), 5)
	if err != nil {
		t.Fatalf("RecentNotifications: %v", err)
	}
	if len(notes) != 1 || notes[0].EmailID != "2" {
		t.Errorf("notifications = %+v, want one for email 2", notes)
	}
	if st := p.Status(); st.State != ReloadIdle || st.LastReload.IsZero() {
		t.Errorf("status = %+v", st)
	}
}

func TestPollerReportsErrors(t *testing.T) {
	s := testutil.NewTestStore(t)
	src := &fakeSource{err: errors.New("unreadable")}
	p := New(NewIngester(src, s, nil, nil), s, 0, nil)
	cmd := p.Start()
	defer p.Stop()

	p.Trigger()
	msg := runCmd(t, cmd).(ReloadResultMsg)
	if msg.Error == nil {
		t.Fatal("expected reload error")
	}
	if p.Status().State != ReloadError {
		t.Errorf("state = %v, want ReloadError", p.Status().State)
	}
}

func TestPollerStopUnblocksWaiters(t *testing.T) {
	s := testutil.NewTestStore(t)
	p := New(NewIngester(&fakeSource{}, s, nil, nil), s, time.Hour, nil)
	cmd := p.Start()
	if again := p.Start(); again != nil {
		t.Error("second Start should return nil")
	}
	p.Stop()
	if msg := runCmd(t, cmd); msg != nil {
		t.Errorf("msg after stop = %v, want nil", msg)
	}
}

func TestPollerRestartAfterStop(t *testing.T) {
	s := testutil.NewTestStore(t)
	src := &fakeSource{}
	p := New(NewIngester(src, s, nil, nil), s, 0, nil)

	first := p.Start()
	p.Stop()
	if msg := runCmd(t, first); msg != nil {
		t.Fatalf("msg after stop = %v, want nil", msg)
	}

	cmd := p.Start()
	if cmd == nil {
		t.Fatal("Start after Stop returned nil")
	}
	defer p.Stop()

	src.set(testutil.Email("1", "Alice"))
	p.Trigger()

	msg, ok := runCmd(t, cmd).(ReloadResultMsg)
	if !ok {
		t.Fatalf("unexpected message %T", msg)
	}
	if msg.Error != nil || msg.NewCount != 1 {
		t.Errorf("result = %+v, want one new email", msg)
	}
}
