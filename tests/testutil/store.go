package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/nhle/mailmuse/internal/model"
	"github.com/nhle/mailmuse/internal/store"
)

// NewTestStore creates an in-memory SQLiteStore with all migrations applied.
// It automatically closes the store when the test completes.
func NewTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewSessionStore()
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}

// Email builds a pending, neutral, medium-priority email with the given id
// and sender.
func Email(id, sender string) model.Email {
	return model.Email{
		ID:            id,
		Sender:        sender,
		SenderAddress: fmt.Sprintf("%s@example.com", id),
		Subject:       "Subject " + id,
		Body:          "Body " + id,
		ReceivedAt:    time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
		Sentiment:     model.SentimentNeutral,
		Priority:      model.PriorityMedium,
		Status:        model.StatusPending,
	}
}

// SeedEmails inserts emails into s and fails the test on error.
func SeedEmails(t *testing.T, s store.Store, emails ...model.Email) {
	t.Helper()
	if _, err := s.InsertEmails(context.Background(), emails); err != nil {
		t.Fatalf("seeding emails: %v", err)
	}
}
