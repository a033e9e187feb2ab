package store

import (
	"context"
	"errors"

	"github.com/nhle/mailmuse/internal/model"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// EmailFilter narrows ListEmails. Nil fields match everything.
type EmailFilter struct {
	Status *model.Status
	Query  *string // substring of sender, subject or body
	Limit  int
}

// Store defines the session store for emails, generated AI results and
// raised notifications. Emails are always returned in insertion order.
type Store interface {
	// === Emails ===

	InsertEmails(ctx context.Context, emails []model.Email) (int, error)
	ListEmails(ctx context.Context, filter EmailFilter) ([]model.Email, error)
	GetEmail(ctx context.Context, id string) (*model.Email, error)
	UpdateEmail(ctx context.Context, email model.Email) error
	GetStats(ctx context.Context) (model.MailStats, error)

	// === AI results ===

	SaveAIResult(ctx context.Context, r model.AIResult) error
	GetAIResult(ctx context.Context, emailID string, kind model.AIResultKind) (*model.AIResult, error)
	DeleteAIResult(ctx context.Context, emailID string, kind model.AIResultKind) error

	// === Notifications ===

	CreateNotification(ctx context.Context, n model.Notification) error
	RecentNotifications(ctx context.Context, limit int) ([]model.Notification, error)

	Close() error
}
