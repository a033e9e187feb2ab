package model

import "time"

// NotificationLevel controls how a notification is styled.
type NotificationLevel string

const (
	LevelInfo  NotificationLevel = "info"
	LevelError NotificationLevel = "error"
)

// Notification is a transient, dismissible message surfaced to the user
// (for example a failed AI call or a sent reply).
type Notification struct {
	// ID is the unique identifier for this notification.
	ID string `json:"id"`

	// EmailID links this notification to the email it concerns, if any.
	EmailID string `json:"email_id,omitempty"`

	// Level selects the notification style.
	Level NotificationLevel `json:"level"`

	// Title is the short heading, e.g. "AI Error".
	Title string `json:"title"`

	// Message is the human-readable notification text.
	Message string `json:"message"`

	// CreatedAt is when this notification was raised.
	CreatedAt time.Time `json:"created_at"`
}
