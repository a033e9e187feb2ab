package model

import "time"

// MailStats aggregates the inbox for the dashboard view.
type MailStats struct {
	Total       int
	Pending     int
	Resolved    int
	BySentiment map[Sentiment]int
	ByPriority  map[Priority]int
}

// AIResultKind identifies what an AI result holds.
type AIResultKind string

const (
	AIResultSummary AIResultKind = "summary"
	AIResultDraft   AIResultKind = "draft"
)

// AIResult is a generated summary or draft reply kept for the session.
type AIResult struct {
	EmailID   string       `db:"email_id"`
	Kind      AIResultKind `db:"kind"`
	Content   string       `db:"content"`
	CreatedAt time.Time    `db:"created_at"`
}

// Classification is the sentiment and priority assigned to an email.
type Classification struct {
	Sentiment Sentiment `json:"sentiment"`
	Priority  Priority  `json:"priority"`
}
