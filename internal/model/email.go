package model

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// Status is the workflow state of an email.
type Status string

const (
	StatusPending  Status = "pending"
	StatusResolved Status = "resolved"
)

// Sentiment is the tone assigned to an email by classification.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

// Priority is the urgency assigned to an email by classification.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Sentiments lists every sentiment in display order.
var Sentiments = []Sentiment{SentimentPositive, SentimentNeutral, SentimentNegative}

// Priorities lists every priority in display order.
var Priorities = []Priority{PriorityHigh, PriorityMedium, PriorityLow}

// Email is a single message in the inbox.
type Email struct {
	// ID is the unique, stable identifier of the message.
	ID string `json:"id" yaml:"id" db:"id"`

	// Sender is the display name of the author.
	Sender string `json:"sender" yaml:"sender" db:"sender"`

	// SenderAddress is the author's email address.
	SenderAddress string `json:"sender_address" yaml:"sender_address" db:"sender_address"`

	// Subject is the message subject line.
	Subject string `json:"subject" yaml:"subject" db:"subject"`

	// Body is the plain-text message body.
	Body string `json:"body" yaml:"body" db:"body"`

	// ReceivedAt is when the message arrived. It is used for display only;
	// list order always follows load order.
	ReceivedAt time.Time `json:"received_at" yaml:"received_at" db:"received_at"`

	// Sentiment is the classified tone of the message.
	Sentiment Sentiment `json:"sentiment" yaml:"sentiment" db:"sentiment"`

	// Priority is the classified urgency of the message.
	Priority Priority `json:"priority" yaml:"priority" db:"priority"`

	// Status is the only field that changes after load.
	Status Status `json:"status" yaml:"status" db:"status"`
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusPending || s == StatusResolved
}

// Valid reports whether s is a known sentiment.
func (s Sentiment) Valid() bool {
	switch s {
	case SentimentPositive, SentimentNegative, SentimentNeutral:
		return true
	}
	return false
}

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// Initials returns the upper-cased first letter of each word in the
// sender name, used as an avatar placeholder.
func (e Email) Initials() string {
	var sb strings.Builder
	for _, word := range strings.Fields(e.Sender) {
		r, _ := utf8.DecodeRuneInString(word)
		sb.WriteRune(unicode.ToUpper(r))
	}
	return sb.String()
}
