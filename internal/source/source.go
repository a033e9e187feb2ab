package source

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nhle/mailmuse/internal/model"
)

// ParseError indicates that a seed file could not be turned into emails.
type ParseError struct {
	Path    string
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error (%s): %s", e.Path, e.Message)
}

// IsParseError reports whether err (or any error in its chain) is a
// ParseError.
func IsParseError(err error) bool {
	var parseErr *ParseError
	return errors.As(err, &parseErr)
}

// Kind identifies where a source reads emails from.
type Kind string

const (
	KindSample Kind = "sample"
	KindYAML   Kind = "yaml"
	KindEML    Kind = "eml"
)

// Source loads the inbox. Load may be called repeatedly; each call returns
// the full current set in the source's natural order.
type Source interface {
	// Kind returns the source kind.
	Kind() Kind

	// Location describes where emails come from, for logs and the status bar.
	Location() string

	// Load reads every email. Sentiment and priority may be left empty when
	// the source has no opinion; see NeedsClassification.
	Load(ctx context.Context) ([]model.Email, error)
}

// NeedsClassification reports whether e is missing a sentiment or priority.
func NeedsClassification(e model.Email) bool {
	return e.Sentiment == "" || e.Priority == ""
}

// Normalize lower-cases the enum fields of e and fills unset ones with
// neutral, medium and pending. It returns an error for values outside the
// known sets.
func Normalize(e *model.Email) error {
	e.Sentiment = model.Sentiment(strings.ToLower(strings.TrimSpace(string(e.Sentiment))))
	e.Priority = model.Priority(strings.ToLower(strings.TrimSpace(string(e.Priority))))
	e.Status = model.Status(strings.ToLower(strings.TrimSpace(string(e.Status))))

	if e.Sentiment == "" {
		e.Sentiment = model.SentimentNeutral
	}
	if e.Priority == "" {
		e.Priority = model.PriorityMedium
	}
	if e.Status == "" {
		e.Status = model.StatusPending
	}

	switch {
	case !e.Sentiment.Valid():
		return fmt.Errorf("email %s: unknown sentiment %q", e.ID, e.Sentiment)
	case !e.Priority.Valid():
		return fmt.Errorf("email %s: unknown priority %q", e.ID, e.Priority)
	case !e.Status.Valid():
		return fmt.Errorf("email %s: unknown status %q", e.ID, e.Status)
	}
	return nil
}
