package sync

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nhle/mailmuse/internal/model"
	"github.com/nhle/mailmuse/internal/source"
	"github.com/nhle/mailmuse/internal/store"
)

// Classifier fills in missing sentiment and priority labels.
type Classifier interface {
	ClassifyAll(ctx context.Context, emails []model.Email) ([]model.Email, error)
}

// Ingester reads a source and appends emails the store has not seen yet.
type Ingester struct {
	src        source.Source
	store      store.Store
	classifier Classifier
	logger     *slog.Logger
}

// NewIngester creates an ingester. classifier may be nil, in which case
// unlabelled emails get neutral sentiment and medium priority.
func NewIngester(src source.Source, s store.Store, classifier Classifier, logger *slog.Logger) *Ingester {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingester{
		src:        src,
		store:      s,
		classifier: classifier,
		logger:     logger.With("component", "ingest", "source", src.Kind()),
	}
}

// Source returns the underlying source.
func (in *Ingester) Source() source.Source {
	return in.src
}

// Run loads the source and inserts new emails in source order. Emails
// already in the store are left untouched, so a status changed this
// session survives a reload. It returns the inserted emails.
func (in *Ingester) Run(ctx context.Context) ([]model.Email, error) {
	loaded, err := in.src.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading %s source: %w", in.src.Kind(), err)
	}

	existing, err := in.store.ListEmails(ctx, store.EmailFilter{})
	if err != nil {
		return nil, fmt.Errorf("listing stored emails: %w", err)
	}
	known := make(map[string]bool, len(existing))
	for _, e := range existing {
		known[e.ID] = true
	}

	var fresh []model.Email
	for _, e := range loaded {
		if known[e.ID] {
			continue
		}
		known[e.ID] = true
		fresh = append(fresh, e)
	}
	if len(fresh) == 0 {
		return nil, nil
	}

	if in.classifier != nil && needsClassification(fresh) {
		classified, err := in.classifier.ClassifyAll(ctx, fresh)
		if err != nil {
			return nil, fmt.Errorf("classifying emails: %w", err)
		}
		fresh = classified
	}

	for i := range fresh {
		if err := source.Normalize(&fresh[i]); err != nil {
			return nil, fmt.Errorf("normalizing emails: %w", err)
		}
	}

	if _, err := in.store.InsertEmails(ctx, fresh); err != nil {
		return nil, fmt.Errorf("storing emails: %w", err)
	}

	in.logger.Info("ingested emails", "count", len(fresh), "location", in.src.Location())
	return fresh, nil
}

func needsClassification(emails []model.Email) bool {
	for _, e := range emails {
		if source.NeedsClassification(e) {
			return true
		}
	}
	return false
}
