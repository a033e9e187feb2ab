package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/nhle/mailmuse/internal/ai"
	"github.com/nhle/mailmuse/internal/credential"
	"github.com/nhle/mailmuse/internal/model"
	"github.com/nhle/mailmuse/internal/source"
	"github.com/nhle/mailmuse/internal/source/email"
	"github.com/nhle/mailmuse/internal/source/fixture"
	"github.com/nhle/mailmuse/internal/store"
	appsync "github.com/nhle/mailmuse/internal/sync"
)

// errNoAPIKey is returned by commands that cannot run without Claude.
var errNoAPIKey = errors.New("no Anthropic API key: set " + credential.AnthropicEnv + " or run 'mailmuse account set-key'")

// session is an in-memory mailbox loaded from the configured seed.
type session struct {
	store      *store.SQLiteStore
	ingester   *appsync.Ingester
	dispatcher *ai.Dispatcher
	emails     []model.Email
}

// openSession opens the session store, builds the AI dispatcher when an API
// key is available and ingests the seed once.
func openSession(ctx context.Context) (*session, error) {
	src, err := openSeed(cfg.Mailbox.SeedPath, logger)
	if err != nil {
		return nil, err
	}

	s, err := store.NewSessionStore()
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	sess := &session{store: s}
	apiKey, err := credential.APIKey()
	switch {
	case err != nil:
		logger.Warn("reading API key failed, AI actions disabled", "error", err)
	case apiKey == "":
		logger.Info("no API key found, AI actions disabled")
	default:
		sess.dispatcher = newDispatcher(apiKey)
	}

	// A nil *ai.Dispatcher must not reach the interface as a non-nil value.
	var classifier appsync.Classifier
	if sess.dispatcher != nil {
		classifier = sess.dispatcher
	}
	sess.ingester = appsync.NewIngester(src, s, classifier, logger)

	if _, err := sess.ingester.Run(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	sess.emails, err = s.ListEmails(ctx, store.EmailFilter{})
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("list emails: %w", err)
	}
	logger.Info("mailbox loaded", "source", src.Location(), "emails", len(sess.emails))
	return sess, nil
}

func (s *session) Close() error {
	return s.store.Close()
}

// openSeed resolves path to a source. An empty path is the sample inbox and
// a directory is read as .eml files; anything else is a YAML fixture.
func openSeed(path string, logger *slog.Logger) (source.Source, error) {
	if path == "" {
		return fixture.NewSample(), nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("open seed: %w", err)
	}
	if info.IsDir() {
		return email.NewAdapter(path, logger), nil
	}
	return fixture.NewFile(path), nil
}

// newDispatcher builds a dispatcher from the AI section of the config.
func newDispatcher(apiKey string) *ai.Dispatcher {
	client := ai.NewAnthropicClient(ai.ClientOptions{
		APIKey:    apiKey,
		Model:     cfg.AI.Model,
		MaxTokens: cfg.AI.MaxTokens,
		Timeout:   time.Duration(cfg.AI.TimeoutSec) * time.Second,
		RateLimit: cfg.AI.RateLimitQPS,
		Logger:    logger,
	})
	return ai.NewDispatcher(client, cfg.AI.ClassifyConcurrency, logger)
}
