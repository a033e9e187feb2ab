// Package email loads an inbox from a directory of .eml files.
package email

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/nhle/mailmuse/internal/model"
	"github.com/nhle/mailmuse/internal/source"
)

// Adapter implements source.Source for a directory of RFC 5322 files.
// Files are read in name order; that order is the inbox order.
type Adapter struct {
	dir    string
	logger *slog.Logger
}

// NewAdapter creates a source reading *.eml files from dir.
func NewAdapter(dir string, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{
		dir:    dir,
		logger: logger.With("component", "eml_source", "dir", dir),
	}
}

// Kind returns source.KindEML.
func (a *Adapter) Kind() source.Kind {
	return source.KindEML
}

// Location returns the directory path.
func (a *Adapter) Location() string {
	return a.dir
}

// Load parses every .eml file in the directory. Files that fail to parse
// are logged and skipped. Status is always pending and sentiment is left
// empty for classification; priority comes from X-Priority when present.
func (a *Adapter) Load(ctx context.Context) ([]model.Email, error) {
	entries, err := os.ReadDir(a.dir)
	if err != nil {
		return nil, fmt.Errorf("reading eml directory %s: %w", a.dir, err)
	}

	var emails []model.Email
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".eml") {
			continue
		}

		path := filepath.Join(a.dir, entry.Name())
		e, err := a.loadFile(path)
		if err != nil {
			a.logger.Warn("skipping unreadable message", "file", entry.Name(), "error", err)
			continue
		}
		emails = append(emails, e)
	}

	a.logger.Debug("loaded messages", "count", len(emails))
	return emails, nil
}

func (a *Adapter) loadFile(path string) (model.Email, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.Email{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	msg, err := parseMessage(f)
	if err != nil {
		return model.Email{}, &source.ParseError{Path: path, Message: err.Error()}
	}

	return a.messageToEmail(path, msg), nil
}

func (a *Adapter) messageToEmail(path string, msg *ParsedMessage) model.Email {
	// Message-ID when present; otherwise a name-based UUID so the same file
	// keeps its ID across reloads.
	id := sanitizeID(msg.MessageID)
	if id == "" {
		id = uuid.NewSHA1(uuid.NameSpaceURL, []byte("file://"+path)).String()
	}

	receivedAt := msg.Date
	if receivedAt.IsZero() {
		if info, err := os.Stat(path); err == nil {
			receivedAt = info.ModTime()
		}
	}

	return model.Email{
		ID:            id,
		Sender:        msg.sender(),
		SenderAddress: msg.FromAddress,
		Subject:       msg.Subject,
		Body:          msg.body(),
		ReceivedAt:    receivedAt,
		Priority:      msg.priority(),
		Status:        model.StatusPending,
	}
}
