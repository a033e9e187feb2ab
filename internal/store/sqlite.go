package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/nhle/mailmuse/internal/model"
)

// MemoryPath opens a private in-memory database that lives as long as the
// store.
const MemoryPath = ":memory:"

// SQLiteStore implements the Store interface using SQLite.
type SQLiteStore struct {
	db *sqlx.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens a SQLite database at dbPath and runs any pending
// schema migrations. Use MemoryPath for a session-only store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Every connection to :memory: is a separate database, so pin the pool
	// to one connection. This also serialises writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// NewSessionStore opens an in-memory store.
func NewSessionStore() (*SQLiteStore, error) {
	return NewSQLiteStore(MemoryPath)
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

const emailColumns = `id, sender, sender_address, subject, body,
	received_at, sentiment, priority, status`

// InsertEmails appends emails in slice order. Emails whose ID is already
// stored are skipped, so re-reading a source only adds new messages. It
// returns the number of emails actually inserted.
func (s *SQLiteStore) InsertEmails(ctx context.Context, emails []model.Email) (int, error) {
	if len(emails) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, `
		INSERT OR IGNORE INTO emails (`+emailColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing insert statement: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, e := range emails {
		if strings.TrimSpace(e.ID) == "" {
			return 0, fmt.Errorf("email from %q has no id", e.Sender)
		}
		res, err := stmt.ExecContext(ctx,
			e.ID, e.Sender, e.SenderAddress, e.Subject, e.Body,
			e.ReceivedAt.UTC(), string(e.Sentiment), string(e.Priority), string(e.Status),
		)
		if err != nil {
			return 0, fmt.Errorf("inserting email %s: %w", e.ID, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing emails: %w", err)
	}
	return inserted, nil
}

// ListEmails returns emails matching filter in insertion order.
func (s *SQLiteStore) ListEmails(ctx context.Context, filter EmailFilter) ([]model.Email, error) {
	var conditions []string
	var args []interface{}

	if filter.Status != nil {
		conditions = append(conditions, "status = ?")
		args = append(args, string(*filter.Status))
	}
	if filter.Query != nil && strings.TrimSpace(*filter.Query) != "" {
		conditions = append(conditions,
			"(instr(lower(sender), ?) > 0 OR instr(lower(subject), ?) > 0 OR instr(lower(body), ?) > 0)")
		q := strings.ToLower(strings.TrimSpace(*filter.Query))
		args = append(args, q, q, q)
	}

	query := "SELECT " + emailColumns + " FROM emails"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY seq ASC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	var emails []model.Email
	if err := s.db.SelectContext(ctx, &emails, query, args...); err != nil {
		return nil, fmt.Errorf("querying emails: %w", err)
	}
	return emails, nil
}

// GetEmail retrieves a single email by ID.
func (s *SQLiteStore) GetEmail(ctx context.Context, id string) (*model.Email, error) {
	var e model.Email
	err := s.db.GetContext(ctx, &e, "SELECT "+emailColumns+" FROM emails WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("getting email %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting email %s: %w", id, err)
	}
	return &e, nil
}

// UpdateEmail replaces the mutable fields of an existing email. The
// email keeps its position in the list.
func (s *SQLiteStore) UpdateEmail(ctx context.Context, e model.Email) error {
	if !e.Status.Valid() {
		return fmt.Errorf("updating email %s: invalid status %q", e.ID, e.Status)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE emails SET
			sender = ?, sender_address = ?, subject = ?, body = ?,
			received_at = ?, sentiment = ?, priority = ?, status = ?
		WHERE id = ?`,
		e.Sender, e.SenderAddress, e.Subject, e.Body,
		e.ReceivedAt.UTC(), string(e.Sentiment), string(e.Priority), string(e.Status),
		e.ID,
	)
	if err != nil {
		return fmt.Errorf("updating email %s: %w", e.ID, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("updating email %s: %w", e.ID, ErrNotFound)
	}
	return nil
}

// GetStats aggregates status, sentiment and priority counts.
func (s *SQLiteStore) GetStats(ctx context.Context) (model.MailStats, error) {
	stats := model.MailStats{
		BySentiment: make(map[model.Sentiment]int),
		ByPriority:  make(map[model.Priority]int),
	}

	type bucket struct {
		Key   string `db:"key"`
		Count int    `db:"count"`
	}

	var byStatus []bucket
	if err := s.db.SelectContext(ctx, &byStatus,
		"SELECT status AS key, COUNT(*) AS count FROM emails GROUP BY status"); err != nil {
		return stats, fmt.Errorf("counting emails by status: %w", err)
	}
	for _, b := range byStatus {
		stats.Total += b.Count
		switch model.Status(b.Key) {
		case model.StatusPending:
			stats.Pending = b.Count
		case model.StatusResolved:
			stats.Resolved = b.Count
		}
	}

	var bySentiment []bucket
	if err := s.db.SelectContext(ctx, &bySentiment,
		"SELECT sentiment AS key, COUNT(*) AS count FROM emails GROUP BY sentiment"); err != nil {
		return stats, fmt.Errorf("counting emails by sentiment: %w", err)
	}
	for _, b := range bySentiment {
		stats.BySentiment[model.Sentiment(b.Key)] = b.Count
	}

	var byPriority []bucket
	if err := s.db.SelectContext(ctx, &byPriority,
		"SELECT priority AS key, COUNT(*) AS count FROM emails GROUP BY priority"); err != nil {
		return stats, fmt.Errorf("counting emails by priority: %w", err)
	}
	for _, b := range byPriority {
		stats.ByPriority[model.Priority(b.Key)] = b.Count
	}

	return stats, nil
}

// SaveAIResult stores a summary or draft, replacing any earlier one of the
// same kind for that email.
func (s *SQLiteStore) SaveAIResult(ctx context.Context, r model.AIResult) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO ai_results (email_id, kind, content, created_at)
		VALUES (?, ?, ?, ?)`,
		r.EmailID, string(r.Kind), r.Content, r.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("saving %s for email %s: %w", r.Kind, r.EmailID, err)
	}
	return nil
}

// GetAIResult returns the stored result of kind for an email.
func (s *SQLiteStore) GetAIResult(
	ctx context.Context,
	emailID string,
	kind model.AIResultKind,
) (*model.AIResult, error) {
	var r model.AIResult
	err := s.db.GetContext(ctx, &r, `
		SELECT email_id, kind, content, created_at
		FROM ai_results WHERE email_id = ? AND kind = ?`,
		emailID, string(kind),
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("getting %s for email %s: %w", kind, emailID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting %s for email %s: %w", kind, emailID, err)
	}
	return &r, nil
}

// DeleteAIResult removes a stored result. Deleting a missing result is not
// an error.
func (s *SQLiteStore) DeleteAIResult(ctx context.Context, emailID string, kind model.AIResultKind) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM ai_results WHERE email_id = ? AND kind = ?", emailID, string(kind))
	if err != nil {
		return fmt.Errorf("deleting %s for email %s: %w", kind, emailID, err)
	}
	return nil
}

// CreateNotification inserts a new notification record.
func (s *SQLiteStore) CreateNotification(ctx context.Context, n model.Notification) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notifications (id, email_id, level, title, message, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		n.ID, n.EmailID, string(n.Level), n.Title, n.Message, n.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("creating notification: %w", err)
	}
	return nil
}

// RecentNotifications returns up to limit notifications, newest first.
func (s *SQLiteStore) RecentNotifications(ctx context.Context, limit int) ([]model.Notification, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryxContext(ctx, `
		SELECT id, email_id, level, title, message, created_at
		FROM notifications ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying notifications: %w", err)
	}
	defer rows.Close()

	var notifications []model.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// scanNotification scans a notification row from a sqlx.Rows result set.
func scanNotification(rows *sqlx.Rows) (model.Notification, error) {
	var (
		n         model.Notification
		level     string
		createdAt time.Time
	)

	err := rows.Scan(&n.ID, &n.EmailID, &level, &n.Title, &n.Message, &createdAt)
	if err != nil {
		return model.Notification{}, fmt.Errorf("scanning notification row: %w", err)
	}

	n.Level = model.NotificationLevel(level)
	n.CreatedAt = createdAt
	return n, nil
}
