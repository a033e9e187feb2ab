package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS emails (
	seq            INTEGER PRIMARY KEY AUTOINCREMENT,
	id             TEXT NOT NULL UNIQUE,
	sender         TEXT NOT NULL,
	sender_address TEXT NOT NULL DEFAULT '',
	subject        TEXT NOT NULL DEFAULT '',
	body           TEXT NOT NULL DEFAULT '',
	received_at    DATETIME NOT NULL,
	sentiment      TEXT NOT NULL DEFAULT 'neutral' CHECK(sentiment IN ('positive', 'negative', 'neutral')),
	priority       TEXT NOT NULL DEFAULT 'medium' CHECK(priority IN ('high', 'medium', 'low')),
	status         TEXT NOT NULL DEFAULT 'pending' CHECK(status IN ('pending', 'resolved'))
);

CREATE INDEX IF NOT EXISTS idx_emails_status ON emails(status);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE TABLE IF NOT EXISTS ai_results (
	email_id   TEXT NOT NULL REFERENCES emails(id) ON DELETE CASCADE,
	kind       TEXT NOT NULL CHECK(kind IN ('summary', 'draft')),
	content    TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (email_id, kind)
);

CREATE TABLE IF NOT EXISTS notifications (
	id         TEXT PRIMARY KEY,
	email_id   TEXT NOT NULL DEFAULT '',
	level      TEXT NOT NULL DEFAULT 'info',
	title      TEXT NOT NULL DEFAULT '',
	message    TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_notifications_created ON notifications(created_at);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}
