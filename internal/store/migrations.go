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

CREATE TABLE IF NOT EXISTS notification_history (
	id              TEXT PRIMARY KEY,
	notification_id TEXT NOT NULL,
	event           TEXT NOT NULL,
	kind            TEXT NOT NULL DEFAULT 'system',
	severity        TEXT NOT NULL DEFAULT 'medium',
	title           TEXT NOT NULL,
	message         TEXT NOT NULL DEFAULT '',
	item_id         TEXT NOT NULL DEFAULT '',
	created_at      DATETIME NOT NULL,
	recorded_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_history_recorded ON notification_history(recorded_at);
CREATE INDEX IF NOT EXISTS idx_history_notification ON notification_history(notification_id);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE INDEX IF NOT EXISTS idx_history_event_recorded
	ON notification_history(event, recorded_at);

CREATE INDEX IF NOT EXISTS idx_history_kind
	ON notification_history(kind);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}
