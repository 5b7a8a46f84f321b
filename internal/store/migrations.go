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

CREATE TABLE IF NOT EXISTS runs (
	id              TEXT PRIMARY KEY,
	kind            TEXT NOT NULL CHECK(kind IN ('daily', 'weekly')),
	status          TEXT NOT NULL DEFAULT 'ok',
	error           TEXT NOT NULL DEFAULT '',
	started_at      DATETIME NOT NULL,
	finished_at     DATETIME NOT NULL,
	meetings        INTEGER NOT NULL DEFAULT 0,
	action_items    INTEGER NOT NULL DEFAULT 0,
	completed_tasks INTEGER NOT NULL DEFAULT 0,
	overdue_tasks   INTEGER NOT NULL DEFAULT 0,
	mentions        INTEGER NOT NULL DEFAULT 0,
	new_mentions    INTEGER NOT NULL DEFAULT 0,
	report_json     TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
CREATE INDEX IF NOT EXISTS idx_runs_kind_started ON runs(kind, started_at);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
}
