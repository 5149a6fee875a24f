package store

// migration holds a single schema migration with its target version and
// the statements that bring the schema to that version.
type migration struct {
	version    int
	statements []string
}

// sqliteMigrations is the ordered list of SQLite schema migrations.
// Each migration's version must be sequential starting from 1.
var sqliteMigrations = []migration{
	{
		version: 1,
		statements: []string{
			`CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
)`,
			`CREATE TABLE IF NOT EXISTS todos (
	id             TEXT PRIMARY KEY,
	title          TEXT NOT NULL,
	status         TEXT NOT NULL DEFAULT 'todo'
		CHECK(status IN ('todo', 'in_progress', 'blocked', 'done')),
	target_date    TEXT,
	blocked_reason TEXT NOT NULL DEFAULT '',
	blocked_at     DATETIME,
	created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
)`,
			`CREATE INDEX IF NOT EXISTS idx_todos_status ON todos(status)`,
			`CREATE TABLE IF NOT EXISTS change_requests (
	id          TEXT PRIMARY KEY,
	title       TEXT NOT NULL,
	description TEXT NOT NULL,
	status      TEXT NOT NULL DEFAULT 'open'
		CHECK(status IN ('open', 'in_progress', 'in_discussion', 'completed', 'rejected')),
	priority    TEXT NOT NULL DEFAULT 'medium'
		CHECK(priority IN ('low', 'medium', 'high')),
	created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
)`,
			`CREATE TABLE IF NOT EXISTS change_request_comments (
	id                TEXT PRIMARY KEY,
	change_request_id TEXT NOT NULL REFERENCES change_requests(id) ON DELETE CASCADE,
	author            TEXT NOT NULL DEFAULT 'Anonymous',
	content           TEXT NOT NULL,
	created_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
)`,
			`CREATE INDEX IF NOT EXISTS idx_comments_change_request
	ON change_request_comments(change_request_id, created_at)`,
			`INSERT INTO schema_version (version) VALUES (1)`,
		},
	},
}

// postgresMigrations mirrors sqliteMigrations for PostgreSQL.
var postgresMigrations = []migration{
	{
		version: 1,
		statements: []string{
			`CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
)`,
			`CREATE TABLE IF NOT EXISTS todos (
	id             TEXT PRIMARY KEY,
	title          VARCHAR(255) NOT NULL,
	status         VARCHAR(20) NOT NULL DEFAULT 'todo'
		CHECK(status IN ('todo', 'in_progress', 'blocked', 'done')),
	target_date    VARCHAR(10),
	blocked_reason TEXT NOT NULL DEFAULT '',
	blocked_at     TIMESTAMP WITH TIME ZONE,
	created_at     TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
	updated_at     TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
)`,
			`CREATE INDEX IF NOT EXISTS idx_todos_status ON todos(status)`,
			`CREATE TABLE IF NOT EXISTS change_requests (
	id          TEXT PRIMARY KEY,
	title       VARCHAR(255) NOT NULL,
	description TEXT NOT NULL,
	status      VARCHAR(20) NOT NULL DEFAULT 'open'
		CHECK(status IN ('open', 'in_progress', 'in_discussion', 'completed', 'rejected')),
	priority    VARCHAR(10) NOT NULL DEFAULT 'medium'
		CHECK(priority IN ('low', 'medium', 'high')),
	created_at  TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
	updated_at  TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
)`,
			`CREATE TABLE IF NOT EXISTS change_request_comments (
	id                TEXT PRIMARY KEY,
	change_request_id TEXT NOT NULL REFERENCES change_requests(id) ON DELETE CASCADE,
	author            VARCHAR(100) NOT NULL DEFAULT 'Anonymous',
	content           TEXT NOT NULL,
	created_at        TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
)`,
			`CREATE INDEX IF NOT EXISTS idx_comments_change_request
	ON change_request_comments(change_request_id, created_at)`,
			`INSERT INTO schema_version (version) VALUES (1)`,
		},
	},
}
