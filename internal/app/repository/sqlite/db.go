package sqlite

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS episodes (
	id TEXT PRIMARY KEY,
	podcast_id TEXT NOT NULL,
	created_by TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'pending',
	title TEXT,
	description TEXT,
	cover_image TEXT,
	language TEXT,
	metadata TEXT,
	published_at TIMESTAMP,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	is_admin INTEGER NOT NULL DEFAULT 0,
	credit_balance INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS credit_transactions (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	amount INTEGER NOT NULL,
	type TEXT NOT NULL,
	balance_after INTEGER NOT NULL,
	episode_id TEXT,
	podcast_id TEXT,
	description TEXT,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_episodes_podcast ON episodes(podcast_id);
CREATE INDEX IF NOT EXISTS idx_transactions_user ON credit_transactions(user_id);
`

// SQLiteDB implements repository.EpisodeDAO and repository.CreditDAO for
// local development and tests.
type SQLiteDB struct {
	db *sql.DB
}

// NewSQLiteDB opens (creating if needed) the sqlite database. dbPath may be
// a bare file path or a full file: DSN; the parent directory is created so
// the default data/ location works on first run.
func NewSQLiteDB(dbPath string) *SQLiteDB {
	dsn := dbPath
	if !strings.HasPrefix(dsn, "file:") {
		dsn = fmt.Sprintf("file:%s?cache=shared&mode=rwc", dbPath)
	}

	path := strings.TrimPrefix(dsn, "file:")
	if idx := strings.IndexByte(path, '?'); idx >= 0 {
		path = path[:idx]
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatalf("Failed to create database directory %s: %v\n", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		log.Fatalf("Failed to open database: %v\n", err)
	}

	if _, err := db.Exec(createTableSQL); err != nil {
		log.Fatalf("Failed to create tables: %v\n", err)
	}

	return &SQLiteDB{db: db}
}

func (sdb *SQLiteDB) Close() error {
	return sdb.db.Close()
}
