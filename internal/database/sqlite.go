package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// DefaultSQLitePath is used when no path is configured for the sqlite backend.
const DefaultSQLitePath = "data/messaging.db"

var sqliteSchema = []string{
	`
CREATE TABLE IF NOT EXISTS users (
  id            TEXT PRIMARY KEY,
  name          TEXT NOT NULL,
  email         TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  user_type     TEXT CHECK(user_type IN ('buyer','seller','agent','admin')) DEFAULT 'buyer',
  avatar        TEXT NOT NULL DEFAULT '',
  created_at    DATETIME NOT NULL,
  last_seen     DATETIME NOT NULL
);
`,
	`
CREATE TABLE IF NOT EXISTS agents (
  id           TEXT PRIMARY KEY,
  user_id      TEXT NOT NULL UNIQUE REFERENCES users(id),
  display_name TEXT NOT NULL,
  agency       TEXT NOT NULL DEFAULT '',
  created_at   DATETIME NOT NULL
);
`,
	`
CREATE TABLE IF NOT EXISTS listings (
  id         TEXT PRIMARY KEY,
  title      TEXT NOT NULL,
  images     TEXT NOT NULL DEFAULT '[]',
  image      TEXT NOT NULL DEFAULT '',
  owner_id   TEXT NOT NULL,
  created_at DATETIME NOT NULL
);
`,
	`
CREATE TABLE IF NOT EXISTS messages (
  id            TEXT PRIMARY KEY,
  from_user_id  TEXT NOT NULL,
  to_user_id    TEXT NOT NULL,
  property_id   TEXT,
  message       TEXT NOT NULL,
  message_title TEXT NOT NULL DEFAULT '',
  message_type  TEXT CHECK(message_type IN ('text')) DEFAULT 'text',
  is_read       BOOLEAN NOT NULL DEFAULT 0,
  sent_at       DATETIME,
  agent_name    TEXT NOT NULL DEFAULT '',
  agent_id      TEXT NOT NULL DEFAULT '',
  created_at    DATETIME NOT NULL
);
`,
	`
CREATE INDEX IF NOT EXISTS idx_messages_from_to
ON messages (from_user_id, to_user_id);
`,
	`
CREATE INDEX IF NOT EXISTS idx_messages_to_unread
ON messages (to_user_id, is_read);
`,
}

type SQLiteDB struct {
	*sqlStore
}

// NewSQLiteDB opens (creating if needed) the database at path. ":memory:" is
// accepted and keeps everything on a single connection.
func NewSQLiteDB(path string) (*SQLiteDB, error) {
	if path == "" {
		path = DefaultSQLitePath
	}

	dsn := ":memory:"
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o700); err != nil {
				return nil, fmt.Errorf("create sqlite directory: %w", err)
			}
		}
		dsn = fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on", path)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// ":memory:" databases live only as long as their connection.
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store := &sqlStore{db: db}
	if err := store.migrate(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteDB{store}, nil
}
