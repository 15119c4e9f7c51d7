package database

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            TEXT PRIMARY KEY,
		name          TEXT NOT NULL,
		email         TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		user_type     TEXT NOT NULL DEFAULT 'buyer',
		avatar        TEXT NOT NULL DEFAULT '',
		created_at    TIMESTAMPTZ NOT NULL,
		last_seen     TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS agents (
		id           TEXT PRIMARY KEY,
		user_id      TEXT NOT NULL UNIQUE REFERENCES users(id),
		display_name TEXT NOT NULL,
		agency       TEXT NOT NULL DEFAULT '',
		created_at   TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS listings (
		id         TEXT PRIMARY KEY,
		title      TEXT NOT NULL,
		images     TEXT NOT NULL DEFAULT '[]',
		image      TEXT NOT NULL DEFAULT '',
		owner_id   TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS messages (
		id            TEXT PRIMARY KEY,
		from_user_id  TEXT NOT NULL,
		to_user_id    TEXT NOT NULL,
		property_id   TEXT,
		message       TEXT NOT NULL,
		message_title TEXT NOT NULL DEFAULT '',
		message_type  TEXT NOT NULL DEFAULT 'text',
		is_read       BOOLEAN NOT NULL DEFAULT FALSE,
		sent_at       TIMESTAMPTZ,
		agent_name    TEXT NOT NULL DEFAULT '',
		agent_id      TEXT NOT NULL DEFAULT '',
		created_at    TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_messages_from_to ON messages (from_user_id, to_user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_messages_to_unread ON messages (to_user_id, is_read)`,
}

type PostgresDB struct {
	*sqlStore
}

func NewPostgresDB(connStr string) (*PostgresDB, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	store := &sqlStore{db: db, placeholder: dollarPlaceholder}
	if err := store.migrate(ctx, postgresSchema); err != nil {
		db.Close()
		return nil, err
	}

	return &PostgresDB{store}, nil
}
