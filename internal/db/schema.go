package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema is idempotent. seq columns carry insertion order for list endpoints.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		seq           BIGINT GENERATED ALWAYS AS IDENTITY,
		id            TEXT PRIMARY KEY,
		email         TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		name          TEXT NOT NULL DEFAULT '',
		role          TEXT NOT NULL DEFAULT 'student'
		              CHECK (role IN ('student', 'faculty', 'admin')),
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS users_email_lower_uniq ON users (lower(email))`,

	`CREATE TABLE IF NOT EXISTS events (
		seq         BIGINT GENERATED ALWAYS AS IDENTITY,
		id          TEXT PRIMARY KEY,
		title       TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		location    TEXT NOT NULL DEFAULT '',
		organizer   TEXT NOT NULL DEFAULT '',
		start_time  TIMESTAMPTZ NOT NULL,
		end_time    TIMESTAMPTZ NULL,
		capacity    INTEGER NOT NULL DEFAULT 0 CHECK (capacity >= 0),
		approved    BOOLEAN NOT NULL DEFAULT FALSE,
		approved_at TIMESTAMPTZ NULL,
		created_by  TEXT NOT NULL DEFAULT '',
		created_at  TIMESTAMPTZ NOT NULL,
		updated_at  TIMESTAMPTZ NOT NULL,
		CHECK (end_time IS NULL OR end_time >= start_time)
	)`,
	`CREATE INDEX IF NOT EXISTS events_approved_seq_idx ON events (approved, seq)`,

	`CREATE TABLE IF NOT EXISTS registrations (
		seq                BIGINT GENERATED ALWAYS AS IDENTITY,
		id                 TEXT PRIMARY KEY,
		event_id           TEXT NOT NULL REFERENCES events (id) ON DELETE CASCADE,
		student_id         TEXT NOT NULL,
		registration_date  TIMESTAMPTZ NOT NULL,
		feedback           TEXT NULL,
		attended           BOOLEAN NOT NULL DEFAULT FALSE,
		certificate_issued BOOLEAN NOT NULL DEFAULT FALSE,
		updated_at         TIMESTAMPTZ NOT NULL,
		CONSTRAINT registrations_event_student_uniq UNIQUE (event_id, student_id),
		CONSTRAINT registrations_certificate_requires_attendance
			CHECK (NOT certificate_issued OR attended)
	)`,
	`CREATE INDEX IF NOT EXISTS registrations_student_idx ON registrations (student_id, seq)`,
}

// Migrate applies the schema inside a single transaction.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	for i, stmt := range schema {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i, err)
		}
	}

	return tx.Commit(ctx)
}
