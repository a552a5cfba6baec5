package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// CreateSchema creates the Postgres tables. Safe to call repeatedly.
func CreateSchema(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Deleting a poll cascades to its choices, ledger entries and reports.
// polls carries no start/expiration CHECK: a suspended poll may expire before it starts.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            BIGSERIAL PRIMARY KEY,
    email         TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    role          TEXT NOT NULL CHECK (role IN ('admin', 'voter')),
    is_active     BOOLEAN NOT NULL DEFAULT TRUE,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS polls (
    id              BIGSERIAL PRIMARY KEY,
    title           TEXT NOT NULL,
    question        TEXT NOT NULL,
    poll_type       TEXT NOT NULL CHECK (poll_type IN ('single-choice', 'multiple-choice')),
    created_by      BIGINT NOT NULL REFERENCES users(id),
    start_date      TIMESTAMPTZ NOT NULL,
    expiration_date TIMESTAMPTZ NOT NULL,
    is_active       BOOLEAN NOT NULL DEFAULT TRUE,
    report_count    INTEGER NOT NULL DEFAULT 0,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_polls_start_date ON polls(start_date);
CREATE INDEX IF NOT EXISTS idx_polls_expiration_date ON polls(expiration_date);

CREATE TABLE IF NOT EXISTS choices (
    id         BIGSERIAL PRIMARY KEY,
    poll_id    BIGINT NOT NULL REFERENCES polls(id) ON DELETE CASCADE,
    position   INTEGER NOT NULL,
    text       TEXT NOT NULL,
    vote_count BIGINT NOT NULL DEFAULT 0,
    UNIQUE (poll_id, position)
);

CREATE TABLE IF NOT EXISTS votes (
    id         BIGSERIAL PRIMARY KEY,
    poll_id    BIGINT NOT NULL REFERENCES polls(id) ON DELETE CASCADE,
    user_id    BIGINT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    UNIQUE (poll_id, user_id)
);

CREATE TABLE IF NOT EXISTS vote_choices (
    vote_id   BIGINT NOT NULL REFERENCES votes(id) ON DELETE CASCADE,
    choice_id BIGINT NOT NULL REFERENCES choices(id) ON DELETE CASCADE,
    PRIMARY KEY (vote_id, choice_id)
);

CREATE TABLE IF NOT EXISTS poll_reports (
    poll_id    BIGINT NOT NULL REFERENCES polls(id) ON DELETE CASCADE,
    user_id    BIGINT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (poll_id, user_id)
);
`
