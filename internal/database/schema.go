package database

import (
	"context"
	"fmt"
)

const schema = `
CREATE TABLE IF NOT EXISTS price_run (
	id           UUID PRIMARY KEY,
	started_at   TIMESTAMPTZ NOT NULL,
	finished_at  TIMESTAMPTZ NOT NULL,
	total        INTEGER NOT NULL,
	found        INTEGER NOT NULL,
	not_found    INTEGER NOT NULL,
	errors       INTEGER NOT NULL,
	output_file  TEXT
);

CREATE TABLE IF NOT EXISTS price_row (
	run_id        UUID NOT NULL REFERENCES price_run(id) ON DELETE CASCADE,
	position      INTEGER NOT NULL,
	code          TEXT NOT NULL,
	store         TEXT NOT NULL,
	available     BOOLEAN NOT NULL,
	product       TEXT NOT NULL,
	price_online  TEXT NOT NULL DEFAULT '',
	price_regular TEXT NOT NULL DEFAULT '',
	price_card    TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (run_id, position)
);

CREATE INDEX IF NOT EXISTS idx_price_row_code ON price_row (code);

CREATE TABLE IF NOT EXISTS outbox_event (
	id             UUID PRIMARY KEY,
	aggregate_type TEXT NOT NULL,
	aggregate_id   TEXT NOT NULL,
	event_type     TEXT NOT NULL,
	payload        JSONB NOT NULL,
	target_stream  TEXT NOT NULL,
	status         TEXT NOT NULL,
	retry_count    INTEGER NOT NULL DEFAULT 0,
	error_message  TEXT,
	created_at     TIMESTAMPTZ NOT NULL,
	processed_at   TIMESTAMPTZ,
	next_retry_at  TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_outbox_event_pending ON outbox_event (status, next_retry_at);
`

// EnsureSchema creates the tables if they do not exist.
func (db *DB) EnsureSchema(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}
