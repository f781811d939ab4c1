// Package audit persists per-stage run records to an optional Postgres
// sink. The sink is best effort: callers log failures and keep going, a
// missing database never fails a run.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// Entry is one stage invocation worth of audit data.
type Entry struct {
	Stage           string
	TaskDescription string
	Metadata        json.RawMessage
	At              time.Time
	Score           *float64
}

// Sink records entries for a run.
type Sink interface {
	Record(ctx context.Context, runID string, entries []Entry) error
	Close(ctx context.Context) error
}

// NopSink discards everything. Used when no DSN is configured.
type NopSink struct{}

func (NopSink) Record(context.Context, string, []Entry) error { return nil }
func (NopSink) Close(context.Context) error                   { return nil }

// PostgresSink writes one row per stage into the docgen table, upserting on
// (run_id, stage) so a re-run replaces its own rows.
type PostgresSink struct {
	conn *pgx.Conn
}

const createTableSQL = `CREATE TABLE IF NOT EXISTS docgen (
	run_id           TEXT NOT NULL,
	stage            TEXT NOT NULL,
	task_description TEXT NOT NULL DEFAULT '',
	metadata_json    JSONB,
	datetime         TIMESTAMPTZ NOT NULL,
	score            DOUBLE PRECISION,
	PRIMARY KEY (run_id, stage)
)`

const upsertSQL = `INSERT INTO docgen
	(run_id, stage, task_description, metadata_json, datetime, score)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (run_id, stage) DO UPDATE SET
	task_description = EXCLUDED.task_description,
	metadata_json    = EXCLUDED.metadata_json,
	datetime         = EXCLUDED.datetime,
	score            = EXCLUDED.score`

// NewPostgresSink connects and ensures the docgen table exists.
func NewPostgresSink(ctx context.Context, dsn string) (*PostgresSink, error) {
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to audit database: %w", err)
	}
	if _, err := conn.Exec(ctx, createTableSQL); err != nil {
		conn.Close(ctx)
		return nil, fmt.Errorf("creating docgen table: %w", err)
	}
	return &PostgresSink{conn: conn}, nil
}

// Record upserts every entry in one transaction.
func (s *PostgresSink) Record(ctx context.Context, runID string, entries []Entry) error {
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning audit transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, e := range entries {
		_, err := tx.Exec(ctx, upsertSQL,
			runID, e.Stage, e.TaskDescription, e.Metadata, e.At, e.Score)
		if err != nil {
			return fmt.Errorf("recording stage %s: %w", e.Stage, err)
		}
	}
	return tx.Commit(ctx)
}

func (s *PostgresSink) Close(ctx context.Context) error {
	return s.conn.Close(ctx)
}
