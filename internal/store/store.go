// Package store provides the SQLite-backed shared store that pipeline stages
// use to exchange artifacts. Every run gets its own namespace keyed by run ID;
// a run's Reset wipes only that namespace. Values are JSON-encoded, and every
// write records a monotonic revision plus the stage that produced it, so the
// audit trail can attribute each key.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a key has no value in the run's namespace.
// Callers must treat it as "producing stage has not run", never as an empty
// default.
var ErrNotFound = errors.New("key not found")

// Store wraps a SQLite database holding every run's namespace.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) a SQLite database at dbPath and ensures the
// required tables exist. Use ":memory:" for an in-memory database.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One pooled connection: SQLite has a single writer, and ":memory:"
	// databases exist per connection.
	db.SetMaxOpenConns(1)

	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func createTables(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS kv (
			run_id   TEXT NOT NULL,
			key      TEXT NOT NULL,
			value    TEXT NOT NULL,
			revision INTEGER NOT NULL,
			stage    TEXT NOT NULL,
			PRIMARY KEY (run_id, key)
		)`,
		`CREATE TABLE IF NOT EXISTS list_entries (
			run_id   TEXT NOT NULL,
			key      TEXT NOT NULL,
			pos      INTEGER NOT NULL,
			value    TEXT NOT NULL,
			revision INTEGER NOT NULL,
			stage    TEXT NOT NULL,
			PRIMARY KEY (run_id, key, pos)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}
	return nil
}

// ForRun returns a handle bound to one run's namespace. Reset must be called
// before any write.
func (s *Store) ForRun(runID string) *RunStore {
	return &RunStore{store: s, runID: runID}
}

// Entry describes one key in a run's namespace for the audit trail.
type Entry struct {
	Key      string
	Revision int64
	Stage    string
}

// RunStore is a handle on a single run's namespace. It is passed explicitly
// to every stage; there is no process-wide global instance.
type RunStore struct {
	store *Store
	runID string

	mu    sync.Mutex
	rev   int64
	stage string
	ready bool
}

// RunID returns the namespace this handle is bound to.
func (r *RunStore) RunID() string {
	return r.runID
}

// SetStage records which stage subsequent writes are attributed to.
func (r *RunStore) SetStage(stage string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stage = stage
}

// Reset clears this run's namespace. It must be called exactly once per run,
// before any stage writes; other runs' namespaces are untouched.
func (r *RunStore) Reset() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, table := range []string{"kv", "list_entries"} {
		if _, err := r.store.db.Exec(
			`DELETE FROM `+table+` WHERE run_id = ?`, r.runID,
		); err != nil {
			return fmt.Errorf("reset run %s: %w", r.runID, err)
		}
	}
	r.rev = 0
	r.ready = true
	return nil
}

// nextRev returns the run's next revision. Caller holds r.mu.
func (r *RunStore) nextRev() int64 {
	r.rev++
	return r.rev
}

// Set writes a single JSON-encoded value, last writer wins.
func (r *RunStore) Set(key string, value any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.ready {
		return fmt.Errorf("set %q: store not reset for run %s", key, r.runID)
	}

	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %q: %w", key, err)
	}
	_, err = r.store.db.Exec(
		`INSERT OR REPLACE INTO kv (run_id, key, value, revision, stage)
		 VALUES (?, ?, ?, ?, ?)`,
		r.runID, key, string(encoded), r.nextRev(), r.stage,
	)
	if err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

// Get decodes the value for key into dest. A missing key is ErrNotFound
// wrapped with the key name.
func (r *RunStore) Get(key string, dest any) error {
	raw, err := r.GetRaw(key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("decode %q: %w", key, err)
	}
	return nil
}

// GetRaw returns the raw JSON for key without decoding it.
func (r *RunStore) GetRaw(key string) (json.RawMessage, error) {
	var value string
	err := r.store.db.QueryRow(
		`SELECT value FROM kv WHERE run_id = ? AND key = ?`, r.runID, key,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("get %q: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get %q: %w", key, err)
	}
	return json.RawMessage(value), nil
}

// AppendToList appends a JSON-encoded value to the ordered list at key.
func (r *RunStore) AppendToList(key string, value any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.ready {
		return fmt.Errorf("append %q: store not reset for run %s", key, r.runID)
	}

	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %q: %w", key, err)
	}
	_, err = r.store.db.Exec(
		`INSERT INTO list_entries (run_id, key, pos, value, revision, stage)
		 VALUES (?, ?,
			(SELECT COALESCE(MAX(pos), -1) + 1 FROM list_entries WHERE run_id = ? AND key = ?),
			?, ?, ?)`,
		r.runID, key, r.runID, key, string(encoded), r.nextRev(), r.stage,
	)
	if err != nil {
		return fmt.Errorf("append %q: %w", key, err)
	}
	return nil
}

// GetList returns the list at key in append order. A key never appended to
// yields an empty list, not an error.
func (r *RunStore) GetList(key string) ([]json.RawMessage, error) {
	rows, err := r.store.db.Query(
		`SELECT value FROM list_entries WHERE run_id = ? AND key = ? ORDER BY pos`,
		r.runID, key,
	)
	if err != nil {
		return nil, fmt.Errorf("get list %q: %w", key, err)
	}
	defer rows.Close()

	var values []json.RawMessage
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan list %q: %w", key, err)
		}
		values = append(values, json.RawMessage(v))
	}
	return values, rows.Err()
}

// Entries lists every key in the namespace with its revision and producing
// stage, KV entries first, then list keys, ordered by revision.
func (r *RunStore) Entries() ([]Entry, error) {
	rows, err := r.store.db.Query(
		`SELECT key, revision, stage FROM kv WHERE run_id = ?
		 UNION ALL
		 SELECT key, MAX(revision), stage FROM list_entries WHERE run_id = ? GROUP BY key
		 ORDER BY revision`,
		r.runID, r.runID,
	)
	if err != nil {
		return nil, fmt.Errorf("entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Key, &e.Revision, &e.Stage); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
