// Package history persists scheduler run reports to a SQLite journal.
//
// The journal records completed runs only; the queue itself is never
// persisted. Retention is bounded by record count and age, pruned lazily
// every few writes.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"taskloop/pkg/logx"
)

var ErrDisabled = errors.New("history: store disabled")

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	rowid_seq   INTEGER PRIMARY KEY AUTOINCREMENT,
	entry_id    TEXT NOT NULL,
	name        TEXT,
	mode        TEXT NOT NULL,
	started_ms  INTEGER NOT NULL,
	duration_ms INTEGER NOT NULL,
	err         TEXT
);
CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_ms);
`

// Record is one persisted run.
type Record struct {
	EntryID  string
	Name     string
	Mode     string
	Started  time.Time
	Duration time.Duration
	Error    string
}

type Config struct {
	Path       string
	MaxRecords int
	MaxAge     time.Duration
}

// Store is the SQLite-backed run journal. Safe for concurrent use; writes
// are serialized by the single-connection pool.
type Store struct {
	db  *sql.DB
	log logx.Logger

	maxRecords int
	maxAge     time.Duration

	opCount    atomic.Uint64
	pruneEvery uint64
}

func Open(cfg Config, log logx.Logger) (*Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("history: path is required")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")
	_, _ = db.Exec("PRAGMA busy_timeout = 5000")

	st := &Store{
		db:         db,
		log:        log,
		maxRecords: cfg.MaxRecords,
		maxAge:     cfg.MaxAge,
		pruneEvery: 64,
	}
	if st.maxRecords <= 0 {
		st.maxRecords = 2000
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("history: migrate: %w", err)
	}
	return st, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Append writes one run record. Every pruneEvery-th append also prunes
// retention overflow on a short best-effort timeout.
func (s *Store) Append(ctx context.Context, r Record) error {
	if s == nil || s.db == nil {
		return ErrDisabled
	}
	if r.Started.IsZero() {
		r.Started = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs(entry_id, name, mode, started_ms, duration_ms, err)
		 VALUES(?,?,?,?,?,?)`,
		r.EntryID, nullStr(r.Name), r.Mode, r.Started.UnixMilli(), r.Duration.Milliseconds(), nullStr(r.Error),
	)
	if err == nil && s.opCount.Add(1)%s.pruneEvery == 0 {
		pctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		if perr := s.prune(pctx); perr != nil {
			s.log.Debug("history prune failed", logx.Err(perr))
		}
		cancel()
	}
	return err
}

// Recent returns up to n records, newest first.
func (s *Store) Recent(ctx context.Context, n int) ([]Record, error) {
	if s == nil || s.db == nil {
		return nil, ErrDisabled
	}
	if n <= 0 {
		n = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT entry_id, COALESCE(name, ''), mode, started_ms, duration_ms, COALESCE(err, '')
		 FROM runs ORDER BY started_ms DESC, rowid_seq DESC LIMIT ?`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		var startedMS, durMS int64
		if err := rows.Scan(&r.EntryID, &r.Name, &r.Mode, &startedMS, &durMS, &r.Error); err != nil {
			return nil, err
		}
		r.Started = time.UnixMilli(startedMS)
		r.Duration = time.Duration(durMS) * time.Millisecond
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) prune(ctx context.Context) error {
	if s.maxAge > 0 {
		cutoff := time.Now().Add(-s.maxAge).UnixMilli()
		if _, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE started_ms < ?`, cutoff); err != nil {
			return err
		}
	}
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM runs WHERE rowid_seq NOT IN (
			SELECT rowid_seq FROM runs ORDER BY started_ms DESC, rowid_seq DESC LIMIT ?
		)`, s.maxRecords)
	return err
}

func nullStr(v string) any {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return v
}
