// Package sqlite implements thoughtbot.StorageAdapter using pure-Go SQLite.
// Zero CGO required.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite" // pure-Go SQLite driver

	thoughtbot "github.com/nevindra/thoughtbot"
)

// Option configures a Store.
type Option func(*Store)

// WithLogger sets a structured logger for the store. When set, the store
// logs open, start and shutdown, and Keep, Find and Lose with timing (Find
// and Lose also report row counts); SaveMemory and LoadMemory are not
// logged. If not set, no logs are emitted.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// Store implements thoughtbot.StorageAdapter backed by a local SQLite
// file. Every sub is an append-only (sub, seq, data) table; sub
// "memory" is special-cased as a single-row key/value blob.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
	seq    map[string]int64
}

var nopLogger = slog.New(discardHandler{})

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }

// New creates a Store using a local SQLite file at dbPath. It opens a
// single shared connection with SetMaxOpenConns(1) so that all goroutines
// serialize through one connection, eliminating SQLITE_BUSY errors caused
// by concurrent writers opening independent connections.
func New(dbPath string, opts ...Option) *Store {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		// sql.Open only fails when the driver is not registered; with the
		// blank import above that never happens.
		panic(fmt.Sprintf("sqlite: open driver: %v", err))
	}
	db.SetMaxOpenConns(1)
	s := &Store{db: db, logger: nopLogger, seq: make(map[string]int64)}
	for _, o := range opts {
		o(s)
	}
	s.logger.Debug("sqlite: store opened", "path", dbPath)
	return s
}

// Start creates tables and primes the per-sub sequence counters.
func (s *Store) Start(ctx context.Context) error {
	start := time.Now()
	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS records (
		sub TEXT NOT NULL,
		seq INTEGER NOT NULL,
		data TEXT NOT NULL,
		PRIMARY KEY (sub, seq)
	)`); err != nil {
		return fmt.Errorf("sqlite: create records table: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS memory (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		data TEXT NOT NULL
	)`); err != nil {
		return fmt.Errorf("sqlite: create memory table: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT sub, MAX(seq) FROM records GROUP BY sub`)
	if err != nil {
		return fmt.Errorf("sqlite: prime sequence: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var sub string
		var max int64
		if err := rows.Scan(&sub, &max); err != nil {
			return fmt.Errorf("sqlite: scan sequence: %w", err)
		}
		s.seq[sub] = max
	}

	s.logger.Info("sqlite: start completed", "duration", time.Since(start))
	return rows.Err()
}

// Shutdown closes the underlying database connection.
func (s *Store) Shutdown(ctx context.Context) error {
	s.logger.Debug("sqlite: shutdown")
	return s.db.Close()
}

// Keep implements thoughtbot.StorageAdapter.
func (s *Store) Keep(ctx context.Context, sub string, data map[string]any) error {
	start := time.Now()
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("sqlite: marshal record: %w", err)
	}
	s.seq[sub]++
	seq := s.seq[sub]

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO records (sub, seq, data) VALUES (?, ?, ?)`,
		sub, seq, string(payload),
	)
	if err != nil {
		s.logger.Error("sqlite: keep failed", "sub", sub, "error", err, "duration", time.Since(start))
		return fmt.Errorf("sqlite: keep: %w", err)
	}
	s.logger.Debug("sqlite: keep ok", "sub", sub, "seq", seq, "duration", time.Since(start))
	return nil
}

// Find implements thoughtbot.StorageAdapter by scanning sub and applying
// shallow key-equality matching in Go. Record volumes in this runtime are
// small enough that brute-force scan beats a generalized JSON-path query.
func (s *Store) Find(ctx context.Context, sub string, params map[string]any) ([]map[string]any, error) {
	start := time.Now()
	rows, err := s.db.QueryContext(ctx, `SELECT data FROM records WHERE sub = ? ORDER BY seq`, sub)
	if err != nil {
		return nil, fmt.Errorf("sqlite: find: %w", err)
	}
	defer rows.Close()

	var out []map[string]any
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("sqlite: scan record: %w", err)
		}
		var rec map[string]any
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("sqlite: unmarshal record: %w", err)
		}
		if matches(rec, params) {
			out = append(out, rec)
		}
	}
	s.logger.Debug("sqlite: find ok", "sub", sub, "returned", len(out), "duration", time.Since(start))
	return out, rows.Err()
}

// FindOne implements thoughtbot.StorageAdapter.
func (s *Store) FindOne(ctx context.Context, sub string, params map[string]any) (map[string]any, bool, error) {
	all, err := s.Find(ctx, sub, params)
	if err != nil || len(all) == 0 {
		return nil, false, err
	}
	return all[0], true, nil
}

// Lose implements thoughtbot.StorageAdapter.
func (s *Store) Lose(ctx context.Context, sub string, params map[string]any) error {
	start := time.Now()
	rows, err := s.db.QueryContext(ctx, `SELECT seq, data FROM records WHERE sub = ?`, sub)
	if err != nil {
		return fmt.Errorf("sqlite: lose: %w", err)
	}

	var doomed []int64
	for rows.Next() {
		var seq int64
		var raw string
		if err := rows.Scan(&seq, &raw); err != nil {
			rows.Close()
			return fmt.Errorf("sqlite: scan record: %w", err)
		}
		var rec map[string]any
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			rows.Close()
			return fmt.Errorf("sqlite: unmarshal record: %w", err)
		}
		if matches(rec, params) {
			doomed = append(doomed, seq)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, seq := range doomed {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE sub = ? AND seq = ?`, sub, seq); err != nil {
			return fmt.Errorf("sqlite: delete record: %w", err)
		}
	}
	s.logger.Debug("sqlite: lose ok", "sub", sub, "deleted", len(doomed), "duration", time.Since(start))
	return nil
}

// SaveMemory implements thoughtbot.StorageAdapter.
func (s *Store) SaveMemory(ctx context.Context, data map[string]any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("sqlite: marshal memory: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO memory (id, data) VALUES (1, ?) ON CONFLICT(id) DO UPDATE SET data = excluded.data`,
		string(payload),
	)
	if err != nil {
		return fmt.Errorf("sqlite: save memory: %w", err)
	}
	return nil
}

// LoadMemory implements thoughtbot.StorageAdapter.
func (s *Store) LoadMemory(ctx context.Context) (map[string]any, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM memory WHERE id = 1`).Scan(&raw)
	if err == sql.ErrNoRows {
		return map[string]any{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: load memory: %w", err)
	}
	var data map[string]any
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, fmt.Errorf("sqlite: unmarshal memory: %w", err)
	}
	return data, nil
}

// matches reports whether rec contains every key/value pair in params.
func matches(rec, params map[string]any) bool {
	for k, v := range params {
		got, ok := rec[k]
		if !ok || fmt.Sprintf("%v", got) != fmt.Sprintf("%v", v) {
			return false
		}
	}
	return true
}

var _ thoughtbot.StorageAdapter = (*Store)(nil)
