// Package postgres implements thoughtbot.StorageAdapter using PostgreSQL.
//
// Store accepts an externally-owned *pgxpool.Pool via constructor
// injection; the caller creates and closes the pool.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	thoughtbot "github.com/nevindra/thoughtbot"
)

// Store implements thoughtbot.StorageAdapter backed by PostgreSQL. Every
// sub is an append-only (sub, seq, data) row set; sub "memory" lives in a
// single-row table instead.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a Store using an existing pgxpool.Pool. The caller owns the
// pool and is responsible for closing it.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Start creates the backing tables if they do not already exist.
func (s *Store) Start(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS records (
		sub TEXT NOT NULL,
		seq BIGINT NOT NULL,
		data JSONB NOT NULL,
		PRIMARY KEY (sub, seq)
	)`); err != nil {
		return fmt.Errorf("postgres: create records table: %w", err)
	}
	if _, err := s.pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS memory (
		id SMALLINT PRIMARY KEY DEFAULT 1 CHECK (id = 1),
		data JSONB NOT NULL
	)`); err != nil {
		return fmt.Errorf("postgres: create memory table: %w", err)
	}
	if _, err := s.pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS record_sequences (
		sub TEXT PRIMARY KEY,
		next BIGINT NOT NULL DEFAULT 1
	)`); err != nil {
		return fmt.Errorf("postgres: create sequence table: %w", err)
	}
	return nil
}

// nextSeq atomically allocates the next sequence number for sub.
func (s *Store) nextSeq(ctx context.Context, sub string) (int64, error) {
	var seq int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO record_sequences (sub, next) VALUES ($1, 2)
		 ON CONFLICT (sub) DO UPDATE SET next = record_sequences.next + 1
		 RETURNING next - 1`, sub,
	).Scan(&seq)
	return seq, err
}

// Shutdown is a no-op: the caller owns the pool's lifecycle.
func (s *Store) Shutdown(ctx context.Context) error { return nil }

// Keep implements thoughtbot.StorageAdapter.
func (s *Store) Keep(ctx context.Context, sub string, data map[string]any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("postgres: marshal record: %w", err)
	}
	seq, err := s.nextSeq(ctx, sub)
	if err != nil {
		return fmt.Errorf("postgres: allocate sequence: %w", err)
	}
	if _, err := s.pool.Exec(ctx,
		`INSERT INTO records (sub, seq, data) VALUES ($1, $2, $3)`, sub, seq, payload,
	); err != nil {
		return fmt.Errorf("postgres: keep: %w", err)
	}
	return nil
}

// Find implements thoughtbot.StorageAdapter. The JSONB payload is matched
// against params via the @> containment operator, pushing key-equality
// filtering down to Postgres instead of scanning in Go.
func (s *Store) Find(ctx context.Context, sub string, params map[string]any) ([]map[string]any, error) {
	if params == nil {
		params = map[string]any{}
	}
	filter, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("postgres: marshal filter: %w", err)
	}
	rows, err := s.pool.Query(ctx,
		`SELECT data FROM records WHERE sub = $1 AND data @> $2 ORDER BY seq`, sub, filter)
	if err != nil {
		return nil, fmt.Errorf("postgres: find: %w", err)
	}
	defer rows.Close()

	var out []map[string]any
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("postgres: scan record: %w", err)
		}
		var rec map[string]any
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("postgres: unmarshal record: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// FindOne implements thoughtbot.StorageAdapter.
func (s *Store) FindOne(ctx context.Context, sub string, params map[string]any) (map[string]any, bool, error) {
	if params == nil {
		params = map[string]any{}
	}
	filter, err := json.Marshal(params)
	if err != nil {
		return nil, false, fmt.Errorf("postgres: marshal filter: %w", err)
	}
	var raw []byte
	err = s.pool.QueryRow(ctx,
		`SELECT data FROM records WHERE sub = $1 AND data @> $2 ORDER BY seq LIMIT 1`, sub, filter,
	).Scan(&raw)
	if err == pgx.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("postgres: find one: %w", err)
	}
	var rec map[string]any
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, false, fmt.Errorf("postgres: unmarshal record: %w", err)
	}
	return rec, true, nil
}

// Lose implements thoughtbot.StorageAdapter.
func (s *Store) Lose(ctx context.Context, sub string, params map[string]any) error {
	if params == nil {
		params = map[string]any{}
	}
	filter, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("postgres: marshal filter: %w", err)
	}
	if _, err := s.pool.Exec(ctx, `DELETE FROM records WHERE sub = $1 AND data @> $2`, sub, filter); err != nil {
		return fmt.Errorf("postgres: lose: %w", err)
	}
	return nil
}

// SaveMemory implements thoughtbot.StorageAdapter.
func (s *Store) SaveMemory(ctx context.Context, data map[string]any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("postgres: marshal memory: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO memory (id, data) VALUES (1, $1)
		 ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data`, payload)
	if err != nil {
		return fmt.Errorf("postgres: save memory: %w", err)
	}
	return nil
}

// LoadMemory implements thoughtbot.StorageAdapter.
func (s *Store) LoadMemory(ctx context.Context) (map[string]any, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM memory WHERE id = 1`).Scan(&raw)
	if err == pgx.ErrNoRows {
		return map[string]any{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: load memory: %w", err)
	}
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("postgres: unmarshal memory: %w", err)
	}
	return data, nil
}

var _ thoughtbot.StorageAdapter = (*Store)(nil)
