package storage

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/lib/pq"

	"github.com/deusflow/maralert/internal/logger"
)

// PostgresStore keeps seen ids in a database table, for deployments where a
// local state file does not survive between runs. Pending ids collect in
// memory and flush once at Save, matching the file store's
// load-once/persist-once lifecycle.
type PostgresStore struct {
	db      *sql.DB
	mu      sync.Mutex
	seen    map[string]struct{}
	pending []string
}

func NewPostgresStore(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &PostgresStore{
		db:   db,
		seen: make(map[string]struct{}),
	}
	if err := store.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *PostgresStore) ensureSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS seen_messages (
			id TEXT PRIMARY KEY,
			seen_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS run_log (
			id SERIAL PRIMARY KEY,
			ran_at TIMESTAMPTZ NOT NULL,
			new_items INTEGER NOT NULL DEFAULT 0
		)`,
	}
	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// Load pulls the seen-id set into memory. Query failures degrade to an
// empty set, same as a missing state file.
func (s *PostgresStore) Load() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seen = make(map[string]struct{})
	s.pending = nil

	rows, err := s.db.Query(`SELECT id FROM seen_messages`)
	if err != nil {
		logger.Warn("seen-id query failed, starting fresh", "error", err)
		return
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			logger.Warn("seen-id scan failed", "error", err)
			continue
		}
		s.seen[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		logger.Warn("seen-id iteration failed", "error", err)
	}
	logger.Debug("state loaded from database", "seen", len(s.seen))
}

func (s *PostgresStore) IsNew(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.seen[id]
	return !ok
}

func (s *PostgresStore) MarkSeen(id string) {
	if id == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seen[id]; ok {
		return
	}
	s.seen[id] = struct{}{}
	s.pending = append(s.pending, id)
}

// Save flushes this run's ids in one transaction and appends a run-log row.
func (s *PostgresStore) Save(lastRun time.Time) error {
	s.mu.Lock()
	pending := make([]string, len(s.pending))
	copy(pending, s.pending)
	s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	for _, id := range pending {
		if _, err := tx.Exec(
			`INSERT INTO seen_messages (id, seen_at) VALUES ($1, $2) ON CONFLICT (id) DO NOTHING`,
			id, lastRun,
		); err != nil {
			return fmt.Errorf("insert seen id: %w", err)
		}
	}
	if _, err := tx.Exec(
		`INSERT INTO run_log (ran_at, new_items) VALUES ($1, $2)`,
		lastRun, len(pending),
	); err != nil {
		return fmt.Errorf("insert run log: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}

	s.mu.Lock()
	s.pending = nil
	s.mu.Unlock()
	return nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
