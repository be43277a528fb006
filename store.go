package main

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
)

// The snapshot lives in a single named row. Visitor metrics share the same
// database file (see admin.go) but never touch this table.
const snapshotName = "site"

const snapshotSchema = `
CREATE TABLE IF NOT EXISTS snapshots (
	name TEXT PRIMARY KEY,
	data TEXT NOT NULL,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
)`

// ContentStore owns the canonical SiteData and its persisted snapshot.
// Commits are persist-then-swap: the in-memory value only advances after the
// row is written, so a failed write leaves memory and disk agreeing on the
// previous commit.
type ContentStore struct {
	db *sql.DB

	mu   sync.Mutex
	data SiteData
}

// NewContentStore creates the snapshot table if needed and loads the
// current snapshot (or the defaults) into memory.
func NewContentStore(db *sql.DB) (*ContentStore, error) {
	if _, err := db.Exec(snapshotSchema); err != nil {
		return nil, fmt.Errorf("create snapshots table: %w", err)
	}
	s := &ContentStore{db: db}
	s.data = s.load()
	return s, nil
}

// load reads the persisted snapshot. A missing row means first boot; a
// corrupt or unreadable row falls back to defaults with a diagnostic. Neither
// case is surfaced to the caller as an error.
func (s *ContentStore) load() SiteData {
	var raw string
	err := s.db.QueryRow(`SELECT data FROM snapshots WHERE name = ?`, snapshotName).Scan(&raw)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return defaultSiteData()
	case err != nil:
		log.Printf("Error reading snapshot, using default content: %v", err)
		return defaultSiteData()
	}

	var data SiteData
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		log.Printf("Corrupt snapshot, using default content: %v", err)
		return defaultSiteData()
	}
	return data
}

// Data returns a copy of the committed content.
func (s *ContentStore) Data() SiteData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.Clone()
}

// Commit persists next and makes it the committed content. If the write
// fails, the previous commit stays visible.
func (s *ContentStore) Commit(next SiteData) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO snapshots (name, data, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(name) DO UPDATE SET data = excluded.data, updated_at = CURRENT_TIMESTAMP`,
		snapshotName, string(raw))
	if err != nil {
		return fmt.Errorf("persist snapshot: %w", err)
	}

	s.data = next.Clone()
	return nil
}

// Reset deletes the persisted snapshot and restores the default content.
// Irreversible; callers must confirm before invoking. Safe to call repeatedly.
func (s *ContentStore) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(`DELETE FROM snapshots WHERE name = ?`, snapshotName); err != nil {
		return fmt.Errorf("clear snapshot: %w", err)
	}
	s.data = defaultSiteData()
	return nil
}
