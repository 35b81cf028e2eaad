// Package store owns the in-memory collection of entries keyed by
// citation key, with an optional sqlite-backed journal for durable
// commits.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/bet-lab/reference-validator/internal/model"
)

// row is the sqlite journal's schema: one row per (citekey, field).
type row struct {
	CiteKey string `db:"citekey"`
	Field   string `db:"field"`
	Value   string `db:"value"`
}

// batchSize is the chunk size writeJournal walks an entry's rows in;
// each row is still written by its own single-row INSERT.
const batchSize = 500

// Store is the Record Store: an in-memory map of entries, mutated only
// through Session State commits, which are serialized on a single
// mutex. Readers may observe a consistent snapshot concurrently with a
// commit.
type Store struct {
	mu      sync.RWMutex
	entries map[string]model.Entry
	order   []string

	journal *sqlx.DB
}

// New builds an empty Store. journal may be nil, in which case commits
// are in-memory only.
func New(journal *sqlx.DB) *Store {
	return &Store{entries: make(map[string]model.Entry), journal: journal}
}

// Load seeds the store from a freshly parsed, normalized set of
// entries, establishing citekey uniqueness and the original input
// order used for final serialization.
func (s *Store) Load(entries []model.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]model.Entry, len(entries))
	s.order = make([]string, 0, len(entries))
	for _, e := range entries {
		if _, exists := s.entries[e.CiteKey]; exists {
			return fmt.Errorf("store: duplicate citekey %q", e.CiteKey)
		}
		s.entries[e.CiteKey] = e
		s.order = append(s.order, e.CiteKey)
	}
	return nil
}

// Get returns a copy of the entry for citeKey.
func (s *Store) Get(citeKey string) (model.Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[citeKey]
	if !ok {
		return model.Entry{}, false
	}
	return e.Clone(), true
}

// All returns every entry in input order.
func (s *Store) All() []model.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Entry, 0, len(s.order))
	for _, key := range s.order {
		out = append(out, s.entries[key].Clone())
	}
	return out
}

// Commit applies mutate to citeKey's entry and, if a journal is
// configured, persists the entry's full field set atomically before
// making the mutation visible to readers. On a journal failure the
// in-memory state is rolled back to its pre-commit value.
func (s *Store) Commit(ctx context.Context, citeKey string, mutate func(*model.Entry)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[citeKey]
	if !ok {
		return fmt.Errorf("store: unknown citekey %q", citeKey)
	}
	before := entry.Clone()
	mutate(&entry)

	if s.journal != nil {
		if err := s.writeJournal(ctx, entry); err != nil {
			s.entries[citeKey] = before
			return fmt.Errorf("store: commit %q: %w", citeKey, err)
		}
	}
	s.entries[citeKey] = entry
	return nil
}

func (s *Store) writeJournal(ctx context.Context, entry model.Entry) error {
	tx, err := s.journal.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM entry_fields WHERE citekey = ?`, entry.CiteKey); err != nil {
		return err
	}

	fields := make([]string, 0, len(entry.Fields))
	for f := range entry.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	rows := make([]row, 0, len(fields))
	for _, f := range fields {
		rows = append(rows, row{CiteKey: entry.CiteKey, Field: f, Value: entry.Fields[f]})
	}
	for start := 0; start < len(rows); start += batchSize {
		end := start + batchSize
		if end > len(rows) {
			end = len(rows)
		}
		for _, r := range rows[start:end] {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO entry_fields (citekey, field, value) VALUES (?, ?, ?)`,
				r.CiteKey, r.Field, r.Value); err != nil {
				return err
			}
		}
	}
	return tx.Commit()
}

// EnsureSchema creates the journal table if it doesn't already exist.
func EnsureSchema(db *sqlx.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS entry_fields (
			citekey TEXT NOT NULL,
			field   TEXT NOT NULL,
			value   TEXT NOT NULL,
			PRIMARY KEY (citekey, field)
		)
	`)
	return err
}
