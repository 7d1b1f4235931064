// Package store provides the SQLite-backed image catalog for shutter.
package store

import (
	"database/sql"
	"fmt"
	"sync"

	"github.com/abelbrown/shutter/internal/catalog"
	_ "modernc.org/sqlite"
)

// Store holds the image catalog. Concrete type, not an interface.
// Thread-safety: all methods are safe for concurrent use via internal mutex.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open opens (or creates) the catalog at dbPath. ":memory:" gives a private
// in-memory catalog.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if dbPath == ":memory:" {
		// Each connection to :memory: is its own database; keep exactly one.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if dbPath != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	s := &Store{db: db}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return s, nil
}

// createTables creates the items table. position keeps insertion order, which
// is the collection order the gallery filters over.
func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS items (
		url TEXT PRIMARY KEY,
		category TEXT NOT NULL,
		title TEXT NOT NULL,
		position INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_items_position ON items(position);
	CREATE INDEX IF NOT EXISTS idx_items_category ON items(category);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// SaveItems appends items to the catalog, returning how many were new.
// Items whose URL is already present are skipped (INSERT OR IGNORE).
// Invalid items are rejected before anything is written.
func (s *Store) SaveItems(items []catalog.Item) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}
	for i, it := range items {
		if it.URL == "" {
			return 0, fmt.Errorf("item %d: empty url", i)
		}
		if !it.Category.Valid() {
			return 0, fmt.Errorf("item %d: %w: %q", i, catalog.ErrUnknownCategory, it.Category)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var next int
	if err := tx.QueryRow("SELECT COALESCE(MAX(position), -1) + 1 FROM items").Scan(&next); err != nil {
		return 0, fmt.Errorf("next position: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT OR IGNORE INTO items (url, category, title, position) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	newCount := 0
	for _, it := range items {
		result, err := stmt.Exec(it.URL, string(it.Category), it.Title, next)
		if err != nil {
			return 0, fmt.Errorf("insert %s: %w", it.URL, err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return 0, err
		}
		if affected > 0 {
			newCount++
			next++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return newCount, nil
}

// SeedIfEmpty saves items only when the catalog has none. Returns the number inserted.
func (s *Store) SeedIfEmpty(items []catalog.Item) (int, error) {
	n, err := s.Count()
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}
	return s.SaveItems(items)
}

// Items returns the whole catalog in insertion order.
func (s *Store) Items() ([]catalog.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryItems(`SELECT url, category, title FROM items ORDER BY position`)
}

// ItemsByCategory returns the catalog items of one category in insertion order.
func (s *Store) ItemsByCategory(c catalog.Category) ([]catalog.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryItems(`SELECT url, category, title FROM items WHERE category = ? ORDER BY position`, string(c))
}

// Count returns the number of catalog items.
func (s *Store) Count() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM items").Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// queryItems scans rows into Items. Caller must hold s.mu.
func (s *Store) queryItems(query string, args ...any) ([]catalog.Item, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []catalog.Item
	for rows.Next() {
		var it catalog.Item
		var category string
		if err := rows.Scan(&it.URL, &category, &it.Title); err != nil {
			return nil, err
		}
		it.Category = catalog.Category(category)
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
