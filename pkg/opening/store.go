package opening

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

const schema = `CREATE TABLE IF NOT EXISTS openings (
	moves     TEXT PRIMARY KEY,
	eco       TEXT NOT NULL,
	variation TEXT NOT NULL
)`

// Store is the precomputed book file. It is written once by the book build
// step and read once at startup.
type Store struct {
	db *sql.DB
}

// OpenStore opens (or creates) the SQLite book file at path.
func OpenStore(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("opening: book path is required")
	}
	db, err := sql.Open("sqlite", filepath.Clean(path)+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open book db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping book db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create book schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save replaces the stored book with entries.
func (s *Store) Save(ctx context.Context, entries map[string]Entry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM openings`); err != nil {
		return fmt.Errorf("clear openings: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO openings (moves, eco, variation) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()
	for moves, e := range entries {
		if _, err := stmt.ExecContext(ctx, moves, e.ECO, e.Variation); err != nil {
			return fmt.Errorf("insert %q: %w", moves, err)
		}
	}
	return tx.Commit()
}

// Load reads the whole book into memory.
func (s *Store) Load(ctx context.Context) (*Book, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT moves, eco, variation FROM openings`)
	if err != nil {
		return nil, fmt.Errorf("query openings: %w", err)
	}
	defer rows.Close()

	entries := make(map[string]Entry)
	for rows.Next() {
		var moves string
		var e Entry
		if err := rows.Scan(&moves, &e.ECO, &e.Variation); err != nil {
			return nil, fmt.Errorf("scan opening: %w", err)
		}
		entries[moves] = e
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &Book{entries: entries}, nil
}

// LoadFile opens the book file at path, reads it and closes it.
func LoadFile(ctx context.Context, path string) (*Book, error) {
	s, err := OpenStore(path)
	if err != nil {
		return nil, err
	}
	defer s.Close()
	return s.Load(ctx)
}
