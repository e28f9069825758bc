package theme

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/gnana997/lesstheme/pkg/probe"
)

// DefaultPaletteKey is the key builds save their default palette under.
const DefaultPaletteKey = "default"

const paletteSchema = `
CREATE TABLE IF NOT EXISTS palettes (
    key TEXT PRIMARY KEY,
    palette TEXT NOT NULL,
    updated_at INTEGER NOT NULL
);

-- Sentinels of earlier probe passes, keyed by probe input
CREATE TABLE IF NOT EXISTS assignments (
    key TEXT PRIMARY KEY,
    assignment TEXT NOT NULL,
    updated_at INTEGER NOT NULL
);
`

// PaletteStore persists palettes and probe sentinels in SQLite so
// separate runs agree on both.
type PaletteStore struct {
	db *sql.DB
}

// OpenPaletteStore opens or creates the database at path.
func OpenPaletteStore(path string) (*PaletteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	dsn := path +
		"?_pragma=journal_mode(WAL)" +
		"&_pragma=synchronous(NORMAL)" +
		"&_pragma=busy_timeout(5000)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if _, err := db.Exec(paletteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &PaletteStore{db: db}, nil
}

// Save stores p under key, replacing what was there.
func (s *PaletteStore) Save(ctx context.Context, key string, p Palette) error {
	return s.put(ctx, "palettes", "palette", key, p)
}

// Load returns the palette under key. The bool is false when there is
// none.
func (s *PaletteStore) Load(ctx context.Context, key string) (Palette, bool, error) {
	var p Palette
	ok, err := s.get(ctx, "palettes", "palette", key, &p)
	return p, ok, err
}

// SaveAssignment stores the sentinels of a probe pass under its key.
func (s *PaletteStore) SaveAssignment(ctx context.Context, key string, a probe.Assignment) error {
	return s.put(ctx, "assignments", "assignment", key, a)
}

// LoadAssignment returns the sentinels stored under key.
func (s *PaletteStore) LoadAssignment(ctx context.Context, key string) (*probe.Assignment, bool, error) {
	var a probe.Assignment
	ok, err := s.get(ctx, "assignments", "assignment", key, &a)
	if !ok || err != nil {
		return nil, ok, err
	}
	return &a, true, nil
}

// Close closes the database.
func (s *PaletteStore) Close() error {
	return s.db.Close()
}

func (s *PaletteStore) put(ctx context.Context, table, column, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", column, err)
	}
	query := fmt.Sprintf(`INSERT INTO %s (key, %s, updated_at) VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET %s = excluded.%s, updated_at = excluded.updated_at`, table, column, column, column)
	if _, err := s.db.ExecContext(ctx, query, key, string(data), time.Now().UnixNano()); err != nil {
		return fmt.Errorf("failed to save %s %s: %w", column, key, err)
	}
	return nil
}

func (s *PaletteStore) get(ctx context.Context, table, column, key string, v any) (bool, error) {
	var data string
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE key = ?`, column, table)
	err := s.db.QueryRowContext(ctx, query, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load %s %s: %w", column, key, err)
	}
	if err := json.Unmarshal([]byte(data), v); err != nil {
		return false, fmt.Errorf("failed to decode %s %s: %w", column, key, err)
	}
	return true, nil
}
