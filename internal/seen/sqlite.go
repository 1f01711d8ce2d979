package seen

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "embed"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// SQLite is a Store persisted to disk, so dedup state survives process
// restarts.
type SQLite struct {
	db    *sql.DB
	limit int
}

// Open creates or opens a sqlite-backed store at path, bounded to limit rows.
func Open(path string, limit int) (*SQLite, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("path is required")
	}
	if limit <= 0 {
		limit = 1000
	}

	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set journal mode: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &SQLite{db: db, limit: limit}, nil
}

func (s *SQLite) Seen(id string) (bool, error) {
	var one int
	err := s.db.QueryRow("SELECT 1 FROM seen_posts WHERE id = ?", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query seen: %w", err)
	}
	return true, nil
}

func (s *SQLite) Add(id string) error {
	if _, err := s.db.Exec(
		"INSERT OR IGNORE INTO seen_posts (id, seen_at) VALUES (?, ?)",
		id, time.Now().UnixNano(),
	); err != nil {
		return fmt.Errorf("insert seen: %w", err)
	}

	// Prune to the newest limit rows.
	if _, err := s.db.Exec(`
		DELETE FROM seen_posts WHERE id NOT IN (
			SELECT id FROM seen_posts ORDER BY seen_at DESC LIMIT ?
		)`, s.limit); err != nil {
		return fmt.Errorf("prune seen: %w", err)
	}
	return nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
