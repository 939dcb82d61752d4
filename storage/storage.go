// Package storage persists rollout results from the simulate CLI into
// SQLite, using the pure-Go modernc.org/sqlite driver. The core
// engines never touch it; persistence is strictly a tooling concern.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // pure Go SQLite driver
)

// Store manages the SQLite database holding run records.
type Store struct {
	db *sql.DB
}

// RunRecord is one finished game.
type RunRecord struct {
	ID        int64
	Mode      string // "rot" or "noro"
	Seed      uint64
	Score     int
	Lines     int
	Pieces    int
	BoardHash uint64
	CreatedAt time.Time
}

// Open creates or opens the database at the given path and runs
// migrations.
func Open(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			mode TEXT NOT NULL,
			seed INTEGER NOT NULL,
			score INTEGER NOT NULL,
			lines INTEGER NOT NULL,
			pieces INTEGER NOT NULL,
			board_hash INTEGER NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_runs_mode ON runs(mode, score DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

// InsertRun records one finished game.
func (s *Store) InsertRun(r RunRecord) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO runs (mode, seed, score, lines, pieces, board_hash) VALUES (?, ?, ?, ?, ?, ?)`,
		r.Mode, int64(r.Seed), r.Score, r.Lines, r.Pieces, int64(r.BoardHash))
	if err != nil {
		return 0, fmt.Errorf("storage: insert run: %w", err)
	}
	return res.LastInsertId()
}

// TopRuns returns the highest-scoring runs of a mode.
func (s *Store) TopRuns(mode string, limit int) ([]RunRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, mode, seed, score, lines, pieces, board_hash, created_at
		 FROM runs WHERE mode = ? ORDER BY score DESC, id ASC LIMIT ?`, mode, limit)
	if err != nil {
		return nil, fmt.Errorf("storage: query runs: %w", err)
	}
	defer rows.Close()
	var out []RunRecord
	for rows.Next() {
		var r RunRecord
		var seed, hash int64
		if err := rows.Scan(&r.ID, &r.Mode, &seed, &r.Score, &r.Lines, &r.Pieces, &hash, &r.CreatedAt); err != nil {
			return nil, err
		}
		r.Seed = uint64(seed)
		r.BoardHash = uint64(hash)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close closes the database connection.
func (s *Store) Close() error { return s.db.Close() }
