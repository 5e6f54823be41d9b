// Package storage provides SQLite-based persistence for best scores and
// export history. Uses the pure-Go modernc.org/sqlite driver to avoid CGO
// dependencies.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// Store manages the SQLite database connection.
type Store struct {
	db *sql.DB
}

// ScoreEntry represents a single score record. ScoreKey is the browser
// storage key the game keeps its best under.
type ScoreEntry struct {
	ID        int64     `json:"id"`
	GameID    string    `json:"gameId"`
	ScoreKey  string    `json:"scoreKey"`
	Score     int       `json:"score"`
	CreatedAt time.Time `json:"createdAt"`
}

// ExportRecord is one finished export.
type ExportRecord struct {
	ID            int64     `json:"id"`
	ExportID      string    `json:"exportId"`
	GameID        string    `json:"gameId"`
	UserSessionID string    `json:"userSessionId"`
	Strategy      string    `json:"strategy"`
	Files         int       `json:"files"`
	Bytes         int64     `json:"bytes"`
	Unmatched     []string  `json:"unmatched,omitempty"` // Rewrite patterns that found nothing
	CreatedAt     time.Time `json:"createdAt"`
}

// Open creates or opens a SQLite database at the given path.
// It creates the parent directories if needed and runs migrations.
func Open(dbPath string) (*Store, error) {
	// Expand ~ to home directory
	if dbPath != "" && dbPath[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("storage: cannot expand home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	// Create parent directories
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	store := &Store{db: db}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}

	return store, nil
}

// migrate creates the database schema if it doesn't exist.
func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS scores (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			game_id TEXT NOT NULL,
			score_key TEXT NOT NULL,
			score INTEGER NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_scores_game_id ON scores(game_id);
		CREATE INDEX IF NOT EXISTS idx_scores_top ON scores(game_id, score DESC);

		CREATE TABLE IF NOT EXISTS exports (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			export_id TEXT NOT NULL UNIQUE,
			game_id TEXT NOT NULL,
			user_session_id TEXT NOT NULL,
			strategy TEXT NOT NULL,
			files INTEGER NOT NULL DEFAULT 0,
			bytes INTEGER NOT NULL DEFAULT 0,
			unmatched TEXT NOT NULL DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_exports_game_id ON exports(game_id);
		CREATE INDEX IF NOT EXISTS idx_exports_session ON exports(user_session_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// parseTime handles both time.Time and string datetimes from the driver.
func parseTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		if parsed, err := time.Parse("2006-01-02 15:04:05", t); err == nil {
			return parsed
		}
	}
	return time.Time{}
}

// SaveScore records a new score for the given game.
// Returns the ID of the inserted record.
func (s *Store) SaveScore(gameID, scoreKey string, score int) (int64, error) {
	if score < 0 {
		return 0, fmt.Errorf("storage: negative score %d", score)
	}
	result, err := s.db.Exec(
		"INSERT INTO scores (game_id, score_key, score) VALUES (?, ?, ?)",
		gameID, scoreKey, score,
	)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot save score: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot get inserted ID: %w", err)
	}

	return id, nil
}

// TopScores retrieves the top N scores for the given game.
// Results are ordered by score descending.
func (s *Store) TopScores(gameID string, limit int) ([]ScoreEntry, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.Query(
		`SELECT id, game_id, score_key, score, created_at
		 FROM scores
		 WHERE game_id = ?
		 ORDER BY score DESC, id ASC
		 LIMIT ?`,
		gameID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query scores: %w", err)
	}
	defer rows.Close()

	var entries []ScoreEntry
	for rows.Next() {
		var e ScoreEntry
		var createdAt any
		if err := rows.Scan(&e.ID, &e.GameID, &e.ScoreKey, &e.Score, &createdAt); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		e.CreatedAt = parseTime(createdAt)
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return entries, nil
}

// HighScore returns the highest score for the given game.
// Returns 0 if no scores exist.
func (s *Store) HighScore(gameID string) (int, error) {
	var score sql.NullInt64
	err := s.db.QueryRow(
		"SELECT MAX(score) FROM scores WHERE game_id = ?",
		gameID,
	).Scan(&score)

	if err != nil {
		return 0, fmt.Errorf("storage: cannot query high score: %w", err)
	}

	if !score.Valid {
		return 0, nil
	}

	return int(score.Int64), nil
}

// ClearScores deletes all scores for the given game.
func (s *Store) ClearScores(gameID string) error {
	_, err := s.db.Exec("DELETE FROM scores WHERE game_id = ?", gameID)
	if err != nil {
		return fmt.Errorf("storage: cannot clear scores: %w", err)
	}
	return nil
}

// RecordExport stores a finished export.
// Returns the ID of the inserted record.
func (s *Store) RecordExport(rec ExportRecord) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO exports
		 (export_id, game_id, user_session_id, strategy, files, bytes, unmatched)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ExportID,
		rec.GameID,
		rec.UserSessionID,
		rec.Strategy,
		rec.Files,
		rec.Bytes,
		strings.Join(rec.Unmatched, ","),
	)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot record export: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot get inserted ID: %w", err)
	}

	return id, nil
}

const exportColumns = `id, export_id, game_id, user_session_id, strategy, files, bytes, unmatched, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanExport(row scanner) (ExportRecord, error) {
	var rec ExportRecord
	var unmatched string
	var createdAt any
	err := row.Scan(
		&rec.ID,
		&rec.ExportID,
		&rec.GameID,
		&rec.UserSessionID,
		&rec.Strategy,
		&rec.Files,
		&rec.Bytes,
		&unmatched,
		&createdAt,
	)
	if err != nil {
		return ExportRecord{}, err
	}
	if unmatched != "" {
		rec.Unmatched = strings.Split(unmatched, ",")
	}
	rec.CreatedAt = parseTime(createdAt)
	return rec, nil
}

// ExportByID retrieves an export by its export ID.
// Returns nil if there is no such export.
func (s *Store) ExportByID(exportID string) (*ExportRecord, error) {
	rec, err := scanExport(s.db.QueryRow(
		`SELECT `+exportColumns+` FROM exports WHERE export_id = ?`,
		exportID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query export: %w", err)
	}
	return &rec, nil
}

// RecentExports retrieves the most recent exports, newest first. An empty
// gameID matches every game.
func (s *Store) RecentExports(gameID string, limit int) ([]ExportRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		`SELECT `+exportColumns+`
		 FROM exports
		 WHERE ? = '' OR game_id = ?
		 ORDER BY id DESC
		 LIMIT ?`,
		gameID, gameID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query exports: %w", err)
	}
	defer rows.Close()

	var results []ExportRecord
	for rows.Next() {
		rec, err := scanExport(rows)
		if err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		results = append(results, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return results, nil
}
