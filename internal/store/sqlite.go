package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/amishk599/atsexpert/internal/model"
)

// SQLiteStore keeps completed analyses in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and ensures the
// analyses table exists.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Verify the connection is alive.
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	createTable := `CREATE TABLE IF NOT EXISTS analyses (
		id          TEXT PRIMARY KEY,
		created_at  DATETIME NOT NULL,
		file_name   TEXT NOT NULL,
		file_sha256 TEXT NOT NULL,
		mode        TEXT NOT NULL,
		provider    TEXT NOT NULL,
		model       TEXT NOT NULL,
		pages       INTEGER NOT NULL,
		response    TEXT NOT NULL
	)`
	if _, err := db.Exec(createTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating analyses table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Save inserts rec. A missing ID or timestamp is filled in.
func (s *SQLiteStore) Save(ctx context.Context, rec model.AnalysisRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO analyses (id, created_at, file_name, file_sha256, mode, provider, model, pages, response)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.CreatedAt.UTC(), rec.FileName, rec.FileSHA256, string(rec.Mode),
		rec.Provider, rec.Model, rec.Pages, rec.Response,
	)
	if err != nil {
		return fmt.Errorf("saving analysis %s: %w", rec.ID, err)
	}
	return nil
}

// Recent returns up to limit records, newest first.
func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]model.AnalysisRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, file_name, file_sha256, mode, provider, model, pages, response
		 FROM analyses ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing analyses: %w", err)
	}
	defer rows.Close()

	var out []model.AnalysisRecord
	for rows.Next() {
		var rec model.AnalysisRecord
		var mode string
		if err := rows.Scan(&rec.ID, &rec.CreatedAt, &rec.FileName, &rec.FileSHA256, &mode,
			&rec.Provider, &rec.Model, &rec.Pages, &rec.Response); err != nil {
			return nil, fmt.Errorf("scanning analysis row: %w", err)
		}
		rec.Mode = model.Mode(mode)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing analyses: %w", err)
	}
	return out, nil
}

// Cleanup deletes analyses older than the given duration and returns how
// many were removed.
func (s *SQLiteStore) Cleanup(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan).UTC()
	res, err := s.db.ExecContext(ctx, "DELETE FROM analyses WHERE created_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleaning up analyses older than %v: %w", olderThan, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("cleaning up analyses: %w", err)
	}
	return n, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
