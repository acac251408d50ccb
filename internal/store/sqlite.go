package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/nvandessel/fuzler/internal/dedup"

	_ "modernc.org/sqlite" // SQLite driver
)

// SQLiteStore implements RunStore using SQLite for persistence.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
	now    func() time.Time
}

var _ RunStore = (*SQLiteStore)(nil)

// NewSQLiteStore opens or creates the database at path. The parent
// directory is created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite works best with single writer

	if err := InitSchema(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db, dbPath: path, now: time.Now}, nil
}

// Path returns the database location.
func (s *SQLiteStore) Path() string {
	return s.dbPath
}

// SaveRun stores report and its candidates in one transaction.
func (s *SQLiteStore) SaveRun(ctx context.Context, report *dedup.Report, threshold float64) (string, error) {
	if report == nil {
		return "", fmt.Errorf("report is nil")
	}

	id := uuid.NewString()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, created_at, threshold, total, compared) VALUES (?, ?, ?, ?, ?)`,
		id, s.now().UTC().Format(time.RFC3339Nano), threshold, report.Total, report.Compared); err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO candidates (run_id, position, a_id, a_text, b_id, b_text, score) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("failed to prepare candidate insert: %w", err)
	}
	defer stmt.Close()

	for i, c := range report.Candidates {
		if _, err := stmt.ExecContext(ctx, id, i, c.A.ID, c.A.Text, c.B.ID, c.B.Text, c.Score); err != nil {
			return "", fmt.Errorf("failed to insert candidate %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit run: %w", err)
	}
	return id, nil
}

// ListRuns returns all runs, newest first.
func (s *SQLiteStore) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.created_at, r.threshold, r.total, r.compared,
		       (SELECT COUNT(*) FROM candidates c WHERE c.run_id = r.id)
		FROM runs r
		ORDER BY r.created_at DESC, r.rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	runs := make([]Run, 0)
	for rows.Next() {
		var r Run
		var created string
		if err := rows.Scan(&r.ID, &created, &r.Threshold, &r.Total, &r.Compared, &r.Candidates); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if r.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("failed to parse created_at for run %s: %w", r.ID, err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read runs: %w", err)
	}
	return runs, nil
}

// Candidates returns the candidates of runID in reported order.
func (s *SQLiteStore) Candidates(ctx context.Context, runID string) ([]dedup.Candidate, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs WHERE id = ?`, runID).Scan(&count); err != nil {
		return nil, fmt.Errorf("failed to look up run: %w", err)
	}
	if count == 0 {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT a_id, a_text, b_id, b_text, score
		FROM candidates
		WHERE run_id = ?
		ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query candidates: %w", err)
	}
	defer rows.Close()

	candidates := make([]dedup.Candidate, 0)
	for rows.Next() {
		var c dedup.Candidate
		if err := rows.Scan(&c.A.ID, &c.A.Text, &c.B.ID, &c.B.Text, &c.Score); err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read candidates: %w", err)
	}
	return candidates, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
