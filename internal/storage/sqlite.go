package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ApeachM/llm-code-reviewer-sub001/pkg/types"
)

var (
	// ErrNotFound is returned when a requested run doesn't exist
	ErrNotFound = errors.New("not found")
)

// SQLiteStorage implements the Storage interface using SQLite
type SQLiteStorage struct {
	db *sql.DB
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// SQLite benefits from single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// Enable foreign keys so deleting a run cascades to its findings
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// NewSQLiteStorage creates a new SQLite storage instance
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// SaveRun stores a run and its findings in one transaction
func (s *SQLiteStorage) SaveRun(ctx context.Context, run *Run) error {
	chunkIDs, err := json.Marshal(run.ChunkIDs)
	if err != nil {
		return fmt.Errorf("marshal chunk ids: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := time.Now()
	result, err := tx.ExecContext(ctx, `
		INSERT INTO runs (file_path, model, chunk_count, failed_chunk_count,
		                  total_tokens, total_latency_ms, chunk_ids, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, run.FilePath, run.Model, run.ChunkCount, run.FailedChunkCount,
		run.TotalTokens, run.TotalLatency.Milliseconds(), string(chunkIDs), now)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}

	for _, finding := range run.Findings {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO findings (run_id, line, category, severity, description, reasoning, suggested_fix)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, id, finding.Line, finding.Category, finding.Severity,
			finding.Description, finding.Reasoning, finding.SuggestedFix)
		if err != nil {
			return fmt.Errorf("failed to insert finding: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	run.ID = id
	run.CreatedAt = now
	return nil
}

// GetRun retrieves a run with its findings
func (s *SQLiteStorage) GetRun(ctx context.Context, id int64) (*Run, error) {
	run, err := s.scanRun(s.db.QueryRowContext(ctx, `
		SELECT id, file_path, model, chunk_count, failed_chunk_count,
		       total_tokens, total_latency_ms, chunk_ids, created_at
		FROM runs
		WHERE id = ?
	`, id))
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT line, category, severity, description, reasoning, suggested_fix
		FROM findings
		WHERE run_id = ?
		ORDER BY line, id
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query findings: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	for rows.Next() {
		var f types.Finding
		if err := rows.Scan(&f.Line, &f.Category, &f.Severity,
			&f.Description, &f.Reasoning, &f.SuggestedFix); err != nil {
			return nil, fmt.Errorf("failed to scan finding: %w", err)
		}
		run.Findings = append(run.Findings, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return run, nil
}

// ListRuns returns recent runs without findings, newest first
func (s *SQLiteStorage) ListRuns(ctx context.Context, filePath string, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, file_path, model, chunk_count, failed_chunk_count,
		       total_tokens, total_latency_ms, chunk_ids, created_at
		FROM runs
	`
	args := []interface{}{}
	if filePath != "" {
		query += " WHERE file_path = ?"
		args = append(args, filePath)
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var runs []*Run
	for rows.Next() {
		run, err := s.scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return runs, nil
}

// DeleteRun removes a run; findings cascade via the foreign key
func (s *SQLiteStorage) DeleteRun(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM runs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("run %d: %w", id, ErrNotFound)
	}

	return nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (s *SQLiteStorage) scanRun(row rowScanner) (*Run, error) {
	var run Run
	var latencyMs int64
	var chunkIDs string

	err := row.Scan(&run.ID, &run.FilePath, &run.Model, &run.ChunkCount,
		&run.FailedChunkCount, &run.TotalTokens, &latencyMs, &chunkIDs, &run.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	run.TotalLatency = time.Duration(latencyMs) * time.Millisecond

	if err := json.Unmarshal([]byte(chunkIDs), &run.ChunkIDs); err != nil {
		return nil, fmt.Errorf("unmarshal chunk ids: %w", err)
	}

	return &run, nil
}
