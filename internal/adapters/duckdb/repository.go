package duckdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/DavidSilveraGabriel/MewAI/internal/core/domain"
	"github.com/DavidSilveraGabriel/MewAI/internal/core/ports"
)

// Repository archives finished generation runs in DuckDB. The in-memory job
// registry stays authoritative for live state; this is the durable record a
// dashboard can query after a restart.
type Repository struct {
	db *sql.DB
}

var _ ports.HistoryRepository = (*Repository)(nil)

func NewRepository(path string) (*Repository, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open duckdb: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS generations (
		id VARCHAR PRIMARY KEY,
		status VARCHAR NOT NULL,
		progress INTEGER NOT NULL,
		topic VARCHAR NOT NULL,
		settings VARCHAR NOT NULL,
		result VARCHAR,
		error VARCHAR,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) SaveGeneration(ctx context.Context, job domain.Job) error {
	settingsJSON, err := json.Marshal(job.Settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	var resultJSON *string
	if job.Result != nil {
		data, err := json.Marshal(job.Result)
		if err != nil {
			return fmt.Errorf("failed to marshal result: %w", err)
		}
		s := string(data)
		resultJSON = &s
	}

	query := `
	INSERT INTO generations (id, status, progress, topic, settings, result, error, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE SET
		status = excluded.status,
		progress = excluded.progress,
		result = excluded.result,
		error = excluded.error,
		updated_at = excluded.updated_at;
	`

	_, err = r.db.ExecContext(ctx, query,
		string(job.ID), string(job.Status), job.Progress, job.Topic,
		string(settingsJSON), resultJSON, job.Error, job.CreatedAt, job.UpdatedAt,
	)
	return err
}

func (r *Repository) GetGeneration(ctx context.Context, id domain.JobID) (domain.Job, error) {
	query := `SELECT id, status, progress, topic, settings, result, error, created_at, updated_at
	FROM generations WHERE id = ?`
	return scanGeneration(r.db.QueryRowContext(ctx, query, string(id)))
}

func (r *Repository) ListGenerations(ctx context.Context) ([]domain.Job, error) {
	query := `SELECT id, status, progress, topic, settings, result, error, created_at, updated_at
	FROM generations ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []domain.Job
	for rows.Next() {
		job, err := scanGeneration(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGeneration(row rowScanner) (domain.Job, error) {
	var job domain.Job
	var idStr, statusStr, settingsJSON string
	var resultJSON, errStr *string

	err := row.Scan(&idStr, &statusStr, &job.Progress, &job.Topic,
		&settingsJSON, &resultJSON, &errStr, &job.CreatedAt, &job.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Job{}, domain.ErrJobNotFound
		}
		return domain.Job{}, err
	}

	job.ID = domain.JobID(idStr)
	job.Status = domain.JobStatus(statusStr)
	job.Error = errStr

	if err := json.Unmarshal([]byte(settingsJSON), &job.Settings); err != nil {
		return domain.Job{}, fmt.Errorf("failed to unmarshal settings: %w", err)
	}
	if resultJSON != nil {
		var result domain.GenerationResult
		if err := json.Unmarshal([]byte(*resultJSON), &result); err != nil {
			return domain.Job{}, fmt.Errorf("failed to unmarshal result: %w", err)
		}
		job.Result = &result
	}

	return job, nil
}
