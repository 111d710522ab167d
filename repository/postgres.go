package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"dojolens/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS analyses (
	id            TEXT PRIMARY KEY,
	martial_art   TEXT NOT NULL,
	threshold     DOUBLE PRECISION NOT NULL,
	filename      TEXT NOT NULL DEFAULT '',
	status        TEXT NOT NULL,
	result        JSONB,
	error_message TEXT NOT NULL DEFAULT '',
	created_at    TIMESTAMPTZ NOT NULL,
	completed_at  TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS analyses_created_at_idx ON analyses (created_at DESC);
`

// PostgresStore is the durable Store backed by pgx.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate creates the analyses table when it does not exist yet.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate analyses table: %w", err)
	}
	return nil
}

func (s *PostgresStore) Create(ctx context.Context, job *models.AnalysisJob) error {
	query := `
		INSERT INTO analyses (id, martial_art, threshold, filename, status, error_message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.pool.Exec(ctx, query,
		job.ID,
		string(job.Discipline),
		job.ConfidenceThreshold,
		job.Filename,
		string(job.Status),
		job.ErrorMessage,
		job.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert analysis: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*models.AnalysisJob, error) {
	query := `
		SELECT id, martial_art, threshold, filename, status, result, error_message, created_at, completed_at
		FROM analyses
		WHERE id = $1
	`
	job, err := scanJob(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get analysis: %w", err)
	}
	return job, nil
}

func (s *PostgresStore) Complete(ctx context.Context, id string, result *models.AnalysisResult, at time.Time) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal analysis result: %w", err)
	}

	query := `
		UPDATE analyses
		SET status = $1, result = $2, error_message = '', completed_at = $3
		WHERE id = $4 AND status = $5
	`
	tag, err := s.pool.Exec(ctx, query,
		string(models.StatusCompleted), payload, at, id, string(models.StatusProcessing))
	if err != nil {
		return fmt.Errorf("complete analysis: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return s.terminalMissOrIdempotent(ctx, id)
	}
	return nil
}

func (s *PostgresStore) Fail(ctx context.Context, id string, detail string, at time.Time) error {
	query := `
		UPDATE analyses
		SET status = $1, error_message = $2, result = NULL, completed_at = $3
		WHERE id = $4 AND status = $5
	`
	tag, err := s.pool.Exec(ctx, query,
		string(models.StatusFailed), detail, at, id, string(models.StatusProcessing))
	if err != nil {
		return fmt.Errorf("fail analysis: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return s.terminalMissOrIdempotent(ctx, id)
	}
	return nil
}

// terminalMissOrIdempotent distinguishes a retried terminal write, which is
// a no-op, from an update against a missing row.
func (s *PostgresStore) terminalMissOrIdempotent(ctx context.Context, id string) error {
	var status string
	err := s.pool.QueryRow(ctx, `SELECT status FROM analyses WHERE id = $1`, id).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("check analysis status: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, filter ListFilter) ([]*models.AnalysisJob, int, error) {
	where := ""
	args := []any{}
	if filter.Discipline != "" {
		where = " WHERE martial_art = $1"
		args = append(args, string(filter.Discipline))
	}

	var total int
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM analyses"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count analyses: %w", err)
	}

	query := `
		SELECT id, martial_art, threshold, filename, status, result, error_message, created_at, completed_at
		FROM analyses` + where + fmt.Sprintf(`
		ORDER BY created_at DESC, id
		LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list analyses: %w", err)
	}
	defer rows.Close()

	var jobs []*models.AnalysisJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan analysis: %w", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list analyses: %w", err)
	}
	return jobs, total, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM analyses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete analysis: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanJob(row pgx.Row) (*models.AnalysisJob, error) {
	var (
		job        models.AnalysisJob
		discipline string
		status     string
		payload    []byte
	)
	err := row.Scan(
		&job.ID,
		&discipline,
		&job.ConfidenceThreshold,
		&job.Filename,
		&status,
		&payload,
		&job.ErrorMessage,
		&job.CreatedAt,
		&job.CompletedAt,
	)
	if err != nil {
		return nil, err
	}

	job.Discipline = models.Discipline(discipline)
	job.Status = models.Status(status)
	if len(payload) > 0 {
		var result models.AnalysisResult
		if err := json.Unmarshal(payload, &result); err != nil {
			return nil, fmt.Errorf("unmarshal analysis result: %w", err)
		}
		job.Result = &result
	}
	return &job, nil
}
