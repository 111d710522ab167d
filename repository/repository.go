package repository

import (
	"context"
	"errors"
	"time"

	"dojolens/models"
)

var (
	ErrNotFound      = errors.New("analysis not found")
	ErrAlreadyExists = errors.New("analysis already exists")
)

// ListFilter narrows and pages a listing. Zero values mean no filter.
type ListFilter struct {
	Discipline models.Discipline
	Limit      int
	Offset     int
}

// Store persists analysis jobs. Implementations must be safe for concurrent
// use, with every operation atomic per job id. Complete and Fail are the
// only writes to terminal state: they apply once against a processing job
// and are idempotent no-ops against a job that is already terminal.
type Store interface {
	Create(ctx context.Context, job *models.AnalysisJob) error
	Get(ctx context.Context, id string) (*models.AnalysisJob, error)
	Complete(ctx context.Context, id string, result *models.AnalysisResult, at time.Time) error
	Fail(ctx context.Context, id string, detail string, at time.Time) error
	List(ctx context.Context, filter ListFilter) ([]*models.AnalysisJob, int, error)
	Delete(ctx context.Context, id string) error
}
