package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"dojolens/cache"
	"dojolens/dto"
	"dojolens/models"
	"dojolens/repository"
	"dojolens/runner"
	"dojolens/validation"
)

const (
	defaultListLimit = 10
	timeFormat       = "2006-01-02T15:04:05Z"

	processingMessage = "Analysis is still in progress. Please check again later."
	submittedMessage  = "Video analysis started. Use the analysis_id to check results."
)

// AnalysisService validates submissions, registers jobs and serves the
// query boundary. The submit path never blocks on the analysis itself.
type AnalysisService struct {
	store       repository.Store
	cache       *cache.StatusCache
	runner      runner.Runner
	maxFileSize int64
	logger      *zap.Logger
}

func NewAnalysisService(
	store repository.Store,
	statusCache *cache.StatusCache,
	jobRunner runner.Runner,
	maxFileSize int64,
	logger *zap.Logger,
) *AnalysisService {
	if maxFileSize <= 0 {
		maxFileSize = validation.MaxFileSize
	}
	return &AnalysisService{
		store:       store,
		cache:       statusCache,
		runner:      jobRunner,
		maxFileSize: maxFileSize,
		logger:      logger,
	}
}

// Submit validates the upload, registers a processing job and schedules the
// background unit. Validation failures create no record. The job is in the
// store before the background unit can start, so a returned id is always
// queryable.
func (s *AnalysisService) Submit(ctx context.Context, traceID, filename string, data []byte, martialArt string, threshold float64) (*dto.SubmitResponse, error) {
	discipline := models.Discipline(martialArt)
	if !discipline.Valid() {
		return nil, fmt.Errorf("%w: %s", models.ErrUnsupportedDiscipline, martialArt)
	}
	if err := validation.ValidateThreshold(threshold); err != nil {
		return nil, err
	}
	if err := validation.ValidateSize(int64(len(data)), s.maxFileSize); err != nil {
		return nil, err
	}
	if err := validation.ValidateExtension(filename); err != nil {
		return nil, err
	}

	job := &models.AnalysisJob{
		ID:                  uuid.New().String(),
		Discipline:          discipline,
		ConfidenceThreshold: threshold,
		Filename:            filename,
		Status:              models.StatusProcessing,
		CreatedAt:           time.Now().UTC(),
	}

	if err := s.store.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("register analysis: %w", err)
	}
	if err := s.cache.Set(ctx, job.ID, models.StatusProcessing); err != nil {
		s.logger.Warn("Could not prime status cache", zap.String("analysis_id", job.ID), zap.Error(err))
	}

	if err := s.runner.Dispatch(ctx, job, data); err != nil {
		// The record exists but nothing will drive it to completed, so
		// close it out here.
		s.fail(ctx, job.ID, "failed to schedule analysis")
		return nil, fmt.Errorf("schedule analysis: %w", err)
	}

	s.logger.Info("Analysis submitted",
		zap.String("trace_id", traceID),
		zap.String("analysis_id", job.ID),
		zap.String("martial_art", martialArt),
		zap.Int("video_bytes", len(data)),
	)

	return &dto.SubmitResponse{
		AnalysisID: job.ID,
		Status:     string(models.StatusProcessing),
		Message:    submittedMessage,
	}, nil
}

// Get returns the current job record. While the job is processing the
// response carries a progress message instead of result fields.
func (s *AnalysisService) Get(ctx context.Context, id string) (*dto.AnalysisResponse, error) {
	if status, err := s.cache.Get(ctx, id); err == nil && status == models.StatusProcessing {
		return &dto.AnalysisResponse{
			ID:      id,
			Status:  string(status),
			Message: processingMessage,
		}, nil
	}

	job, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, job.ID, job.Status); err != nil {
		s.logger.Warn("Could not refresh status cache", zap.String("analysis_id", id), zap.Error(err))
	}

	// The processing shape is the same whether or not the cache answered.
	if job.Status == models.StatusProcessing {
		return &dto.AnalysisResponse{
			ID:      job.ID,
			Status:  string(job.Status),
			Message: processingMessage,
		}, nil
	}
	return toResponse(job), nil
}

// List pages analyses newest first, optionally filtered by discipline.
func (s *AnalysisService) List(ctx context.Context, limit, offset int, martialArt string) (*dto.ListResponse, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if offset < 0 {
		offset = 0
	}

	jobs, total, err := s.store.List(ctx, repository.ListFilter{
		Discipline: models.Discipline(martialArt),
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		return nil, err
	}

	analyses := make([]dto.AnalysisResponse, 0, len(jobs))
	for _, job := range jobs {
		analyses = append(analyses, *toResponse(job))
	}

	return &dto.ListResponse{
		Analyses: analyses,
		Total:    total,
		Limit:    limit,
		Offset:   offset,
		HasMore:  offset+limit < total,
	}, nil
}

// Delete removes an analysis record. Only explicit operator action deletes
// jobs; the pipeline itself never does.
func (s *AnalysisService) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.cache.Delete(ctx, id); err != nil {
		s.logger.Warn("Could not evict status cache", zap.String("analysis_id", id), zap.Error(err))
	}
	return nil
}

func (s *AnalysisService) fail(ctx context.Context, id, detail string) {
	if err := s.store.Fail(ctx, id, detail, time.Now().UTC()); err != nil && !errors.Is(err, repository.ErrNotFound) {
		s.logger.Error("Could not record failed analysis", zap.String("analysis_id", id), zap.Error(err))
	}
	if err := s.cache.Set(ctx, id, models.StatusFailed); err != nil {
		s.logger.Warn("Could not update status cache", zap.String("analysis_id", id), zap.Error(err))
	}
}

func toResponse(job *models.AnalysisJob) *dto.AnalysisResponse {
	resp := &dto.AnalysisResponse{
		ID:                  job.ID,
		Status:              string(job.Status),
		MartialArt:          string(job.Discipline),
		ConfidenceThreshold: job.ConfidenceThreshold,
		Filename:            job.Filename,
		CreatedAt:           job.CreatedAt.Format(timeFormat),
	}

	if job.CompletedAt != nil {
		formatted := job.CompletedAt.Format(timeFormat)
		resp.CompletedAt = &formatted
	}

	switch job.Status {
	case models.StatusProcessing:
		resp.Message = processingMessage
	case models.StatusCompleted:
		resp.Result = job.Result
	case models.StatusFailed:
		resp.Error = job.ErrorMessage
	}
	return resp
}
