package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"dojolens/models"
)

// MemoryStore is the in-process Store. Jobs are copied across the boundary
// so concurrent readers never observe a half-written record.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[string]*models.AnalysisJob
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		jobs: make(map[string]*models.AnalysisJob),
	}
}

func (s *MemoryStore) Create(_ context.Context, job *models.AnalysisJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[job.ID]; ok {
		return ErrAlreadyExists
	}
	s.jobs[job.ID] = job.Clone()
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*models.AnalysisJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return job.Clone(), nil
}

func (s *MemoryStore) Complete(_ context.Context, id string, result *models.AnalysisResult, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return ErrNotFound
	}
	if job.Status.Terminal() {
		return nil
	}
	job.Status = models.StatusCompleted
	job.Result = result
	job.ErrorMessage = ""
	job.CompletedAt = &at
	return nil
}

func (s *MemoryStore) Fail(_ context.Context, id string, detail string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return ErrNotFound
	}
	if job.Status.Terminal() {
		return nil
	}
	job.Status = models.StatusFailed
	job.ErrorMessage = detail
	job.Result = nil
	job.CompletedAt = &at
	return nil
}

func (s *MemoryStore) List(_ context.Context, filter ListFilter) ([]*models.AnalysisJob, int, error) {
	s.mu.RLock()
	matched := make([]*models.AnalysisJob, 0, len(s.jobs))
	for _, job := range s.jobs {
		if filter.Discipline != "" && job.Discipline != filter.Discipline {
			continue
		}
		matched = append(matched, job.Clone())
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID < matched[j].ID
	})

	total := len(matched)
	start := filter.Offset
	if start > total {
		start = total
	}
	end := total
	if filter.Limit > 0 && start+filter.Limit < end {
		end = start + filter.Limit
	}
	return matched[start:end], total, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[id]; !ok {
		return ErrNotFound
	}
	delete(s.jobs, id)
	return nil
}
