// Package memory provides the process-lifetime job tracker.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/weaverlabs/jobscraper/internal/scraper"
)

// JobStore is an in-memory scraper.JobStore. Each job id has exactly one
// writer (the orchestrator running it); reads may come from any goroutine.
// Jobs are never evicted; results live as long as the process.
type JobStore struct {
	mu   sync.RWMutex
	jobs map[string]scraper.Job
	now  func() time.Time
}

// NewJobStore constructs an empty JobStore.
func NewJobStore() *JobStore {
	return &JobStore{
		jobs: make(map[string]scraper.Job),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// CreateJob stores a new job in pending status.
func (s *JobStore) CreateJob(_ context.Context, job scraper.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[job.ID]; exists {
		return fmt.Errorf("%w: %s", scraper.ErrDuplicateJob, job.ID)
	}
	job.Status = scraper.JobStatusPending
	if job.Submitted.IsZero() {
		job.Submitted = s.now()
	}
	s.jobs[job.ID] = job
	return nil
}

// GetJob fetches a job by id. The returned job owns its own results slice, so
// callers cannot race with the writer.
func (s *JobStore) GetJob(_ context.Context, jobID string) (scraper.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return scraper.Job{}, fmt.Errorf("%w: %s", scraper.ErrNotFound, jobID)
	}
	job.Results = cloneRecords(job.Results)
	return job, nil
}

// MarkInProgress moves a pending job to in_progress.
func (s *JobStore) MarkInProgress(_ context.Context, jobID string) error {
	return s.transition(jobID, scraper.JobStatusPending, func(job *scraper.Job) {
		job.Status = scraper.JobStatusInProgress
		started := s.now()
		job.Started = &started
	})
}

// MarkCompleted moves an in_progress job to the completed terminal state with
// its results. Zero results is a valid completion.
func (s *JobStore) MarkCompleted(_ context.Context, jobID string, results []scraper.ListingRecord) error {
	return s.transition(jobID, scraper.JobStatusInProgress, func(job *scraper.Job) {
		job.Status = scraper.JobStatusCompleted
		job.Results = cloneRecords(results)
		finished := s.now()
		job.Finished = &finished
	})
}

// MarkError moves a pending or in_progress job to the error terminal state.
func (s *JobStore) MarkError(_ context.Context, jobID string, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return fmt.Errorf("%w: %s", scraper.ErrNotFound, jobID)
	}
	if job.Status.Terminal() {
		return fmt.Errorf("%w: %s is already %s", scraper.ErrInvalidTransition, jobID, job.Status)
	}
	job.Status = scraper.JobStatusError
	job.ErrorMessage = message
	finished := s.now()
	job.Finished = &finished
	s.jobs[jobID] = job
	return nil
}

func (s *JobStore) transition(jobID string, from scraper.JobStatus, apply func(*scraper.Job)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return fmt.Errorf("%w: %s", scraper.ErrNotFound, jobID)
	}
	if job.Status != from {
		return fmt.Errorf("%w: %s is %s, want %s", scraper.ErrInvalidTransition, jobID, job.Status, from)
	}
	apply(&job)
	s.jobs[jobID] = job
	return nil
}

func cloneRecords(in []scraper.ListingRecord) []scraper.ListingRecord {
	if in == nil {
		return nil
	}
	out := make([]scraper.ListingRecord, len(in))
	copy(out, in)
	return out
}
