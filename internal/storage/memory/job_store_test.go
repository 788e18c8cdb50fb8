package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/weaverlabs/jobscraper/internal/scraper"
)

func TestJobLifecycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewJobStore()

	if err := store.CreateJob(ctx, scraper.Job{ID: "job-1", SourceURL: "https://www.ycombinator.com/jobs"}); err != nil {
		t.Fatalf("CreateJob() error = %v", err)
	}

	job, err := store.GetJob(ctx, "job-1")
	if err != nil {
		t.Fatalf("GetJob() error = %v", err)
	}
	if job.Status != scraper.JobStatusPending {
		t.Fatalf("status = %s, want pending", job.Status)
	}
	if job.Submitted.IsZero() {
		t.Error("Submitted not set")
	}

	if err := store.MarkInProgress(ctx, "job-1"); err != nil {
		t.Fatalf("MarkInProgress() error = %v", err)
	}
	job, _ = store.GetJob(ctx, "job-1")
	if job.Status != scraper.JobStatusInProgress || job.Started == nil {
		t.Fatalf("job = %+v, want in_progress with Started set", job)
	}

	results := []scraper.ListingRecord{{URL: "https://www.ycombinator.com/companies/acme/jobs/1", Title: "Engineer"}}
	if err := store.MarkCompleted(ctx, "job-1", results); err != nil {
		t.Fatalf("MarkCompleted() error = %v", err)
	}
	job, _ = store.GetJob(ctx, "job-1")
	if job.Status != scraper.JobStatusCompleted || job.Finished == nil {
		t.Fatalf("job = %+v, want completed with Finished set", job)
	}
	if len(job.Results) != 1 || job.Results[0].Title != "Engineer" {
		t.Fatalf("results = %+v", job.Results)
	}
}

func TestCreateJobRejectsDuplicateID(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewJobStore()
	if err := store.CreateJob(ctx, scraper.Job{ID: "job-1"}); err != nil {
		t.Fatalf("CreateJob() error = %v", err)
	}
	if err := store.CreateJob(ctx, scraper.Job{ID: "job-1"}); !errors.Is(err, scraper.ErrDuplicateJob) {
		t.Fatalf("CreateJob() error = %v, want ErrDuplicateJob", err)
	}
}

func TestGetJobUnknownID(t *testing.T) {
	t.Parallel()

	store := NewJobStore()
	if _, err := store.GetJob(context.Background(), "nope"); !errors.Is(err, scraper.ErrNotFound) {
		t.Fatalf("GetJob() error = %v, want ErrNotFound", err)
	}
}

func TestTransitionsAreOneDirectional(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewJobStore()
	_ = store.CreateJob(ctx, scraper.Job{ID: "job-1"})

	// completed requires in_progress first
	if err := store.MarkCompleted(ctx, "job-1", nil); !errors.Is(err, scraper.ErrInvalidTransition) {
		t.Fatalf("MarkCompleted from pending error = %v, want ErrInvalidTransition", err)
	}

	_ = store.MarkInProgress(ctx, "job-1")
	if err := store.MarkInProgress(ctx, "job-1"); !errors.Is(err, scraper.ErrInvalidTransition) {
		t.Fatalf("second MarkInProgress error = %v, want ErrInvalidTransition", err)
	}

	_ = store.MarkCompleted(ctx, "job-1", nil)
	// Terminal states never change.
	if err := store.MarkError(ctx, "job-1", "late failure"); !errors.Is(err, scraper.ErrInvalidTransition) {
		t.Fatalf("MarkError on completed error = %v, want ErrInvalidTransition", err)
	}
	if err := store.MarkInProgress(ctx, "job-1"); !errors.Is(err, scraper.ErrInvalidTransition) {
		t.Fatalf("MarkInProgress on completed error = %v, want ErrInvalidTransition", err)
	}
	job, _ := store.GetJob(ctx, "job-1")
	if job.Status != scraper.JobStatusCompleted {
		t.Fatalf("status = %s, want completed to stick", job.Status)
	}
}

func TestMarkErrorFromPendingAndInProgress(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewJobStore()

	_ = store.CreateJob(ctx, scraper.Job{ID: "from-pending"})
	if err := store.MarkError(ctx, "from-pending", "never started"); err != nil {
		t.Fatalf("MarkError from pending error = %v", err)
	}

	_ = store.CreateJob(ctx, scraper.Job{ID: "from-running"})
	_ = store.MarkInProgress(ctx, "from-running")
	if err := store.MarkError(ctx, "from-running", "browser crashed"); err != nil {
		t.Fatalf("MarkError from in_progress error = %v", err)
	}
	job, _ := store.GetJob(ctx, "from-running")
	if job.Status != scraper.JobStatusError || job.ErrorMessage != "browser crashed" || job.Finished == nil {
		t.Fatalf("job = %+v", job)
	}
}

func TestGetJobReturnsIsolatedResults(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewJobStore()
	_ = store.CreateJob(ctx, scraper.Job{ID: "job-1"})
	_ = store.MarkInProgress(ctx, "job-1")
	_ = store.MarkCompleted(ctx, "job-1", []scraper.ListingRecord{{Title: "Original"}})

	job, _ := store.GetJob(ctx, "job-1")
	job.Results[0].Title = "Mutated"

	again, _ := store.GetJob(ctx, "job-1")
	if again.Results[0].Title != "Original" {
		t.Fatalf("stored record mutated through a read: %q", again.Results[0].Title)
	}
}
