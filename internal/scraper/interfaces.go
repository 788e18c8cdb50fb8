package scraper

import (
	"context"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// JobStore tracks scrape jobs. One writer (the orchestrator owning the job id)
// mutates a given job; reads may happen concurrently from the API layer.
type JobStore interface {
	CreateJob(ctx context.Context, job Job) error
	GetJob(ctx context.Context, jobID string) (Job, error)
	MarkInProgress(ctx context.Context, jobID string) error
	MarkCompleted(ctx context.Context, jobID string, results []ListingRecord) error
	MarkError(ctx context.Context, jobID string, message string) error
}

// Pager delivers DOM snapshots of a listing page traversal. LoadMore triggers
// one round of incremental loading on the page loaded by the last LoadListing
// call and reports whether anything was triggered.
type Pager interface {
	LoadListing(ctx context.Context, url string) (*goquery.Document, error)
	LoadMore(ctx context.Context) (*goquery.Document, bool, error)
}

// Session is one logical browsing context scoped to a single scrape run.
// Close must be idempotent and safe after a partial failure.
type Session interface {
	Pager
	LoadDetail(ctx context.Context, url string) (*goquery.Document, error)
	Close() error
}

// SessionFactory opens browser sessions. A failed Open is fatal to the run.
type SessionFactory interface {
	Open(ctx context.Context) (Session, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces job ids.
type IDGenerator interface {
	NewID() (string, error)
}
