package scraper

import "errors"

// Sentinel errors surfaced across the engine. Callers branch with errors.Is.
var (
	// ErrNotFound is returned by the job store for unknown job ids.
	ErrNotFound = errors.New("job not found")

	// ErrDuplicateJob is returned when a job id is submitted twice.
	ErrDuplicateJob = errors.New("job already exists")

	// ErrInvalidTransition is returned when a status write would move a job
	// backwards or out of a terminal state.
	ErrInvalidTransition = errors.New("invalid job status transition")

	// ErrBrowserInit indicates the underlying browser process could not be
	// launched. Fatal for the enclosing run; never retried at this layer.
	ErrBrowserInit = errors.New("browser init failed")

	// ErrNavigationTimeout indicates a page never reached the content-ready
	// condition within the attempt timeout. Retried per the retry policy;
	// surfaced to the caller once retries are exhausted.
	ErrNavigationTimeout = errors.New("navigation timeout")
)
