// Package scraper defines the scrape orchestration engine and its core types.
package scraper

import "time"

// JobStatus represents the lifecycle state of a scrape job.
type JobStatus string

// Job status values held by the job store. Transitions are one-directional:
// pending -> in_progress -> completed|error.
const (
	JobStatusPending    JobStatus = "pending"
	JobStatusInProgress JobStatus = "in_progress"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusError      JobStatus = "error"
)

// Terminal reports whether the status can no longer change.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusError
}

// Job is the tracked state of one user-initiated scrape request.
type Job struct {
	ID           string          `json:"id"`
	Status       JobStatus       `json:"status"`
	SourceURL    string          `json:"source_url"`
	Results      []ListingRecord `json:"results"`
	ErrorMessage string          `json:"error_message,omitempty"`
	Submitted    time.Time       `json:"submitted_at"`
	Started      *time.Time      `json:"started_at,omitempty"`
	Finished     *time.Time      `json:"finished_at,omitempty"`
}

// ListingRecord is the structured data extracted from one detail page.
// Text fields are empty strings when extraction failed for that field; the
// failure itself is noted in FieldErrors. FounderLinkedInURLs is always a
// subset of LinkedInURLs.
type ListingRecord struct {
	URL                 string            `json:"url"`
	Title               string            `json:"title"`
	Company             string            `json:"company"`
	Location            string            `json:"location"`
	Description         string            `json:"description"`
	LinkedInURLs        []string          `json:"linkedin_urls"`
	FounderLinkedInURLs []string          `json:"founder_linkedin_urls"`
	FounderNames        []string          `json:"founder_names"`
	ExtractedAt         time.Time         `json:"extracted_at"`
	FieldErrors         map[string]string `json:"field_errors,omitempty"`
}

// Failed reports whether the whole page failed to load, as opposed to
// individual fields coming up empty.
func (r ListingRecord) Failed() bool {
	_, ok := r.FieldErrors[FieldPage]
	return ok
}

// FieldPage is the FieldErrors key used when the page itself never became
// ready, rather than a single selector chain coming up empty.
const FieldPage = "page"
