// Package export serializes listing records for transport.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/weaverlabs/jobscraper/internal/scraper"
)

// csvHeader fixes the column order for exported records.
var csvHeader = []string{
	"url",
	"title",
	"company",
	"location",
	"description",
	"linkedin_urls",
	"founder_linkedin_urls",
	"founder_names",
	"extracted_at",
	"field_errors",
}

// listSeparator joins multi-valued columns inside one CSV cell.
const listSeparator = "; "

// WriteCSV writes records as CSV, header first. Empty strings stay empty so
// the serializer preserves the extracted-vs-missing distinction.
func WriteCSV(w io.Writer, records []scraper.ListingRecord) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, record := range records {
		if err := writer.Write(toRow(record)); err != nil {
			return fmt.Errorf("write csv row for %s: %w", record.URL, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

func toRow(r scraper.ListingRecord) []string {
	return []string{
		r.URL,
		r.Title,
		r.Company,
		r.Location,
		r.Description,
		strings.Join(r.LinkedInURLs, listSeparator),
		strings.Join(r.FounderLinkedInURLs, listSeparator),
		strings.Join(r.FounderNames, listSeparator),
		r.ExtractedAt.UTC().Format(time.RFC3339),
		fieldErrorCell(r.FieldErrors),
	}
}

func fieldErrorCell(errs map[string]string) string {
	if len(errs) == 0 {
		return ""
	}
	parts := make([]string, 0, len(errs))
	for _, field := range []string{scraper.FieldPage, "title", "company", "location", "description", "linkedin_urls"} {
		if msg, ok := errs[field]; ok {
			parts = append(parts, field+": "+msg)
		}
	}
	return strings.Join(parts, listSeparator)
}
