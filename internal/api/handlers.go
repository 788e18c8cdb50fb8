package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/weaverlabs/jobscraper/internal/export"
	"github.com/weaverlabs/jobscraper/internal/scraper"
)

const maxRequestBytes = 1 << 20 // 1MB

type submitRequest struct {
	URL    string `json:"url"`
	Format string `json:"format"`
}

// submitScrape handles POST /v1/scrapes. It validates the target URL, creates
// the job in pending state, and kicks off the run in the background. Clients
// poll the progress endpoint; the run is never tied to the request context.
func (s *Server) submitScrape(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	req.Format = strings.ToLower(strings.TrimSpace(req.Format))
	if req.Format != "" && req.Format != "json" && req.Format != "csv" {
		writeError(w, http.StatusBadRequest, "invalid format, supported: csv, json")
		return
	}
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}
	// The engine assumes its input already passed this shape check.
	if !scraper.IsTargetURL(req.URL) {
		writeError(w, http.StatusBadRequest, "url is not a supported jobs page")
		return
	}

	jobID, err := s.idGen.NewID()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to generate job id")
		return
	}
	job := scraper.Job{
		ID:        jobID,
		Status:    scraper.JobStatusPending,
		SourceURL: req.URL,
		Submitted: s.clock.Now(),
	}
	if err := s.store.CreateJob(r.Context(), job); err != nil {
		s.logger.Error("create job failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to create job")
		return
	}

	go func() {
		// Detached from the request: a run always proceeds to a terminal
		// state once started.
		if err := s.runner.Run(context.Background(), jobID, req.URL); err != nil {
			s.logger.Warn("run finished with error", zap.String("job_id", jobID), zap.Error(err))
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{
		"job_id": jobID,
		"status": string(scraper.JobStatusPending),
	})
}

// getScrape handles GET /v1/scrapes/{job_id}: the polling endpoint.
func (s *Server) getScrape(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "job_id")
	job, err := s.store.GetJob(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, scraper.ErrNotFound) {
			writeError(w, http.StatusNotFound, "job not found")
			return
		}
		s.logger.Error("get job failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load job")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"job": job})
}

// exportScrape handles GET /v1/scrapes/{job_id}/export?format=csv. Only
// completed jobs can be exported.
func (s *Server) exportScrape(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "job_id")
	job, err := s.store.GetJob(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, scraper.ErrNotFound) {
			writeError(w, http.StatusNotFound, "job not found")
			return
		}
		s.logger.Error("get job failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load job")
		return
	}
	if job.Status != scraper.JobStatusCompleted {
		writeError(w, http.StatusConflict, fmt.Sprintf("job is %s, export requires completed", job.Status))
		return
	}

	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "" || format == "csv" {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename=jobs_`+jobID+`.csv`)
		w.Header().Set("X-Record-Count", strconv.Itoa(len(job.Results)))
		if err := export.WriteCSV(w, job.Results); err != nil {
			s.logger.Error("csv export failed", zap.String("job_id", jobID), zap.Error(err))
		}
		return
	}
	if format == "json" {
		writeJSON(w, http.StatusOK, map[string]any{"data": job.Results})
		return
	}
	writeError(w, http.StatusBadRequest, "invalid format, supported: csv, json")
}
