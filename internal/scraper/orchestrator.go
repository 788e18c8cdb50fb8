package scraper

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/weaverlabs/jobscraper/internal/metrics"
)

// Config holds the per-run knobs of the orchestrator.
type Config struct {
	// FetchDelay is the fixed pause enforced between consecutive detail-page
	// fetches. Serial fetching plus this delay keeps the engine under the
	// target site's automation radar.
	FetchDelay time.Duration
	// MaxListings caps how many discovered detail pages are extracted per run.
	// Zero means no cap.
	MaxListings int
	// RunTimeout bounds the whole run. Zero disables the deadline.
	RunTimeout time.Duration
}

// Orchestrator sequences one scrape run: tracker update, session open,
// discovery, serial extraction, classification, terminal tracker write.
type Orchestrator struct {
	sessions   SessionFactory
	store      JobStore
	discoverer *Discoverer
	extractor  *Extractor
	classifier Classifier
	clock      Clock
	cfg        Config
	logger     *zap.Logger
}

// NewOrchestrator wires the engine components together.
func NewOrchestrator(
	sessions SessionFactory,
	store JobStore,
	discoverer *Discoverer,
	extractor *Extractor,
	clock Clock,
	cfg Config,
	logger *zap.Logger,
) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		sessions:   sessions,
		store:      store,
		discoverer: discoverer,
		extractor:  extractor,
		clock:      clock,
		cfg:        cfg,
		logger:     logger,
	}
}

// Run executes the scrape for an already-created job and always leaves it in
// a terminal state. Errors local to one detail page are absorbed into that
// page's record; errors in session setup or discovery fail the whole job.
// The returned error mirrors what was written to the tracker.
func (o *Orchestrator) Run(ctx context.Context, jobID, sourceURL string) error {
	start := o.clock.Now()
	logger := o.logger.With(zap.String("job_id", jobID), zap.String("source_url", sourceURL))

	if o.cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.cfg.RunTimeout)
		defer cancel()
	}
	// Terminal status writes must land even when the run deadline has fired.
	statusCtx := context.WithoutCancel(ctx)

	if err := o.store.MarkInProgress(statusCtx, jobID); err != nil {
		logger.Error("mark in_progress failed", zap.Error(err))
		return err
	}

	session, err := o.sessions.Open(ctx)
	if err != nil {
		return o.fail(statusCtx, logger, jobID, start, fmt.Errorf("open browser session: %w", err))
	}
	defer func() {
		if closeErr := session.Close(); closeErr != nil {
			logger.Warn("session close failed", zap.Error(closeErr))
		}
	}()

	urls, err := o.resolveTargets(ctx, session, sourceURL)
	if err != nil {
		return o.fail(statusCtx, logger, jobID, start, err)
	}
	logger.Info("discovery finished", zap.Int("detail_urls", len(urls)))

	records, err := o.extractAll(ctx, session, urls, logger)
	if err != nil {
		return o.fail(statusCtx, logger, jobID, start, err)
	}

	if err := o.store.MarkCompleted(statusCtx, jobID, records); err != nil {
		logger.Error("mark completed failed", zap.Error(err))
		return err
	}
	duration := o.clock.Now().Sub(start)
	metrics.RunFinished(string(JobStatusCompleted), duration)
	logger.Info("run completed",
		zap.Int("records", len(records)),
		zap.Duration("duration", duration),
	)
	return nil
}

// resolveTargets returns the detail URLs for the run. A source URL that is
// itself a detail page skips discovery entirely.
func (o *Orchestrator) resolveTargets(ctx context.Context, session Session, sourceURL string) ([]string, error) {
	if IsDetailURL(sourceURL) {
		normalized, err := NormalizeURL(sourceURL)
		if err != nil {
			return nil, fmt.Errorf("normalize source url: %w", err)
		}
		return []string{normalized}, nil
	}

	urls, err := o.discoverer.Discover(ctx, session, sourceURL)
	if err != nil {
		return nil, fmt.Errorf("discovery: %w", err)
	}
	if o.cfg.MaxListings > 0 && len(urls) > o.cfg.MaxListings {
		urls = urls[:o.cfg.MaxListings]
	}
	return urls, nil
}

// extractAll walks the detail URLs serially, enforcing the inter-fetch delay.
// A page that never becomes ready produces a failed record; the run carries
// on. Only a spent run context stops the loop.
func (o *Orchestrator) extractAll(ctx context.Context, session Session, urls []string, logger *zap.Logger) ([]ListingRecord, error) {
	var limiter *rate.Limiter
	if o.cfg.FetchDelay > 0 {
		limiter = rate.NewLimiter(rate.Every(o.cfg.FetchDelay), 1)
	}

	records := make([]ListingRecord, 0, len(urls))
	for _, detailURL := range urls {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("run deadline during rate limit: %w", err)
			}
		} else if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("run deadline: %w", err)
		}

		doc, err := session.LoadDetail(ctx, detailURL)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("run deadline during fetch: %w", ctx.Err())
			}
			logger.Warn("detail page failed", zap.String("url", detailURL), zap.Error(err))
			metrics.PageScraped("failed")
			records = append(records, o.extractor.FailedRecord(detailURL, err))
			continue
		}

		record := o.extractor.Extract(doc, detailURL)
		record.FounderLinkedInURLs, _ = o.classifier.Classify(doc, record.FounderNames, record.LinkedInURLs)
		metrics.PageScraped("ok")
		records = append(records, record)
	}
	return records, nil
}

func (o *Orchestrator) fail(ctx context.Context, logger *zap.Logger, jobID string, start time.Time, cause error) error {
	if err := o.store.MarkError(ctx, jobID, cause.Error()); err != nil {
		logger.Error("mark error failed", zap.Error(err))
	}
	metrics.RunFinished(string(JobStatusError), o.clock.Now().Sub(start))
	logger.Error("run failed", zap.Error(cause))
	return cause
}
