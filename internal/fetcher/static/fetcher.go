// Package static implements a scraper session over plain HTTP via colly,
// for environments without Chrome and for pages that render server-side.
// It cannot trigger incremental loading; LoadMore always reports nothing.
package static

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/weaverlabs/jobscraper/internal/scraper"
)

// Config controls collector behavior.
type Config struct {
	UserAgent string
	Timeout   time.Duration
	Retry     scraper.RetryPolicy
}

// Manager implements scraper.SessionFactory over plain HTTP.
type Manager struct {
	cfg    Config
	logger *zap.Logger
}

// NewManager builds the factory.
func NewManager(cfg Config, logger *zap.Logger) *Manager {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry = scraper.DefaultRetryPolicy()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{cfg: cfg, logger: logger}
}

// Open builds a session backed by a colly collector. There is no browser
// process to launch, so Open cannot fail.
func (m *Manager) Open(_ context.Context) (scraper.Session, error) {
	c := colly.NewCollector(colly.Async(false))
	if m.cfg.UserAgent != "" {
		c.UserAgent = m.cfg.UserAgent
	}
	c.SetRequestTimeout(m.cfg.Timeout)
	return &Session{cfg: m.cfg, base: c, logger: m.logger}, nil
}

// Session fetches raw HTML with colly and parses it into goquery documents.
type Session struct {
	cfg    Config
	base   *colly.Collector
	logger *zap.Logger
}

// LoadListing fetches the listing page.
func (s *Session) LoadListing(ctx context.Context, url string) (*goquery.Document, error) {
	return s.fetch(ctx, url)
}

// LoadMore cannot trigger client-side loading over plain HTTP.
func (s *Session) LoadMore(_ context.Context) (*goquery.Document, bool, error) {
	return nil, false, nil
}

// LoadDetail fetches a detail page.
func (s *Session) LoadDetail(ctx context.Context, url string) (*goquery.Document, error) {
	return s.fetch(ctx, url)
}

// Close is a no-op; colly holds no process-level resources.
func (s *Session) Close() error {
	return nil
}

func (s *Session) fetch(ctx context.Context, url string) (*goquery.Document, error) {
	var body []byte
	err := s.cfg.Retry.Do(ctx, func(ctx context.Context) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return s.fetchOnce(url, &body)
	})
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse page html: %w", err)
	}
	return doc, nil
}

func (s *Session) fetchOnce(url string, body *[]byte) error {
	collector := s.base.Clone()
	collector.UserAgent = s.base.UserAgent
	collector.SetRequestTimeout(s.cfg.Timeout)

	var fetchErr error
	collector.OnResponse(func(r *colly.Response) {
		*body = r.Body
	})
	collector.OnError(func(_ *colly.Response, err error) {
		fetchErr = err
	})

	if err := collector.Visit(url); err != nil {
		fetchErr = err
	}
	if fetchErr != nil {
		var netErr net.Error
		if errors.As(fetchErr, &netErr) && netErr.Timeout() {
			return fmt.Errorf("%w: %s", scraper.ErrNavigationTimeout, url)
		}
		return fmt.Errorf("fetch %s: %w", url, fetchErr)
	}
	if len(*body) == 0 {
		return fmt.Errorf("fetch %s: empty response body", url)
	}
	return nil
}
