// Package browser owns headless Chrome sessions via chromedp.
package browser

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/weaverlabs/jobscraper/internal/metrics"
	"github.com/weaverlabs/jobscraper/internal/scraper"
)

// Config controls browser and navigation behavior.
type Config struct {
	Headless       bool
	UserAgent      string
	WindowWidth    int
	WindowHeight   int
	AttemptTimeout time.Duration
	SettleDelay    time.Duration
	Retry          scraper.RetryPolicy
}

func (c Config) withDefaults() Config {
	if c.WindowWidth <= 0 {
		c.WindowWidth = 1920
	}
	if c.WindowHeight <= 0 {
		c.WindowHeight = 1080
	}
	if c.AttemptTimeout <= 0 {
		c.AttemptTimeout = 30 * time.Second
	}
	if c.SettleDelay <= 0 {
		c.SettleDelay = 2 * time.Second
	}
	if c.Retry.MaxAttempts <= 0 {
		c.Retry = scraper.DefaultRetryPolicy()
	}
	return c
}

// Manager opens one browser process per scrape run.
type Manager struct {
	cfg    Config
	logger *zap.Logger
}

// NewManager builds a session factory with the given configuration.
func NewManager(cfg Config, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{cfg: cfg.withDefaults(), logger: logger}
}

// Open launches a browser process and one browsing context. Launch failure is
// fatal to the run and is never retried here; individual page loads are
// retried at the navigation layer instead.
func (m *Manager) Open(ctx context.Context) (scraper.Session, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", m.cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.WindowSize(m.cfg.WindowWidth, m.cfg.WindowHeight),
	)
	if m.cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(m.cfg.UserAgent))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("%w: %v", scraper.ErrBrowserInit, err)
	}

	m.logger.Debug("browser session opened")
	return &Session{
		cfg:           m.cfg,
		logger:        m.logger,
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
	}, nil
}

// Session is one live browser process plus one logical browsing context.
// The listing page keeps a dedicated tab so incremental loading can build on
// previous rounds; detail pages each get a short-lived tab.
type Session struct {
	cfg    Config
	logger *zap.Logger

	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc

	listingCtx    context.Context
	listingCancel context.CancelFunc

	closeOnce sync.Once
}

// LoadListing navigates the listing tab to url and returns a DOM snapshot.
func (s *Session) LoadListing(ctx context.Context, url string) (*goquery.Document, error) {
	if s.listingCancel != nil {
		s.listingCancel()
	}
	s.listingCtx, s.listingCancel = chromedp.NewContext(s.browserCtx)
	return s.navigate(ctx, s.listingCtx, url)
}

// LoadMore triggers one round of incremental loading on the listing tab and
// returns the refreshed snapshot. The bool reports whether a trigger element
// was found and clicked.
func (s *Session) LoadMore(ctx context.Context) (*goquery.Document, bool, error) {
	if s.listingCtx == nil {
		return nil, false, errors.New("no listing page loaded")
	}

	attemptCtx, cancel := context.WithTimeout(s.listingCtx, s.cfg.AttemptTimeout)
	defer cancel()
	stop := forwardCancel(ctx, cancel)
	defer stop()

	var clicked bool
	if err := chromedp.Run(attemptCtx, chromedp.Evaluate(loadMoreScript, &clicked)); err != nil {
		return nil, false, fmt.Errorf("trigger incremental load: %w", err)
	}
	if !clicked {
		return nil, false, nil
	}

	var html string
	err := chromedp.Run(attemptCtx,
		chromedp.Sleep(s.cfg.SettleDelay),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return nil, false, fmt.Errorf("snapshot after incremental load: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, false, fmt.Errorf("parse snapshot: %w", err)
	}
	return doc, true, nil
}

// LoadDetail opens a fresh tab, navigates it to url, and returns a DOM
// snapshot. The tab is disposed before returning.
func (s *Session) LoadDetail(ctx context.Context, url string) (*goquery.Document, error) {
	tabCtx, tabCancel := chromedp.NewContext(s.browserCtx)
	defer tabCancel()
	return s.navigate(ctx, tabCtx, url)
}

// Close releases the tab, browser, and allocator. Idempotent and safe on
// every exit path.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		if s.listingCancel != nil {
			s.listingCancel()
		}
		s.browserCancel()
		s.allocCancel()
		s.logger.Debug("browser session closed")
	})
	return nil
}

// navigate loads url in tabCtx until content-ready (DOM loaded plus settle
// delay), retrying timed-out attempts per the retry policy. Exhausted retries
// surface scraper.ErrNavigationTimeout.
func (s *Session) navigate(ctx context.Context, tabCtx context.Context, url string) (*goquery.Document, error) {
	var html string
	attempt := 0
	err := s.cfg.Retry.Do(ctx, func(ctx context.Context) error {
		if attempt > 0 {
			metrics.NavigationRetry()
			s.logger.Warn("retrying navigation", zap.String("url", url), zap.Int("attempt", attempt))
		}
		attempt++
		return s.attemptNavigate(ctx, tabCtx, url, &html)
	})
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse page html: %w", err)
	}
	return doc, nil
}

func (s *Session) attemptNavigate(ctx context.Context, tabCtx context.Context, url string, html *string) error {
	attemptCtx, cancel := context.WithTimeout(tabCtx, s.cfg.AttemptTimeout)
	defer cancel()
	stop := forwardCancel(ctx, cancel)
	defer stop()

	status := newDocStatus()
	chromedp.ListenTarget(attemptCtx, status.captureEvent)

	err := chromedp.Run(attemptCtx,
		networkSetupAction(),
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(s.cfg.SettleDelay),
		chromedp.OuterHTML("html", html, chromedp.ByQuery),
	)
	if err != nil {
		if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %s", scraper.ErrNavigationTimeout, url)
		}
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	if code := status.code(); code >= http.StatusBadRequest {
		return fmt.Errorf("navigate %s: page responded %d", url, code)
	}
	return nil
}

// networkSetupAction enables the network domain and pins request headers so
// document responses carry status events and the site serves English markup.
func networkSetupAction() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if err := network.Enable().Do(ctx); err != nil {
			return fmt.Errorf("enable network domain: %w", err)
		}
		headers := network.Headers{"Accept-Language": "en-US,en;q=0.9"}
		if err := network.SetExtraHTTPHeaders(headers).Do(ctx); err != nil {
			return fmt.Errorf("set extra headers: %w", err)
		}
		return nil
	})
}

// docStatus records the HTTP status of the main document response.
type docStatus struct {
	mu     sync.Mutex
	status int
}

func newDocStatus() *docStatus {
	return &docStatus{}
}

func (d *docStatus) captureEvent(ev any) {
	resp, ok := ev.(*network.EventResponseReceived)
	if !ok || resp.Type != network.ResourceTypeDocument || resp.Response == nil {
		return
	}
	d.mu.Lock()
	d.status = int(resp.Response.Status)
	d.mu.Unlock()
}

func (d *docStatus) code() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.status
}

// forwardCancel propagates cancellation of the caller's context into a tab
// context that does not descend from it.
func forwardCancel(parent context.Context, cancel context.CancelFunc) func() {
	if parent == nil {
		return func() {}
	}
	done := make(chan struct{})
	go func() {
		select {
		case <-parent.Done():
			cancel()
		case <-done:
		}
	}()
	return func() { close(done) }
}

// loadMoreScript clicks the listing page's incremental-loading trigger when
// one is present.
const loadMoreScript = `(() => {
	const labels = ['load more', 'show more', 'more jobs'];
	const nodes = document.querySelectorAll('button, a[role="button"], [class*="load-more"], [class*="loadMore"]');
	for (const el of nodes) {
		const text = (el.innerText || '').trim().toLowerCase();
		const byClass = el.className && /load[-_ ]?more/i.test(String(el.className));
		if (byClass || labels.some((l) => text.includes(l))) {
			el.click();
			return true;
		}
	}
	return false;
})()`
