package scraper

import (
	"context"
	"fmt"
	"net/url"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// Strategy is one way of locating detail-page anchors on a listing page.
// Strategies are tried most specific first; the first one that yields at
// least one candidate wins for that snapshot.
type Strategy struct {
	Name     string
	Selector string
}

// DefaultStrategies orders the selector fallback chain for listing pages.
// The site's markup churns, so each later entry is a looser net.
var DefaultStrategies = []Strategy{
	{Name: "detail_anchor", Selector: `a[href*="/companies/"][href*="/jobs/"]`},
	{Name: "job_listing", Selector: `[class*="job-listing"] a, [class*="JobListing"] a`},
	{Name: "role_list", Selector: `div[role="list"] a, .jobs-list a`},
	{Name: "article_anchor", Selector: `article a[href*="/jobs/"]`},
	{Name: "any_job_anchor", Selector: `a[href*="/jobs/"]`},
}

// Discoverer finds candidate detail-page URLs on a listing page.
type Discoverer struct {
	strategies []Strategy
	maxRounds  int
	logger     *zap.Logger
}

// NewDiscoverer builds a Discoverer. maxRounds caps how many "load more"
// rounds are attempted after the initial snapshot.
func NewDiscoverer(strategies []Strategy, maxRounds int, logger *zap.Logger) *Discoverer {
	if len(strategies) == 0 {
		strategies = DefaultStrategies
	}
	if maxRounds < 0 {
		maxRounds = 0
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Discoverer{strategies: strategies, maxRounds: maxRounds, logger: logger}
}

// Discover loads listingURL through the pager and returns the deduplicated
// detail-page URLs found, in first-seen order. Incremental loading is
// re-triggered until it yields no new candidate or the round ceiling is hit.
// An empty result is a normal outcome, not an error; a failure to load the
// listing page itself is fatal to the run and propagates.
func (d *Discoverer) Discover(ctx context.Context, pager Pager, listingURL string) ([]string, error) {
	doc, err := pager.LoadListing(ctx, listingURL)
	if err != nil {
		return nil, fmt.Errorf("load listing page: %w", err)
	}

	base, err := url.Parse(listingURL)
	if err != nil {
		return nil, fmt.Errorf("parse listing url: %w", err)
	}

	seen := make(map[string]struct{})
	var found []string
	collect := func(doc *goquery.Document) int {
		added := 0
		for _, candidate := range d.collect(doc, base) {
			if _, dup := seen[candidate]; dup {
				continue
			}
			seen[candidate] = struct{}{}
			found = append(found, candidate)
			added++
		}
		return added
	}

	collect(doc)
	for round := 0; round < d.maxRounds; round++ {
		if err := ctx.Err(); err != nil {
			return found, err
		}
		next, triggered, err := pager.LoadMore(ctx)
		if err != nil {
			d.logger.Warn("load more failed, stopping traversal", zap.Int("round", round), zap.Error(err))
			break
		}
		if !triggered {
			break
		}
		if collect(next) == 0 {
			break
		}
	}

	d.logger.Info("listing discovery finished",
		zap.String("listing_url", listingURL),
		zap.Int("candidates", len(found)),
	)
	return found, nil
}

// collect applies the strategy chain to one snapshot. First strategy with at
// least one candidate wins; later strategies are not consulted.
func (d *Discoverer) collect(doc *goquery.Document, base *url.URL) []string {
	for _, strategy := range d.strategies {
		candidates := d.candidatesFor(doc, base, strategy)
		if len(candidates) > 0 {
			d.logger.Debug("strategy matched",
				zap.String("strategy", strategy.Name),
				zap.Int("candidates", len(candidates)),
			)
			return candidates
		}
	}
	return nil
}

func (d *Discoverer) candidatesFor(doc *goquery.Document, base *url.URL, strategy Strategy) []string {
	var out []string
	seen := make(map[string]struct{})
	doc.Find(strategy.Selector).Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			return
		}
		resolved := ResolveHref(base, href)
		if resolved == "" || !IsDetailURL(resolved) {
			return
		}
		normalized, err := NormalizeURL(resolved)
		if err != nil {
			return
		}
		if _, dup := seen[normalized]; dup {
			return
		}
		seen[normalized] = struct{}{}
		out = append(out, normalized)
	})
	return out
}
