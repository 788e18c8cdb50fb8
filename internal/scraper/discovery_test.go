package scraper

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

const listingURL = "https://www.ycombinator.com/jobs/role/software-engineer"

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	return doc
}

// fakePager serves a fixed sequence of listing snapshots: index 0 for
// LoadListing, later indexes for successive LoadMore rounds.
type fakePager struct {
	t        *testing.T
	pages    []string
	idx      int
	loadErr  error
	moreErr  error
	moreSeen int
}

func (p *fakePager) LoadListing(_ context.Context, _ string) (*goquery.Document, error) {
	if p.loadErr != nil {
		return nil, p.loadErr
	}
	p.idx = 0
	return mustDoc(p.t, p.pages[0]), nil
}

func (p *fakePager) LoadMore(_ context.Context) (*goquery.Document, bool, error) {
	p.moreSeen++
	if p.moreErr != nil {
		return nil, false, p.moreErr
	}
	if p.idx+1 >= len(p.pages) {
		return nil, false, nil
	}
	p.idx++
	return mustDoc(p.t, p.pages[p.idx]), true, nil
}

func TestDiscoverDeduplicates(t *testing.T) {
	t.Parallel()

	// Three detail links, two unique.
	pager := &fakePager{t: t, pages: []string{`
		<html><body>
			<a href="https://www.ycombinator.com/companies/acme/jobs/1-engineer">Engineer</a>
			<a href="https://www.ycombinator.com/companies/beta/jobs/2-designer">Designer</a>
			<a href="https://www.ycombinator.com/companies/acme/jobs/1-engineer">Engineer (again)</a>
			<a href="https://www.ycombinator.com/about">Not a job</a>
		</body></html>`}}

	d := NewDiscoverer(nil, 0, zap.NewNop())
	urls, err := d.Discover(context.Background(), pager, listingURL)
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	want := []string{
		"https://www.ycombinator.com/companies/acme/jobs/1-engineer",
		"https://www.ycombinator.com/companies/beta/jobs/2-designer",
	}
	assertURLs(t, urls, want)
}

func TestDiscoverFirstStrategyWins(t *testing.T) {
	t.Parallel()

	// Strategy A and B would return different sets; B's URLs must be absent.
	strategies := []Strategy{
		{Name: "primary", Selector: "a.primary"},
		{Name: "secondary", Selector: "a.secondary"},
	}
	pager := &fakePager{t: t, pages: []string{`
		<html><body>
			<a class="primary" href="https://www.ycombinator.com/companies/acme/jobs/1">A</a>
			<a class="secondary" href="https://www.ycombinator.com/companies/beta/jobs/2">B</a>
			<a class="secondary" href="https://www.ycombinator.com/companies/gamma/jobs/3">B2</a>
		</body></html>`}}

	d := NewDiscoverer(strategies, 0, zap.NewNop())
	urls, err := d.Discover(context.Background(), pager, listingURL)
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	assertURLs(t, urls, []string{"https://www.ycombinator.com/companies/acme/jobs/1"})
}

func TestDiscoverFallsBackThroughStrategies(t *testing.T) {
	t.Parallel()

	strategies := []Strategy{
		{Name: "primary", Selector: "a.primary"},
		{Name: "secondary", Selector: "a.secondary"},
	}
	pager := &fakePager{t: t, pages: []string{`
		<html><body>
			<a class="secondary" href="https://www.ycombinator.com/companies/beta/jobs/2">B</a>
		</body></html>`}}

	d := NewDiscoverer(strategies, 0, zap.NewNop())
	urls, err := d.Discover(context.Background(), pager, listingURL)
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	assertURLs(t, urls, []string{"https://www.ycombinator.com/companies/beta/jobs/2"})
}

func TestDiscoverAccumulatesAcrossLoadMore(t *testing.T) {
	t.Parallel()

	pager := &fakePager{t: t, pages: []string{
		`<html><body><a href="https://www.ycombinator.com/companies/acme/jobs/1">1</a></body></html>`,
		`<html><body>
			<a href="https://www.ycombinator.com/companies/acme/jobs/1">1</a>
			<a href="https://www.ycombinator.com/companies/beta/jobs/2">2</a>
		</body></html>`,
	}}

	d := NewDiscoverer(nil, 5, zap.NewNop())
	urls, err := d.Discover(context.Background(), pager, listingURL)
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	assertURLs(t, urls, []string{
		"https://www.ycombinator.com/companies/acme/jobs/1",
		"https://www.ycombinator.com/companies/beta/jobs/2",
	})
}

func TestDiscoverRespectsRoundCeiling(t *testing.T) {
	t.Parallel()

	// Pager could serve new pages forever; the ceiling must stop it. Each
	// page yields a new URL so the "no new candidate" exit never triggers.
	pages := []string{
		`<html><body><a href="https://www.ycombinator.com/companies/c0/jobs/0">0</a></body></html>`,
		`<html><body><a href="https://www.ycombinator.com/companies/c1/jobs/1">1</a></body></html>`,
		`<html><body><a href="https://www.ycombinator.com/companies/c2/jobs/2">2</a></body></html>`,
		`<html><body><a href="https://www.ycombinator.com/companies/c3/jobs/3">3</a></body></html>`,
	}
	pager := &fakePager{t: t, pages: pages}

	d := NewDiscoverer(nil, 2, zap.NewNop())
	urls, err := d.Discover(context.Background(), pager, listingURL)
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if len(urls) != 3 { // initial page + 2 rounds
		t.Fatalf("got %d urls, want 3 (ceiling of 2 rounds): %v", len(urls), urls)
	}
}

func TestDiscoverEmptyIsNotAnError(t *testing.T) {
	t.Parallel()

	pager := &fakePager{t: t, pages: []string{`<html><body><p>nothing here</p></body></html>`}}
	d := NewDiscoverer(nil, 3, zap.NewNop())
	urls, err := d.Discover(context.Background(), pager, listingURL)
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if len(urls) != 0 {
		t.Fatalf("got %v, want empty", urls)
	}
}

func TestDiscoverListingLoadFailureIsFatal(t *testing.T) {
	t.Parallel()

	pager := &fakePager{t: t, loadErr: ErrNavigationTimeout}
	d := NewDiscoverer(nil, 3, zap.NewNop())
	if _, err := d.Discover(context.Background(), pager, listingURL); !errors.Is(err, ErrNavigationTimeout) {
		t.Fatalf("Discover() error = %v, want ErrNavigationTimeout", err)
	}
}

func TestDiscoverLoadMoreErrorStopsTraversal(t *testing.T) {
	t.Parallel()

	pager := &fakePager{
		t:       t,
		pages:   []string{`<html><body><a href="https://www.ycombinator.com/companies/acme/jobs/1">1</a></body></html>`},
		moreErr: errors.New("tab crashed"),
	}
	d := NewDiscoverer(nil, 3, zap.NewNop())
	urls, err := d.Discover(context.Background(), pager, listingURL)
	if err != nil {
		t.Fatalf("Discover() error = %v, want nil (load-more failure is not fatal)", err)
	}
	assertURLs(t, urls, []string{"https://www.ycombinator.com/companies/acme/jobs/1"})
	if pager.moreSeen != 1 {
		t.Fatalf("LoadMore called %d times, want 1", pager.moreSeen)
	}
}

func assertURLs(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d urls %v, want %v", len(got), got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("url[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
