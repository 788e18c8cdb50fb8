package scraper

import (
	"fmt"
	"net/url"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// networkDomain is the professional-network host whose profile links are
// harvested from detail pages.
const networkDomain = "linkedin.com"

// FieldChain is the ordered selector fallback for one structured field.
// Chains are evaluated independently: a missing title never blocks company.
type FieldChain struct {
	Field     string
	Selectors []string
}

// DefaultFieldChains mirrors the listing-detail markup observed on the site,
// most specific selector first.
var DefaultFieldChains = []FieldChain{
	{Field: "title", Selectors: []string{"h1", ".job-title", `[class*="job-title"]`}},
	{Field: "company", Selectors: []string{".company-name", `[class*="company-name"]`, `[class*="CompanyName"]`, "h2"}},
	{Field: "location", Selectors: []string{".location", `[class*="location"]`}},
	{Field: "description", Selectors: []string{".job-description", `[class*="job-description"]`, `[class*="description"]`, ".prose"}},
}

// Extractor pulls structured fields and professional-network links out of a
// loaded detail page.
type Extractor struct {
	chains []FieldChain
	clock  Clock
	logger *zap.Logger
}

// NewExtractor builds an Extractor with the given field chains (defaults when
// empty).
func NewExtractor(chains []FieldChain, clock Clock, logger *zap.Logger) *Extractor {
	if len(chains) == 0 {
		chains = DefaultFieldChains
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{chains: chains, clock: clock, logger: logger}
}

// Extract builds a ListingRecord from a loaded detail page. Field extraction
// is independent per field; a chain that yields nothing leaves the field
// empty and notes the miss in FieldErrors. Link harvesting is a union of
// detection rules, deduplicated afterward.
func (e *Extractor) Extract(doc *goquery.Document, detailURL string) ListingRecord {
	record := ListingRecord{
		URL:         detailURL,
		ExtractedAt: e.clock.Now(),
		FieldErrors: map[string]string{},
	}

	for _, chain := range e.chains {
		value, err := firstMatch(doc, chain.Selectors)
		if err != nil {
			record.FieldErrors[chain.Field] = err.Error()
			continue
		}
		if value == "" {
			record.FieldErrors[chain.Field] = "no selector matched"
			continue
		}
		record.setField(chain.Field, value)
	}

	base, err := url.Parse(detailURL)
	if err == nil {
		record.LinkedInURLs = harvestNetworkLinks(doc, base)
	} else {
		record.FieldErrors["linkedin_urls"] = fmt.Sprintf("parse detail url: %v", err)
	}

	record.FounderNames = founderNames(doc)

	if len(record.FieldErrors) == 0 {
		record.FieldErrors = nil
	}
	return record
}

// FailedRecord represents a detail page that never became ready. Text fields
// stay empty and the page-level failure lands in FieldErrors, so the run can
// carry on with the remaining URLs.
func (e *Extractor) FailedRecord(detailURL string, cause error) ListingRecord {
	return ListingRecord{
		URL:         detailURL,
		ExtractedAt: e.clock.Now(),
		FieldErrors: map[string]string{FieldPage: cause.Error()},
	}
}

func (r *ListingRecord) setField(field, value string) {
	switch field {
	case "title":
		r.Title = value
	case "company":
		r.Company = value
	case "location":
		r.Location = value
	case "description":
		r.Description = value
	}
}

func firstMatch(doc *goquery.Document, selectors []string) (string, error) {
	for _, selector := range selectors {
		text := strings.TrimSpace(doc.Find(selector).First().Text())
		if text != "" {
			return text, nil
		}
	}
	return "", nil
}

// harvestNetworkLinks unions three detection rules: direct hrefs, anchors in
// social-icon containers, and anchors wrapping icon elements. Recall beats
// precision here; dedup happens after the union.
func harvestNetworkLinks(doc *goquery.Document, base *url.URL) []string {
	seen := make(map[string]struct{})
	var links []string
	add := func(sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			return
		}
		resolved := ResolveHref(base, href)
		if resolved == "" || !strings.Contains(strings.ToLower(resolved), networkDomain) {
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
		links = append(links, normalized)
	}

	// Rule 1: direct anchor hrefs.
	doc.Find(`a[href*="` + networkDomain + `"]`).Each(func(_ int, sel *goquery.Selection) {
		add(sel)
	})
	// Rule 2: anchors inside social-icon containers.
	doc.Find(`[class*="social"] a, [class*="Social"] a`).Each(func(_ int, sel *goquery.Selection) {
		add(sel)
	})
	// Rule 3: anchors nested around icon elements.
	doc.Find("a").Each(func(_ int, sel *goquery.Selection) {
		if sel.Find(`svg, img[src*="linkedin"], i[class*="linkedin"]`).Length() > 0 {
			add(sel)
		}
	})
	return links
}

// founderNames pulls person names out of the page's founders section, if one
// exists. Names feed the classifier's fallback rule.
func founderNames(doc *goquery.Document) []string {
	seen := make(map[string]struct{})
	var names []string
	for _, section := range foundersSections(doc) {
		section.Find(`[class*="name"], h3, h4`).Each(func(_ int, sel *goquery.Selection) {
			text := strings.TrimSpace(sel.Text())
			if !looksLikeName(text) {
				return
			}
			if _, dup := seen[text]; dup {
				return
			}
			seen[text] = struct{}{}
			names = append(names, text)
		})
	}
	return names
}

// foundersSections returns DOM sections judged to describe the founders:
// either the element's class mentions founders or it directly contains a
// heading that does.
func foundersSections(doc *goquery.Document) []*goquery.Selection {
	var sections []*goquery.Selection
	doc.Find("section, div").Each(func(_ int, sel *goquery.Selection) {
		if class, _ := sel.Attr("class"); strings.Contains(strings.ToLower(class), "founder") {
			sections = append(sections, sel)
			return
		}
		heading := sel.ChildrenFiltered("h1, h2, h3, h4, h5, h6").First()
		if strings.Contains(strings.ToLower(heading.Text()), "founder") {
			sections = append(sections, sel)
		}
	})
	return sections
}

// looksLikeName filters section text down to plausible person names: two to
// four words, no digits, not the section label itself.
func looksLikeName(text string) bool {
	if text == "" || strings.ContainsAny(text, "0123456789@/") {
		return false
	}
	lower := strings.ToLower(text)
	if strings.Contains(lower, "founder") || strings.Contains(lower, "linkedin") {
		return false
	}
	words := strings.Fields(text)
	if len(words) < 2 || len(words) > 4 {
		return false
	}
	for _, word := range words {
		r := []rune(word)
		if !unicode.IsUpper(r[0]) {
			return false
		}
	}
	return true
}
