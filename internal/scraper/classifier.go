package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Classifier partitions harvested professional-network links into
// founder-associated and company-associated sets.
//
// This is a best-effort heuristic. Irregular or adversarial URL slugs can be
// misclassified; the engine documents that limitation instead of pretending
// to solve it.
type Classifier struct{}

// Classify applies two rules in order:
//
//  1. A link sitting inside a founders section of the page is
//     founder-associated.
//  2. Only when rule 1 matched nothing and at least one founder name is
//     known: a link is founder-associated if any name token longer than two
//     characters appears, case-insensitively, in the URL.
//
// Everything else is company-associated. The returned founder set is always
// a subset of links, in the original order.
func (Classifier) Classify(doc *goquery.Document, founderNames, links []string) (founderURLs, companyURLs []string) {
	founders := make(map[string]struct{})

	if doc != nil {
		inSections := sectionLinks(doc)
		for _, link := range links {
			if _, ok := inSections[link]; ok {
				founders[link] = struct{}{}
			}
		}
	}

	if len(founders) == 0 && len(founderNames) > 0 {
		tokens := nameTokens(founderNames)
		for _, link := range links {
			if matchesToken(link, tokens) {
				founders[link] = struct{}{}
			}
		}
	}

	for _, link := range links {
		if _, ok := founders[link]; ok {
			founderURLs = append(founderURLs, link)
		} else {
			companyURLs = append(companyURLs, link)
		}
	}
	return founderURLs, companyURLs
}

// sectionLinks collects normalized network links that appear inside founders
// sections, keyed for membership tests against the harvested set.
func sectionLinks(doc *goquery.Document) map[string]struct{} {
	out := make(map[string]struct{})
	for _, section := range foundersSections(doc) {
		section.Find(`a[href*="` + networkDomain + `"]`).Each(func(_ int, sel *goquery.Selection) {
			href, ok := sel.Attr("href")
			if !ok {
				return
			}
			if normalized, err := NormalizeURL(strings.TrimSpace(href)); err == nil {
				out[normalized] = struct{}{}
			}
		})
	}
	return out
}

func nameTokens(names []string) []string {
	var tokens []string
	for _, name := range names {
		for _, token := range strings.Fields(name) {
			if len(token) > 2 {
				tokens = append(tokens, strings.ToLower(token))
			}
		}
	}
	return tokens
}

func matchesToken(link string, tokens []string) bool {
	lower := strings.ToLower(link)
	for _, token := range tokens {
		if strings.Contains(lower, token) {
			return true
		}
	}
	return false
}
