package scraper

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// TargetHost is the site the engine scrapes. The HTTP layer rejects URLs
// outside this host before the engine is ever invoked; the helpers here are
// the single source of truth for that shape.
const TargetHost = "ycombinator.com"

var detailPathPattern = regexp.MustCompile(`^/companies/[^/]+/jobs/[^/]+`)

// NormalizeURL standardizes a URL so duplicate listings collapse to one key.
// It lowercases scheme and host, strips default ports and fragments, and
// re-encodes query parameters in sorted order.
func NormalizeURL(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)

	if u.Scheme == "http" {
		u.Host = strings.TrimSuffix(u.Host, ":80")
	}
	if u.Scheme == "https" {
		u.Host = strings.TrimSuffix(u.Host, ":443")
	}

	u.Fragment = ""
	u.RawQuery = u.Query().Encode()

	return u.String(), nil
}

// IsDetailURL reports whether rawURL is an absolute URL with the detail-page
// shape (/companies/<slug>/jobs/<id>) on the target host.
func IsDetailURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	if !onTargetHost(u.Host) {
		return false
	}
	return detailPathPattern.MatchString(u.Path)
}

// IsTargetURL reports whether rawURL points at the target site's job pages at
// all: either a detail page or a listing page under /jobs or /companies.
func IsTargetURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	if !onTargetHost(u.Host) {
		return false
	}
	return strings.HasPrefix(u.Path, "/jobs") || strings.HasPrefix(u.Path, "/companies")
}

func onTargetHost(host string) bool {
	host = strings.ToLower(host)
	return host == TargetHost || strings.HasSuffix(host, "."+TargetHost)
}

// ResolveHref resolves an anchor's href against the page it appeared on.
// Returns an empty string for unresolvable or non-HTTP hrefs.
func ResolveHref(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	resolved := base.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	return resolved.String()
}
