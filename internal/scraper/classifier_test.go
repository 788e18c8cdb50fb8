package scraper

import "testing"

func TestClassifyFoundersSectionIsPrimary(t *testing.T) {
	t.Parallel()

	doc := mustDoc(t, `
		<html><body>
			<section class="founders">
				<h3>Jane Doe</h3>
				<a href="https://linkedin.com/in/jane-doe">Jane</a>
			</section>
			<footer>
				<a href="https://linkedin.com/company/acme">Acme</a>
			</footer>
		</body></html>`)

	links := []string{
		"https://linkedin.com/in/jane-doe",
		"https://linkedin.com/company/acme",
	}
	founders, company := Classifier{}.Classify(doc, []string{"Jane Doe"}, links)

	assertURLs(t, founders, []string{"https://linkedin.com/in/jane-doe"})
	assertURLs(t, company, []string{"https://linkedin.com/company/acme"})
}

func TestClassifyNameTokenFallback(t *testing.T) {
	t.Parallel()

	// No founders section in the DOM; only the URL slug links the profile to
	// the known name.
	doc := mustDoc(t, `<html><body><p>no founders section</p></body></html>`)

	links := []string{
		"https://linkedin.com/in/jane-doe-12345",
		"https://linkedin.com/company/acme",
	}
	founders, company := Classifier{}.Classify(doc, []string{"Jane Doe"}, links)

	assertURLs(t, founders, []string{"https://linkedin.com/in/jane-doe-12345"})
	assertURLs(t, company, []string{"https://linkedin.com/company/acme"})
}

func TestClassifyFallbackSkippedWhenSectionMatched(t *testing.T) {
	t.Parallel()

	// Section membership already classified one link; the name-token rule
	// must not run, so the slug match on the second link is ignored.
	doc := mustDoc(t, `
		<html><body>
			<div class="founder-card">
				<a href="https://linkedin.com/in/jane-doe">Jane</a>
			</div>
		</body></html>`)

	links := []string{
		"https://linkedin.com/in/jane-doe",
		"https://linkedin.com/school/doe-university",
	}
	founders, company := Classifier{}.Classify(doc, []string{"Jane Doe"}, links)

	assertURLs(t, founders, []string{"https://linkedin.com/in/jane-doe"})
	assertURLs(t, company, []string{"https://linkedin.com/school/doe-university"})
}

func TestClassifyNoSignalsMeansAllCompany(t *testing.T) {
	t.Parallel()

	doc := mustDoc(t, `<html><body></body></html>`)
	links := []string{
		"https://linkedin.com/company/acme",
		"https://linkedin.com/in/somebody",
	}
	founders, company := Classifier{}.Classify(doc, nil, links)

	if len(founders) != 0 {
		t.Fatalf("founders = %v, want empty", founders)
	}
	assertURLs(t, company, links)
}

func TestClassifyShortTokensIgnored(t *testing.T) {
	t.Parallel()

	// Tokens of two characters or fewer are too noisy to match on.
	doc := mustDoc(t, `<html><body></body></html>`)
	links := []string{"https://linkedin.com/in/al-profile"}
	founders, company := Classifier{}.Classify(doc, []string{"Al Bo"}, links)

	if len(founders) != 0 {
		t.Fatalf("founders = %v, want empty for short tokens", founders)
	}
	assertURLs(t, company, links)
}

func TestClassifyPreservesOrderAndPartition(t *testing.T) {
	t.Parallel()

	doc := mustDoc(t, `<html><body></body></html>`)
	links := []string{
		"https://linkedin.com/company/acme",
		"https://linkedin.com/in/jane-doe",
		"https://linkedin.com/company/acme-labs",
		"https://linkedin.com/in/doe-jane",
	}
	founders, company := Classifier{}.Classify(doc, []string{"Jane Doe"}, links)

	assertURLs(t, founders, []string{
		"https://linkedin.com/in/jane-doe",
		"https://linkedin.com/in/doe-jane",
	})
	assertURLs(t, company, []string{
		"https://linkedin.com/company/acme",
		"https://linkedin.com/company/acme-labs",
	})
	if len(founders)+len(company) != len(links) {
		t.Fatalf("partition lost links: %d + %d != %d", len(founders), len(company), len(links))
	}
}
