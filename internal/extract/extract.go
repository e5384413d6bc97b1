// Package extract pulls DOI, year, URL, author and title fields out of a single
// raw citation string.
//
// Each field is driven by an ordered rule table. Rules are tried in order and
// the first one that produces a value wins, so the fallback behavior can be
// read straight off the tables.
package extract

import (
	"regexp"
	"strings"

	"github.com/matsen/citecheck/internal/citation"
)

// Fields runs every extractor over raw.
func Fields(raw string) citation.Fields {
	urls := URLs(raw)
	f := citation.Fields{
		DOI:     DOI(raw),
		Year:    Year(raw),
		URLs:    urls,
		Authors: Authors(raw),
		Title:   Title(raw),
	}
	if len(urls) > 0 {
		f.URL = urls[0]
	}
	return f
}

// doiRule is one entry in the DOI rule table. Group 1 holds the DOI.
type doiRule struct {
	name    string
	pattern *regexp.Regexp
}

// tokenEnd is the character class that ends a DOI or URL token. \p{Z} adds the
// Unicode spaces (U+00A0 and friends) that RE2's \s leaves out.
const tokenEnd = `\s\p{Z}\]\)\}"'`

// doiSuffix is the registrant/suffix shape shared by both rules.
const doiSuffix = `(10\.\d{4,}/[^` + tokenEnd + `]+)`

var doiRules = []doiRule{
	{"bare-or-prefixed", regexp.MustCompile(`(?i)(?:doi\s*[:\s]*)?` + doiSuffix)},
	{"doi-url", regexp.MustCompile(`(?i)https?://(?:dx\.)?doi\.org/` + doiSuffix)},
}

// DOI returns the first DOI in text, or "" when there is none.
func DOI(text string) string {
	doi, _ := matchDOI(text)
	return doi
}

// matchDOI also reports which rule matched.
func matchDOI(text string) (string, string) {
	text = strings.TrimSpace(text)
	for _, rule := range doiRules {
		if m := rule.pattern.FindStringSubmatch(text); m != nil {
			if doi := NormalizeDOI(m[1]); doi != "" {
				return doi, rule.name
			}
		}
	}
	return "", ""
}

// NormalizeDOI strips trailing punctuation. It returns "" for anything that
// does not start with "10.".
func NormalizeDOI(doi string) string {
	doi = strings.TrimRight(strings.TrimSpace(doi), ".,;")
	if !strings.HasPrefix(doi, "10.") {
		return ""
	}
	return doi
}

// yearPattern matches 1900-2099 as a standalone token.
var yearPattern = regexp.MustCompile(`\b(?:19|20)\d{2}\b`)

// Year returns the last year-shaped token in text. Volume and page numbers
// tend to come before the publication year in structured citations, so the
// last occurrence is preferred.
func Year(text string) string {
	matches := yearPattern.FindAllString(text, -1)
	if len(matches) == 0 {
		return ""
	}
	return matches[len(matches)-1]
}

var urlPattern = regexp.MustCompile(`https?://[^` + tokenEnd + `]+`)

// URLs returns every http(s) URL in text, in order.
func URLs(text string) []string {
	urls := urlPattern.FindAllString(text, -1)
	if urls == nil {
		return []string{}
	}
	return urls
}
