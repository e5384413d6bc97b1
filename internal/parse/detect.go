// Package parse turns pasted citation text into an ordered list of raw citations.
package parse

import (
	"regexp"
	"strings"

	"github.com/matsen/citecheck/internal/citation"
)

var (
	// bibEntryPattern matches an entry marker such as "@article{" or "@Misc {".
	bibEntryPattern = regexp.MustCompile(`(?i)@\s*[a-z]\w*\s*\{`)

	// parenYearPattern matches a parenthesized year such as "(2020)".
	parenYearPattern = regexp.MustCompile(`\(\s*(?:19|20)\d{2}\s*\)`)

	// surnameInitialPattern matches "Smith, J." shaped author tokens.
	surnameInitialPattern = regexp.MustCompile(`[A-Z][a-z]+,\s*[A-Z]\.`)
)

// DetectFormat classifies one block of text. Rules are tried in order and the
// first match wins.
func DetectFormat(text string) citation.Format {
	text = strings.TrimSpace(text)
	if text == "" {
		return citation.FormatUnknown
	}
	if bibEntryPattern.MatchString(text) {
		return citation.FormatBibTeX
	}
	if parenYearPattern.MatchString(text) && surnameInitialPattern.MatchString(text) {
		return citation.FormatStructured
	}
	return citation.FormatUnformatted
}
