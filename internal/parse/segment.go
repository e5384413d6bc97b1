package parse

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/matsen/citecheck/internal/citation"
)

const (
	// minFragmentLen is the length a numbered or paragraph fragment must exceed.
	minFragmentLen = 20

	// Per-line heuristic thresholds.
	minLineWithYear = 30
	minLineAny      = 50
)

var (
	// blankLinePattern separates blocks and paragraphs.
	blankLinePattern = regexp.MustCompile(`\n[ \t]*\n`)

	// numberedPattern matches list markers at line start: "1.", "2)", "[3]".
	numberedPattern = regexp.MustCompile(`(?m)^[ \t]*(?:\d+[.)]|\[\d+\])[ \t]*`)

	// lineSignalPattern marks a line that looks like a full reference.
	lineSignalPattern = regexp.MustCompile(`(?i)\d{4}|doi\.org|10\.\d{4}`)
)

// Parse splits raw input into citations and reports the detected format.
// Input is first split on blank lines; when that yields several blocks each is
// detected and segmented on its own and the format is "mixed" if they disagree.
func Parse(text string) ([]string, citation.Format) {
	text = normalizeNewlines(text)
	if strings.TrimSpace(text) == "" {
		return []string{}, citation.FormatUnknown
	}

	blocks := splitBlocks(text)
	if len(blocks) == 1 {
		format := DetectFormat(blocks[0])
		return Segment(blocks[0], format), format
	}

	var citations []string
	format := citation.FormatUnknown
	for i, block := range blocks {
		f := DetectFormat(block)
		citations = append(citations, Segment(block, f)...)
		switch {
		case i == 0:
			format = f
		case f != format:
			format = citation.FormatMixed
		}
	}
	if citations == nil {
		citations = []string{}
	}
	return citations, format
}

// Segment splits one block using the strategy for its format.
func Segment(block string, format citation.Format) []string {
	if format == citation.FormatBibTeX {
		return SplitBibTeX(block)
	}
	return SplitLoose(block)
}

// SplitBibTeX returns every balanced "@type{...}" entry, in order, exactly as it
// appears in text. An entry whose braces never close ends the scan and is
// dropped.
func SplitBibTeX(text string) []string {
	entries := []string{}
	pos := 0
	for pos < len(text) {
		loc := bibEntryPattern.FindStringIndex(text[pos:])
		if loc == nil {
			break
		}
		start := pos + loc[0]
		open := pos + loc[1] - 1 // the anchor ends on its "{"

		end := matchingBrace(text, open)
		if end < 0 {
			break
		}
		entries = append(entries, text[start:end+1])
		pos = end + 1
	}
	return entries
}

// matchingBrace returns the index of the "}" closing the "{" at open, or -1.
func matchingBrace(text string, open int) int {
	depth := 0
	for i := open; i < len(text); i++ {
		switch text[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// splitter is one tier of the loose segmentation chain. It returns nil when it
// does not apply.
type splitter struct {
	name  string
	split func(text string) []string
}

// looseSplitters are tried in order; the first to return citations wins.
var looseSplitters = []splitter{
	{"numbered", splitNumbered},
	{"paragraph", splitParagraphs},
	{"single-line", splitSingleLine},
	{"per-line", splitLines},
	{"whole", splitWhole},
}

// SplitLoose segments structured or unformatted text. Any non-empty block
// yields at least one citation.
func SplitLoose(text string) []string {
	citations, _ := splitLoose(text)
	return citations
}

// splitLoose also reports which tier produced the result.
func splitLoose(text string) ([]string, string) {
	text = strings.TrimSpace(normalizeNewlines(text))
	if text == "" {
		return []string{}, ""
	}
	for _, s := range looseSplitters {
		if out := s.split(text); len(out) > 0 {
			return out, s.name
		}
	}
	return []string{}, ""
}

func splitNumbered(text string) []string {
	out := keepLonger(numberedPattern.Split(text, -1), minFragmentLen)
	if len(out) < 2 {
		return nil
	}
	return out
}

func splitParagraphs(text string) []string {
	out := keepLonger(blankLinePattern.Split(text, -1), minFragmentLen)
	if len(out) < 2 {
		return nil
	}
	return out
}

func splitSingleLine(text string) []string {
	lines := nonBlankLines(text)
	if len(lines) != 1 {
		return nil
	}
	return lines
}

func splitLines(text string) []string {
	var out []string
	for _, line := range nonBlankLines(text) {
		n := utf8.RuneCountInString(line)
		if (n > minLineWithYear && lineSignalPattern.MatchString(line)) || n > minLineAny {
			out = append(out, line)
		}
	}
	return out
}

func splitWhole(text string) []string {
	return []string{text}
}

// keepLonger trims parts and keeps those longer than minLen runes.
func keepLonger(parts []string, minLen int) []string {
	var out []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if utf8.RuneCountInString(p) > minLen {
			out = append(out, p)
		}
	}
	return out
}

func nonBlankLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func splitBlocks(text string) []string {
	var blocks []string
	for _, b := range blankLinePattern.Split(text, -1) {
		if b = strings.TrimSpace(b); b != "" {
			blocks = append(blocks, b)
		}
	}
	return blocks
}

func normalizeNewlines(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}
