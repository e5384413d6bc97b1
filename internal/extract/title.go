package extract

import (
	"regexp"
	"strings"
	"unicode"
)

var titleFieldPattern = regexp.MustCompile(`(?i)title\s*=\s*`)

// Title returns the value of a BibTeX title field, with grouping braces
// removed. Fields such as booktitle are skipped.
func Title(raw string) string {
	for _, loc := range titleFieldPattern.FindAllStringIndex(raw, -1) {
		if loc[0] > 0 && isFieldNameRune(rune(raw[loc[0]-1])) {
			continue
		}
		if value, ok := fieldValue(raw, loc[1]); ok {
			return cleanTitle(value)
		}
	}
	return ""
}

// fieldValue reads a braced or quoted value starting at pos.
func fieldValue(raw string, pos int) (string, bool) {
	if pos >= len(raw) {
		return "", false
	}
	switch raw[pos] {
	case '{':
		if end := matchingBrace(raw, pos); end > pos {
			return raw[pos+1 : end], true
		}
	case '"':
		if end := strings.IndexByte(raw[pos+1:], '"'); end >= 0 {
			return raw[pos+1 : pos+1+end], true
		}
	}
	return "", false
}

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

func cleanTitle(s string) string {
	s = strings.NewReplacer("{", "", "}", "").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

func isFieldNameRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
