package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// authorRule is one tier of author detection. It returns nil when it does not
// apply.
type authorRule struct {
	name    string
	extract func(raw string) []string
}

var authorRules = []authorRule{
	{"bibtex-field", bibtexAuthors},
	{"structured-heading", headingAuthors},
}

// Authors returns author names in detection order. An empty list is a normal
// outcome.
func Authors(raw string) []string {
	authors, _ := matchAuthors(raw)
	return authors
}

func matchAuthors(raw string) ([]string, string) {
	for _, rule := range authorRules {
		if names := rule.extract(raw); len(names) > 0 {
			return names, rule.name
		}
	}
	return []string{}, ""
}

var (
	// bibAuthorPattern captures the value of author = {...} or author = "...".
	bibAuthorPattern = regexp.MustCompile(`(?i)author\s*=\s*[{"]([^}"]+)[}"]`)

	// bibAuthorSeparator splits on " and " or ";".
	bibAuthorSeparator = regexp.MustCompile(`(?i)\s+and\s+|\s*;\s*`)

	// headingPattern captures everything before the first "(<year>".
	headingPattern = regexp.MustCompile(`^([^(]+?)\s*\(\s*\d{4}`)

	ampersandPattern = regexp.MustCompile(`\s*&\s*`)

	// initialsPattern matches initials such as "J.", "J. K." or "J.-P.".
	initialsPattern = regexp.MustCompile(`^(?:[A-Z]\.?[\s-]*)+$`)
)

func bibtexAuthors(raw string) []string {
	m := bibAuthorPattern.FindStringSubmatch(raw)
	if m == nil {
		return nil
	}
	var names []string
	for _, part := range bibAuthorSeparator.Split(m[1], -1) {
		for _, name := range splitAfterInitials(part) {
			name = strings.TrimSpace(strings.Trim(strings.TrimSpace(name), "{}"))
			if name != "" {
				names = append(names, name)
			}
		}
	}
	return names
}

// splitAfterInitials separates "Smith, J., Doe, A." into "Smith, J." and
// "Doe, A." while leaving a single "Smith, J." intact.
func splitAfterInitials(part string) []string {
	var names []string
	var current []string
	for _, seg := range strings.Split(part, ",") {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		if len(current) > 0 && initialsPattern.MatchString(seg) {
			current = append(current, seg)
			continue
		}
		if len(current) > 0 && !endsWithInitials(current) {
			// "First Last, Second" style: keep the comma inside one name.
			current = append(current, seg)
			continue
		}
		if len(current) > 0 {
			names = append(names, strings.Join(current, ", "))
		}
		current = []string{seg}
	}
	if len(current) > 0 {
		names = append(names, strings.Join(current, ", "))
	}
	return names
}

// endsWithInitials reports whether the name collected so far is complete,
// i.e. a surname followed by initials.
func endsWithInitials(segs []string) bool {
	return len(segs) > 1 && initialsPattern.MatchString(segs[len(segs)-1])
}

func headingAuthors(raw string) []string {
	m := headingPattern.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return nil
	}
	part := ampersandPattern.ReplaceAllString(strings.TrimSpace(m[1]), ", ")

	var names []string
	for _, name := range groupSurnames(part) {
		if utf8.RuneCountInString(name) > 2 {
			names = append(names, name)
		}
	}
	return names
}

// groupSurnames walks comma-separated segments and attaches each run of
// initials to the surname before it.
func groupSurnames(part string) []string {
	var names []string
	for _, seg := range strings.Split(part, ",") {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		if len(names) > 0 && initialsPattern.MatchString(seg) && !initialsPattern.MatchString(lastSegment(names[len(names)-1])) {
			names[len(names)-1] += ", " + seg
			continue
		}
		names = append(names, seg)
	}
	return names
}

func lastSegment(name string) string {
	if i := strings.LastIndex(name, ","); i >= 0 {
		return strings.TrimSpace(name[i+1:])
	}
	return ""
}
