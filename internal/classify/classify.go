// Package classify turns extracted fields and verification outcomes into a
// citation verdict.
//
// Every rule is evaluated for every citation, in a fixed order, and each one
// that fires appends exactly one issue and one suggestion. Status starts at
// valid and only ever escalates.
package classify

import (
	"fmt"
	"strconv"

	"github.com/matsen/citecheck/internal/citation"
)

// Plausible publication years.
const (
	MinYear = 1900
	MaxYear = 2030
)

// Issue and suggestion texts.
const (
	IssueNoDOI       = "No DOI present."
	SuggestNoDOI     = "Add a DOI if available to improve verifiability."
	IssueDOINotFound = "DOI not found in CrossRef (possible fake or typo)."
	IssueNoYear      = "No publication year detected."
	SuggestNoYear    = "Include a 4-digit year (e.g. 2020)."
	SuggestYearRange = "Check the publication year."
	IssueURLBroken   = "URL is not accessible (broken or unreachable)."
	SuggestURLBroken = "Update or remove the URL."
	IssueNoAuthors   = "No author(s) detected."
	SuggestNoAuthors = "Add at least one author name."
)

// multiIssueTrigger is the issue count at which a valid citation becomes a warning.
const multiIssueTrigger = 2

// state is what the rules see and modify while evaluating one citation.
type state struct {
	b      *citation.ResultBuilder
	fields citation.Fields
	verif  citation.Verification
	year   string
}

// rule is one row of the classification table.
type rule struct {
	name  string
	apply func(s *state)
}

// rules run in this order; the order fixes the order of issues.
var rules = []rule{
	{"doi", checkDOI},
	{"registry-metadata", applyMetadata},
	{"year", checkYear},
	{"url", checkURL},
	{"authors", checkAuthors},
	{"multiple-issues", checkIssueCount},
}

// Evaluate classifies one citation. index is its 1-based position in the
// parsed list.
func Evaluate(index int, raw string, fields citation.Fields, v citation.Verification) citation.Result {
	s := &state{
		b:      citation.NewResultBuilder(index, raw).Fields(fields).Verification(v),
		fields: fields,
		verif:  v,
		year:   fields.Year,
	}
	for _, r := range rules {
		r.apply(s)
	}
	return s.b.Build()
}

func checkDOI(s *state) {
	switch {
	case s.fields.DOI == "":
		s.b.Issue(IssueNoDOI, SuggestNoDOI)
	case s.verif.DOI == citation.DOINotResolved:
		s.b.Issue(IssueDOINotFound, "Verify the DOI at https://doi.org/"+s.fields.DOI)
		s.b.Escalate(citation.StatusSuspectedFake)
	}
}

// applyMetadata lets the registry's year and title replace extracted ones.
func applyMetadata(s *state) {
	if s.verif.DOI != citation.DOIResolved || s.verif.Metadata == nil {
		return
	}
	if s.verif.Metadata.Year != "" {
		s.year = s.verif.Metadata.Year
		s.b.Year(s.year)
	}
	if s.verif.Metadata.Title != "" {
		s.b.Title(s.verif.Metadata.Title)
	}
}

func checkYear(s *state) {
	if s.year == "" {
		s.b.Issue(IssueNoYear, SuggestNoYear)
		s.b.Escalate(citation.StatusWarning)
		return
	}
	y, err := strconv.Atoi(s.year)
	if err != nil || y < MinYear || y > MaxYear {
		s.b.Issue(fmt.Sprintf("Year %s seems implausible.", s.year), SuggestYearRange)
		s.b.Escalate(citation.StatusWarning)
	}
}

func checkURL(s *state) {
	if s.fields.URL != "" && s.verif.URL == citation.URLUnreachable {
		s.b.Issue(IssueURLBroken, SuggestURLBroken)
		s.b.Escalate(citation.StatusWarning)
	}
}

func checkAuthors(s *state) {
	if len(s.fields.Authors) == 0 {
		s.b.Issue(IssueNoAuthors, SuggestNoAuthors)
		s.b.Escalate(citation.StatusWarning)
	}
}

// checkIssueCount keeps a citation with several weak signals from staying valid.
func checkIssueCount(s *state) {
	if s.b.Status() == citation.StatusValid && s.b.IssueCount() >= multiIssueTrigger {
		s.b.Escalate(citation.StatusWarning)
	}
}
