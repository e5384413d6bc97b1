package citation

// Result is the final verdict for one citation. It is built once by a
// ResultBuilder and treated as read-only afterwards.
type Result struct {
	Index       int      `json:"index"` // 1-based position in the parsed list
	Raw         string   `json:"raw"`
	Status      Status   `json:"status"`
	Issues      []string `json:"issues"`
	Suggestions []string `json:"suggestions"` // Suggestions[i] answers Issues[i]
	DOI         string   `json:"doi,omitempty"`
	Year        string   `json:"year,omitempty"`
	URL         string   `json:"url,omitempty"`
	Authors     []string `json:"authors"`
	Title       string   `json:"title,omitempty"`
	DOIResolved DOIState `json:"doi_resolved"`
	URLAccess   URLState `json:"url_accessible"`
}

// ResultBuilder accumulates issues and escalations for one citation.
type ResultBuilder struct {
	r Result
}

// NewResultBuilder starts a result in the valid state.
func NewResultBuilder(index int, raw string) *ResultBuilder {
	return &ResultBuilder{r: Result{
		Index:       index,
		Raw:         raw,
		Status:      StatusValid,
		Issues:      []string{},
		Suggestions: []string{},
		Authors:     []string{},
	}}
}

// Fields copies the extracted fields into the result.
func (b *ResultBuilder) Fields(f Fields) *ResultBuilder {
	b.r.DOI = f.DOI
	b.r.Year = f.Year
	b.r.URL = f.URL
	b.r.Title = f.Title
	b.r.Authors = append([]string{}, f.Authors...)
	return b
}

// Verification records the online check states.
func (b *ResultBuilder) Verification(v Verification) *ResultBuilder {
	b.r.DOIResolved = v.DOI
	b.r.URLAccess = v.URL
	return b
}

// Year overrides the year, e.g. with a registry value.
func (b *ResultBuilder) Year(year string) *ResultBuilder {
	b.r.Year = year
	return b
}

// Title overrides the title.
func (b *ResultBuilder) Title(title string) *ResultBuilder {
	b.r.Title = title
	return b
}

// Issue appends an issue together with its suggestion.
func (b *ResultBuilder) Issue(issue, suggestion string) *ResultBuilder {
	b.r.Issues = append(b.r.Issues, issue)
	b.r.Suggestions = append(b.r.Suggestions, suggestion)
	return b
}

// Escalate raises the status to s. Lower statuses are ignored.
func (b *ResultBuilder) Escalate(s Status) *ResultBuilder {
	if s.rank() > b.r.Status.rank() {
		b.r.Status = s
	}
	return b
}

// Status returns the status accumulated so far.
func (b *ResultBuilder) Status() Status {
	return b.r.Status
}

// IssueCount returns the number of issues recorded so far.
func (b *ResultBuilder) IssueCount() int {
	return len(b.r.Issues)
}

// Build returns the finished result. Slices are copied so that later builder
// calls cannot reach into a returned result.
func (b *ResultBuilder) Build() Result {
	r := b.r
	r.Issues = append([]string{}, b.r.Issues...)
	r.Suggestions = append([]string{}, b.r.Suggestions...)
	r.Authors = append([]string{}, b.r.Authors...)
	return r
}

// Summary counts results by status.
type Summary struct {
	Valid         int `json:"valid"`
	Warning       int `json:"warning"`
	Invalid       int `json:"invalid"`
	SuspectedFake int `json:"suspected_fake"`
	Total         int `json:"total"`
}

// Summarize counts results by status.
func Summarize(results []Result) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		switch r.Status {
		case StatusValid:
			s.Valid++
		case StatusWarning:
			s.Warning++
		case StatusInvalid:
			s.Invalid++
		case StatusSuspectedFake:
			s.SuspectedFake++
		}
	}
	return s
}

// Count returns the number of results with status st.
func (s Summary) Count(st Status) int {
	switch st {
	case StatusValid:
		return s.Valid
	case StatusWarning:
		return s.Warning
	case StatusInvalid:
		return s.Invalid
	case StatusSuspectedFake:
		return s.SuspectedFake
	}
	return 0
}
