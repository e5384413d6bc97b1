package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/matsen/citecheck/internal/citation"
)

// BibTeXExporter writes one @misc entry per citation with the extracted
// fields, plus a note carrying the verdict.
type BibTeXExporter struct{}

func (BibTeXExporter) Name() string         { return "bibtex" }
func (BibTeXExporter) Extensions() []string { return []string{".bib"} }
func (BibTeXExporter) Available() error     { return nil }

func (e BibTeXExporter) Export(path string, doc Document) error {
	return renderToFile(path, doc, e.Render)
}

// Render writes the entries separated by blank lines.
func (BibTeXExporter) Render(w io.Writer, doc Document) error {
	entries := make([]string, 0, len(doc.Results))
	for _, r := range doc.Results {
		entries = append(entries, toBibTeX(r))
	}
	if _, err := io.WriteString(w, strings.Join(entries, "\n")); err != nil {
		return fmt.Errorf("writing BibTeX report: %w", err)
	}
	return nil
}

// toBibTeX converts one result to a BibTeX entry keyed by its index.
func toBibTeX(r citation.Result) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("@misc{citation%d,\n", r.Index))

	if len(r.Authors) > 0 {
		escaped := make([]string, len(r.Authors))
		for i, a := range r.Authors {
			escaped[i] = escapeLatex(a)
		}
		b.WriteString(fmt.Sprintf("  author = {%s},\n", strings.Join(escaped, " and ")))
	}
	if r.Title != "" {
		b.WriteString(fmt.Sprintf("  title = {%s},\n", escapeLatex(r.Title)))
	}
	if r.Year != "" {
		b.WriteString(fmt.Sprintf("  year = {%s},\n", r.Year))
	}
	if r.DOI != "" {
		b.WriteString(fmt.Sprintf("  doi = {%s},\n", r.DOI))
	}
	if r.URL != "" {
		b.WriteString(fmt.Sprintf("  url = {%s},\n", r.URL))
	}

	note := "citecheck: " + string(r.Status)
	if len(r.Issues) > 0 {
		note += "; " + strings.Join(r.Issues, " ")
	}
	b.WriteString(fmt.Sprintf("  note = {%s},\n", escapeLatex(note)))

	b.WriteString("}\n")
	return b.String()
}

// escapeLatex escapes special LaTeX characters.
func escapeLatex(s string) string {
	replacer := strings.NewReplacer(
		`\`, `\textbackslash{}`,
		"&", `\&`,
		"%", `\%`,
		"$", `\$`,
		"#", `\#`,
		"_", `\_`,
		"{", `\{`,
		"}", `\}`,
		"~", `\textasciitilde{}`,
		"^", `\textasciicircum{}`,
	)
	return replacer.Replace(s)
}
