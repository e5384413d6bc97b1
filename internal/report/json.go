package report

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/matsen/citecheck/internal/citation"
)

// JSONExporter writes the structured report.
type JSONExporter struct{}

type jsonReport struct {
	Generated string           `json:"generated"`
	ReportID  string           `json:"report_id"`
	Format    citation.Format  `json:"format"`
	Total     int              `json:"total"`
	Summary   citation.Summary `json:"summary"`
	Citations []jsonCitation   `json:"citations"`
}

type jsonCitation struct {
	Index         int               `json:"index"`
	Status        citation.Status   `json:"status"`
	Issues        []string          `json:"issues"`
	Suggestions   []string          `json:"suggestions"`
	DOI           string            `json:"doi"`
	URL           string            `json:"url"`
	Year          string            `json:"year"`
	Authors       []string          `json:"authors"`
	Title         string            `json:"title"`
	DOIResolved   citation.DOIState `json:"doi_resolved"`
	URLAccessible citation.URLState `json:"url_accessible"`
	RawPreview    string            `json:"raw_preview"`
}

func (JSONExporter) Name() string         { return "json" }
func (JSONExporter) Extensions() []string { return []string{".json"} }
func (JSONExporter) Available() error     { return nil }

func (e JSONExporter) Export(path string, doc Document) error {
	return renderToFile(path, doc, e.Render)
}

// Render writes doc as indented JSON.
func (JSONExporter) Render(w io.Writer, doc Document) error {
	out := jsonReport{
		Generated: doc.Generated.Format(time.RFC3339),
		ReportID:  doc.ID.String(),
		Format:    doc.Format,
		Total:     len(doc.Results),
		Summary:   doc.Summary,
		Citations: make([]jsonCitation, 0, len(doc.Results)),
	}
	for _, r := range doc.Results {
		out.Citations = append(out.Citations, jsonCitation{
			Index:         r.Index,
			Status:        r.Status,
			Issues:        r.Issues,
			Suggestions:   r.Suggestions,
			DOI:           r.DOI,
			URL:           r.URL,
			Year:          r.Year,
			Authors:       r.Authors,
			Title:         r.Title,
			DOIResolved:   r.DOIResolved,
			URLAccessible: r.URLAccess,
			RawPreview:    truncate(r.Raw, jsonPreviewLen),
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encoding JSON report: %w", err)
	}
	return nil
}
