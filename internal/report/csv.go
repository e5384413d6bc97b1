package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/matsen/citecheck/internal/citation"
)

// CSVExporter writes one row per citation.
type CSVExporter struct{}

// csvHeader is shared with the SQLite exporter's column set.
var csvHeader = []string{
	"Index",
	"Status",
	"DOI",
	"Year",
	"Authors",
	"DOI Resolved",
	"URL Accessible",
	"Issues",
	"Suggestions",
	"Raw Preview",
}

func (CSVExporter) Name() string         { return "csv" }
func (CSVExporter) Extensions() []string { return []string{".csv"} }
func (CSVExporter) Available() error     { return nil }

func (e CSVExporter) Export(path string, doc Document) error {
	return renderToFile(path, doc, e.Render)
}

// Render writes the header and one row per result.
func (CSVExporter) Render(w io.Writer, doc Document) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	for _, r := range doc.Results {
		if err := cw.Write(csvRow(r)); err != nil {
			return fmt.Errorf("writing CSV row %d: %w", r.Index, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func csvRow(r citation.Result) []string {
	return []string{
		strconv.Itoa(r.Index),
		string(r.Status),
		r.DOI,
		r.Year,
		strings.Join(r.Authors, "; "),
		r.DOIResolved.String(),
		r.URLAccess.String(),
		strings.Join(r.Issues, " | "),
		strings.Join(r.Suggestions, " | "),
		truncate(r.Raw, csvPreviewLen),
	}
}
