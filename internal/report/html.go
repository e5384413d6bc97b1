package report

import (
	"fmt"
	"html/template"
	"io"
	"strings"
)

// compiledHTML is parsed at init time to fail fast on template errors.
var compiledHTML *template.Template

func init() {
	compiledHTML = template.Must(template.New("report").Parse(htmlReportTemplate))
}

// HTMLExporter writes a self-contained printable report.
type HTMLExporter struct{}

func (HTMLExporter) Name() string         { return "html" }
func (HTMLExporter) Extensions() []string { return []string{".html", ".htm"} }
func (HTMLExporter) Available() error     { return nil }

func (e HTMLExporter) Export(path string, doc Document) error {
	return renderToFile(path, doc, e.Render)
}

// htmlRow is one table row with display-truncated fields.
type htmlRow struct {
	Index      int
	Status     string
	DOI        string
	Year       string
	Issues     string
	RawPreview string
}

type htmlData struct {
	Generated string
	ReportID  string
	Format    string
	Total     int
	Valid     int
	Warning   int
	Invalid   int
	Fake      int
	Rows      []htmlRow
}

// Render writes doc as an HTML document.
func (HTMLExporter) Render(w io.Writer, doc Document) error {
	data := htmlData{
		Generated: doc.Generated.Format("2006-01-02 15:04 UTC"),
		ReportID:  doc.ID.String(),
		Format:    string(doc.Format),
		Total:     doc.Summary.Total,
		Valid:     doc.Summary.Valid,
		Warning:   doc.Summary.Warning,
		Invalid:   doc.Summary.Invalid,
		Fake:      doc.Summary.SuspectedFake,
	}
	for _, r := range doc.Results {
		data.Rows = append(data.Rows, htmlRow{
			Index:      r.Index,
			Status:     string(r.Status),
			DOI:        truncate(r.DOI, htmlDOILen),
			Year:       r.Year,
			Issues:     truncate(strings.Join(r.Issues, "; "), htmlIssuesLen),
			RawPreview: truncate(r.Raw, htmlPreviewLen),
		})
	}
	if err := compiledHTML.Execute(w, data); err != nil {
		return fmt.Errorf("rendering HTML report: %w", err)
	}
	return nil
}

const htmlReportTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>Citation Check Report</title>
  <style>
    body {
      font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif;
      margin: 2em;
      color: #222;
    }
    table {
      border-collapse: collapse;
      width: 100%;
      font-size: 12px;
    }
    th {
      background: #808080;
      color: #f5f5f5;
      text-align: left;
    }
    th, td {
      border: 1px solid #000;
      padding: 4px 6px;
      vertical-align: top;
    }
    td {
      background: #f5f5dc;
    }
    .valid { color: #2e7d32; }
    .warning { color: #ef6c00; }
    .invalid { color: #c62828; }
    .suspected_fake { color: #c62828; font-weight: bold; }
    details { margin-top: 4px; }
    @media print {
      details { display: none; }
    }
  </style>
</head>
<body>
  <h1>Citation Check Report</h1>
  <p>Generated: {{.Generated}} &middot; Report {{.ReportID}} &middot; Format: {{.Format}}</p>
  <p class="summary">Total: {{.Total}} | Valid: {{.Valid}} | Warning: {{.Warning}} | Invalid: {{.Invalid}} | Suspected fake: {{.Fake}}</p>
  <table>
    <thead>
      <tr><th>#</th><th>Status</th><th>DOI</th><th>Year</th><th>Issues</th></tr>
    </thead>
    <tbody>
    {{- range .Rows}}
      <tr>
        <td>{{.Index}}</td>
        <td class="{{.Status}}">{{.Status}}</td>
        <td>{{.DOI}}</td>
        <td>{{.Year}}</td>
        <td>{{.Issues}}
          <details><summary>Raw</summary><pre>{{.RawPreview}}</pre></details>
        </td>
      </tr>
    {{- end}}
    </tbody>
  </table>
</body>
</html>
`
