package report

import (
	"bytes"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/matsen/citecheck/internal/citation"
)

func sampleDocument() Document {
	long := strings.Repeat("x", 500)
	results := []citation.Result{
		{
			Index:       1,
			Raw:         "Smith, J. (2020). Real paper. doi:10.1234/real",
			Status:      citation.StatusValid,
			Issues:      []string{},
			Suggestions: []string{},
			DOI:         "10.1234/real",
			Year:        "2020",
			Authors:     []string{"Smith, J.", "Doe, A."},
			DOIResolved: citation.DOIResolved,
		},
		{
			Index:       2,
			Raw:         long,
			Status:      citation.StatusSuspectedFake,
			Issues:      []string{"DOI not found in CrossRef (possible fake or typo).", "No author(s) detected."},
			Suggestions: []string{"Verify the DOI at https://doi.org/10.1234/fake999", "Add at least one author name."},
			DOI:         "10.1234/fake999-with-a-rather-long-suffix",
			Authors:     []string{},
			DOIResolved: citation.DOINotResolved,
			URLAccess:   citation.URLUnreachable,
		},
	}
	return NewDocument(citation.FormatStructured, results)
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"abc", 3, "abc"},
		{"abc", 2, "ab…"},
		{"ééé", 2, "éé…"},
		{"", 5, ""},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestNewDocument(t *testing.T) {
	doc := sampleDocument()

	if doc.ID.String() == "00000000-0000-0000-0000-000000000000" {
		t.Error("NewDocument() left the report ID zero")
	}
	if doc.Generated.IsZero() {
		t.Error("NewDocument() left Generated zero")
	}
	want := citation.Summary{Valid: 1, SuspectedFake: 1, Total: 2}
	if doc.Summary != want {
		t.Errorf("Summary = %+v, want %+v", doc.Summary, want)
	}
}

func TestForPath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"out.json", "json"},
		{"out.CSV", "csv"},
		{"dir/out.html", "html"},
		{"out.htm", "html"},
		{"refs.bib", "bibtex"},
		{"out.pdf", "pdf"},
		{"out.db", "sqlite"},
		{"out.sqlite", "sqlite"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			e, err := ForPath(tt.path)
			if err != nil {
				t.Fatalf("ForPath(%q) error = %v", tt.path, err)
			}
			if e.Name() != tt.want {
				t.Errorf("ForPath(%q) = %s, want %s", tt.path, e.Name(), tt.want)
			}
		})
	}

	for _, path := range []string{"out.docx", "noext"} {
		if _, err := ForPath(path); !errors.Is(err, ErrUnknownFormat) {
			t.Errorf("ForPath(%q) error = %v, want ErrUnknownFormat", path, err)
		}
	}
}

// unavailableExporter fails its capability check.
type unavailableExporter struct{ CSVExporter }

func (unavailableExporter) Name() string         { return "broken" }
func (unavailableExporter) Extensions() []string { return []string{".broken"} }
func (unavailableExporter) Available() error     { return ErrUnavailable }

func TestForPath_Unavailable(t *testing.T) {
	orig := Exporters
	defer func() { Exporters = orig }()
	Exporters = append([]Exporter{unavailableExporter{}}, orig...)

	if _, err := ForPath("out.broken"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("ForPath() error = %v, want ErrUnavailable", err)
	}
	if _, err := ByName("broken"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("ByName() error = %v, want ErrUnavailable", err)
	}
	if err := Write(filepath.Join(t.TempDir(), "out.broken"), sampleDocument()); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Write() error = %v, want ErrUnavailable", err)
	}
}

func TestByName(t *testing.T) {
	r, err := ByName("CSV")
	if err != nil {
		t.Fatalf("ByName(CSV) error = %v", err)
	}
	if r.Name() != "csv" {
		t.Errorf("ByName(CSV) = %s, want csv", r.Name())
	}

	if _, err := ByName("sqlite"); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("ByName(sqlite) error = %v, want ErrUnknownFormat", err)
	}
}

func TestJSONRender(t *testing.T) {
	doc := sampleDocument()
	var buf bytes.Buffer
	if err := (JSONExporter{}).Render(&buf, doc); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	var got struct {
		ReportID  string           `json:"report_id"`
		Format    string           `json:"format"`
		Total     int              `json:"total"`
		Summary   citation.Summary `json:"summary"`
		Citations []struct {
			Index       int      `json:"index"`
			Status      string   `json:"status"`
			Issues      []string `json:"issues"`
			Authors     []string `json:"authors"`
			DOIResolved string   `json:"doi_resolved"`
			URLAccess   string   `json:"url_accessible"`
			RawPreview  string   `json:"raw_preview"`
		} `json:"citations"`
	}
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}

	if got.ReportID != doc.ID.String() {
		t.Errorf("report_id = %s, want %s", got.ReportID, doc.ID)
	}
	if got.Format != "structured" || got.Total != 2 {
		t.Errorf("format = %s, total = %d", got.Format, got.Total)
	}
	if got.Summary != doc.Summary {
		t.Errorf("summary = %+v, want %+v", got.Summary, doc.Summary)
	}
	if len(got.Citations) != 2 {
		t.Fatalf("got %d citations, want 2", len(got.Citations))
	}
	first, second := got.Citations[0], got.Citations[1]
	if first.DOIResolved != "resolved" || first.URLAccess != "not_checked" {
		t.Errorf("citation 1 states = %s/%s", first.DOIResolved, first.URLAccess)
	}
	if first.Issues == nil {
		t.Error("citation 1 issues should be [] not null")
	}
	if second.URLAccess != "unreachable" {
		t.Errorf("citation 2 url_accessible = %s, want unreachable", second.URLAccess)
	}
	if want := strings.Repeat("x", 200) + "…"; second.RawPreview != want {
		t.Errorf("citation 2 raw_preview has %d chars, want 200 + ellipsis", len([]rune(second.RawPreview)))
	}
}

func TestCSVRender(t *testing.T) {
	var buf bytes.Buffer
	if err := (CSVExporter{}).Render(&buf, sampleDocument()); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("output is not CSV: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}

	if !reflect.DeepEqual(rows[0], csvHeader) {
		t.Errorf("header = %v", rows[0])
	}
	wantFirst := []string{"1", "valid", "10.1234/real", "2020", "Smith, J.; Doe, A.", "resolved", "not_checked", "", "",
		"Smith, J. (2020). Real paper. doi:10.1234/real"}
	if !reflect.DeepEqual(rows[1], wantFirst) {
		t.Errorf("row 1 = %v, want %v", rows[1], wantFirst)
	}
	if want := "DOI not found in CrossRef (possible fake or typo). | No author(s) detected."; rows[2][7] != want {
		t.Errorf("row 2 issues = %q", rows[2][7])
	}
	if want := strings.Repeat("x", 150) + "…"; rows[2][9] != want {
		t.Errorf("row 2 preview = %q", rows[2][9])
	}
}

func TestHTMLRender(t *testing.T) {
	doc := sampleDocument()
	doc.Results[0].Raw = "<script>alert(1)</script>"
	var buf bytes.Buffer
	if err := (HTMLExporter{}).Render(&buf, doc); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"Total: 2 | Valid: 1 | Warning: 0 | Invalid: 0 | Suspected fake: 1",
		"10.1234/fake999-with-a-rather-…",
		strings.Repeat("x", 400) + "…",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("HTML missing %q", want)
		}
	}
	for _, unwanted := range []string{strings.Repeat("x", 401), "<script>alert(1)</script>"} {
		if strings.Contains(out, unwanted) {
			t.Errorf("HTML should not contain %q", unwanted)
		}
	}
}

func TestWrite_StreamFormats(t *testing.T) {
	dir := t.TempDir()
	doc := sampleDocument()

	for _, name := range []string{"r.json", "r.csv", "nested/r.html", "r.bib", "r.pdf"} {
		path := filepath.Join(dir, name)
		if err := Write(path, doc); err != nil {
			t.Fatalf("Write(%s) error = %v", name, err)
		}
		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("Write(%s) left no file: %v", name, err)
		}
		if info.Size() == 0 {
			t.Errorf("Write(%s) wrote an empty file", name)
		}
	}
}

func TestSQLiteExport(t *testing.T) {
	if err := (SQLiteExporter{}).Available(); err != nil {
		t.Fatalf("Available() error = %v", err)
	}

	path := filepath.Join(t.TempDir(), "reports.db")
	first := sampleDocument()
	second := sampleDocument()
	for _, doc := range []Document{first, second} {
		if err := Write(path, doc); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM citations`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 4 {
		t.Errorf("got %d rows, want 4 (two appended reports)", n)
	}

	var status, authors, resolved string
	err = db.QueryRow(`SELECT status, authors, doi_resolved FROM citations WHERE report_id = ? AND idx = 1`,
		first.ID.String()).Scan(&status, &authors, &resolved)
	if err != nil {
		t.Fatal(err)
	}
	if status != "valid" || authors != "Smith, J.; Doe, A." || resolved != "resolved" {
		t.Errorf("row = %q, %q, %q", status, authors, resolved)
	}
}

func TestResultsNotMutated(t *testing.T) {
	doc := sampleDocument()
	raw := doc.Results[1].Raw

	var buf bytes.Buffer
	for _, name := range []string{"json", "csv", "html", "bibtex", "pdf"} {
		r, err := ByName(name)
		if err != nil {
			t.Fatalf("ByName(%s) error = %v", name, err)
		}
		if err := r.Render(&buf, doc); err != nil {
			t.Fatalf("%s Render() error = %v", name, err)
		}
	}
	if doc.Results[1].Raw != raw {
		t.Error("Render changed Raw")
	}
	if len(doc.Results[1].Issues) != 2 {
		t.Errorf("Render changed Issues: %v", doc.Results[1].Issues)
	}
}
