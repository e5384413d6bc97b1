package report

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/matsen/citecheck/internal/citation"
)

func TestPDFRender(t *testing.T) {
	var buf bytes.Buffer
	if err := (PDFExporter{}).Render(&buf, sampleDocument()); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Errorf("output does not start with a PDF header: %q", buf.Bytes()[:min(16, buf.Len())])
	}
}

func TestPDFAvailable(t *testing.T) {
	if err := (PDFExporter{}).Available(); err != nil {
		t.Errorf("Available() error = %v", err)
	}
}

func TestPDFLines(t *testing.T) {
	lines := pdfLines(sampleDocument())

	var texts []string
	for _, l := range lines {
		texts = append(texts, l.text)
	}
	joined := strings.Join(texts, "\n")

	for _, want := range []string{
		"Citation check report",
		"Total: 2 | Valid: 1 | Warning: 0 | Invalid: 0 | Suspected fake: 1",
		"#1 VALID  DOI 10.1234/real  Year 2020",
		"#2 SUSPECTED_FAKE  DOI 10.1234/fake999-with-a-rather-…",
		"- DOI not found in CrossRef (possible fake or typo).",
		strings.Repeat("x", pdfLineLen) + "…",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("report lines missing %q", want)
		}
	}
}

func TestPDFLayoutFor_Paginates(t *testing.T) {
	results := make([]citation.Result, 40)
	for i := range results {
		results[i] = citation.Result{
			Index:  i + 1,
			Raw:    fmt.Sprintf("Author%d, A. (2001). Title.", i),
			Status: citation.StatusWarning,
			Issues: []string{"No DOI found."},
		}
	}
	doc := NewDocument(citation.FormatStructured, results)

	layout := pdfLayoutFor(pdfLines(doc))

	if len(layout.Pages) < 2 {
		t.Fatalf("got %d pages, want several for 40 citations", len(layout.Pages))
	}
	for nr, page := range layout.Pages {
		for _, text := range page.Content.Text {
			y := text.Pos[1]
			if y < pdfMarginBot-pdfLeading || y > pdfPageHeight-pdfMarginTop {
				t.Errorf("page %s: %q placed at y=%.0f, outside the margins", nr, text.Value, y)
			}
		}
	}
	if first := layout.Pages["1"].Content.Text[0]; first.Value != "Citation check report" || first.Font.Name != "Helvetica-Bold" {
		t.Errorf("first line = %+v", first)
	}
}

func TestPDFSafe(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Müller, J.", "Müller, J."},
		{"long…", "long…"},
		{"“quoted”", "“quoted”"},
		{"李 et al.", "? et al."},
	}
	for _, tt := range tests {
		if got := pdfSafe(tt.in); got != tt.want {
			t.Errorf("pdfSafe(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
