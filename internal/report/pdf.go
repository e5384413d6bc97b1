package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/matsen/citecheck/internal/citation"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// A4 portrait, in points. pdfcpu's default origin is the lower left corner.
const (
	pdfPageHeight = 842.0
	pdfMarginLeft = 50.0
	pdfMarginTop  = 60.0
	pdfMarginBot  = 50.0
	pdfLeading    = 14.0
	pdfFontSize   = 10
	pdfTitleSize  = 16
	pdfLineLen    = 95
	pdfIssueLen   = 90
)

// PDFExporter writes a printable PDF through pdfcpu's JSON page description.
type PDFExporter struct{}

// pdfCheck runs one tiny render the first time availability is asked for.
var pdfCheck struct {
	once sync.Once
	err  error
}

func (PDFExporter) Name() string         { return "pdf" }
func (PDFExporter) Extensions() []string { return []string{".pdf"} }

// Available renders a one-line document to confirm the PDF writer works in
// this environment.
func (e PDFExporter) Available() error {
	pdfCheck.once.Do(func() {
		doc := Document{Generated: time.Now().UTC(), Format: citation.FormatUnknown}
		pdfCheck.err = e.Render(io.Discard, doc)
	})
	if pdfCheck.err != nil {
		return fmt.Errorf("%w: pdf: %v", ErrUnavailable, pdfCheck.err)
	}
	return nil
}

func (e PDFExporter) Export(path string, doc Document) error {
	return renderToFile(path, doc, e.Render)
}

// Render lays doc out as text lines and has pdfcpu create the file.
func (PDFExporter) Render(w io.Writer, doc Document) error {
	layout, err := json.Marshal(pdfLayoutFor(pdfLines(doc)))
	if err != nil {
		return fmt.Errorf("encoding PDF layout: %w", err)
	}
	conf := model.NewDefaultConfiguration()
	if err := api.Create(nil, bytes.NewReader(layout), w, conf); err != nil {
		return fmt.Errorf("creating PDF: %w", err)
	}
	return nil
}

// pdfLine is one line of report text.
type pdfLine struct {
	text   string
	size   int
	bold   bool
	indent float64
}

// pdfLines flattens doc into the lines of the printed report.
func pdfLines(doc Document) []pdfLine {
	s := doc.Summary
	lines := []pdfLine{
		{text: "Citation check report", size: pdfTitleSize, bold: true},
		{text: "Generated " + doc.Generated.Format("2006-01-02 15:04 UTC") + "  Report " + doc.ID.String()},
		{text: "Detected format: " + string(doc.Format)},
		{text: fmt.Sprintf("Total: %d | Valid: %d | Warning: %d | Invalid: %d | Suspected fake: %d",
			s.Total, s.Valid, s.Warning, s.Invalid, s.SuspectedFake)},
		{},
	}
	for _, r := range doc.Results {
		head := "#" + strconv.Itoa(r.Index) + " " + strings.ToUpper(string(r.Status))
		if r.DOI != "" {
			head += "  DOI " + truncate(r.DOI, htmlDOILen)
		}
		if r.Year != "" {
			head += "  Year " + r.Year
		}
		lines = append(lines, pdfLine{text: head, bold: true})
		lines = append(lines, pdfLine{text: truncate(oneLine(r.Raw), pdfLineLen), indent: 12})
		for _, issue := range r.Issues {
			lines = append(lines, pdfLine{text: "- " + truncate(issue, pdfIssueLen), indent: 12})
		}
		lines = append(lines, pdfLine{})
	}
	return lines
}

// oneLine collapses runs of whitespace, newlines included.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// winAnsiExtra are the runes above Latin-1 that the core fonts can show.
const winAnsiExtra = "…–—‘’“”•€"

// pdfSafe replaces runes the standard Helvetica encoding cannot show with "?".
func pdfSafe(s string) string {
	return strings.Map(func(r rune) rune {
		if r <= 0xFF || strings.ContainsRune(winAnsiExtra, r) {
			return r
		}
		return '?'
	}, s)
}

type pdfFont struct {
	Name string `json:"name"`
	Size int    `json:"size"`
}

type pdfText struct {
	Value string     `json:"value"`
	Pos   [2]float64 `json:"pos"`
	Font  pdfFont    `json:"font"`
}

type pdfContent struct {
	Text []pdfText `json:"text"`
}

type pdfPage struct {
	Content pdfContent `json:"content"`
}

// pdfLayout is the document description pdfcpu's create command reads.
type pdfLayout struct {
	Paper string             `json:"paper"`
	Pages map[string]pdfPage `json:"pages"`
}

// pdfLayoutFor places lines top to bottom, starting a new page when one fills.
// Blank lines only advance the cursor.
func pdfLayoutFor(lines []pdfLine) pdfLayout {
	layout := pdfLayout{Paper: "A4P", Pages: map[string]pdfPage{}}
	pageNr := 1
	y := pdfPageHeight - pdfMarginTop
	var texts []pdfText

	flush := func() {
		layout.Pages[strconv.Itoa(pageNr)] = pdfPage{Content: pdfContent{Text: texts}}
	}

	for _, l := range lines {
		if y < pdfMarginBot {
			flush()
			pageNr++
			y = pdfPageHeight - pdfMarginTop
			texts = nil
		}
		if l.text != "" {
			font := pdfFont{Name: "Helvetica", Size: pdfFontSize}
			if l.size > 0 {
				font.Size = l.size
			}
			if l.bold {
				font.Name = "Helvetica-Bold"
			}
			texts = append(texts, pdfText{
				Value: pdfSafe(l.text),
				Pos:   [2]float64{pdfMarginLeft + l.indent, y},
				Font:  font,
			})
		}
		y -= pdfLeading
		if l.size > pdfFontSize {
			y -= float64(l.size - pdfFontSize)
		}
	}
	flush()
	return layout
}
