// Package report renders checked citations to files: JSON, CSV, a printable
// HTML document, BibTeX, PDF and a SQLite database. Exporters only read the results.
package report

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/matsen/citecheck/internal/citation"
)

var (
	// ErrUnavailable is returned when an exporter's capability check fails.
	ErrUnavailable = errors.New("exporter unavailable")

	// ErrUnknownFormat is returned for an output path whose extension no
	// exporter handles.
	ErrUnknownFormat = errors.New("unknown report format")
)

// Preview lengths, in characters, for the raw citation text.
const (
	jsonPreviewLen = 200
	csvPreviewLen  = 150
	htmlPreviewLen = 400
	htmlDOILen     = 30
	htmlIssuesLen  = 60
)

// Document is one report: the checked citations plus run metadata.
type Document struct {
	ID        uuid.UUID
	Generated time.Time
	Format    citation.Format
	Results   []citation.Result
	Summary   citation.Summary
}

// NewDocument stamps results with a fresh report ID and the current time.
func NewDocument(format citation.Format, results []citation.Result) Document {
	return Document{
		ID:        uuid.New(),
		Generated: time.Now().UTC(),
		Format:    format,
		Results:   results,
		Summary:   citation.Summarize(results),
	}
}

// Exporter writes a document to a file.
type Exporter interface {
	// Name is the short format name, e.g. "csv".
	Name() string
	// Extensions lists the file extensions handled, with leading dot.
	Extensions() []string
	// Available reports whether the exporter can run in this build.
	Available() error
	Export(path string, doc Document) error
}

// Renderer is an exporter that can also stream to any writer.
type Renderer interface {
	Exporter
	Render(w io.Writer, doc Document) error
}

// Exporters lists every exporter in preference order.
var Exporters = []Exporter{
	JSONExporter{},
	CSVExporter{},
	HTMLExporter{},
	BibTeXExporter{},
	PDFExporter{},
	SQLiteExporter{},
}

// ForPath picks the exporter for path's extension and checks that it is
// available.
func ForPath(path string) (Exporter, error) {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range Exporters {
		for _, x := range e.Extensions() {
			if x == ext {
				if err := e.Available(); err != nil {
					return nil, err
				}
				return e, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, ext)
}

// ByName returns the streaming renderer called name, e.g. "json" or "csv".
func ByName(name string) (Renderer, error) {
	for _, e := range Exporters {
		r, ok := e.(Renderer)
		if ok && e.Name() == strings.ToLower(name) {
			if err := e.Available(); err != nil {
				return nil, err
			}
			return r, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}

// Write exports doc to path using the exporter chosen by its extension.
func Write(path string, doc Document) error {
	e, err := ForPath(path)
	if err != nil {
		return err
	}
	return e.Export(path, doc)
}

// renderToFile creates path (and its parent directories) and renders into it.
func renderToFile(path string, doc Document, render func(io.Writer, Document) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating report directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report file: %w", err)
	}
	if err := render(f, doc); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// truncate shortens s to n characters, appending "…" when it cut anything.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "…"
}
