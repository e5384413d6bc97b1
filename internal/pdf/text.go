// Package pdf pulls citation text out of PDF files.
package pdf

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
)

// magic is the signature every PDF file starts with.
var magic = []byte("%PDF-")

// IsPDF reports whether path looks like a PDF, by extension or by its first bytes.
func IsPDF(path string) bool {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return true
	}
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	head := make([]byte, len(magic))
	if _, err := io.ReadFull(f, head); err != nil {
		return false
	}
	return HasMagic(head)
}

// HasMagic reports whether data starts with the PDF signature.
func HasMagic(data []byte) bool {
	return bytes.HasPrefix(data, magic)
}

// ExtractText extracts all text from the first maxPages pages of a PDF.
// maxPages <= 0 reads every page.
func ExtractText(filePath string, maxPages int) (string, error) {
	f, r, err := pdf.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("opening PDF: %w", err)
	}
	defer f.Close()

	return pagesText(r, maxPages), nil
}

// ExtractTextReader extracts text from a PDF held in r, e.g. one piped on stdin.
func ExtractTextReader(r io.ReaderAt, size int64, maxPages int) (string, error) {
	pdfReader, err := pdf.NewReader(r, size)
	if err != nil {
		return "", fmt.Errorf("reading PDF: %w", err)
	}
	return pagesText(pdfReader, maxPages), nil
}

// pagesText joins the plain text of each readable page. Pages that fail to
// decode are skipped.
func pagesText(r *pdf.Reader, maxPages int) string {
	if maxPages <= 0 || maxPages > r.NumPage() {
		maxPages = r.NumPage()
	}

	var builder strings.Builder
	for i := 1; i <= maxPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		builder.WriteString(text)
		builder.WriteString("\n")
	}
	return builder.String()
}

// referencesHeading matches a line that opens a paper's reference list.
var referencesHeading = regexp.MustCompile(`(?im)^[ \t]*(?:\d+\.?[ \t]*)?(?:references|bibliography|works cited|literature cited)[ \t]*:?[ \t]*$`)

// ReferencesSection returns the text after the last reference-list heading.
// Without such a heading the whole text is returned.
func ReferencesSection(text string) string {
	locs := referencesHeading.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return text
	}
	return strings.TrimSpace(text[locs[len(locs)-1][1]:])
}
