package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/matsen/citecheck/internal/citation"
)

// Constants for output formatting.
const (
	// MaxListedAuthors is how many authors the human view prints per citation.
	MaxListedAuthors = 3
	// RawPreviewMaxLen truncates the raw citation in the human view.
	RawPreviewMaxLen = 100
)

// outputJSON writes a value as formatted JSON to stdout.
func outputJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// exitWithError outputs an error in the appropriate format (human or JSON) and exits.
func exitWithError(code int, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if humanOutput {
		fmt.Fprintf(os.Stderr, "error: %s\n", msg)
	} else {
		outputJSON(ErrorResponse{Error: msg})
	}
	os.Exit(code)
}

// ErrorResponse is a JSON error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// statusCount is one line of the summary.
type statusCount struct {
	Status citation.Status
	Count  int
}

// sortedCounts lists the non-zero status counts, largest first. Ties keep
// escalation order.
func sortedCounts(s citation.Summary) []statusCount {
	var counts []statusCount
	for _, st := range citation.Statuses {
		if n := s.Count(st); n > 0 {
			counts = append(counts, statusCount{st, n})
		}
	}
	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Count > counts[j].Count
	})
	return counts
}

// truncateString truncates a string to maxLen characters, adding "..." if truncated.
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}

// formatAuthorsShort joins up to maxCount authors, marking the rest with "…".
func formatAuthorsShort(authors []string, maxCount int) string {
	if len(authors) <= maxCount {
		return strings.Join(authors, ", ")
	}
	return strings.Join(authors[:maxCount], ", ") + "…"
}

// printResultsHuman writes the summary and per-citation details.
func printResultsHuman(w io.Writer, format citation.Format, results []citation.Result) {
	summary := citation.Summarize(results)
	fmt.Fprintf(w, "Detected format: %s\n", format)
	fmt.Fprintf(w, "Citations: %d\n", summary.Total)
	for _, c := range sortedCounts(summary) {
		fmt.Fprintf(w, "  %-15s %d\n", c.Status+":", c.Count)
	}

	for _, r := range results {
		fmt.Fprintf(w, "\n[%d] %s\n", r.Index, strings.ToUpper(string(r.Status)))
		fmt.Fprintf(w, "    %s\n", truncateString(strings.Join(strings.Fields(r.Raw), " "), RawPreviewMaxLen))
		if r.Title != "" {
			fmt.Fprintf(w, "    Title: %s\n", r.Title)
		}
		if len(r.Authors) > 0 {
			fmt.Fprintf(w, "    Authors: %s\n", formatAuthorsShort(r.Authors, MaxListedAuthors))
		}
		if r.Year != "" {
			fmt.Fprintf(w, "    Year: %s\n", r.Year)
		}
		if r.DOI != "" {
			fmt.Fprintf(w, "    DOI: %s (%s)\n", r.DOI, r.DOIResolved)
		}
		if r.URL != "" {
			fmt.Fprintf(w, "    URL: %s (%s)\n", r.URL, r.URLAccess)
		}
		for i, issue := range r.Issues {
			fmt.Fprintf(w, "    - %s\n", issue)
			if i < len(r.Suggestions) && r.Suggestions[i] != "" {
				fmt.Fprintf(w, "      → %s\n", r.Suggestions[i])
			}
		}
	}
}
