package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/matsen/citecheck/internal/checker"
	"github.com/matsen/citecheck/internal/citation"
	"github.com/matsen/citecheck/internal/clipboard"
	"github.com/matsen/citecheck/internal/pdf"
	"github.com/matsen/citecheck/internal/report"
	"github.com/matsen/citecheck/internal/verify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	checkNoDOI       bool
	checkNoURL       bool
	checkOutput      string
	checkConcurrency int
	checkClipboard   bool
)

func init() {
	checkCmd.Flags().BoolVar(&checkNoDOI, "no-doi-check", false, "Skip DOI verification against CrossRef")
	checkCmd.Flags().BoolVar(&checkNoURL, "no-url-check", false, "Skip URL reachability checks")
	checkCmd.Flags().StringVarP(&checkOutput, "output", "o", "", "Write a report; extension picks the format (.json, .csv, .html, .bib, .pdf, .db)")
	checkCmd.Flags().IntVar(&checkConcurrency, "concurrency", 0, "Citations verified in parallel (default from config)")
	checkCmd.Flags().BoolVar(&checkClipboard, "clipboard", false, "Read citations from the system clipboard")
	rootCmd.AddCommand(checkCmd)
}

var checkCmd = &cobra.Command{
	Use:   "check [file]",
	Short: "Check citations from a file or stdin",
	Long: `Check citations read from a text file, a PDF, or stdin.

For PDFs the text after the last "References" or "Bibliography" heading is
checked. With --clipboard the clipboard contents are checked. Otherwise,
without a file (or with "-"), citations are read from stdin.

Examples:
  citecheck check refs.bib
  citecheck check paper.pdf -o report.html
  citecheck check --clipboard --no-url-check --human`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCheck,
}

// CheckResponse is the JSON output of the check command.
type CheckResponse struct {
	Format      citation.Format   `json:"format"`
	Summary     citation.Summary  `json:"summary"`
	Citations   []citation.Result `json:"citations"`
	Report      string            `json:"report,omitempty"`
	ReportError string            `json:"report_error,omitempty"`
}

// newCheckResponse builds the single JSON document printed by check. A failed
// export is reported inside it rather than as a second document.
func newCheckResponse(rep checker.Report, output string, exportErr error) CheckResponse {
	resp := CheckResponse{
		Format:    rep.Format,
		Summary:   rep.Summary(),
		Citations: rep.Results,
	}
	if exportErr != nil {
		resp.ReportError = exportErr.Error()
	} else {
		resp.Report = output
	}
	return resp
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	logger := mustNewLogger(cfg)
	defer logger.Sync()

	var text string
	var err error
	switch {
	case checkClipboard && len(args) > 0:
		exitWithError(ExitError, "--clipboard cannot be combined with a file argument")
	case checkClipboard:
		if !clipboard.IsAvailable() {
			exitWithError(ExitDataError, "clipboard unavailable: install pbpaste, wl-paste, xclip or xsel, or pass a file")
		}
		text, err = clipboard.Paste()
	case len(args) == 1 && args[0] != "-":
		text, err = readInput(args[0], os.Stdin)
	default:
		text, err = readInput("", os.Stdin)
	}
	if err != nil {
		exitWithError(ExitDataError, "reading input: %v", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	flags := verify.Flags{CheckDOI: !checkNoDOI, CheckURL: !checkNoURL}
	rep, err := newChecker(cfg, logger, checkConcurrency).Check(ctx, text, flags)
	if err != nil {
		exitWithError(ExitError, "check interrupted: %v", err)
	}
	if len(rep.Results) == 0 {
		exitWithError(ExitDataError, "No citations detected.")
	}

	var exportErr error
	if checkOutput != "" {
		exportErr = report.Write(checkOutput, report.NewDocument(rep.Format, rep.Results))
		if exportErr != nil {
			logger.Error("export failed", zap.String("path", checkOutput), zap.Error(exportErr))
		}
	}

	if humanOutput {
		printResultsHuman(os.Stdout, rep.Format, rep.Results)
		if checkOutput != "" && exportErr == nil {
			fmt.Printf("\nReport written to %s\n", checkOutput)
		}
	} else {
		outputJSON(newCheckResponse(rep, checkOutput, exportErr))
	}

	if exportErr != nil {
		if humanOutput {
			fmt.Fprintf(os.Stderr, "error: writing report: %v\n", exportErr)
		}
		os.Exit(ExitExportError)
	}
	return nil
}

// readInput returns the citation text from path, or from stdin when path is
// empty. PDFs, on disk or piped, are reduced to their reference list.
func readInput(path string, stdin io.Reader) (string, error) {
	if path == "" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", err
		}
		if pdf.HasMagic(data) {
			text, err := pdf.ExtractTextReader(bytes.NewReader(data), int64(len(data)), 0)
			if err != nil {
				return "", err
			}
			return pdf.ReferencesSection(text), nil
		}
		return string(data), nil
	}

	if pdf.IsPDF(path) {
		text, err := pdf.ExtractText(path, 0)
		if err != nil {
			return "", err
		}
		return pdf.ReferencesSection(text), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
