// Package main provides the citecheck CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/matsen/citecheck/internal/checker"
	"github.com/matsen/citecheck/internal/config"
	"github.com/matsen/citecheck/internal/logging"
	"github.com/matsen/citecheck/internal/verify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Version is set at build time via ldflags
var Version = "dev"

// humanOutput controls whether to use human-readable output
var humanOutput bool

// logLevel overrides the configured log level when set.
var logLevel string

func main() {
	if err := rootCmd.Execute(); err != nil {
		// Print the error since we have SilenceErrors: true
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "citecheck",
	Short: "Check citations for missing fields, dead links and fabricated DOIs",
	Long: `citecheck reads pasted citations (BibTeX, APA/MLA-style or plain text),
extracts DOI, year, URL and authors, optionally verifies DOIs against CrossRef
and probes URLs, and classifies each citation as valid, warning, invalid or
suspected_fake.

All commands output JSON by default; use --human for readable output.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Load .env if present (ignore error if not found)
		_ = godotenv.Load()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (default from config)")
	rootCmd.Version = Version
	verify.Version = Version
}

// mustLoadConfig loads and validates the global config, exits on error.
func mustLoadConfig() *config.GlobalConfig {
	cfg, err := config.LoadGlobalConfig()
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v\n\n%s", err, config.HelpfulConfigMessage())
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if err := cfg.Validate(); err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	return cfg
}

// mustNewLogger builds the logger for cfg, exits on error.
func mustNewLogger(cfg *config.GlobalConfig) *zap.Logger {
	build := logging.New
	if humanOutput {
		build = logging.NewConsole
	}
	logger, err := build(cfg.LogLevel)
	if err != nil {
		exitWithError(ExitConfigError, "creating logger: %v", err)
	}
	return logger
}

// newGateway wires the CrossRef client and URL prober from cfg.
func newGateway(cfg *config.GlobalConfig, logger *zap.Logger) verify.Gateway {
	crossref := verify.NewCrossRefClient(
		verify.WithBaseURL(cfg.CrossRefBaseURL),
		verify.WithMailto(cfg.Mailto),
		verify.WithTimeout(cfg.DOITimeout),
		verify.WithRateLimit(cfg.RateLimit),
	)
	prober := verify.NewProber(verify.WithProbeTimeout(cfg.URLTimeout))
	return verify.NewOnline(crossref, prober, logger)
}

// newChecker builds a checker from cfg. concurrency > 0 overrides the config.
func newChecker(cfg *config.GlobalConfig, logger *zap.Logger, concurrency int) *checker.Checker {
	if concurrency <= 0 {
		concurrency = cfg.Concurrency
	}
	return checker.New(newGateway(cfg, logger),
		checker.WithLogger(logger),
		checker.WithConcurrency(concurrency),
	)
}
