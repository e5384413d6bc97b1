package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/matsen/citecheck/internal/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	serveAddr        string
	serveConcurrency int
)

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config, 127.0.0.1:8080)")
	serveCmd.Flags().IntVar(&serveConcurrency, "concurrency", 0, "Citations verified in parallel per request (default from config)")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web form and JSON API",
	Long: `Run the citation checker as a web application.

Routes:
  GET  /                     paste form
  POST /check                results page
  POST /api/check            JSON {"text": "...", "check_doi": true, "check_url": true}
  POST /api/export/{format}  same body; format is json, csv, html, bibtex or pdf
  GET  /healthz              liveness`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	logger := mustNewLogger(cfg)
	defer logger.Sync()

	addr := serveAddr
	if addr == "" {
		addr = cfg.ListenAddr
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(newChecker(cfg, logger, serveConcurrency), logger)
	if err := srv.ListenAndServe(ctx, addr); err != nil {
		logger.Error("server stopped", zap.Error(err))
		exitWithError(ExitError, "%v", err)
	}
	return nil
}
