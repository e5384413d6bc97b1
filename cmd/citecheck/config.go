package main

import (
	"fmt"

	"github.com/matsen/citecheck/internal/config"
	"github.com/spf13/cobra"
)

func init() {
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	Long: `Show the effective configuration: defaults, overlaid by the global config
file, overlaid by CITECHECK_MAILTO, CITECHECK_CROSSREF_URL and CITECHECK_LOG_LEVEL.`,
	Args: cobra.NoArgs,
	RunE: runConfig,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the global config file path",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.GlobalConfigPath()
		if humanOutput {
			fmt.Println(path)
			return nil
		}
		return outputJSON(StatusResponse{Status: "ok", Path: path})
	},
}

// StatusResponse is a generic response for commands that return status.
type StatusResponse struct {
	Status string `json:"status"`
	Path   string `json:"path,omitempty"`
}

// ConfigResponse is the response for the config command.
type ConfigResponse struct {
	Path   string               `json:"path"`
	Config *config.GlobalConfig `json:"config"`
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()

	if !humanOutput {
		return outputJSON(ConfigResponse{Path: config.GlobalConfigPath(), Config: cfg})
	}

	fmt.Printf("config file:        %s\n", config.GlobalConfigPath())
	fmt.Printf("crossref_base_url:  %s\n", cfg.CrossRefBaseURL)
	fmt.Printf("mailto:             %s\n", cfg.Mailto)
	fmt.Printf("doi_timeout:        %s\n", cfg.DOITimeout)
	fmt.Printf("url_timeout:        %s\n", cfg.URLTimeout)
	fmt.Printf("concurrency:        %d\n", cfg.Concurrency)
	fmt.Printf("rate_limit:         %g\n", cfg.RateLimit)
	fmt.Printf("log_level:          %s\n", cfg.LogLevel)
	fmt.Printf("listen_addr:        %s\n", cfg.ListenAddr)
	return nil
}
