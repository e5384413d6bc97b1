// Package config handles the global citecheck configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// GlobalConfig represents configuration stored in ~/.config/citecheck/config.yml.
type GlobalConfig struct {
	CrossRefBaseURL string        `yaml:"crossref_base_url,omitempty" json:"crossref_base_url"`
	Mailto          string        `yaml:"mailto,omitempty" json:"mailto"`
	DOITimeout      time.Duration `yaml:"doi_timeout,omitempty" json:"doi_timeout"`
	URLTimeout      time.Duration `yaml:"url_timeout,omitempty" json:"url_timeout"`
	Concurrency     int           `yaml:"concurrency,omitempty" json:"concurrency"`
	RateLimit       float64       `yaml:"rate_limit,omitempty" json:"rate_limit"` // CrossRef requests per second
	LogLevel        string        `yaml:"log_level,omitempty" json:"log_level"`
	ListenAddr      string        `yaml:"listen_addr,omitempty" json:"listen_addr"`
}

const (
	// GlobalConfigDir is the directory name under XDG_CONFIG_HOME.
	GlobalConfigDir = "citecheck"
	// GlobalConfigFile is the config file name.
	GlobalConfigFile = "config.yml"
)

// Defaults.
const (
	DefaultCrossRefBaseURL = "https://api.crossref.org/works"
	DefaultMailto          = "user@example.com"
	DefaultDOITimeout      = 10 * time.Second
	DefaultURLTimeout      = 8 * time.Second
	DefaultConcurrency     = 8
	DefaultRateLimit       = 10.0
	DefaultLogLevel        = "info"
	DefaultListenAddr      = "127.0.0.1:8080"
)

// Environment variables that override the file.
const (
	EnvMailto      = "CITECHECK_MAILTO"
	EnvCrossRefURL = "CITECHECK_CROSSREF_URL"
	EnvLogLevel    = "CITECHECK_LOG_LEVEL"
)

// ErrInvalidConfig is wrapped by every Validate failure.
var ErrInvalidConfig = errors.New("invalid config")

// globalConfigCache caches the loaded global config.
var globalConfigCache *GlobalConfig

// Default returns a config with every field at its default.
func Default() *GlobalConfig {
	return &GlobalConfig{
		CrossRefBaseURL: DefaultCrossRefBaseURL,
		Mailto:          DefaultMailto,
		DOITimeout:      DefaultDOITimeout,
		URLTimeout:      DefaultURLTimeout,
		Concurrency:     DefaultConcurrency,
		RateLimit:       DefaultRateLimit,
		LogLevel:        DefaultLogLevel,
		ListenAddr:      DefaultListenAddr,
	}
}

// GlobalConfigPath returns the path to the global config file.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/citecheck/config.yml.
func GlobalConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, GlobalConfigDir, GlobalConfigFile)
}

// LoadGlobalConfig loads the global configuration file, fills unset fields with
// defaults and applies environment overrides.
// A missing file is not an error.
func LoadGlobalConfig() (*GlobalConfig, error) {
	if globalConfigCache != nil {
		return globalConfigCache, nil
	}

	cfg := Default()
	if path := GlobalConfigPath(); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()

	globalConfigCache = cfg
	return cfg, nil
}

// mergeFile overlays the fields set in the YAML file at path.
func (c *GlobalConfig) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading global config: %w", err)
	}

	var file GlobalConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parsing global config: %w", err)
	}

	if file.CrossRefBaseURL != "" {
		c.CrossRefBaseURL = file.CrossRefBaseURL
	}
	if file.Mailto != "" {
		c.Mailto = file.Mailto
	}
	if file.DOITimeout != 0 {
		c.DOITimeout = file.DOITimeout
	}
	if file.URLTimeout != 0 {
		c.URLTimeout = file.URLTimeout
	}
	if file.Concurrency != 0 {
		c.Concurrency = file.Concurrency
	}
	if file.RateLimit != 0 {
		c.RateLimit = file.RateLimit
	}
	if file.LogLevel != "" {
		c.LogLevel = file.LogLevel
	}
	if file.ListenAddr != "" {
		c.ListenAddr = file.ListenAddr
	}
	return nil
}

func (c *GlobalConfig) applyEnv() {
	c.Mailto = GetConfigValue(EnvMailto, c.Mailto)
	c.CrossRefBaseURL = GetConfigValue(EnvCrossRefURL, c.CrossRefBaseURL)
	c.LogLevel = GetConfigValue(EnvLogLevel, c.LogLevel)
}

// Validate rejects settings the checker cannot run with.
func (c *GlobalConfig) Validate() error {
	var problems []string
	if c.Concurrency <= 0 {
		problems = append(problems, fmt.Sprintf("concurrency must be positive, got %d", c.Concurrency))
	}
	if c.RateLimit <= 0 {
		problems = append(problems, fmt.Sprintf("rate_limit must be positive, got %g", c.RateLimit))
	}
	if c.DOITimeout <= 0 {
		problems = append(problems, fmt.Sprintf("doi_timeout must be positive, got %s", c.DOITimeout))
	}
	if c.URLTimeout <= 0 {
		problems = append(problems, fmt.Sprintf("url_timeout must be positive, got %s", c.URLTimeout))
	}
	if !strings.HasPrefix(c.CrossRefBaseURL, "http://") && !strings.HasPrefix(c.CrossRefBaseURL, "https://") {
		problems = append(problems, fmt.Sprintf("crossref_base_url must be an http(s) URL, got %q", c.CrossRefBaseURL))
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// ResetGlobalConfigCache clears the cached global config.
// Useful for testing.
func ResetGlobalConfigCache() {
	globalConfigCache = nil
}

// GetConfigValue returns the environment variable envKey when set, otherwise
// configValue.
func GetConfigValue(envKey, configValue string) string {
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	return configValue
}

// HelpfulConfigMessage shows where the config file lives and what it can hold.
func HelpfulConfigMessage() string {
	configPath := GlobalConfigPath()
	return fmt.Sprintf(`Tip: Create %s to change defaults:
  mkdir -p %s
  cat > %s <<'YAML'
mailto: you@example.org
concurrency: 8
doi_timeout: 10s
YAML`,
		configPath,
		filepath.Dir(configPath),
		configPath)
}
