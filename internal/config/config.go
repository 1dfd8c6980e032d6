package config

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// Config holds application configuration values
type Config struct {
	// Logging
	LogLevel string `yaml:"log_level"`
	JSONLog  bool   `yaml:"json"`

	// Source
	BaseURL     string   `yaml:"base_url"`
	ListingURLs []string `yaml:"listing_urls"`
	MaxPages    int      `yaml:"max_pages"`
	SkipHomes   bool     `yaml:"skip_homes"`

	// Output
	OutputPath  string `yaml:"output"`
	SnapshotDir string `yaml:"snapshot_dir"`

	// Images
	ImagesDir       string        `yaml:"images_dir"`
	Concurrency     int           `yaml:"concurrency"`
	DownloadTimeout time.Duration `yaml:"download_timeout"`

	// Browser
	BrowserHeadless bool          `yaml:"headless"`
	ChromePath      string        `yaml:"chrome_path"`
	UserAgent       string        `yaml:"user_agent"`
	Proxy           string        `yaml:"proxy"`
	Proxies         []string      `yaml:"proxies"`
	Headers         []string      `yaml:"headers"`
	LaunchTimeout   time.Duration `yaml:"launch_timeout"`
	NavTimeout      time.Duration `yaml:"nav_timeout"`
	WaitTimeout     time.Duration `yaml:"wait_timeout"`
	SettleDelay     time.Duration `yaml:"settle_delay"`

	// Retry and politeness
	Retries         int           `yaml:"retries"`
	RetryBackoff    time.Duration `yaml:"retry_backoff"`
	RetryMaxBackoff time.Duration `yaml:"retry_max_backoff"`
	PolitenessDelay time.Duration `yaml:"delay"`
	Jitter          time.Duration `yaml:"jitter"`
}

// Defaults returns the built-in configuration
func Defaults() *Config {
	return &Config{
		LogLevel:        DefaultLogLevel,
		JSONLog:         DefaultJSONLog,
		BaseURL:         DefaultBaseURL,
		MaxPages:        DefaultMaxPages,
		OutputPath:      DefaultOutputPath,
		ImagesDir:       DefaultImagesDir,
		Concurrency:     DefaultConcurrency,
		DownloadTimeout: DefaultDownloadTimeout,
		BrowserHeadless: DefaultBrowserHeadless,
		UserAgent:       DefaultUserAgent,
		LaunchTimeout:   DefaultLaunchTimeout,
		NavTimeout:      DefaultNavTimeout,
		WaitTimeout:     DefaultWaitTimeout,
		SettleDelay:     DefaultSettleDelay,
		Retries:         DefaultRetries,
		RetryBackoff:    DefaultRetryBackoff,
		RetryMaxBackoff: DefaultRetryMaxBackoff,
		PolitenessDelay: DefaultPolitenessDelay,
		Jitter:          DefaultJitter,
	}
}

// Load builds a Config by combining defaults, an optional config file, the
// .env file, environment variables, and CLI flags, in increasing precedence.
// Caller should pass the root *cobra.Command so flags can be read.
func Load(cmd *cobra.Command) (*Config, error) {
	cfg := Defaults()

	if path := flagString(cmd, "config"); path != "" {
		if err := loadFile(cfg, path); err != nil {
			return nil, err
		}
	}

	envFile := DefaultEnvFile
	if path := flagString(cmd, "env-file"); path != "" {
		envFile = path
	}
	if err := loadDotEnv(envFile, flagChanged(cmd, "env-file")); err != nil {
		return nil, err
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if cmd != nil {
		if err := applyFlags(cfg, cmd); err != nil {
			return nil, err
		}
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}
