package config

import (
	"fmt"
	"strings"

	urlutil "github.com/law-makers/listings/internal/utils/url"
	"github.com/rs/zerolog"
)

func validate(c *Config) error {
	if err := urlutil.ValidateURL(c.BaseURL); err != nil {
		return fmt.Errorf("base url: %w", err)
	}
	for _, u := range c.ListingURLs {
		if err := urlutil.ValidateURL(strings.ReplaceAll(u, urlutil.PagePlaceholder, "1")); err != nil {
			return fmt.Errorf("listing url %q: %w", u, err)
		}
	}
	if strings.TrimSpace(c.OutputPath) == "" {
		return fmt.Errorf("output path must not be empty")
	}
	if c.MaxPages <= 0 || c.MaxPages > DefaultMaxPagesLimit {
		return fmt.Errorf("max pages must be between 1 and %d", DefaultMaxPagesLimit)
	}
	if c.NavTimeout <= 0 {
		return fmt.Errorf("navigation timeout must be > 0")
	}
	if c.LaunchTimeout <= 0 {
		return fmt.Errorf("launch timeout must be > 0")
	}
	if c.WaitTimeout < 0 || c.SettleDelay < 0 {
		return fmt.Errorf("wait timeout and settle delay must be >= 0")
	}
	if c.Retries <= 0 || c.Retries > DefaultMaxRetries {
		return fmt.Errorf("retries must be between 1 and %d", DefaultMaxRetries)
	}
	if c.RetryBackoff < 0 || c.RetryMaxBackoff < 0 {
		return fmt.Errorf("retry backoff must be >= 0")
	}
	if c.PolitenessDelay < 0 || c.Jitter < 0 {
		return fmt.Errorf("delay and jitter must be >= 0")
	}
	if c.Concurrency <= 0 || c.Concurrency > DefaultMaxConcurrency {
		return fmt.Errorf("concurrency must be between 1 and %d", DefaultMaxConcurrency)
	}
	if c.DownloadTimeout <= 0 {
		return fmt.Errorf("download timeout must be > 0")
	}
	for _, h := range c.Headers {
		if name, _, ok := strings.Cut(h, ":"); !ok || strings.TrimSpace(name) == "" {
			return fmt.Errorf("header %q: expected \"Name: value\"", h)
		}
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	return nil
}
