package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// loadFile overlays a YAML config file onto cfg; keys absent from the file keep their value
func loadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

// loadDotEnv exports the variables of an env file that are not already set.
// A missing default file is fine; a missing file that was asked for is not.
func loadDotEnv(path string, required bool) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) && !required {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading env file: %w", err)
	}
	return nil
}

// applyEnv overrides cfg from LISTINGS_* variables
func applyEnv(cfg *Config) error {
	str := func(name string, dst *string) {
		if v, ok := lookupEnv(name); ok {
			*dst = v
		}
	}
	str("BASE_URL", &cfg.BaseURL)
	str("OUTPUT", &cfg.OutputPath)
	str("SNAPSHOT_DIR", &cfg.SnapshotDir)
	str("CHROME_PATH", &cfg.ChromePath)
	str("USER_AGENT", &cfg.UserAgent)
	str("PROXY", &cfg.Proxy)
	str("LOG_LEVEL", &cfg.LogLevel)

	str("IMAGES_DIR", &cfg.ImagesDir)

	lists := map[string]*[]string{
		"LISTING_URLS": &cfg.ListingURLs,
		"PROXIES":      &cfg.Proxies,
		"HEADERS":      &cfg.Headers,
	}
	for name, dst := range lists {
		if v, ok := lookupEnv(name); ok {
			*dst = splitList(v)
		}
	}

	ints := map[string]*int{
		"MAX_PAGES":   &cfg.MaxPages,
		"RETRIES":     &cfg.Retries,
		"CONCURRENCY": &cfg.Concurrency,
	}
	for name, dst := range ints {
		if v, ok := lookupEnv(name); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
			}
			*dst = n
		}
	}

	durations := map[string]*time.Duration{
		"NAV_TIMEOUT":       &cfg.NavTimeout,
		"WAIT_TIMEOUT":      &cfg.WaitTimeout,
		"LAUNCH_TIMEOUT":    &cfg.LaunchTimeout,
		"SETTLE_DELAY":      &cfg.SettleDelay,
		"RETRY_BACKOFF":     &cfg.RetryBackoff,
		"RETRY_MAX_BACKOFF": &cfg.RetryMaxBackoff,
		"DELAY":             &cfg.PolitenessDelay,
		"JITTER":            &cfg.Jitter,
		"DOWNLOAD_TIMEOUT":  &cfg.DownloadTimeout,
	}
	for name, dst := range durations {
		if v, ok := lookupEnv(name); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
			}
			*dst = d
		}
	}

	bools := map[string]*bool{
		"HEADLESS":   &cfg.BrowserHeadless,
		"JSON":       &cfg.JSONLog,
		"SKIP_HOMES": &cfg.SkipHomes,
	}
	for name, dst := range bools {
		if v, ok := lookupEnv(name); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
			}
			*dst = b
		}
	}

	return nil
}

func lookupEnv(name string) (string, bool) {
	v, ok := os.LookupEnv(EnvPrefix + name)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
