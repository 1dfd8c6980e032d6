package config

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// RegisterFlags registers common CLI flags on the provided root command
func RegisterFlags(cmd *cobra.Command) {
	if cmd == nil {
		return
	}

	f := cmd.PersistentFlags()
	f.BoolP("verbose", "v", false, "Enable debug logging")
	f.BoolP("quiet", "q", false, "Suppress all output except errors")
	f.Bool("json", false, "Output in JSON format only")
	f.String("config", "", "Path to configuration file (optional)")
	f.String("env-file", "", "Path to a .env file (default .env when present)")

	f.String("base-url", "", "Site root used for region discovery")
	f.StringSlice("listing-url", nil, "Listing page to paginate (repeatable; {page} marks the page number)")
	f.Int("max-pages", 0, "Maximum pages per listing source")
	f.StringP("output", "o", "", "Output document path")
	f.String("snapshot-dir", "", "Save rendered detail pages under this directory")
	f.Bool("skip-homes", false, "Extract communities only")

	f.Bool("headless", DefaultBrowserHeadless, "Run the browser without a window")
	f.String("chrome-path", "", "Path to the Chrome/Chromium executable")
	f.String("proxy", "", "Set HTTP/SOCKS5 proxy (e.g., http://localhost:8080)")
	f.StringSlice("proxies", nil, "Proxies to rotate through when the browser fails to start")
	f.String("user-agent", "", "Custom user agent string")
	f.StringArrayP("header", "H", nil, "Extra request header (e.g., -H \"Accept-Language: en-US\")")
	f.String("timeout", "", "Per-navigation timeout (e.g. 30s)")

	f.Int("retries", 0, "Attempts per navigation")
	f.String("delay", "", "Minimum delay between navigations (e.g. 2s)")
	f.String("jitter", "", "Maximum random extra delay between navigations")
}

// RegisterImageFlags registers the flags of the image download command
func RegisterImageFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("images-dir", "", "Directory to download images into (default "+DefaultImagesDir+")")
	f.Int("concurrency", 0, "Parallel image downloads")
}

// applyFlags overrides cfg with every flag the user set explicitly
func applyFlags(cfg *Config, cmd *cobra.Command) error {
	flags := cmd.Flags()

	strs := map[string]*string{
		"base-url":     &cfg.BaseURL,
		"output":       &cfg.OutputPath,
		"snapshot-dir": &cfg.SnapshotDir,
		"chrome-path":  &cfg.ChromePath,
		"proxy":        &cfg.Proxy,
		"user-agent":   &cfg.UserAgent,
		"images-dir":   &cfg.ImagesDir,
	}
	for name, dst := range strs {
		if flagChanged(cmd, name) {
			*dst = flagString(cmd, name)
		}
	}

	slices := map[string]*[]string{"listing-url": &cfg.ListingURLs, "proxies": &cfg.Proxies}
	for name, dst := range slices {
		if flagChanged(cmd, name) {
			v, err := flags.GetStringSlice(name)
			if err != nil {
				return err
			}
			*dst = v
		}
	}
	if flagChanged(cmd, "header") {
		v, err := flags.GetStringArray("header")
		if err != nil {
			return err
		}
		cfg.Headers = v
	}

	ints := map[string]*int{"max-pages": &cfg.MaxPages, "retries": &cfg.Retries, "concurrency": &cfg.Concurrency}
	for name, dst := range ints {
		if flagChanged(cmd, name) {
			n, err := flags.GetInt(name)
			if err != nil {
				return err
			}
			*dst = n
		}
	}

	durations := map[string]*time.Duration{
		"timeout": &cfg.NavTimeout,
		"delay":   &cfg.PolitenessDelay,
		"jitter":  &cfg.Jitter,
	}
	for name, dst := range durations {
		if flagChanged(cmd, name) {
			d, err := time.ParseDuration(flagString(cmd, name))
			if err != nil {
				return fmt.Errorf("--%s: %w", name, err)
			}
			*dst = d
		}
	}

	bools := map[string]*bool{
		"headless":   &cfg.BrowserHeadless,
		"skip-homes": &cfg.SkipHomes,
		"json":       &cfg.JSONLog,
	}
	for name, dst := range bools {
		if flagChanged(cmd, name) {
			b, err := flags.GetBool(name)
			if err != nil {
				return err
			}
			*dst = b
		}
	}

	if flagChanged(cmd, "verbose") && flagString(cmd, "verbose") == "true" {
		cfg.LogLevel = "debug"
	}
	if flagChanged(cmd, "quiet") && flagString(cmd, "quiet") == "true" {
		cfg.LogLevel = "error"
	}
	return nil
}

func flagChanged(cmd *cobra.Command, name string) bool {
	if cmd == nil {
		return false
	}
	f := cmd.Flags().Lookup(name)
	return f != nil && f.Changed
}

func flagString(cmd *cobra.Command, name string) string {
	if cmd == nil {
		return ""
	}
	if f := cmd.Flags().Lookup(name); f != nil {
		return f.Value.String()
	}
	return ""
}
