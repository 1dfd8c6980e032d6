package config

import "time"

// Default constants for application configuration
const (
	DefaultLogLevel        = "info"
	DefaultJSONLog         = false
	DefaultBaseURL         = "https://www.tollbrothers.com"
	DefaultOutputPath      = "output/listings.json"
	DefaultMaxPages        = 50
	DefaultMaxPagesLimit   = 1000
	DefaultNavTimeout      = 30 * time.Second
	DefaultWaitTimeout     = 15 * time.Second
	DefaultLaunchTimeout   = 30 * time.Second
	DefaultSettleDelay     = 500 * time.Millisecond
	DefaultRetries         = 3
	DefaultMaxRetries      = 10
	DefaultRetryBackoff    = 1 * time.Second
	DefaultRetryMaxBackoff = 10 * time.Second
	DefaultPolitenessDelay = 2 * time.Second
	DefaultJitter          = 3 * time.Second
	DefaultBrowserHeadless = true
	DefaultUserAgent       = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	DefaultImagesDir       = "output/images"
	DefaultConcurrency     = 4
	DefaultMaxConcurrency  = 16
	DefaultDownloadTimeout = 60 * time.Second
	DefaultProxyCooldown   = 5 * time.Minute
	DefaultEnvFile         = ".env"
	EnvPrefix              = "LISTINGS_"
)
