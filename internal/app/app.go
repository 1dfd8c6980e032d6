// Package app provides the core application initialization and lifecycle management.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/law-makers/listings/internal/config"
	"github.com/law-makers/listings/internal/downloader"
	"github.com/law-makers/listings/internal/engine"
	"github.com/law-makers/listings/internal/engine/dynamic"
	"github.com/law-makers/listings/internal/listing"
	"github.com/law-makers/listings/internal/pipeline"
	"github.com/law-makers/listings/internal/proxy"
	"github.com/law-makers/listings/internal/ratelimit"
	"github.com/law-makers/listings/internal/retry"
	"github.com/law-makers/listings/internal/snapshot"
	"github.com/law-makers/listings/internal/store"
	"github.com/law-makers/listings/internal/utils/headers"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Application holds all application dependencies and manages their lifecycle.
//
// It is created once per command invocation. The browser itself is not
// started here; each pipeline run launches and closes its own session.
type Application struct {
	Config      *config.Config
	Logger      *zerolog.Logger
	RateLimiter ratelimit.RateLimiter
	Store       *store.Store
	Snapshots   *snapshot.Writer
	Launch      pipeline.Launcher
	startTime   time.Time
}

// New creates and initializes a new Application with all dependencies.
//
// It performs the following initialization steps:
//   - Configures logging based on the provided config
//   - Creates the politeness limiter shared by all navigations
//   - Prepares the output store and the optional snapshot writer
//   - Builds the browser launcher from the browser settings
func New(ctx context.Context, cfg *config.Config) (*Application, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	logger := SetupLogging(cfg, os.Stderr)
	logger.Debug().
		Str("level", cfg.LogLevel).
		Bool("json", cfg.JSONLog).
		Msg("Logger initialized")

	limiter := ratelimit.NewDomainLimiter(cfg.PolitenessDelay, cfg.Jitter)
	logger.Debug().
		Dur("delay", cfg.PolitenessDelay).
		Dur("jitter", cfg.Jitter).
		Msg("Rate limiter initialized")

	app := &Application{
		Config:      cfg,
		Logger:      &logger,
		RateLimiter: limiter,
		Store:       store.New(cfg.OutputPath),
		Snapshots:   snapshot.New(cfg.SnapshotDir),
		Launch:      Launcher(cfg),
		startTime:   time.Now(),
	}

	logger.Debug().Str("output", cfg.OutputPath).Msg("Application initialized")
	return app, nil
}

// SetupLogging configures the global zerolog logger and returns it
func SetupLogging(cfg *config.Config, out io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || cfg.LogLevel == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	var w io.Writer = out
	if !cfg.JSONLog {
		w = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	}
	log.Logger = zerolog.New(w).With().Timestamp().Logger()
	return log.Logger
}

// opener starts a browser with the given options
type opener func(ctx context.Context, opts dynamic.Options) (engine.Browser, error)

func openSession(ctx context.Context, opts dynamic.Options) (engine.Browser, error) {
	s, err := dynamic.Open(ctx, opts)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Launcher returns a function that opens a browser session from cfg. With
// proxies configured, a browser that fails to start through one proxy is
// retried through the next.
func Launcher(cfg *config.Config) pipeline.Launcher {
	pool := proxy.NewPool(append([]string{cfg.Proxy}, cfg.Proxies...), config.DefaultProxyCooldown)
	return launcher(sessionOptions(cfg), pool, openSession)
}

func sessionOptions(cfg *config.Config) dynamic.Options {
	return dynamic.Options{
		ChromePath:    cfg.ChromePath,
		Headless:      cfg.BrowserHeadless,
		UserAgent:     cfg.UserAgent,
		Proxy:         cfg.Proxy,
		LaunchTimeout: cfg.LaunchTimeout,
		NavTimeout:    cfg.NavTimeout,
		WaitTimeout:   cfg.WaitTimeout,
		SettleDelay:   cfg.SettleDelay,
		Headers:       headers.ParseHeaders(cfg.Headers),
	}
}

func launcher(opts dynamic.Options, pool *proxy.Pool, open opener) pipeline.Launcher {
	return func(ctx context.Context) (engine.Browser, error) {
		var lastErr error
		for range max(pool.Len(), 1) {
			o := opts
			o.Proxy = pool.Next()

			b, err := open(ctx, o)
			if err == nil {
				pool.MarkHealthy(o.Proxy)
				return b, nil
			}
			lastErr = err
			if o.Proxy == "" || ctx.Err() != nil || errors.Is(err, engine.ErrBrowserNotFound) {
				break
			}
			pool.MarkFailed(o.Proxy)
			log.Warn().Err(err).Str("proxy", o.Proxy).Msg("Browser failed to start through proxy, trying next")
		}
		return nil, lastErr
	}
}

// RetryConfig maps the retry settings onto the retry combinator
func RetryConfig(cfg *config.Config) retry.Config {
	rc := retry.DefaultConfig()
	rc.MaxAttempts = cfg.Retries
	rc.InitialBackoff = cfg.RetryBackoff
	rc.MaxBackoff = cfg.RetryMaxBackoff
	return rc
}

// PipelineConfig builds a run configuration. Non-empty communities bypass
// the listing crawl and are extracted directly.
func (a *Application) PipelineConfig(communities ...string) pipeline.Config {
	rc := RetryConfig(a.Config)
	return pipeline.Config{
		Crawl: listing.Config{
			BaseURL:  a.Config.BaseURL,
			Sources:  a.Config.ListingURLs,
			MaxPages: a.Config.MaxPages,
			Retry:    rc,
		},
		Retry:       rc,
		Limiter:     a.RateLimiter,
		Communities: communities,
		SkipHomes:   a.Config.SkipHomes,
		Snapshots:   a.Snapshots,
	}
}

// Pipeline creates a pipeline bound to the application's store and launcher
func (a *Application) Pipeline(cfg pipeline.Config, opts ...pipeline.Option) *pipeline.Pipeline {
	return pipeline.New(cfg, a.Store, a.Launch, opts...)
}

// Downloads returns a worker pool for fetching record images
func (a *Application) Downloads() *downloader.WorkerPool {
	d := downloader.NewDownloader(a.Config.DownloadTimeout, a.Config.UserAgent, headers.ParseHeaders(a.Config.Headers))
	return downloader.NewWorkerPool(d, a.Config.Concurrency)
}

// Close releases application resources.
// A context with a timeout should be provided to prevent indefinite blocking.
func (a *Application) Close(ctx context.Context) error {
	if a == nil {
		return nil
	}
	a.Logger.Debug().Dur("uptime", a.Uptime()).Msg("Application shutdown complete")
	return ctx.Err()
}

// Uptime returns how long the application has been running.
func (a *Application) Uptime() time.Duration {
	return time.Since(a.startTime)
}
