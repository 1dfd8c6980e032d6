// internal/engine/dynamic/session.go
package dynamic

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/law-makers/listings/internal/engine"
	"github.com/rs/zerolog/log"
)

// Options configures a browser session
type Options struct {
	ChromePath    string
	Headless      bool
	UserAgent     string
	Proxy         string
	Headers       map[string]string // sent with every request of the tab
	LaunchTimeout time.Duration     // bound on reaching a ready browser
	NavTimeout    time.Duration     // bound on one navigation including readiness waits
	WaitTimeout   time.Duration     // bound on the wait-for-selector step
	SettleDelay   time.Duration     // pause after readiness for late client-side rendering
	ExtraArgs     []chromedp.ExecAllocatorOption
}

func (o Options) withDefaults() Options {
	if o.LaunchTimeout <= 0 {
		o.LaunchTimeout = 30 * time.Second
	}
	if o.NavTimeout <= 0 {
		o.NavTimeout = 30 * time.Second
	}
	if o.WaitTimeout <= 0 || o.WaitTimeout > o.NavTimeout {
		o.WaitTimeout = o.NavTimeout / 2
	}
	return o
}

// Session owns one headless Chrome process with a single tab.
// It implements engine.Browser. Calls must not be interleaved.
type Session struct {
	opts        Options
	allocCancel context.CancelFunc
	tabCtx      context.Context
	tabCancel   context.CancelFunc

	mu      sync.Mutex
	status  int64
	current string
	closed  bool
}

// Open launches the browser and waits until its first tab is usable.
// Any failure is reported as a launch error and leaves no process behind.
func Open(ctx context.Context, opts Options) (*Session, error) {
	opts = opts.withDefaults()

	chromePath, err := ResolveChrome(opts.ChromePath)
	if err != nil {
		return nil, engine.LaunchError("browser executable not available", err)
	}

	// The browser outlives the caller's cancellation; Close is the only way down.
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.WithoutCancel(ctx), allocatorOptions(chromePath, opts)...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	s := &Session{
		opts:        opts,
		allocCancel: allocCancel,
		tabCtx:      tabCtx,
		tabCancel:   tabCancel,
	}
	chromedp.ListenTarget(tabCtx, s.onEvent)

	start := time.Now()
	started := make(chan error, 1)
	go func() {
		// The first Run allocates the browser; it must not carry a deadline.
		started <- chromedp.Run(tabCtx, network.Enable(), extraHeaders(opts.Headers), chromedp.Navigate("about:blank"))
	}()

	timer := time.NewTimer(opts.LaunchTimeout)
	defer timer.Stop()

	select {
	case err := <-started:
		if err != nil {
			s.Close()
			return nil, engine.LaunchError("browser did not start", err)
		}
	case <-timer.C:
		s.Close()
		return nil, engine.LaunchError(fmt.Sprintf("browser not ready after %s", opts.LaunchTimeout), context.DeadlineExceeded)
	case <-ctx.Done():
		s.Close()
		return nil, engine.LaunchError("launch canceled", ctx.Err())
	}

	log.Info().
		Str("path", chromePath).
		Bool("headless", opts.Headless).
		Dur("elapsed", time.Since(start)).
		Msg("Browser session ready")

	return s, nil
}

func allocatorOptions(chromePath string, opts Options) []chromedp.ExecAllocatorOption {
	allocOpts := []chromedp.ExecAllocatorOption{
		chromedp.ExecPath(chromePath),
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-breakpad", true),
		chromedp.Flag("disable-client-side-phishing-detection", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("disable-hang-monitor", true),
		chromedp.Flag("disable-popup-blocking", true),
		chromedp.Flag("disable-prompt-on-repost", true),
		chromedp.Flag("disable-renderer-backgrounding", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("disable-translate", true),
		chromedp.Flag("force-color-profile", "srgb"),
		chromedp.Flag("log-level", "3"),
		chromedp.Flag("metrics-recording-only", true),
		chromedp.Flag("mute-audio", true),
		chromedp.Flag("safebrowsing-disable-auto-update", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-infobars", true),
		chromedp.Flag("window-size", "1920,1080"),
	}

	if opts.Headless {
		allocOpts = append(allocOpts, chromedp.Flag("headless", "new"))
	} else {
		allocOpts = append(allocOpts, chromedp.Flag("headless", false))
	}
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}
	if opts.Proxy != "" {
		allocOpts = append(allocOpts, chromedp.ProxyServer(opts.Proxy))
	}

	return append(allocOpts, opts.ExtraArgs...)
}

func extraHeaders(headers map[string]string) chromedp.Action {
	if len(headers) == 0 {
		return chromedp.ActionFunc(func(context.Context) error { return nil })
	}
	h := make(network.Headers, len(headers))
	for k, v := range headers {
		h[k] = v
	}
	return network.SetExtraHTTPHeaders(h)
}

// onEvent records the HTTP status of the first document response after a navigation starts
func (s *Session) onEvent(ev interface{}) {
	resp, ok := ev.(*network.EventResponseReceived)
	if !ok || resp.Type != network.ResourceTypeDocument || resp.Response == nil {
		return
	}
	s.mu.Lock()
	if s.status == 0 {
		s.status = resp.Response.Status
	}
	s.mu.Unlock()
}

// Navigate loads pageURL and blocks until it is content-ready.
// ctx is checked before the navigation starts; once started, a navigation
// runs until it completes or NavTimeout expires.
func (s *Session) Navigate(ctx context.Context, pageURL, waitFor string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return &engine.Error{Code: engine.ErrCodeNavigation, Message: "session closed", URL: pageURL, Underlying: engine.ErrBrowserClosed}
	}
	s.status = 0
	s.current = pageURL
	s.mu.Unlock()

	navCtx, cancel := context.WithTimeout(s.tabCtx, s.opts.NavTimeout)
	defer cancel()

	if err := chromedp.Run(navCtx, chromedp.Navigate(pageURL)); err != nil {
		return classify(navCtx, pageURL, "navigation failed", err)
	}

	s.mu.Lock()
	status := s.status
	s.mu.Unlock()
	if status >= 400 {
		return engine.StatusError(pageURL, int(status))
	}

	return s.waitReady(navCtx, pageURL, waitFor)
}

// waitReady waits for the selector, falling back to document readiness when
// the template does not carry it, then lets late rendering settle.
func (s *Session) waitReady(navCtx context.Context, pageURL, waitFor string) error {
	if waitFor != "" {
		waitCtx, cancel := context.WithTimeout(navCtx, s.opts.WaitTimeout)
		err := chromedp.Run(waitCtx, chromedp.WaitReady(waitFor, chromedp.ByQuery))
		cancel()
		if err != nil {
			if navCtx.Err() != nil {
				return classify(navCtx, pageURL, "waiting for content", err)
			}
			log.Warn().
				Str("url", pageURL).
				Str("selector", waitFor).
				Msg("Wait selector not found, falling back to document readiness")
		}
	}

	var complete bool
	if err := chromedp.Run(navCtx, chromedp.Poll(`document.readyState === "complete"`, &complete, chromedp.WithPollingInterval(100*time.Millisecond))); err != nil {
		return classify(navCtx, pageURL, "document never became ready", err)
	}

	if s.opts.SettleDelay > 0 {
		timer := time.NewTimer(s.opts.SettleDelay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-navCtx.Done():
			return classify(navCtx, pageURL, "settling", navCtx.Err())
		}
	}

	return nil
}

func classify(opCtx context.Context, pageURL, message string, err error) error {
	if errors.Is(opCtx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return engine.TimeoutError(pageURL, message, err)
	}
	return engine.NavigationError(pageURL, message, err)
}

// Document snapshots the rendered DOM of the current page
func (s *Session) Document(ctx context.Context) (*goquery.Document, error) {
	s.mu.Lock()
	current := s.current
	s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	docCtx, cancel := context.WithTimeout(s.tabCtx, s.opts.NavTimeout)
	defer cancel()

	var html string
	if err := chromedp.Run(docCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return nil, classify(docCtx, current, "reading rendered DOM", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, engine.NavigationError(current, "parsing rendered DOM", err)
	}
	if u, err := url.Parse(current); err == nil {
		doc.Url = u
	}
	return doc, nil
}

// Extract returns the outer HTML of nodes matching the selectors on the current page
func (s *Session) Extract(ctx context.Context, selectors ...string) ([]string, error) {
	return engine.Extract(ctx, s, selectors...)
}

// Close shuts the tab and the browser process down
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	err := chromedp.Cancel(s.tabCtx)
	s.tabCancel()
	s.allocCancel()

	if err != nil && !errors.Is(err, context.Canceled) {
		log.Warn().Err(err).Msg("Browser did not close cleanly")
		return err
	}
	log.Debug().Msg("Browser session closed")
	return nil
}
