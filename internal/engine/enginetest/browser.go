// Package enginetest provides a scripted engine.Browser for tests that must not launch Chrome.
package enginetest

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/law-makers/listings/internal/engine"
)

// Browser serves fixed HTML per URL and records every navigation.
// Unknown URLs answer with HTTP 404.
type Browser struct {
	mu       sync.Mutex
	pages    map[string]string
	failures map[string]int
	errs     map[string]error
	visits   []string
	current  string
	closes   int
	closed   bool
}

// New returns an empty scripted browser
func New() *Browser {
	return &Browser{
		pages:    make(map[string]string),
		failures: make(map[string]int),
		errs:     make(map[string]error),
	}
}

// Page registers the HTML served at pageURL
func (b *Browser) Page(pageURL, html string) *Browser {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pages[pageURL] = html
	return b
}

// FailTimes makes the next n navigations to pageURL time out. A negative n fails forever.
func (b *Browser) FailTimes(pageURL string, n int) *Browser {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[pageURL] = n
	return b
}

// FailWith makes every navigation to pageURL return err
func (b *Browser) FailWith(pageURL string, err error) *Browser {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.errs[pageURL] = err
	return b
}

// Navigate implements engine.Browser
func (b *Browser) Navigate(ctx context.Context, pageURL, waitFor string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.visits = append(b.visits, pageURL)
	if b.closed {
		return &engine.Error{Code: engine.ErrCodeNavigation, Message: "session closed", URL: pageURL, Underlying: engine.ErrBrowserClosed}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err, ok := b.errs[pageURL]; ok {
		return err
	}
	if n := b.failures[pageURL]; n != 0 {
		if n > 0 {
			b.failures[pageURL] = n - 1
		}
		return engine.TimeoutError(pageURL, "scripted failure", context.DeadlineExceeded)
	}
	if _, ok := b.pages[pageURL]; !ok {
		return engine.StatusError(pageURL, 404)
	}
	b.current = pageURL
	return nil
}

// Document implements engine.Browser
func (b *Browser) Document(ctx context.Context) (*goquery.Document, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.current == "" {
		return nil, errors.New("enginetest: no page loaded")
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(b.pages[b.current]))
	if err != nil {
		return nil, err
	}
	doc.Url, _ = url.Parse(b.current)
	return doc, nil
}

// Close implements engine.Browser
func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closes++
	b.closed = true
	return nil
}

// Visits returns every URL navigated to, in order
func (b *Browser) Visits() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.visits...)
}

// VisitCount returns how often pageURL was requested
func (b *Browser) VisitCount(pageURL string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, v := range b.visits {
		if v == pageURL {
			n++
		}
	}
	return n
}

// Closes returns how often Close was called
func (b *Browser) Closes() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closes
}
