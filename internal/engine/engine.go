package engine

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Browser is the contract every page driver must implement.
// A Browser holds a single tab, so calls must not be interleaved.
type Browser interface {
	// Navigate loads url and blocks until the page is content-ready.
	// waitFor is a CSS selector (a selector list is allowed) signalling readiness.
	Navigate(ctx context.Context, url, waitFor string) error

	// Document returns a snapshot of the currently rendered DOM
	Document(ctx context.Context) (*goquery.Document, error)

	// Close releases the browser. It is safe to call more than once.
	Close() error
}

// Extract returns the outer HTML of every node matching any of the selectors on
// the current page. No match yields an empty slice, not an error.
func Extract(ctx context.Context, b Browser, selectors ...string) ([]string, error) {
	doc, err := b.Document(ctx)
	if err != nil {
		return nil, err
	}
	return Fragments(doc.Selection, selectors...), nil
}

// Fragments collects outer HTML for the selectors in priority order
func Fragments(root *goquery.Selection, selectors ...string) []string {
	fragments := []string{}
	for _, sel := range selectors {
		if strings.TrimSpace(sel) == "" {
			continue
		}
		root.Find(sel).Each(func(i int, s *goquery.Selection) {
			if html, err := goquery.OuterHtml(s); err == nil {
				fragments = append(fragments, html)
			}
		})
	}
	return fragments
}
