// Package listing paginates the community index and yields community refs.
package listing

import (
	"context"
	"iter"

	"github.com/PuerkitoBio/goquery"
	"github.com/law-makers/listings/internal/engine"
	"github.com/law-makers/listings/internal/extract"
	"github.com/law-makers/listings/internal/retry"
	urlutil "github.com/law-makers/listings/internal/utils/url"
	"github.com/law-makers/listings/pkg/models"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultMaxPages bounds pagination when no limit is configured
	DefaultMaxPages = 50
	// a source whose pages keep failing is abandoned after this many gaps in a row
	maxConsecutiveGaps = 3
)

// Config controls a crawl
type Config struct {
	BaseURL  string   // site root, used for region discovery
	Sources  []string // explicit listing URLs; empty means discover them
	MaxPages int      // per-source page bound
	Retry    retry.Config
}

// Page is one requested listing page
type Page struct {
	Source   string
	Number   int
	URL      string
	Found    int          // cards on the page
	Refs     []models.Ref // refs not seen earlier in the run
	Attempts int
	Err      error // non-nil when the page was abandoned
}

// Crawler walks listing pages through a browser
type Crawler struct {
	browser engine.Browser
	cfg     Config
	state   *State
}

// New returns a crawler; a nil state starts a fresh one
func New(b engine.Browser, cfg Config, state *State) *Crawler {
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = DefaultMaxPages
	}
	if state == nil {
		state = NewState()
	}
	return &Crawler{browser: b, cfg: cfg, state: state}
}

// State exposes the crawl state
func (c *Crawler) State() *State {
	return c.state
}

// Pages lazily requests listing pages source by source. A source ends at the
// first page with no unseen refs or at MaxPages. Failed pages are yielded with
// Err set, recorded as gaps, and pagination moves on. Iteration stops early
// when ctx is done or a fatal error occurs.
func (c *Crawler) Pages(ctx context.Context) iter.Seq[Page] {
	return func(yield func(Page) bool) {
		sources := c.cfg.Sources
		if len(sources) == 0 {
			sources = c.Discover(ctx)
		}

		for _, src := range sources {
			c.state.Source = src
			gaps := 0

			for n := 1; n <= c.cfg.MaxPages; n++ {
				if ctx.Err() != nil {
					return
				}
				c.state.Page = n

				page := c.fetch(ctx, src, n)
				if !yield(page) {
					return
				}
				if page.Err != nil {
					if engine.IsFatal(page.Err) || ctx.Err() != nil {
						return
					}
					if gaps++; gaps >= maxConsecutiveGaps {
						log.Warn().Str("source", src).Int("gaps", gaps).Msg("Abandoning listing source")
						break
					}
					continue
				}
				gaps = 0

				if len(page.Refs) == 0 {
					log.Debug().Str("source", src).Int("page", n).Msg("No new communities, end of source")
					break
				}
				if n == c.cfg.MaxPages {
					log.Warn().Str("source", src).Int("max_pages", n).Msg("Page limit reached")
				}
			}
		}
	}
}

// Refs drains Pages and returns every fresh ref in discovery order
func (c *Crawler) Refs(ctx context.Context) ([]models.Ref, error) {
	var refs []models.Ref
	for page := range c.Pages(ctx) {
		if page.Err != nil && engine.IsFatal(page.Err) {
			return refs, page.Err
		}
		refs = append(refs, page.Refs...)
	}
	return refs, nil
}

func (c *Crawler) fetch(ctx context.Context, src string, n int) Page {
	page := Page{Source: src, Number: n, URL: urlutil.PageURL(src, n)}

	var refs []models.Ref
	res := retry.Do(ctx, c.cfg.Retry, func(ctx context.Context) error {
		doc, err := c.load(ctx, page.URL, extract.ListingReady)
		if err != nil {
			return err
		}
		refs = extract.CommunityCards.Refs(extract.NewPage(doc, page.URL, nil), urlutil.Slug)
		return nil
	})
	page.Attempts = res.Attempts

	if !res.OK() {
		page.Err = res.Err
		c.state.gap(page.URL, res.Err)
		log.Warn().Err(res.Err).Str("url", page.URL).Int("attempts", res.Attempts).Msg("Listing page skipped")
		return page
	}

	page.Found = len(refs)
	for _, ref := range refs {
		if c.state.Visit(ref.ID) {
			page.Refs = append(page.Refs, ref)
		}
	}

	log.Info().
		Str("url", page.URL).
		Int("page", n).
		Int("found", page.Found).
		Int("new", len(page.Refs)).
		Msg("Listing page crawled")

	return page
}

// Discover returns the region listing pages linked from the base URL,
// or the base URL itself when none can be found.
func (c *Crawler) Discover(ctx context.Context) []string {
	base := c.cfg.BaseURL

	var links []string
	res := retry.Do(ctx, c.cfg.Retry, func(ctx context.Context) error {
		doc, err := c.load(ctx, base, extract.RegionReady)
		if err != nil {
			return err
		}
		links = extract.Links(extract.NewPage(doc, base, nil), extract.RegionLinks...)
		return nil
	})
	if !res.OK() {
		c.state.gap(base, res.Err)
		log.Warn().Err(res.Err).Str("url", base).Msg("Region discovery failed, crawling base URL")
		return []string{base}
	}
	if len(links) == 0 {
		log.Info().Str("url", base).Msg("No regions found, crawling base URL")
		return []string{base}
	}

	log.Info().Int("regions", len(links)).Msg("Regions discovered")
	return links
}

func (c *Crawler) load(ctx context.Context, pageURL, waitFor string) (*goquery.Document, error) {
	if err := c.browser.Navigate(ctx, pageURL, waitFor); err != nil {
		return nil, err
	}
	return c.browser.Document(ctx)
}
