package engine

import (
	"context"

	"github.com/PuerkitoBio/goquery"
	"github.com/law-makers/listings/internal/ratelimit"
	"github.com/rs/zerolog/log"
)

// PacedBrowser enforces the politeness delay before every navigation
type PacedBrowser struct {
	Browser
	limiter ratelimit.RateLimiter
}

// Paced wraps b so that consecutive navigations respect limiter
func Paced(b Browser, limiter ratelimit.RateLimiter) *PacedBrowser {
	return &PacedBrowser{Browser: b, limiter: limiter}
}

// Navigate waits for the limiter, then delegates
func (p *PacedBrowser) Navigate(ctx context.Context, url, waitFor string) error {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx, url); err != nil {
			return err
		}
	}
	log.Debug().Str("url", url).Msg("Navigating")
	return p.Browser.Navigate(ctx, url, waitFor)
}

// Document delegates to the wrapped browser
func (p *PacedBrowser) Document(ctx context.Context) (*goquery.Document, error) {
	return p.Browser.Document(ctx)
}
