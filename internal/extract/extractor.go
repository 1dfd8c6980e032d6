package extract

import (
	"context"

	"github.com/PuerkitoBio/goquery"
	"github.com/law-makers/listings/internal/engine"
	"github.com/law-makers/listings/internal/snapshot"
	"github.com/law-makers/listings/pkg/models"
	"github.com/rs/zerolog/log"
)

// Extractor navigates to detail pages and parses them into records
type Extractor struct {
	browser   engine.Browser
	snapshots *snapshot.Writer
}

// Option configures an Extractor
type Option func(*Extractor)

// WithSnapshots stores every rendered detail page through w
func WithSnapshots(w *snapshot.Writer) Option {
	return func(x *Extractor) { x.snapshots = w }
}

// New returns an extractor driving b
func New(b engine.Browser, opts ...Option) *Extractor {
	x := &Extractor{browser: b}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// Community loads a community page and returns its record plus the home refs it lists
func (x *Extractor) Community(ctx context.Context, ref models.Ref) (*models.Community, []models.Ref, error) {
	doc, err := x.load(ctx, ref, CommunityReady)
	if err != nil {
		return nil, nil, err
	}
	x.snapshot(models.KindCommunity, ref.ID, doc)
	return ParseCommunity(doc, ref)
}

// Home loads a home page and returns its record
func (x *Extractor) Home(ctx context.Context, ref models.Ref, communityID string) (*models.Home, error) {
	doc, err := x.load(ctx, ref, HomeReady)
	if err != nil {
		return nil, err
	}
	x.snapshot(models.KindHome, ref.ID, doc)
	return ParseHome(doc, ref, communityID)
}

func (x *Extractor) load(ctx context.Context, ref models.Ref, waitFor string) (*goquery.Document, error) {
	if err := x.browser.Navigate(ctx, ref.URL, waitFor); err != nil {
		return nil, err
	}
	return x.browser.Document(ctx)
}

func (x *Extractor) snapshot(kind models.Kind, id string, doc *goquery.Document) {
	if x.snapshots == nil {
		return
	}
	if _, err := x.snapshots.Save(string(kind), id, doc); err != nil {
		log.Warn().Err(err).Str("id", id).Msg("Failed to save snapshot")
	}
}
