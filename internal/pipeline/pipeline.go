// Package pipeline sequences crawl, extraction and persistence for one run.
package pipeline

import (
	"context"
	"time"

	"github.com/law-makers/listings/internal/engine"
	"github.com/law-makers/listings/internal/extract"
	"github.com/law-makers/listings/internal/listing"
	"github.com/law-makers/listings/internal/ratelimit"
	"github.com/law-makers/listings/internal/retry"
	"github.com/law-makers/listings/internal/runctx"
	"github.com/law-makers/listings/internal/snapshot"
	"github.com/law-makers/listings/internal/store"
	urlutil "github.com/law-makers/listings/internal/utils/url"
	"github.com/law-makers/listings/pkg/models"
	"github.com/rs/zerolog"
)

// Launcher opens the browser a run drives
type Launcher func(ctx context.Context) (engine.Browser, error)

// Config controls a run
type Config struct {
	Crawl       listing.Config
	Retry       retry.Config
	Limiter     ratelimit.RateLimiter // politeness between navigations; nil disables
	Communities []string              // community URLs to extract directly instead of crawling
	SkipHomes   bool
	Snapshots   *snapshot.Writer
}

// Skip is a unit of work that was abandoned
type Skip struct {
	Kind   string `json:"kind"`
	ID     string `json:"id,omitempty"`
	URL    string `json:"url"`
	Reason string `json:"reason"`
}

// Summary describes the outcome of a run
type Summary struct {
	RunID       string        `json:"run_id"`
	State       State         `json:"state"`
	Pages       int           `json:"pages"`
	Communities int           `json:"communities"`
	Homes       int           `json:"homes"`
	Skipped     []Skip        `json:"skipped"`
	Interrupted bool          `json:"interrupted"`
	Output      string        `json:"output"`
	Duration    time.Duration `json:"duration"`

	// set when the run ends in Failed
	Stage string `json:"stage,omitempty"`
	Error string `json:"error,omitempty"`
}

// Event reports progress to an observer
type Event struct {
	State State
	Kind  models.Kind // set for unit events
	ID    string
	OK    bool
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithObserver registers a progress callback; it runs on the pipeline goroutine
func WithObserver(fn func(Event)) Option {
	return func(p *Pipeline) { p.observe = fn }
}

// Pipeline runs Idle → Crawling → Extracting → Persisting → Done.
// Fatal errors end in Failed; per-unit failures are recorded as skips.
type Pipeline struct {
	cfg     Config
	store   *store.Store
	launch  Launcher
	observe func(Event)

	state   State
	log     zerolog.Logger
	summary *Summary
	records []models.Record
}

// New creates a pipeline writing to st and browsing through launch
func New(cfg Config, st *store.Store, launch Launcher, opts ...Option) *Pipeline {
	p := &Pipeline{cfg: cfg, store: st, launch: launch, observe: func(Event) {}}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// State returns the current lifecycle state
func (p *Pipeline) State() State {
	return p.state
}

// Run executes the pipeline once. The summary is always returned; the error
// is a *StageError when the run ends in Failed. Cancelling ctx stops the run
// between units and persists what was extracted so far.
func (p *Pipeline) Run(ctx context.Context) (*Summary, error) {
	if runctx.From(ctx).RunID == "unknown" {
		ctx = runctx.With(ctx)
	}
	rc := runctx.From(ctx)
	p.log = runctx.Logger(ctx)
	p.summary = &Summary{RunID: rc.RunID, Skipped: []Skip{}, Output: p.store.Path}
	p.records = nil
	defer func() { p.summary.Duration = rc.Elapsed() }()

	p.transition(Idle)
	if err := p.store.Load(); err != nil {
		return p.fail(Idle, err)
	}

	raw, err := p.launch(ctx)
	if err != nil {
		return p.fail(Idle, err)
	}
	defer func() {
		if err := raw.Close(); err != nil {
			p.log.Warn().Err(err).Msg("Browser close failed")
		}
	}()
	browser := engine.Browser(raw)
	if p.cfg.Limiter != nil {
		browser = engine.Paced(raw, p.cfg.Limiter)
	}

	p.transition(Crawling)
	state := listing.NewState()
	refs, err := p.crawl(ctx, browser, state)
	if err != nil {
		return p.fail(Crawling, err)
	}

	if ctx.Err() == nil {
		p.transition(Extracting)
		if err := p.extract(ctx, browser, state, refs); err != nil {
			return p.fail(Extracting, err)
		}
	}
	if ctx.Err() != nil {
		p.summary.Interrupted = true
		p.log.Warn().Int("records", len(p.records)).Msg("Stop requested, persisting partial results")
	}

	p.transition(Persisting)
	for _, r := range p.records {
		if err := p.store.Upsert(r); err != nil {
			return p.fail(Persisting, engine.PersistenceError("upserting "+r.RecordID(), err))
		}
	}
	if err := p.store.Flush(); err != nil {
		return p.fail(Persisting, err)
	}

	p.transition(Done)
	p.log.Info().
		Int("communities", p.summary.Communities).
		Int("homes", p.summary.Homes).
		Int("skipped", len(p.summary.Skipped)).
		Dur("elapsed", rc.Elapsed()).
		Msg("Run complete")
	return p.summary, nil
}

func (p *Pipeline) crawl(ctx context.Context, b engine.Browser, state *listing.State) ([]models.Ref, error) {
	if len(p.cfg.Communities) > 0 {
		refs := make([]models.Ref, 0, len(p.cfg.Communities))
		for _, u := range p.cfg.Communities {
			ref := models.Ref{ID: urlutil.Slug(u), URL: u}
			if ref.ID != "" && state.Visit(ref.ID) {
				refs = append(refs, ref)
			}
		}
		return refs, nil
	}

	crawler := listing.New(b, p.cfg.Crawl, state)
	var refs []models.Ref
	for page := range crawler.Pages(ctx) {
		p.summary.Pages++
		if page.Err != nil && engine.IsFatal(page.Err) {
			return nil, page.Err
		}
		refs = append(refs, page.Refs...)
	}
	for _, g := range state.Gaps {
		p.summary.Skipped = append(p.summary.Skipped, Skip{Kind: "page", URL: g.URL, Reason: g.Reason})
	}

	p.log.Info().
		Int("pages", p.summary.Pages).
		Int("communities", len(refs)).
		Int("gaps", len(state.Gaps)).
		Msg("Crawl finished")
	return refs, nil
}

func (p *Pipeline) extract(ctx context.Context, b engine.Browser, state *listing.State, refs []models.Ref) error {
	x := extract.New(b, extract.WithSnapshots(p.cfg.Snapshots))

	for _, ref := range refs {
		if ctx.Err() != nil {
			return nil
		}

		var community *models.Community
		var homes []models.Ref
		res := retry.Do(ctx, p.cfg.Retry, func(ctx context.Context) error {
			var err error
			community, homes, err = x.Community(ctx, ref)
			return err
		})
		if err := p.settle(models.KindCommunity, ref, res); err != nil {
			return err
		}
		if !res.OK() {
			continue
		}
		p.records = append(p.records, community)
		p.summary.Communities++

		if p.cfg.SkipHomes {
			continue
		}
		for _, home := range homes {
			if ctx.Err() != nil {
				return nil
			}
			if !state.Visit(home.ID) {
				continue
			}

			var rec *models.Home
			res := retry.Do(ctx, p.cfg.Retry, func(ctx context.Context) error {
				var err error
				rec, err = x.Home(ctx, home, community.ID)
				return err
			})
			if err := p.settle(models.KindHome, home, res); err != nil {
				return err
			}
			if res.OK() {
				p.records = append(p.records, rec)
				p.summary.Homes++
			}
		}
	}
	return nil
}

// settle records the outcome of one unit; only fatal results are returned
func (p *Pipeline) settle(kind models.Kind, ref models.Ref, res retry.Result) error {
	p.observe(Event{State: p.state, Kind: kind, ID: ref.ID, OK: res.OK()})

	switch res.Status {
	case retry.Recovered:
		p.log.Info().Str("kind", string(kind)).Str("id", ref.ID).Int("attempt", res.Attempts).Msg("Extracted")
		return nil
	case retry.Fatal:
		return res.Err
	}

	p.summary.Skipped = append(p.summary.Skipped, Skip{
		Kind:   string(kind),
		ID:     ref.ID,
		URL:    ref.URL,
		Reason: res.Err.Error(),
	})
	p.log.Warn().Err(res.Err).Str("kind", string(kind)).Str("id", ref.ID).Int("attempts", res.Attempts).Msg("Skipped")
	return nil
}

func (p *Pipeline) transition(to State) {
	from := p.state
	p.state = to
	p.summary.State = to
	if from != to {
		p.log.Debug().Stringer("from", from).Stringer("to", to).Msg("State changed")
	}
	p.observe(Event{State: to})
}

func (p *Pipeline) fail(stage State, err error) (*Summary, error) {
	p.transition(Failed)
	serr := &StageError{Stage: stage, Err: err}
	p.summary.Stage = stage.String()
	p.summary.Error = err.Error()
	p.log.Error().Err(err).Stringer("stage", stage).Msg("Run failed")
	return p.summary, serr
}
