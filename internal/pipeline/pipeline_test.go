package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/law-makers/listings/internal/engine"
	"github.com/law-makers/listings/internal/engine/enginetest"
	"github.com/law-makers/listings/internal/listing"
	"github.com/law-makers/listings/internal/ratelimit"
	"github.com/law-makers/listings/internal/retry"
	"github.com/law-makers/listings/internal/store"
	"github.com/law-makers/listings/pkg/models"
)

const (
	base   = "https://www.tollbrothers.com"
	source = base + "/luxury-homes-for-sale/Arizona"
)

var fastRetry = retry.Config{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond, Multiplier: 2}

func listingPage(slugs ...string) string {
	var sb strings.Builder
	sb.WriteString("<html><body>")
	for _, slug := range slugs {
		fmt.Fprintf(&sb, `<div class="SearchProductCard_cardWrap__2CFt9"><a href="/luxury-homes-for-sale/Arizona/%s">
			<h2 class="SearchProductCard_card_header__F_ORx">%s</h2>
			<div class="SearchProductCard_location_description__7kNyd">Surprise, AZ 85387</div></a></div>`, slug, slug)
	}
	sb.WriteString("</body></html>")
	return sb.String()
}

func communityPage(name string, homes ...string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, `<html><head><script type="application/ld+json">{"@type":"Residence","name":%q,
		"address":{"addressLocality":"Surprise","addressRegion":"AZ","postalCode":"85387"}}</script></head><body>`, name)
	for _, h := range homes {
		fmt.Fprintf(&sb, `<div class="ModelCard_modelCardContainer__lXz5R"><a href="%s">
			<h4 class="ModelCard_modelName__XzUo2">%s</h4><p class="tracking_bedRange">3</p></a></div>`, h, filepath.Base(h))
	}
	sb.WriteString("</body></html>")
	return sb.String()
}

func homePage(name, price string) string {
	return fmt.Sprintf(`<html><body><h1>%s</h1><span class="modelPrice">%s</span></body></html>`, name, price)
}

// site builds a fake source with two communities; alpha has two homes
func site() *enginetest.Browser {
	alpha := source + "/alpha"
	return enginetest.New().
		Page(source, listingPage("alpha", "beta")).
		Page(source+"?page=2", listingPage()).
		Page(alpha, communityPage("Alpha", alpha+"/plan-one", alpha+"/plan-two")).
		Page(alpha+"/plan-one", homePage("Plan One", "$500,000")).
		Page(alpha+"/plan-two", homePage("Plan Two", "Coming soon")).
		Page(source+"/beta", communityPage("Beta"))
}

func launcher(b engine.Browser) Launcher {
	return func(ctx context.Context) (engine.Browser, error) { return b, nil }
}

func config() Config {
	return Config{
		Crawl: listing.Config{BaseURL: base, Sources: []string{source}, MaxPages: 10, Retry: fastRetry},
		Retry: fastRetry,
	}
}

func output(t *testing.T) string {
	return filepath.Join(t.TempDir(), "output", "listings.json")
}

func TestRun_Full(t *testing.T) {
	b := site()
	path := output(t)

	var states []State
	p := New(config(), store.New(path), launcher(b), WithObserver(func(ev Event) {
		if ev.Kind == "" {
			states = append(states, ev.State)
		}
	}))

	sum, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if sum.State != Done || p.State() != Done {
		t.Errorf("Expected done, got %s", sum.State)
	}
	if sum.Communities != 2 || sum.Homes != 2 {
		t.Errorf("Expected 2 communities and 2 homes, got %d and %d", sum.Communities, sum.Homes)
	}
	if len(sum.Skipped) != 0 {
		t.Errorf("Expected no skips, got %+v", sum.Skipped)
	}
	if sum.Pages != 2 {
		t.Errorf("Expected 2 listing pages, got %d", sum.Pages)
	}
	if sum.RunID == "" || sum.RunID == "unknown" {
		t.Errorf("Expected a run id, got %q", sum.RunID)
	}
	if b.Closes() != 1 {
		t.Errorf("Expected browser to be closed once, got %d", b.Closes())
	}

	want := []State{Idle, Crawling, Extracting, Persisting, Done}
	if fmt.Sprint(states) != fmt.Sprint(want) {
		t.Errorf("Expected transitions %v, got %v", want, states)
	}

	reloaded, err := store.Open(path)
	if err != nil {
		t.Fatalf("Failed to reload output: %v", err)
	}
	doc := reloaded.Document()
	alpha := doc.Communities["alpha"]
	if alpha == nil || alpha.Name != "Alpha" {
		t.Fatalf("Expected community alpha, got %+v", alpha)
	}
	if strings.Join(alpha.HomeIDs, ",") != "alpha/plan-one,alpha/plan-two" {
		t.Errorf("Unexpected home ids: %v", alpha.HomeIDs)
	}
	one := doc.Homes["alpha/plan-one"]
	if one == nil || one.CommunityID != "alpha" || one.Price == nil || *one.Price != 500000 {
		t.Errorf("Unexpected home: %+v", one)
	}
	if two := doc.Homes["alpha/plan-two"]; two == nil || two.Price != nil {
		t.Errorf("Expected unparseable price to be null, got %+v", two)
	}
}

func TestRun_Idempotent(t *testing.T) {
	path := output(t)

	if _, err := New(config(), store.New(path), launcher(site())).Run(context.Background()); err != nil {
		t.Fatalf("First run failed: %v", err)
	}
	first, _ := os.ReadFile(path)

	if _, err := New(config(), store.New(path), launcher(site())).Run(context.Background()); err != nil {
		t.Fatalf("Second run failed: %v", err)
	}
	second, _ := os.ReadFile(path)

	if !bytes.Equal(first, second) {
		t.Error("Expected byte-identical output across runs")
	}
}

func TestRun_RetryExhaustion(t *testing.T) {
	b := site().FailTimes(source+"/beta", -1)

	sum, err := New(config(), store.New(output(t)), launcher(b)).Run(context.Background())
	if err != nil {
		t.Fatalf("Expected run to succeed, got %v", err)
	}
	if sum.State != Done {
		t.Errorf("Expected done, got %s", sum.State)
	}
	if b.VisitCount(source+"/beta") != 3 {
		t.Errorf("Expected 3 attempts, got %d", b.VisitCount(source+"/beta"))
	}
	if len(sum.Skipped) != 1 {
		t.Fatalf("Expected 1 skip, got %+v", sum.Skipped)
	}
	skip := sum.Skipped[0]
	if skip.ID != "beta" || skip.Kind != "community" || skip.URL != source+"/beta" {
		t.Errorf("Unexpected skip: %+v", skip)
	}
	if !strings.Contains(skip.Reason, "after 3 attempts") {
		t.Errorf("Unexpected reason: %s", skip.Reason)
	}
	if sum.Communities != 1 {
		t.Errorf("Expected the other community to be extracted, got %d", sum.Communities)
	}
}

func TestRun_ExtractionErrorNotRetried(t *testing.T) {
	// the beta card carries no name hint, so the page itself must provide one
	index := `<html><body>
		<div class="SearchProductCard_cardWrap__2CFt9"><a href="/luxury-homes-for-sale/Arizona/alpha"><h2>alpha</h2></a></div>
		<div class="SearchProductCard_cardWrap__2CFt9"><a href="/luxury-homes-for-sale/Arizona/beta">View</a></div>
	</body></html>`
	b := site().
		Page(source, index).
		Page(source+"/beta", `<html><body><p>maintenance</p></body></html>`)

	sum, err := New(config(), store.New(output(t)), launcher(b)).Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if b.VisitCount(source+"/beta") != 1 {
		t.Errorf("Expected a single attempt, got %d", b.VisitCount(source+"/beta"))
	}
	if len(sum.Skipped) != 1 || !strings.Contains(sum.Skipped[0].Reason, `"name"`) {
		t.Errorf("Expected unresolved name in skip list, got %+v", sum.Skipped)
	}
}

func TestRun_PageGapReported(t *testing.T) {
	b := site().FailTimes(source, -1)

	sum, err := New(config(), store.New(output(t)), launcher(b)).Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(sum.Skipped) == 0 || sum.Skipped[0].Kind != "page" || sum.Skipped[0].URL != source {
		t.Errorf("Expected page gap in skip list, got %+v", sum.Skipped)
	}
}

func TestRun_LaunchFailure(t *testing.T) {
	path := output(t)
	launch := func(ctx context.Context) (engine.Browser, error) {
		return nil, engine.LaunchError("browser executable not available", engine.ErrBrowserNotFound)
	}

	sum, err := New(config(), store.New(path), launch).Run(context.Background())
	if sum.State != Failed {
		t.Errorf("Expected failed, got %s", sum.State)
	}
	var serr *StageError
	if !errors.As(err, &serr) || serr.Stage != Idle {
		t.Fatalf("Expected idle stage error, got %v", err)
	}
	if !errors.Is(err, engine.ErrLaunch) {
		t.Errorf("Expected launch error, got %v", err)
	}
	if sum.Stage != "idle" || !strings.Contains(sum.Error, "browser executable not available") {
		t.Errorf("Expected summary to carry stage and cause, got %q / %q", sum.Stage, sum.Error)
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Error("Expected no output to be written")
	}
}

func TestRun_MalformedStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "listings.json")
	if err := os.WriteFile(path, []byte("{broken"), 0o644); err != nil {
		t.Fatal(err)
	}

	launched := false
	launch := func(ctx context.Context) (engine.Browser, error) {
		launched = true
		return site(), nil
	}

	_, err := New(config(), store.New(path), launch).Run(context.Background())
	if !errors.Is(err, engine.ErrPersistence) {
		t.Fatalf("Expected persistence error, got %v", err)
	}
	if launched {
		t.Error("Expected browser not to be launched")
	}
	data, _ := os.ReadFile(path)
	if string(data) != "{broken" {
		t.Error("Expected malformed document to be left untouched")
	}
}

func TestRun_PersistenceFailure(t *testing.T) {
	path := output(t)
	b := site()

	// turn the output directory into a file once extraction is over
	p := New(config(), store.New(path), launcher(b), WithObserver(func(ev Event) {
		if ev.Kind == "" && ev.State == Persisting {
			os.WriteFile(filepath.Dir(path), []byte("file"), 0o644)
		}
	}))

	sum, err := p.Run(context.Background())
	var serr *StageError
	if !errors.As(err, &serr) || serr.Stage != Persisting {
		t.Fatalf("Expected persisting stage error, got %v", err)
	}
	if !errors.Is(err, engine.ErrPersistence) {
		t.Errorf("Expected persistence error, got %v", err)
	}
	if sum.State != Failed {
		t.Errorf("Expected failed, got %s", sum.State)
	}
	if b.Closes() != 1 {
		t.Error("Expected browser to be closed on failure")
	}
}

func TestRun_StopPersistsPartialResults(t *testing.T) {
	path := output(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := New(config(), store.New(path), launcher(site()), WithObserver(func(ev Event) {
		if ev.Kind == models.KindHome && ev.ID == "alpha/plan-one" {
			cancel()
		}
	}))

	sum, err := p.Run(ctx)
	if err != nil {
		t.Fatalf("Expected stop to end in done, got %v", err)
	}
	if !sum.Interrupted || sum.State != Done {
		t.Errorf("Expected interrupted done run, got %+v", sum)
	}

	reloaded, err := store.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	doc := reloaded.Document()
	if doc.Communities["alpha"] == nil || doc.Homes["alpha/plan-one"] == nil {
		t.Error("Expected records extracted before the stop to be persisted")
	}
	if doc.Homes["alpha/plan-two"] != nil || doc.Communities["beta"] != nil {
		t.Error("Expected no work after the stop")
	}
}

func TestRun_SingleCommunity(t *testing.T) {
	cfg := config()
	cfg.Communities = []string{source + "/alpha"}
	cfg.SkipHomes = true
	b := site()

	sum, err := New(cfg, store.New(output(t)), launcher(b)).Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if sum.Communities != 1 || sum.Homes != 0 || sum.Pages != 0 {
		t.Errorf("Unexpected summary: %+v", sum)
	}
	if b.VisitCount(source) != 0 {
		t.Error("Expected listing pages not to be crawled")
	}
}

func TestRun_Paced(t *testing.T) {
	cfg := config()
	cfg.Communities = []string{source + "/beta"}
	cfg.Limiter = ratelimit.NewDomainLimiter(20*time.Millisecond, 0)

	b := enginetest.New().Page(source+"/beta", communityPage("Beta"))
	// fail once so the second navigation must wait for the limiter
	b.FailTimes(source+"/beta", 1)

	start := time.Now()
	if _, err := New(cfg, store.New(output(t)), launcher(b)).Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Errorf("Expected politeness delay between navigations, took %s", elapsed)
	}
}

func TestStageError(t *testing.T) {
	err := &StageError{Stage: Persisting, Err: engine.PersistenceError("replacing out.json", errors.New("disk full"))}
	if !strings.HasPrefix(err.Error(), "persisting stage failed: PERSISTENCE") {
		t.Errorf("Unexpected message: %s", err.Error())
	}
	if !errors.Is(err, engine.ErrPersistence) {
		t.Error("Expected error chain to reach the persistence error")
	}
}
