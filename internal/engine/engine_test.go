package engine_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/law-makers/listings/internal/engine"
	"github.com/law-makers/listings/internal/engine/enginetest"
	"github.com/law-makers/listings/internal/ratelimit"
)

const page = `<html><body>
	<ul><li class="amenity">Pool</li><li class="amenity">Gym</li></ul>
	<h1>Sterling Grove</h1>
</body></html>`

func TestFragments(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		t.Fatal(err)
	}

	got := engine.Fragments(doc.Selection, "h1", "", "li.amenity", ".missing")
	if len(got) != 3 {
		t.Fatalf("Expected 3 fragments, got %d: %v", len(got), got)
	}
	if got[0] != "<h1>Sterling Grove</h1>" {
		t.Errorf("Expected selector order to be kept, got %q", got[0])
	}

	if none := engine.Fragments(doc.Selection, ".missing"); none == nil || len(none) != 0 {
		t.Errorf("Expected empty non-nil slice, got %#v", none)
	}
}

func TestExtract(t *testing.T) {
	b := enginetest.New().Page("https://example.com/c", page)
	ctx := context.Background()
	if err := b.Navigate(ctx, "https://example.com/c", "h1"); err != nil {
		t.Fatal(err)
	}

	got, err := engine.Extract(ctx, b, "li.amenity")
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("Expected 2 amenities, got %v", got)
	}
}

func TestPaced(t *testing.T) {
	b := enginetest.New().
		Page("https://example.com/a", page).
		Page("https://example.com/b", page)
	paced := engine.Paced(b, ratelimit.NewDomainLimiter(40*time.Millisecond, 0))
	ctx := context.Background()

	start := time.Now()
	for _, u := range []string{"https://example.com/a", "https://example.com/b"} {
		if err := paced.Navigate(ctx, u, ""); err != nil {
			t.Fatalf("Navigate failed: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed < 35*time.Millisecond {
		t.Errorf("Expected navigations to be spaced, took %s", elapsed)
	}
	if len(b.Visits()) != 2 {
		t.Errorf("Expected 2 visits, got %v", b.Visits())
	}
}

func TestPaced_CancelledWait(t *testing.T) {
	b := enginetest.New().Page("https://example.com/a", page)
	paced := engine.Paced(b, ratelimit.NewDomainLimiter(time.Hour, 0))

	if err := paced.Navigate(context.Background(), "https://example.com/a", ""); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := paced.Navigate(ctx, "https://example.com/a", ""); err == nil {
		t.Error("Expected cancelled politeness wait to fail")
	}
	if b.VisitCount("https://example.com/a") != 1 {
		t.Error("Expected no navigation after a cancelled wait")
	}
}
