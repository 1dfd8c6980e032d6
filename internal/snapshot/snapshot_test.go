package snapshot

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func TestFileName(t *testing.T) {
	tests := map[string]string{
		"sterling-grove":           "sterling-grove.html",
		"sterling-grove/the-ashby": "sterling-grove_the-ashby.html",
		"Weird Name?!":             "weird_name.html",
		"":                         "page.html",
	}
	for in, want := range tests {
		if got := FileName(in); got != want {
			t.Errorf("FileName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSave(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`<html><head>
		<style>h1{color:red}</style>
		<script>var tracking = 1;</script>
		<script type="application/ld+json">{"name":"Sterling Grove"}</script>
	</head><body><h1 class="CommunityHero_name">Sterling Grove</h1><img src="/a.jpg"></body></html>`))
	if err != nil {
		t.Fatalf("Failed to parse: %v", err)
	}

	w := New(t.TempDir())
	path, err := w.Save("community", "sterling-grove", doc)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if filepath.Base(filepath.Dir(path)) != "community" {
		t.Errorf("Expected snapshot under community/, got %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read snapshot: %v", err)
	}
	body := string(data)
	if !strings.Contains(body, `class="CommunityHero_name"`) {
		t.Error("Expected attributes to be kept")
	}
	if strings.Contains(body, "tracking") || strings.Contains(body, "color:red") {
		t.Error("Expected scripts and styles to be removed")
	}
	if !strings.Contains(body, "application/ld+json") {
		t.Error("Expected JSON-LD to survive")
	}

	// the live document must not be modified
	if doc.Find("style").Length() != 1 {
		t.Error("Expected Save to leave the source document intact")
	}
}

func TestNilWriter(t *testing.T) {
	var w *Writer
	if w = New(""); w != nil {
		t.Fatal("Expected empty dir to disable snapshots")
	}
	if path, err := w.Save("home", "x", nil); err != nil || path != "" {
		t.Errorf("Expected no-op, got %q, %v", path, err)
	}
}
