// Package snapshot writes rendered detail pages to disk so selector tables
// can be checked against what the browser actually saw.
package snapshot

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"
)

var unsafeName = regexp.MustCompile(`[^a-z0-9._-]+`)

// Writer stores one pretty-printed HTML file per record under Dir/<kind>/
type Writer struct {
	Dir string
}

// New returns a writer rooted at dir; an empty dir disables snapshots
func New(dir string) *Writer {
	if dir == "" {
		return nil
	}
	return &Writer{Dir: dir}
}

// Save writes doc for the record kind/id and returns the file path.
// A nil writer is a no-op.
func (w *Writer) Save(kind, id string, doc *goquery.Document) (string, error) {
	if w == nil || doc == nil {
		return "", nil
	}
	dir := filepath.Join(w.Dir, kind)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating snapshot dir: %w", err)
	}

	path := filepath.Join(dir, FileName(id))
	body := PrettyPrint(Clean(doc.Selection).Nodes...)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		return "", fmt.Errorf("writing snapshot: %w", err)
	}
	log.Debug().Str("path", path).Msg("Snapshot saved")
	return path, nil
}

// FileName maps a record id to a flat, filesystem-safe file name
func FileName(id string) string {
	name := unsafeName.ReplaceAllString(strings.ToLower(id), "_")
	name = strings.Trim(name, "_.")
	if name == "" {
		name = "page"
	}
	return name + ".html"
}

// Clean returns a copy of the tree without presentational noise. Attributes
// are kept because selectors depend on them; structured-data scripts survive.
func Clean(root *goquery.Selection) *goquery.Selection {
	c := root.Clone()
	c.Find("style, link, noscript, iframe, svg, canvas").Remove()
	c.Find("script").Not(`[type="application/ld+json"], [type="application/json"]`).Remove()
	return c
}

// PrettyPrint returns an indented human-readable representation of HTML node trees.
func PrettyPrint(nodes ...*html.Node) string {
	var sb strings.Builder
	var f func(*html.Node, int)
	f = func(n *html.Node, depth int) {
		indent := strings.Repeat("  ", depth)
		switch n.Type {
		case html.DocumentNode:
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				f(c, depth)
			}
		case html.ElementNode:
			sb.WriteString(fmt.Sprintf("%s<%s", indent, n.Data))
			for _, a := range n.Attr {
				sb.WriteString(fmt.Sprintf(" %s=\"%s\"", a.Key, html.EscapeString(a.Val)))
			}
			sb.WriteString(">\n")
			if isVoidElement(n.Data) {
				return
			}
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				f(c, depth+1)
			}
			sb.WriteString(fmt.Sprintf("%s</%s>\n", indent, n.Data))
		case html.TextNode:
			if text := strings.TrimSpace(n.Data); text != "" {
				sb.WriteString(fmt.Sprintf("%s%s\n", indent, text))
			}
		case html.DoctypeNode:
			sb.WriteString(fmt.Sprintf("<!DOCTYPE %s>\n", n.Data))
		}
	}
	for _, n := range nodes {
		f(n, 0)
	}
	return sb.String()
}

func isVoidElement(tag string) bool {
	switch tag {
	case "area", "base", "br", "col", "embed", "hr", "img", "input", "link", "meta", "param", "source", "track", "wbr":
		return true
	}
	return false
}
