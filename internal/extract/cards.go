package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	urlutil "github.com/law-makers/listings/internal/utils/url"
	"github.com/law-makers/listings/pkg/models"
)

// CardSet describes the repeated cards of an index page
type CardSet struct {
	Containers []string // tried in order; the first selector with matches wins
	Link       string   // anchors inside (or on) the card
	Hints      Fields   // card-level values kept as extraction hints
}

// Refs returns one ref per card in document order, deduplicated by id.
// idFor maps an absolute link to a record id; an empty id drops the card.
func (cs CardSet) Refs(page *Page, idFor func(link string) string) []models.Ref {
	var refs []models.Ref
	seen := make(map[string]bool)

	for _, sel := range cs.Containers {
		cards := page.Root.Find(sel)
		if cards.Length() == 0 {
			continue
		}
		cards.Each(func(_ int, card *goquery.Selection) {
			link := cs.link(card, page.URL)
			if link == "" {
				return
			}
			id := idFor(link)
			if id == "" || seen[id] {
				return
			}
			seen[id] = true

			values, _ := cs.Hints.Resolve(Scope(card, page.URL))
			refs = append(refs, models.Ref{ID: id, URL: link, Hints: values.Hints()})
		})
		break
	}
	return refs
}

// link returns the first same-site http(s) anchor of a card
func (cs CardSet) link(card *goquery.Selection, pageURL string) string {
	anchors := card.Filter(cs.Link).AddSelection(card.Find(cs.Link))
	var out string
	anchors.EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href := strings.TrimSpace(a.AttrOr("href", ""))
		if href == "" || strings.HasPrefix(href, "#") {
			return true
		}
		abs := urlutil.ResolveURL(pageURL, href)
		if urlutil.ValidateURL(abs) != nil || !urlutil.SameSite(pageURL, abs) {
			return true
		}
		out = stripFragment(abs)
		return false
	})
	return out
}

// Links returns every distinct same-site link matched by the selectors
func Links(page *Page, selectors ...string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, sel := range selectors {
		page.Root.Find(sel).Each(func(_ int, a *goquery.Selection) {
			href := strings.TrimSpace(a.AttrOr("href", ""))
			if href == "" || strings.HasPrefix(href, "#") {
				return
			}
			abs := stripFragment(urlutil.ResolveURL(page.URL, href))
			if urlutil.ValidateURL(abs) != nil || !urlutil.SameSite(page.URL, abs) || seen[abs] {
				return
			}
			seen[abs] = true
			out = append(out, abs)
		})
	}
	return out
}

func stripFragment(u string) string {
	if i := strings.IndexByte(u, '#'); i >= 0 {
		return u[:i]
	}
	return u
}
