package extract

import (
	"math"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/dustin/go-humanize"
	"github.com/law-makers/listings/internal/engine"
	urlutil "github.com/law-makers/listings/internal/utils/url"
	"github.com/law-makers/listings/pkg/models"
)

// HomeID builds the document id of a home inside a community
func HomeID(communityID, slug string) string {
	return communityID + "/" + slug
}

// ParseCommunity extracts a community record and the home refs listed on its page
func ParseCommunity(doc *goquery.Document, ref models.Ref) (*models.Community, []models.Ref, error) {
	page := NewPage(doc, ref.URL, ref.Hints)

	id := ref.ID
	if id == "" {
		id = urlutil.Slug(page.URL)
	}
	if id == "" {
		return nil, nil, engine.ExtractionError(page.URL, "id")
	}

	values, err := CommunityFields.Resolve(page)
	if err != nil {
		return nil, nil, err
	}

	homes := HomeCards.Refs(page, func(link string) string {
		slug := urlutil.Slug(link)
		if slug == "" || slug == id || link == page.URL {
			return ""
		}
		return HomeID(id, slug)
	})
	fillRanges(values, homes)

	c := &models.Community{
		ID:   id,
		Name: values.Text("name"),
		URL:  page.URL,
		Location: models.Location{
			Address:   values.String("address"),
			City:      values.String("city"),
			State:     values.String("state"),
			Zip:       values.String("zip"),
			Latitude:  values.Number("latitude"),
			Longitude: values.Number("longitude"),
		},
		Attributes: make(map[string]any, len(AttributeKeys)),
		Amenities:  amenities(page),
		Images:     images(page),
		HomeIDs:    make([]string, 0, len(homes)),
	}
	for _, key := range AttributeKeys {
		c.Attributes[key] = values[key]
	}
	for _, h := range homes {
		c.HomeIDs = append(c.HomeIDs, h.ID)
	}
	c.Normalize()

	return c, homes, nil
}

// amenities maps amenity names to their descriptions
func amenities(page *Page) map[string]string {
	out := make(map[string]string)
	for _, sel := range AmenityItems {
		items := page.Root.Find(sel)
		if items.Length() == 0 {
			continue
		}
		items.Each(func(_ int, item *goquery.Selection) {
			scope := Scope(item, page.URL)
			name, _ := AmenityName.Resolve(scope)
			if name.Text("name") == "" {
				return
			}
			desc, _ := AmenityDescription.Resolve(scope)
			out[name.Text("name")] = desc.Text("description")
		})
		break
	}
	return out
}

// images returns absolute image URLs from JSON-LD, else from the gallery markup
func images(page *Page, extra ...string) []string {
	out := []string{}
	seen := make(map[string]bool)
	add := func(src string) {
		src = strings.TrimSpace(src)
		if src == "" || strings.HasPrefix(src, "data:") {
			return
		}
		abs := urlutil.ResolveURL(page.URL, src)
		if urlutil.ValidateURL(abs) != nil || seen[abs] {
			return
		}
		seen[abs] = true
		out = append(out, abs)
	}

	for _, src := range lookupStrings(page.LinkedData(), "image") {
		add(src)
	}
	if len(out) == 0 {
		for _, sel := range GalleryImages {
			page.Root.Find(sel).Each(func(_ int, img *goquery.Selection) {
				if src := img.AttrOr("src", ""); src != "" {
					add(src)
				} else {
					add(img.AttrOr("data-src", ""))
				}
			})
			if len(out) > 0 {
				break
			}
		}
	}
	for _, src := range extra {
		add(src)
	}
	return out
}

// fillRanges derives bed, bath and square-footage ranges from the home cards
// when the community page does not state them.
func fillRanges(values Values, homes []models.Ref) {
	ranges := []struct {
		field string
		hint  string
		fmt   func(float64) string
	}{
		{"bed_range", "beds", formatCount},
		{"bath_range", "baths", formatCount},
		{"sqft_range", "sqft", func(v float64) string { return humanize.Comma(int64(math.Round(v))) }},
	}
	for _, r := range ranges {
		if values[r.field] != nil {
			continue
		}
		lo, hi := math.Inf(1), math.Inf(-1)
		for _, h := range homes {
			raw, ok := h.Hints[r.hint]
			if !ok {
				continue
			}
			for _, n := range numbersIn(raw) {
				lo, hi = math.Min(lo, n), math.Max(hi, n)
			}
		}
		switch {
		case math.IsInf(lo, 1):
		case lo == hi:
			values[r.field] = r.fmt(lo)
		default:
			values[r.field] = r.fmt(lo) + " - " + r.fmt(hi)
		}
	}
}

func numbersIn(s string) []float64 {
	var out []float64
	for _, tok := range numberToken.FindAllString(s, -1) {
		if n, ok := ParseNumber(tok); ok {
			out = append(out, n)
		}
	}
	return out
}

func formatCount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
