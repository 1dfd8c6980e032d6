package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/law-makers/listings/internal/engine"
	urlutil "github.com/law-makers/listings/internal/utils/url"
	"github.com/law-makers/listings/pkg/models"
)

// ParseHome extracts a home record; communityID becomes its back-reference
func ParseHome(doc *goquery.Document, ref models.Ref, communityID string) (*models.Home, error) {
	page := NewPage(doc, ref.URL, ref.Hints)

	id := ref.ID
	if id == "" {
		if slug := urlutil.Slug(page.URL); slug != "" {
			id = HomeID(communityID, slug)
		}
	}
	if id == "" {
		return nil, engine.ExtractionError(page.URL, "id")
	}

	values, err := HomeFields.Resolve(page)
	if err != nil {
		return nil, err
	}

	return &models.Home{
		ID:          id,
		CommunityID: communityID,
		URL:         page.URL,
		Name:        values.Text("name"),
		Price:       values.Number("price"),
		SquareFeet:  values.Number("sqft"),
		Beds:        values.Number("beds"),
		Baths:       values.Number("baths"),
		FloorPlan:   values.String("floor_plan"),
		Status:      values.String("status"),
		Address:     homeAddress(values),
		Latitude:    values.Number("latitude"),
		Longitude:   values.Number("longitude"),
		Description: values.String("description"),
		Images:      images(page, ref.Hints["image"]),
	}, nil
}

// homeAddress joins the structured address parts, else uses the displayed one
func homeAddress(values Values) *string {
	street := values.Text("street")
	if street == "" {
		return values.String("address")
	}
	parts := []string{street}
	if city := values.Text("city"); city != "" {
		parts = append(parts, city)
	}
	region := strings.TrimSpace(values.Text("state") + " " + values.Text("zip"))
	if region != "" {
		parts = append(parts, region)
	}
	addr := strings.Join(parts, ", ")
	return &addr
}
