package models

import "sort"

// Kind names the two record collections of the persisted document
type Kind string

const (
	KindCommunity Kind = "community"
	KindHome      Kind = "home"
)

// Ref is a reference to a detail page discovered on an index or community page.
// Hints carry card-level values scraped alongside the link; extraction uses them
// only when the detail page itself does not provide the field.
type Ref struct {
	ID    string            `json:"id"`
	URL   string            `json:"url"`
	Hints map[string]string `json:"hints,omitempty"`
}

// Record is implemented by everything the store can upsert
type Record interface {
	RecordID() string
	RecordKind() Kind
}

// Location is the address block of a community. Absent parts are encoded as null.
type Location struct {
	Address   *string  `json:"address"`
	City      *string  `json:"city"`
	State     *string  `json:"state"`
	Zip       *string  `json:"zip"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// Community is one builder community as extracted from its detail page
type Community struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	URL        string            `json:"url"`
	Location   Location          `json:"location"`
	Attributes map[string]any    `json:"attributes"`
	Amenities  map[string]string `json:"amenities"`
	Images     []string          `json:"images"`
	HomeIDs    []string          `json:"home_ids"`
}

func (c *Community) RecordID() string { return c.ID }
func (c *Community) RecordKind() Kind { return KindCommunity }

// Home is a single home (quick move-in home or plan) inside a community
type Home struct {
	ID          string   `json:"id"`
	CommunityID string   `json:"community_id"`
	URL         string   `json:"url"`
	Name        string   `json:"name"`
	Price       *float64 `json:"price"`
	SquareFeet  *float64 `json:"sqft"`
	Beds        *float64 `json:"beds"`
	Baths       *float64 `json:"baths"`
	FloorPlan   *string  `json:"floor_plan"`
	Status      *string  `json:"status"`
	Address     *string  `json:"address"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	Description *string  `json:"description"`
	Images      []string `json:"images"`
}

func (h *Home) RecordID() string { return h.ID }
func (h *Home) RecordKind() Kind { return KindHome }

// Document is the persisted JSON artifact
type Document struct {
	Communities map[string]*Community `json:"communities"`
	Homes       map[string]*Home      `json:"homes"`
}

// NewDocument returns an empty document with both collections allocated
func NewDocument() *Document {
	return &Document{
		Communities: make(map[string]*Community),
		Homes:       make(map[string]*Home),
	}
}

// Normalize fills nil collections and sorts order-insensitive lists so that
// serialization is stable across runs.
func (d *Document) Normalize() {
	if d.Communities == nil {
		d.Communities = make(map[string]*Community)
	}
	if d.Homes == nil {
		d.Homes = make(map[string]*Home)
	}
	for _, c := range d.Communities {
		c.Normalize()
	}
	for _, h := range d.Homes {
		if h.Images == nil {
			h.Images = []string{}
		}
	}
}

// Normalize sorts home ids and replaces nil collections with empty ones
func (c *Community) Normalize() {
	if c.Attributes == nil {
		c.Attributes = make(map[string]any)
	}
	if c.Amenities == nil {
		c.Amenities = make(map[string]string)
	}
	if c.Images == nil {
		c.Images = []string{}
	}
	if c.HomeIDs == nil {
		c.HomeIDs = []string{}
	}
	sort.Strings(c.HomeIDs)
}
