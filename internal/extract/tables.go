package extract

// Readiness selectors, one per page template
const (
	ListingReady   = `[class*="SearchProductCard_cardWrap"]`
	RegionReady    = `[class*="MetroGrid_metro_areas_states"]`
	CommunityReady = `[class*="ModelCard_modelCardContainer"], [class*="CommunityOverview"]`
	HomeReady      = `script[type="application/ld+json"], h1`
)

// RegionLinks locate state/metro pages on the site's landing page
var RegionLinks = []string{
	`li.MetroGrid_metro_areas_states___Ox83 a[href]`,
	`[class*="MetroGrid_metro_areas_states"] a[href]`,
}

// CommunityCards are the result cards of a listing page
var CommunityCards = CardSet{
	Containers: []string{
		`div.SearchProductCard_cardWrap__2CFt9`,
		`[class*="SearchProductCard_cardWrap"]`,
		`[data-testid="community-card"]`,
	},
	Link: `a[href]`,
	Hints: Fields{
		{Name: "name", Candidates: []Locator{
			Sel(`h2.SearchProductCard_card_header__F_ORx`),
			Sel(`[class*="SearchProductCard_card_header"]`),
			Sel(`h2, h3`),
		}},
		{Name: "location", Candidates: []Locator{
			Sel(`div.SearchProductCard_location_description__7kNyd`),
			Sel(`[class*="location_description"]`),
		}},
		{Name: "price", Candidates: []Locator{
			Sel(`div.ProductPrice_product_price__VbtDE div`),
			Sel(`[class*="ProductPrice_product_price"]`),
		}},
		{Name: "community_type", Candidates: []Locator{Sel(`span.commTypes__js`)}},
		{Name: "home_type", Candidates: []Locator{Sel(`span.homeTypes__js`)}},
	},
}

// HomeCards are the model/home cards on a community page
var HomeCards = CardSet{
	Containers: []string{
		`div.modelCardWrap__adjust.ModelCard_modelCardContainer__lXz5R`,
		`div[class*="ModelCard_modelCardContainer"]`,
		`[class*="modelCardWrap"]`,
	},
	Link: `a[href]`,
	Hints: Fields{
		{Name: "name", Candidates: []Locator{
			Sel(`h4.ModelCard_modelName__XzUo2`),
			Sel(`[class*="ModelCard_modelName"]`),
			Sel(`h3, h4`),
		}},
		{Name: "price", Candidates: []Locator{
			Sel(`p.ModelCard_modelPrice__oqOXq`),
			Sel(`[class*="ModelCard_modelPrice"]`),
		}},
		{Name: "beds", Candidates: []Locator{Sel(`[class*="tracking_bedRange"]`)}},
		{Name: "baths", Candidates: []Locator{Sel(`[class*="tracking_bathRange"]`)}},
		{Name: "sqft", Candidates: []Locator{Sel(`[class*="tracking_sqftRange"]`)}},
		{Name: "status", Candidates: []Locator{
			Sel(`div.ModelCard_modelCardCallout__MdHUW`),
			Sel(`[class*="ModelCard_modelCardCallout"]`),
		}},
		{Name: "image", Candidates: []Locator{
			Attr(`img[src]`, "src").Match(`^(?:https?:)?/.*`),
		}},
	},
}

// CommunityFields resolve a community detail page. Location fields come
// first, then the attribute set emitted under "attributes".
var CommunityFields = Fields{
	{Name: "name", Required: true, Candidates: []Locator{
		JSONLD("name"),
		Sel(`h1[class*="CommunityHero"]`),
		Sel(`h1`),
		CardHint("name"),
	}},
	{Name: "address", Candidates: []Locator{
		JSONLD("address.streetAddress"),
		Sel(`[class*="CommunityHero_address"]`),
		Sel(`address`),
	}},
	{Name: "city", Candidates: []Locator{
		JSONLD("address.addressLocality"),
		CardHint("location").Match(`^([^,]+),`),
	}},
	{Name: "state", Candidates: []Locator{
		JSONLD("address.addressRegion"),
		CardHint("location").Match(`,\s*([A-Z]{2})\b`),
	}},
	{Name: "zip", Candidates: []Locator{
		JSONLD("address.postalCode"),
		Sel(`address`).Match(`\b(\d{5})\b`),
		CardHint("location").Match(`\b(\d{5})\b`),
	}},
	{Name: "latitude", Kind: Number, Candidates: []Locator{
		JSONLD("geo.latitude"),
		Attr(`[data-lat]`, "data-lat"),
		ScriptKey("latitude"),
		ScriptKey("lat"),
	}},
	{Name: "longitude", Kind: Number, Candidates: []Locator{
		JSONLD("geo.longitude"),
		Attr(`[data-lng]`, "data-lng"),
		ScriptKey("longitude"),
		ScriptKey("lng"),
	}},

	{Name: "price_from", Kind: Number, Candidates: []Locator{
		JSONLD("offers.lowPrice"),
		JSONLD("offers.price"),
		Sel(`div.ProductPrice_product_price__VbtDE div`),
		Sel(`[class*="ProductPrice_product_price"]`),
		Sel(`body`).Match(`(?i)(?:starting|priced)\s+(?:at|from)\s+\$([\d,]+)`),
		CardHint("price"),
	}},
	{Name: "price_range", Candidates: []Locator{
		JSONLD("priceRange"),
		Sel(`[class*="ProductPrice_product_price"]`),
		CardHint("price"),
	}},
	{Name: "phone", Candidates: []Locator{
		JSONLD("telephone"),
		Attr(`a[href^="tel:"]`, "href").Match(`^tel:(.+)$`),
		Sel(`body`).Match(`\(?\d{3}\)?[-. ]\d{3}[-.]\d{4}`),
	}},
	{Name: "description", Kind: Markdown, Candidates: []Locator{
		Sel(`p.CommunityOverview_overviewDescription__0bJS6`),
		Sel(`[class*="CommunityOverview_overviewDescription"]`),
		Sel(`[class*="overviewDescription"]`),
		JSONLD("description"),
		Attr(`meta[name="description"]`, "content"),
	}},
	{Name: "status", Candidates: []Locator{
		Sel(`[class*="CommunityHero_status"]`),
		Sel(`[class*="communityStatus"]`),
	}},
	{Name: "community_type", Candidates: []Locator{
		Sel(`span.commTypes__js`),
		CardHint("community_type"),
	}},
	{Name: "home_type", Candidates: []Locator{
		Sel(`span.homeTypes__js`),
		CardHint("home_type"),
	}},
	{Name: "sqft_range", Candidates: []Locator{
		Sel(`[data-testid="sqft-range"]`),
		Sel(`[class*="CommunityStats"] [class*="sqft"]`),
	}},
	{Name: "bed_range", Candidates: []Locator{
		Sel(`[data-testid="bed-range"]`),
		Sel(`[class*="CommunityStats"] [class*="bed"]`),
	}},
	{Name: "bath_range", Candidates: []Locator{
		Sel(`[data-testid="bath-range"]`),
		Sel(`[class*="CommunityStats"] [class*="bath"]`),
	}},
}

// AttributeKeys is the fixed attribute set of a community record
var AttributeKeys = []string{
	"price_from", "price_range", "phone", "description", "status",
	"community_type", "home_type", "sqft_range", "bed_range", "bath_range",
}

// Amenity items: the first container selector with matches wins
var (
	AmenityItems = []string{
		`[class*="AmenityCard"]`,
		`[class*="amenityItem"]`,
		`[class*="Amenities"] li`,
	}
	AmenityName        = Fields{{Name: "name", Candidates: []Locator{Sel(`h3, h4, h5`), Sel(`[class*="title"]`)}}}
	AmenityDescription = Fields{{Name: "description", Candidates: []Locator{Sel(`p`), Sel(`[class*="description"]`)}}}
)

// GalleryImages locate image elements when JSON-LD carries none
var GalleryImages = []string{
	`#toScroll-gallery img`,
	`[class*="Gallery"] img`,
	`[class*="gallery"] img`,
}

// HomeFields resolve a home (model or quick move-in) detail page
var HomeFields = Fields{
	{Name: "name", Required: true, Candidates: []Locator{
		JSONLD("name"),
		Sel(`h1`),
		CardHint("name"),
	}},
	{Name: "floor_plan", Candidates: []Locator{
		Sel(`[class*="planName"], [class*="PlanName"]`),
		Sel(`h1, h2, h3`),
		CardHint("name"),
	}},
	{Name: "price", Kind: Number, Candidates: []Locator{
		Sel(`[class*="ModelDetail_price"], [class*="HomeDetail_price"]`),
		JSONLD("offers.price"),
		JSONLD("offers.lowPrice"),
		Sel(`[class*="modelPrice"]`),
		CardHint("price"),
	}},
	{Name: "sqft", Kind: Number, Candidates: []Locator{
		Sel(`[class*="tracking_sqft"]`),
		JSONLD("floorSize.value"),
		CardHint("sqft"),
	}},
	{Name: "beds", Kind: Number, Candidates: []Locator{
		Sel(`[class*="tracking_bed"]`),
		JSONLD("numberOfBedrooms"),
		JSONLD("numberOfRooms"),
		CardHint("beds"),
	}},
	{Name: "baths", Kind: Number, Candidates: []Locator{
		Sel(`[class*="tracking_bath"]`),
		JSONLD("numberOfBathroomsTotal"),
		JSONLD("numberOfFullBathrooms"),
		CardHint("baths"),
	}},
	{Name: "status", Candidates: []Locator{
		Sel(`[class*="homeStatus"], [class*="HomeStatus"]`),
		Sel(`[class*="ModelCard_modelCardCallout"]`),
		CardHint("status"),
	}},
	{Name: "street", Candidates: []Locator{JSONLD("address.streetAddress")}},
	{Name: "city", Candidates: []Locator{JSONLD("address.addressLocality")}},
	{Name: "state", Candidates: []Locator{JSONLD("address.addressRegion")}},
	{Name: "zip", Candidates: []Locator{JSONLD("address.postalCode")}},
	{Name: "address", Candidates: []Locator{
		Sel(`[class*="HomeAddress"], [class*="homeAddress"]`),
		Sel(`address`),
	}},
	{Name: "latitude", Kind: Number, Candidates: []Locator{
		JSONLD("geo.latitude"),
		Attr(`[data-lat]`, "data-lat"),
		ScriptKey("latitude"),
	}},
	{Name: "longitude", Kind: Number, Candidates: []Locator{
		JSONLD("geo.longitude"),
		Attr(`[data-lng]`, "data-lng"),
		ScriptKey("longitude"),
	}},
	{Name: "description", Kind: Markdown, Candidates: []Locator{
		Sel(`[class*="overviewDescription"]`),
		Sel(`[class*="Description_description"]`),
		JSONLD("description"),
		Attr(`meta[name="description"]`, "content"),
	}},
}
