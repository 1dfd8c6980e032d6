package extract

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/dop251/goja"
	"github.com/law-makers/listings/internal/engine"
	"github.com/law-makers/listings/internal/engine/enginetest"
	"github.com/law-makers/listings/internal/snapshot"
	"github.com/law-makers/listings/pkg/models"
)

const communityURL = "https://www.tollbrothers.com/luxury-homes-for-sale/Arizona/Sterling-Grove"

const communityHTML = `<html><head>
<script type="application/ld+json">{"@context":"https://schema.org","@graph":[
	{"@type":"Organization","name":"Toll Brothers","telephone":"800-000-0000"},
	{"@type":"Residence","name":"Sterling Grove",
	 "address":{"streetAddress":"1 Grove Way","addressLocality":"Surprise","addressRegion":"AZ","postalCode":"85387"},
	 "geo":{"latitude":33.63,"longitude":-112.4},
	 "image":["/img/a.jpg","https://cdn.example.com/b.jpg"]}
]}</script>
</head><body>
<h1>Sterling Grove | Luxury Homes</h1>
<p class="CommunityOverview_overviewDescription__0bJS6">Resort-style <b>living</b> in the desert.<script>alert(1)</script></p>
<a href="tel:480-555-0100">Call us</a>
<div class="Amenities"><ul>
	<li><h4>Pool</h4><p>Heated lap pool</p></li>
	<li><h4>Fitness Center</h4></li>
	<li><p>no name</p></li>
</ul></div>
<div class="modelCardWrap__adjust ModelCard_modelCardContainer__lXz5R">
	<a class="ModelCard_modelCardContainer__lXz5R" href="/luxury-homes-for-sale/Arizona/Sterling-Grove/Bristol">
		<h4 class="ModelCard_modelName__XzUo2">Bristol</h4>
		<p class="tracking_bedRange">4</p>
		<p class="tracking_sqftRange">3,050</p>
	</a>
</div>
<div class="modelCardWrap__adjust ModelCard_modelCardContainer__lXz5R">
	<a class="ModelCard_modelCardContainer__lXz5R" href="/luxury-homes-for-sale/Arizona/Sterling-Grove/Ashby#plans">
		<h4 class="ModelCard_modelName__XzUo2">Ashby</h4>
		<p class="ModelCard_modelPrice__oqOXq">From $650,000</p>
		<p class="tracking_bedRange">2 - 3</p>
		<p class="tracking_bathRange">2.5</p>
		<p class="tracking_sqftRange">2,100 - 2,400</p>
		<div class="ModelCard_modelCardCallout__MdHUW">Quick Move-In</div>
	</a>
</div>
</body></html>`

func parse(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("Failed to parse fixture: %v", err)
	}
	return doc
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"$1,250,000", 1250000, true},
		{"From $650,000", 650000, true},
		{"2,500 - 3,100 Sq. Ft.", 2500, true},
		{"3.5 Baths", 3.5, true},
		{".5", 0.5, true},
		{"4", 4, true},
		{"-112.4", -112.4, true},
		{"-.5", -0.5, true},
		{"2-4 Beds", 2, true},
		{"Lng: -111,900.25", -111900.25, true},
		{"Call for pricing", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseNumber(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ParseNumber(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestParseCommunity(t *testing.T) {
	ref := models.Ref{ID: "sterling-grove", URL: communityURL, Hints: map[string]string{
		"location":       "Surprise, AZ",
		"community_type": "Active Adult",
	}}

	c, homes, err := ParseCommunity(parse(t, communityHTML), ref)
	if err != nil {
		t.Fatalf("ParseCommunity failed: %v", err)
	}

	if c.ID != "sterling-grove" {
		t.Errorf("Expected id sterling-grove, got %s", c.ID)
	}
	if c.Name != "Sterling Grove" {
		t.Errorf("Expected JSON-LD name, got %q", c.Name)
	}
	if c.Location.City == nil || *c.Location.City != "Surprise" {
		t.Errorf("Expected city Surprise, got %v", c.Location.City)
	}
	if c.Location.Zip == nil || *c.Location.Zip != "85387" {
		t.Errorf("Expected zip 85387, got %v", c.Location.Zip)
	}
	if c.Location.Latitude == nil || *c.Location.Latitude != 33.63 {
		t.Errorf("Expected latitude 33.63, got %v", c.Location.Latitude)
	}
	if c.Location.Longitude == nil || *c.Location.Longitude != -112.4 {
		t.Errorf("Expected longitude -112.4, got %v", c.Location.Longitude)
	}

	for _, key := range AttributeKeys {
		if _, ok := c.Attributes[key]; !ok {
			t.Errorf("Expected attribute %s to be present", key)
		}
	}
	if c.Attributes["price_from"] != nil {
		t.Errorf("Expected price_from null, got %v", c.Attributes["price_from"])
	}
	if c.Attributes["phone"] != "480-555-0100" {
		t.Errorf("Expected phone from tel link, got %v", c.Attributes["phone"])
	}
	if c.Attributes["community_type"] != "Active Adult" {
		t.Errorf("Expected community_type from card hint, got %v", c.Attributes["community_type"])
	}
	desc, _ := c.Attributes["description"].(string)
	if !strings.Contains(desc, "**living**") || strings.Contains(desc, "alert") {
		t.Errorf("Unexpected description markdown: %q", desc)
	}
	if c.Attributes["bed_range"] != "2 - 4" {
		t.Errorf("Expected bed_range 2 - 4, got %v", c.Attributes["bed_range"])
	}
	if c.Attributes["bath_range"] != "2.5" {
		t.Errorf("Expected bath_range 2.5, got %v", c.Attributes["bath_range"])
	}
	if c.Attributes["sqft_range"] != "2,100 - 3,050" {
		t.Errorf("Expected sqft_range 2,100 - 3,050, got %v", c.Attributes["sqft_range"])
	}

	if len(c.Amenities) != 2 || c.Amenities["Pool"] != "Heated lap pool" {
		t.Errorf("Unexpected amenities: %v", c.Amenities)
	}
	if desc, ok := c.Amenities["Fitness Center"]; !ok || desc != "" {
		t.Errorf("Expected amenity without description, got %v", c.Amenities)
	}

	wantImages := []string{"https://www.tollbrothers.com/img/a.jpg", "https://cdn.example.com/b.jpg"}
	if strings.Join(c.Images, ",") != strings.Join(wantImages, ",") {
		t.Errorf("Expected images %v, got %v", wantImages, c.Images)
	}

	if len(homes) != 2 {
		t.Fatalf("Expected 2 home refs, got %d", len(homes))
	}
	if homes[0].ID != "sterling-grove/bristol" || homes[1].ID != "sterling-grove/ashby" {
		t.Errorf("Expected home refs in document order, got %s, %s", homes[0].ID, homes[1].ID)
	}
	if homes[1].URL != communityURL+"/Ashby" {
		t.Errorf("Expected fragment stripped from home URL, got %s", homes[1].URL)
	}
	if homes[1].Hints["status"] != "Quick Move-In" || homes[1].Hints["name"] != "Ashby" {
		t.Errorf("Unexpected home hints: %v", homes[1].Hints)
	}
	if strings.Join(c.HomeIDs, ",") != "sterling-grove/ashby,sterling-grove/bristol" {
		t.Errorf("Expected sorted home ids, got %v", c.HomeIDs)
	}
}

func TestParseCommunity_MissingName(t *testing.T) {
	doc := parse(t, `<html><body><p>Nothing to see</p></body></html>`)
	_, _, err := ParseCommunity(doc, models.Ref{ID: "ghost", URL: communityURL})
	if !errors.Is(err, engine.ErrExtraction) {
		t.Fatalf("Expected extraction error, got %v", err)
	}
	if !errors.Is(err, engine.ErrMissingField) {
		t.Errorf("Expected ErrMissingField in chain, got %v", err)
	}
}

func TestParseCommunity_NameFromHint(t *testing.T) {
	doc := parse(t, `<html><body><p>Rendering failed</p></body></html>`)
	c, _, err := ParseCommunity(doc, models.Ref{URL: communityURL, Hints: map[string]string{"name": "Sterling Grove"}})
	if err != nil {
		t.Fatalf("Expected hint to satisfy name, got %v", err)
	}
	if c.ID != "sterling-grove" || c.Name != "Sterling Grove" {
		t.Errorf("Unexpected record: %s %q", c.ID, c.Name)
	}
	if c.Location.Address != nil || c.Location.Latitude != nil {
		t.Error("Expected absent location fields to be nil")
	}
}

const homeURL = communityURL + "/Ashby"

func TestParseHome_PriceFallback(t *testing.T) {
	html := `<html><head><script type="application/ld+json">{"@type":"SingleFamilyResidence","name":"The Ashby","numberOfBedrooms":3,
		"address":{"streetAddress":"12 Elm St","addressLocality":"Surprise","addressRegion":"AZ","postalCode":"85387"}}</script></head>
		<body><h1>The Ashby</h1><span class="modelPrice">$650,000</span><p class="tracking_sqftRange">2,100 Sq. Ft.</p></body></html>`
	ref := models.Ref{ID: "sterling-grove/ashby", URL: homeURL, Hints: map[string]string{"status": "Quick Move-In"}}

	h, err := ParseHome(parse(t, html), ref, "sterling-grove")
	if err != nil {
		t.Fatalf("ParseHome failed: %v", err)
	}
	if h.Price == nil || *h.Price != 650000 {
		t.Errorf("Expected secondary price 650000, got %v", h.Price)
	}
	if h.Beds == nil || *h.Beds != 3 {
		t.Errorf("Expected beds from JSON-LD, got %v", h.Beds)
	}
	if h.SquareFeet == nil || *h.SquareFeet != 2100 {
		t.Errorf("Expected sqft 2100, got %v", h.SquareFeet)
	}
	if h.Baths != nil {
		t.Errorf("Expected baths null, got %v", *h.Baths)
	}
	if h.Address == nil || *h.Address != "12 Elm St, Surprise, AZ 85387" {
		t.Errorf("Unexpected address: %v", h.Address)
	}
	if h.Status == nil || *h.Status != "Quick Move-In" {
		t.Errorf("Expected status from card hint, got %v", h.Status)
	}
	if h.CommunityID != "sterling-grove" {
		t.Errorf("Expected back-reference, got %s", h.CommunityID)
	}
}

func TestParseHome_NoPrice(t *testing.T) {
	h, err := ParseHome(parse(t, `<html><body><h1>The Ashby</h1></body></html>`), models.Ref{URL: homeURL}, "sterling-grove")
	if err != nil {
		t.Fatalf("Expected extraction to succeed without price, got %v", err)
	}
	if h.Price != nil {
		t.Errorf("Expected price null, got %v", *h.Price)
	}
	if h.ID != "sterling-grove/ashby" {
		t.Errorf("Expected id derived from URL, got %s", h.ID)
	}
}

func TestParseHome_NumberFallsThrough(t *testing.T) {
	html := `<html><body><h1>The Ashby</h1>
		<span class="ModelDetail_price">Call for pricing</span>
		<span class="modelPrice">$700,000</span></body></html>`
	h, err := ParseHome(parse(t, html), models.Ref{URL: homeURL}, "sterling-grove")
	if err != nil {
		t.Fatalf("ParseHome failed: %v", err)
	}
	if h.Price == nil || *h.Price != 700000 {
		t.Errorf("Expected unparseable candidate to be skipped, got %v", h.Price)
	}
}

func TestScriptData(t *testing.T) {
	html := `<html><body><h1>Sterling Grove</h1>
		<script>while (true) {}</script>
		<script>window.__COMMUNITY__ = {community: {geo: {latitude: 33.5, longitude: -111.9}}, track: function() {}};</script>
		</body></html>`
	c, _, err := ParseCommunity(parse(t, html), models.Ref{URL: communityURL})
	if err != nil {
		t.Fatalf("ParseCommunity failed: %v", err)
	}
	if c.Location.Latitude == nil || *c.Location.Latitude != 33.5 {
		t.Errorf("Expected latitude from script data, got %v", c.Location.Latitude)
	}
	if c.Location.Longitude == nil || *c.Location.Longitude != -111.9 {
		t.Errorf("Expected longitude from script data, got %v", c.Location.Longitude)
	}
}

func TestScriptData_JSONIsland(t *testing.T) {
	doc := parse(t, `<html><body><script id="__NEXT_DATA__" type="application/json">{"props":{"pageProps":{"latitude":"40.1"}}}</script></body></html>`)
	page := NewPage(doc, communityURL, nil)

	if _, ok := page.ScriptData()["__NEXT_DATA__"]; !ok {
		t.Fatal("Expected data island under its id")
	}
	v, ok := findKey(page.ScriptData(), "latitude")
	if !ok || scalarString(v) != "40.1" {
		t.Errorf("Expected latitude 40.1, got %v", v)
	}
}

func TestLinkedDataPriority(t *testing.T) {
	doc := parse(t, `<html><head>
		<script type="application/ld+json">{"@type":"SingleFamilyResidence","name":"Home"}</script>
		<script type="application/ld+json">{"@type":"Place","name":"Place","telephone":"1"}</script>
		<script type="application/ld+json">not json</script>
	</head></html>`)
	ld := NewPage(doc, communityURL, nil).LinkedData()
	if ld["name"] != "Home" {
		t.Errorf("Expected higher priority type to win, got %v", ld["name"])
	}
	if ld["telephone"] != "1" {
		t.Errorf("Expected lower priority fields to be kept, got %v", ld["telephone"])
	}
}

func TestToMarkdown(t *testing.T) {
	got := ToMarkdown(`<p>Resort-style <b>living</b> <a href="https://example.com" onclick="x()">here</a><script>alert(1)</script></p>`)
	if !strings.Contains(got, "**living**") {
		t.Errorf("Expected bold markdown, got %q", got)
	}
	if !strings.Contains(got, "[here](https://example.com)") {
		t.Errorf("Expected link markdown, got %q", got)
	}
	if strings.Contains(got, "alert") || strings.Contains(got, "onclick") {
		t.Errorf("Expected sanitized output, got %q", got)
	}
	if ToMarkdown("  plain text ") != "plain text" {
		t.Errorf("Expected plain text to pass through, got %q", ToMarkdown("  plain text "))
	}
}

func TestExtractor(t *testing.T) {
	b := enginetest.New().Page(communityURL, communityHTML)
	dir := t.TempDir()
	x := New(b, WithSnapshots(snapshot.New(dir)))

	c, homes, err := x.Community(context.Background(), models.Ref{ID: "sterling-grove", URL: communityURL})
	if err != nil {
		t.Fatalf("Community failed: %v", err)
	}
	if c.Name != "Sterling Grove" || len(homes) != 2 {
		t.Errorf("Unexpected result: %q with %d homes", c.Name, len(homes))
	}

	_, err = x.Home(context.Background(), homes[0], c.ID)
	if !errors.Is(err, engine.ErrNavigation) {
		t.Errorf("Expected navigation error for unknown page, got %v", err)
	}
	if engine.Retryable(err) {
		t.Error("Expected 404 not to be retryable")
	}
}

func TestRunScript_Timeout(t *testing.T) {
	vm := goja.New()
	err := runScript(vm, `for (;;) {}`)
	var ierr *goja.InterruptedError
	if !errors.As(err, &ierr) {
		t.Fatalf("Expected runaway script to be interrupted, got %v", err)
	}
	if err := runScript(vm, `var ok = 1;`); err != nil {
		t.Errorf("Expected next script to run after a timeout, got %v", err)
	}
}

func TestScriptGuard_LateInterrupt(t *testing.T) {
	vm := goja.New()
	g := &scriptGuard{vm: vm}
	g.finish()
	// timer fires after the script returned
	g.interrupt()

	if _, err := vm.RunString(`1 + 1`); err != nil {
		t.Errorf("Expected late interrupt to be ignored, got %v", err)
	}
}
