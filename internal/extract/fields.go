// Package extract turns rendered pages into community and home records.
//
// Every output attribute is described by a Field: an ordered list of
// candidate locators tried until one yields a usable value. A field with no
// matching candidate resolves to nil (encoded as JSON null); only fields
// marked Required fail the record.
package extract

import (
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/law-makers/listings/internal/engine"
	"github.com/rs/zerolog/log"
)

// Kind selects how a located raw value is converted
type Kind int

const (
	Text     Kind = iota // whitespace-collapsed string
	Number               // ParseNumber, nil on failure
	Markdown             // sanitized HTML fragment converted to markdown
)

// Locator is one candidate source for a field value
type Locator struct {
	Selector string         // CSS selector evaluated against the page root
	Attr     string         // attribute read instead of text content
	LD       string         // dotted path into the page's JSON-LD data
	Script   string         // key searched in inline script data
	Hint     string         // card-level hint captured on the index page
	Pattern  *regexp.Regexp // optional filter; first capture group (or whole match) is kept
}

// Sel locates the text of the first matching element
func Sel(selector string) Locator { return Locator{Selector: selector} }

// Attr locates an attribute of the first matching element
func Attr(selector, attr string) Locator { return Locator{Selector: selector, Attr: attr} }

// JSONLD locates a value by dotted path in the page's JSON-LD data
func JSONLD(path string) Locator { return Locator{LD: path} }

// ScriptKey locates the first scalar stored under key in inline script data
func ScriptKey(key string) Locator { return Locator{Script: key} }

// CardHint locates a value captured on the listing card
func CardHint(key string) Locator { return Locator{Hint: key} }

// Match returns a copy of l whose value must match pattern
func (l Locator) Match(pattern string) Locator {
	l.Pattern = regexp.MustCompile(pattern)
	return l
}

func (l Locator) String() string {
	switch {
	case l.Selector != "" && l.Attr != "":
		return l.Selector + "@" + l.Attr
	case l.Selector != "":
		return l.Selector
	case l.LD != "":
		return "ld:" + l.LD
	case l.Script != "":
		return "script:" + l.Script
	case l.Hint != "":
		return "hint:" + l.Hint
	}
	return "<empty>"
}

// Field maps one output attribute to its candidates in priority order
type Field struct {
	Name       string
	Kind       Kind
	Required   bool
	Candidates []Locator
}

// Fields is a field-selector table
type Fields []Field

// Values holds resolved field values: string, float64, or nil
type Values map[string]any

// Page is a parsed page (or a card within one) plus its embedded data
type Page struct {
	URL   string
	Root  *goquery.Selection
	Hints map[string]string

	ldOnce      sync.Once
	ld          map[string]any
	scriptsOnce sync.Once
	scripts     map[string]any
}

// NewPage wraps a document snapshot for extraction
func NewPage(doc *goquery.Document, pageURL string, hints map[string]string) *Page {
	if pageURL == "" && doc.Url != nil {
		pageURL = doc.Url.String()
	}
	return &Page{URL: pageURL, Root: doc.Selection, Hints: hints}
}

// Scope wraps a sub-selection such as one listing card
func Scope(sel *goquery.Selection, pageURL string) *Page {
	return &Page{URL: pageURL, Root: sel}
}

// LinkedData returns the merged JSON-LD object of the page
func (p *Page) LinkedData() map[string]any {
	p.ldOnce.Do(func() {
		p.ld = parseLinkedData(p.Root)
	})
	return p.ld
}

// ScriptData returns globals defined by inline scripts and JSON data islands
func (p *Page) ScriptData() map[string]any {
	p.scriptsOnce.Do(func() {
		p.scripts = scriptGlobals(p.Root, p.URL)
	})
	return p.scripts
}

// Resolve evaluates every field against p. The first required field that
// cannot be resolved fails the whole table with an extraction error.
func (fs Fields) Resolve(p *Page) (Values, error) {
	values := make(Values, len(fs))
	for _, f := range fs {
		v, from := f.resolve(p)
		values[f.Name] = v
		if v == nil {
			if f.Required {
				return values, engine.ExtractionError(p.URL, f.Name)
			}
			continue
		}
		log.Trace().Str("field", f.Name).Str("from", from).Msg("Field resolved")
	}
	return values, nil
}

func (f Field) resolve(p *Page) (any, string) {
	for _, loc := range f.Candidates {
		raw, ok := loc.locate(p, f.Kind == Markdown)
		if !ok {
			continue
		}
		switch f.Kind {
		case Number:
			if n, ok := ParseNumber(raw); ok {
				return n, loc.String()
			}
			log.Debug().Str("field", f.Name).Str("from", loc.String()).Str("raw", raw).Msg("Unparseable number, trying next candidate")
		case Markdown:
			if md := ToMarkdown(raw); md != "" {
				return md, loc.String()
			}
		default:
			return raw, loc.String()
		}
	}
	return nil, ""
}

// locate returns the candidate's raw value; wantHTML asks for markup instead of text
func (l Locator) locate(p *Page, wantHTML bool) (string, bool) {
	switch {
	case l.Selector != "":
		var out string
		var found bool
		p.Root.Find(l.Selector).EachWithBreak(func(i int, s *goquery.Selection) bool {
			var raw string
			switch {
			case l.Attr != "":
				raw, _ = s.Attr(l.Attr)
				raw = collapse(raw)
			case wantHTML && l.Pattern == nil:
				raw, _ = goquery.OuterHtml(s)
				raw = strings.TrimSpace(raw)
			default:
				raw = collapse(s.Text())
			}
			if v, ok := l.filter(raw); ok {
				out, found = v, true
				return false
			}
			return true
		})
		return out, found
	case l.LD != "":
		return l.filter(lookupString(p.LinkedData(), l.LD))
	case l.Script != "":
		v, ok := findKey(p.ScriptData(), l.Script)
		if !ok {
			return "", false
		}
		return l.filter(scalarString(v))
	case l.Hint != "":
		return l.filter(p.Hints[l.Hint])
	}
	return "", false
}

func (l Locator) filter(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	if l.Pattern == nil {
		return raw, true
	}
	m := l.Pattern.FindStringSubmatch(raw)
	if m == nil {
		return "", false
	}
	v := m[0]
	if len(m) > 1 {
		v = m[1]
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

// String returns a text field or nil
func (v Values) String(name string) *string {
	if s, ok := v[name].(string); ok {
		return &s
	}
	return nil
}

// Text returns a text field or the empty string
func (v Values) Text(name string) string {
	s, _ := v[name].(string)
	return s
}

// Number returns a numeric field or nil
func (v Values) Number(name string) *float64 {
	if n, ok := v[name].(float64); ok {
		return &n
	}
	return nil
}

// Hints flattens resolved values into card hints
func (v Values) Hints() map[string]string {
	hints := make(map[string]string, len(v))
	for k, val := range v {
		switch x := val.(type) {
		case string:
			hints[k] = x
		case float64:
			hints[k] = strconv.FormatFloat(x, 'f', -1, 64)
		}
	}
	return hints
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
