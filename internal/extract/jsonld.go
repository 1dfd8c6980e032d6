package extract

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"
)

// ldPriority orders the schema.org types describing a listing; higher
// priorities override lower ones when merged. Site-wide types such as
// Organization are ignored.
var ldPriority = map[string]int{
	"LocalBusiness":         1,
	"Place":                 2,
	"Product":               3,
	"Accommodation":         3,
	"Residence":             4,
	"ApartmentComplex":      4,
	"SingleFamilyResidence": 5,
	"House":                 5,
	"RealEstateListing":     5,
}

type ldObject struct {
	priority int
	data     map[string]any
}

// parseLinkedData merges every recognised JSON-LD object on the page.
// Unparseable blocks are skipped.
func parseLinkedData(root *goquery.Selection) map[string]any {
	var objects []ldObject
	root.Find(`script[type="application/ld+json"]`).Each(func(i int, s *goquery.Selection) {
		var raw any
		if err := json.Unmarshal([]byte(s.Text()), &raw); err != nil {
			log.Debug().Err(err).Int("block", i).Msg("Skipping malformed JSON-LD")
			return
		}
		for _, obj := range flattenLD(raw) {
			if p := typePriority(obj["@type"]); p > 0 {
				objects = append(objects, ldObject{priority: p, data: obj})
			}
		}
	})

	sort.SliceStable(objects, func(i, j int) bool {
		return objects[i].priority < objects[j].priority
	})

	merged := make(map[string]any)
	for _, obj := range objects {
		for k, v := range obj.data {
			merged[k] = v
		}
	}
	return merged
}

func flattenLD(raw any) []map[string]any {
	switch v := raw.(type) {
	case []any:
		var out []map[string]any
		for _, item := range v {
			out = append(out, flattenLD(item)...)
		}
		return out
	case map[string]any:
		if graph, ok := v["@graph"]; ok {
			return flattenLD(graph)
		}
		return []map[string]any{v}
	}
	return nil
}

func typePriority(t any) int {
	switch v := t.(type) {
	case string:
		return ldPriority[v]
	case []any:
		best := 0
		for _, item := range v {
			if p := typePriority(item); p > best {
				best = p
			}
		}
		return best
	}
	return 0
}

// lookup walks a dotted path; arrays along the way resolve to their first element
func lookup(data map[string]any, path string) (any, bool) {
	var cur any = data
	for _, part := range strings.Split(path, ".") {
		if arr, ok := cur.([]any); ok {
			if len(arr) == 0 {
				return nil, false
			}
			cur = arr[0]
		}
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = m[part]; !ok {
			return nil, false
		}
	}
	return cur, cur != nil
}

func lookupString(data map[string]any, path string) string {
	v, ok := lookup(data, path)
	if !ok {
		return ""
	}
	if arr, ok := v.([]any); ok && len(arr) > 0 {
		v = arr[0]
	}
	return scalarString(v)
}

// lookupStrings returns every string under path; a single value becomes a one-element list
func lookupStrings(data map[string]any, path string) []string {
	v, ok := lookup(data, path)
	if !ok {
		return nil
	}
	var out []string
	collect := func(item any) {
		switch x := item.(type) {
		case string:
			out = append(out, x)
		case map[string]any:
			if u, ok := x["url"].(string); ok {
				out = append(out, u)
			} else if u, ok := x["contentUrl"].(string); ok {
				out = append(out, u)
			}
		}
	}
	if arr, ok := v.([]any); ok {
		for _, item := range arr {
			collect(item)
		}
	} else {
		collect(v)
	}
	return out
}

func scalarString(v any) string {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(x, 10)
	case json.Number:
		return x.String()
	}
	return ""
}
