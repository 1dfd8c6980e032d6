package urlutil

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// PagePlaceholder marks where the page number goes in a listing URL template
const PagePlaceholder = "{page}"

// ValidateURL performs comprehensive URL validation
func ValidateURL(urlStr string) error {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("invalid URL scheme: must be http or https, got %s", parsed.Scheme)
	}

	if parsed.Host == "" {
		return fmt.Errorf("invalid URL: missing host")
	}

	return nil
}

// ResolveURL resolves a possibly-relative href against a base URL and returns a string
func ResolveURL(base, href string) string {
	href = strings.TrimSpace(href)
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if u.IsAbs() {
		return href
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return href
	}
	return baseURL.ResolveReference(u).String()
}

// Slug derives a stable identifier from the last non-empty path segment of a URL.
// Query strings and fragments are ignored; the result is lower-cased.
func Slug(urlStr string) string {
	u, err := url.Parse(strings.TrimSpace(urlStr))
	if err != nil {
		return ""
	}
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := len(segments) - 1; i >= 0; i-- {
		if seg := strings.TrimSpace(segments[i]); seg != "" {
			if unescaped, err := url.PathUnescape(seg); err == nil {
				seg = unescaped
			}
			return strings.ToLower(seg)
		}
	}
	return ""
}

// PageURL returns the URL of listing page n (1-based) for a source.
// Templates with {page} get the number substituted; other sources get a
// page query parameter from page 2 onwards.
func PageURL(source string, n int) string {
	if strings.Contains(source, PagePlaceholder) {
		return strings.ReplaceAll(source, PagePlaceholder, strconv.Itoa(n))
	}
	if n <= 1 {
		return source
	}
	u, err := url.Parse(source)
	if err != nil {
		return source
	}
	q := u.Query()
	q.Set("page", strconv.Itoa(n))
	u.RawQuery = q.Encode()
	return u.String()
}

// SameSite reports whether href points at the same host as base
func SameSite(base, href string) bool {
	b, err := url.Parse(base)
	if err != nil {
		return false
	}
	h, err := url.Parse(href)
	if err != nil {
		return false
	}
	return strings.EqualFold(strings.TrimPrefix(b.Host, "www."), strings.TrimPrefix(h.Host, "www."))
}
