package headers

import (
	"net/textproto"
	"strings"
)

// ParseHeaders converts "Name: value" strings into a map with canonical
// names. Entries without a name are ignored; a repeated name keeps the last value.
func ParseHeaders(h []string) map[string]string {
	m := make(map[string]string, len(h))
	for _, hdr := range h {
		name, value, ok := strings.Cut(hdr, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			continue
		}
		m[textproto.CanonicalMIMEHeaderKey(name)] = strings.TrimSpace(value)
	}
	return m
}
