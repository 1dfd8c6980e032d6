package extract

import (
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
)

var sanitizer = bluemonday.UGCPolicy()

// ToMarkdown sanitizes an HTML fragment and renders it as markdown.
// Plain text passes through unchanged apart from trimming.
func ToMarkdown(fragment string) string {
	clean := sanitizer.Sanitize(fragment)
	out, err := md.NewConverter("", true, nil).ConvertString(clean)
	if err != nil {
		doc, perr := goquery.NewDocumentFromReader(strings.NewReader(clean))
		if perr != nil {
			return ""
		}
		return collapse(doc.Text())
	}
	return strings.TrimSpace(out)
}
