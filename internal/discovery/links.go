// internal/discovery/links.go
package discovery

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ExtractLinks harvests anchor hrefs from a DOM snapshot, resolved against the
// page URL or the document's <base href> when one is declared.
func ExtractLinks(html, pageURL string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page snapshot: %w", err)
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid page URL %q: %w", pageURL, err)
	}
	if href, ok := doc.Find("base[href]").First().Attr("href"); ok {
		if declared, err := url.Parse(strings.TrimSpace(href)); err == nil {
			base = base.ResolveReference(declared)
		}
	}

	var links []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href := strings.TrimSpace(s.AttrOr("href", ""))
		if href == "" || strings.HasPrefix(href, "#") {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			// Unparsable hrefs are kept verbatim; the filter drops them.
			links = append(links, href)
			return
		}
		links = append(links, base.ResolveReference(ref).String())
	})
	return links, nil
}
