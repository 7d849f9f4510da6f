package output

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// keptAttributes are the attributes a snapshot keeps; class is needed to see
// which markers were still present when the page was captured
var keptAttributes = map[string]bool{
	"class": true,
	"href":  true,
	"id":    true,
	"title": true,
}

// CleanHTML strips scripts, styles and noisy attributes so a captured page can be
// inspected by hand.
func CleanHTML(htmlContent string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return "", err
	}

	doc.Find("script, style, link, meta, noscript, iframe, svg, canvas").Remove()

	doc.Find("*").Each(func(i int, s *goquery.Selection) {
		if len(s.Nodes) == 0 {
			return
		}
		node := s.Nodes[0]
		var attrs []html.Attribute
		for _, attr := range node.Attr {
			if keptAttributes[attr.Key] {
				attrs = append(attrs, attr)
			}
		}
		node.Attr = attrs
	})

	out, err := doc.Html()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}
