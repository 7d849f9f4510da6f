package scrape

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/law-makers/filmexport/pkg/models"
)

// Page is one fetched ratings page after classification
type Page struct {
	Index   int
	Verdict models.Verdict

	// Containers holds the record containers in document order, chrome skipped.
	// Empty unless Verdict is VerdictValid.
	Containers *goquery.Selection
}

// Classify decides what a rendered ratings page represents before any field
// extraction runs.
func Classify(html string, index int) (*Page, error) {
	page := &Page{Index: index}

	if strings.Contains(html, NotFoundMarker) {
		page.Verdict = models.VerdictUserAbsent
		return page, nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page %d: %w", index, err)
	}

	containers := doc.Find(classSelector(ContainerMarker))
	if containers.Length() <= ChromeContainerSkip {
		page.Verdict = models.VerdictUnrecognizable
		return page, nil
	}

	page.Verdict = models.VerdictValid
	page.Containers = containers.Slice(ChromeContainerSkip, containers.Length())
	return page, nil
}
