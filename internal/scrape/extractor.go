package scrape

import (
	"errors"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/law-makers/filmexport/pkg/models"
)

// ExtractPage extracts every record of a valid page in document order. The first
// structure change aborts the page and is returned with the page index set.
func ExtractPage(page *Page) ([]models.Record, error) {
	if page == nil || page.Containers == nil {
		return nil, nil
	}

	records := make([]models.Record, 0, page.Containers.Length())
	var extractErr error

	page.Containers.EachWithBreak(func(i int, container *goquery.Selection) bool {
		record, err := ExtractRecord(container)
		if err != nil {
			var se *Error
			if errors.As(err, &se) {
				se.Page = page.Index
			}
			extractErr = err
			return false
		}
		records = append(records, record)
		return true
	})

	return records, extractErr
}

// ExtractRecord decodes a single record container. A missing sub-element is
// reported as a structure change naming the field and marker.
func ExtractRecord(container *goquery.Selection) (models.Record, error) {
	record, err := extractRecord(container)
	if err != nil {
		return record, err
	}
	return record, nil
}

func extractRecord(container *goquery.Selection) (models.Record, *Error) {
	var record models.Record

	titleBlock := first(container, TitleMarker)
	if titleBlock == nil {
		return record, StructureChange(FieldTitle, TitleMarker)
	}
	title := first(titleBlock, TitleTextMarker)
	if title == nil {
		return record, StructureChange(FieldTitle, TitleTextMarker)
	}

	year := first(container, YearMarker)
	if year == nil {
		return record, StructureChange(FieldYear, YearMarker)
	}

	credits := first(container, DirectorsMarker)
	if credits == nil {
		return record, StructureChange(FieldDirector, DirectorsMarker)
	}

	rating := first(container, RatingMarker)
	if rating == nil {
		return record, StructureChange(FieldRating, RatingMarker)
	}

	directors := []string{}
	credits.Find(DirectorTag).Each(func(_ int, a *goquery.Selection) {
		directors = append(directors, strings.TrimSpace(a.Text()))
	})

	record.Title = strings.TrimSpace(title.Text())
	record.Year = strings.TrimSpace(year.Text())
	record.Directors = directors
	record.Rating = models.NormalizeRating(rating.Text())
	return record, nil
}

// first returns the first descendant of sel carrying the class marker, or nil
func first(sel *goquery.Selection, marker string) *goquery.Selection {
	found := sel.Find(classSelector(marker)).First()
	if found.Length() == 0 {
		return nil
	}
	return found
}
