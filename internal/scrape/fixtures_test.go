package scrape

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/law-makers/filmexport/pkg/models"
)

// movieHTML renders one record container the way the ratings list view does
func movieHTML(title, year string, directors []string, rating string) string {
	var anchors []string
	for _, d := range directors {
		anchors = append(anchors, fmt.Sprintf(`<span class="nb"><a href="/en/search.php?stype=director&stext=%s">%s</a></span>`, d, d))
	}
	return fmt.Sprintf(`
<div class="row mb-4">
  <div class="col">
    <div class="mc-title"><a class="d-none d-md-inline-block" href="/en/film1.html">%[1]s (long)</a><a class="d-md-none" href="/en/film1.html">%[1]s</a></div>
    <span class="mc-year ms-1">%[2]s</span>
    <div class="mc-director"><div class="credits">%[3]s</div></div>
  </div>
  <div class="col-auto"><div class="fa-user-rat-box">%[4]s</div></div>
</div>`, title, year, strings.Join(anchors, ", "), rating)
}

// pageHTML wraps containers in the listing template, chrome containers first
func pageHTML(containers ...string) string {
	return `<!DOCTYPE html><html><head><title>Ratings</title></head><body>
<div class="mb-4 user-header">Profile</div>
<div class="mb-4 filters">Order by</div>
` + strings.Join(containers, "\n") + `
</body></html>`
}

const notFoundHTML = `<html><head><title>Not Found</title></head><body><h1>Not Found</h1></body></html>`

const blockedHTML = `<html><head><title>Just a moment...</title></head><body><div class="main-wrapper">Checking your browser</div></body></html>`

// fakeNavigator serves canned pages keyed by the "p" query parameter
type fakeNavigator struct {
	mu      sync.Mutex
	pages   map[int]string
	fail    map[int]error
	visited []string
	current string
}

func newFakeNavigator(pages map[int]string) *fakeNavigator {
	return &fakeNavigator{pages: pages, fail: map[int]error{}}
}

func (f *fakeNavigator) Navigate(ctx context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.visited = append(f.visited, url)
	p := pageIndex(url)
	if err, ok := f.fail[p]; ok {
		return err
	}
	html, ok := f.pages[p]
	if !ok {
		html = notFoundHTML
	}
	f.current = html
	return nil
}

func (f *fakeNavigator) CurrentHTML(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current, nil
}

func pageIndex(url string) int {
	_, q, _ := strings.Cut(url, "?")
	for _, kv := range strings.Split(q, "&") {
		if v, ok := strings.CutPrefix(kv, "p="); ok {
			var n int
			fmt.Sscanf(v, "%d", &n)
			return n
		}
	}
	return 0
}

// memorySink records every flush
type memorySink struct {
	flushes [][]models.Record
	err     error
}

func (s *memorySink) Flush(records []models.Record) error {
	cp := make([]models.Record, len(records))
	copy(cp, records)
	s.flushes = append(s.flushes, cp)
	return s.err
}

// countingPacer counts pace calls without sleeping
type countingPacer struct {
	calls int
	err   error
}

func (p *countingPacer) Pace(ctx context.Context) error {
	p.calls++
	return p.err
}
