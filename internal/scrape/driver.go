package scrape

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/law-makers/filmexport/internal/runctx"
	urlutil "github.com/law-makers/filmexport/internal/utils/url"
	"github.com/law-makers/filmexport/pkg/models"
)

// Navigator is the rendering collaborator the driver fetches pages through
type Navigator interface {
	// Navigate loads url in the current tab
	Navigate(ctx context.Context, url string) error

	// CurrentHTML returns the rendered markup of the current tab
	CurrentHTML(ctx context.Context) (string, error)
}

// Sink receives the accumulated records once per run
type Sink interface {
	Flush(records []models.Record) error
}

// Pacer delays between pages
type Pacer interface {
	Pace(ctx context.Context) error
}

// Progress describes a page that completed successfully
type Progress struct {
	Page     int
	Added    int
	Total    int
	MaxPages int
}

// Options configures a scrape run
type Options struct {
	UserID    int
	PageCount int
	BaseURL   string

	// DefaultPageCount is only used to tell the user whether the page count they hit
	// was the default one
	DefaultPageCount int

	// SaveOnFailure flushes already accumulated records when the run ends on an
	// anti-bot block or a structure change
	SaveOnFailure bool

	// PageTimeout bounds a single navigation + content read. Zero disables it.
	PageTimeout time.Duration
}

// Result is the state of a run, returned with or without an error
type Result struct {
	Records      []models.Record
	PagesVisited int
	Flushed      bool
	Elapsed      time.Duration

	// FailedPage and FailedHTML hold the page that ended the run on a structure
	// change or anti-bot block. FailedStatus is the HTTP status of that page when
	// the navigator reports one.
	FailedPage   int
	FailedHTML   string
	FailedStatus int
}

// statusReporter is implemented by navigators that know the HTTP status of the
// page they last loaded
type statusReporter interface {
	LastStatus() int
}

// Driver runs the sequential page loop: fetch, classify, extract, accumulate, pace
type Driver struct {
	nav      Navigator
	sink     Sink
	pacer    Pacer
	opts     Options
	observer func(Progress)
}

// NewDriver creates a Driver. pacer may be nil to disable pacing.
func NewDriver(nav Navigator, sink Sink, pacer Pacer, opts Options) *Driver {
	if opts.BaseURL == "" {
		opts.BaseURL = urlutil.DefaultBaseURL
	}
	return &Driver{
		nav:   nav,
		sink:  sink,
		pacer: pacer,
		opts:  opts,
	}
}

// OnProgress registers a callback invoked after every successful page
func (d *Driver) OnProgress(fn func(Progress)) {
	d.observer = fn
}

// Run scrapes pages 1..PageCount until exhaustion or a terminal condition.
// The returned Result is never nil.
func (d *Driver) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	logger := runctx.Logger(ctx).With().Int("user_id", d.opts.UserID).Logger()

	res := &Result{Records: make([]models.Record, 0, 50)}
	defer func() { res.Elapsed = time.Since(start) }()

	if d.opts.PageCount < 1 {
		return res, fmt.Errorf("page count must be >= 1, got %d", d.opts.PageCount)
	}

	for p := 1; p <= d.opts.PageCount; p++ {
		pageURL := urlutil.PageURL(d.opts.BaseURL, d.opts.UserID, p)
		logger.Info().Int("page", p).Str("url", pageURL).Msg("Processing page")

		html, err := d.fetch(ctx, pageURL)
		if err != nil {
			return res, FetchFailed(p, pageURL, err)
		}
		res.PagesVisited = p

		page, err := Classify(html, p)
		if err != nil {
			return res, FetchFailed(p, pageURL, err)
		}

		logger.Debug().
			Int("page", p).
			Stringer("verdict", page.Verdict).
			Msg("Page classified")

		switch page.Verdict {
		case models.VerdictUserAbsent:
			if p == 1 {
				return res, UserNotFound(d.opts.UserID)
			}
			logger.Warn().
				Int("page", p).
				Int("page_count", d.opts.PageCount).
				Bool("default_page_count", d.opts.PageCount == d.opts.DefaultPageCount).
				Msg("Page not found, the user has fewer pages than the page count")
			return res, d.flush(res)

		case models.VerdictUnrecognizable:
			d.markFailed(res, p, html)
			if len(res.Records) == 0 {
				scrapeErr := StructureChange(FieldMovies, ContainerMarker)
				scrapeErr.Page = p
				return res, scrapeErr
			}
			// Earlier pages had containers, so this one is most likely a block page.
			return res, d.failPartial(ctx, res, AntiBotBlock(p))
		}

		records, err := ExtractPage(page)
		if err != nil {
			d.markFailed(res, p, html)
			return res, d.failPartial(ctx, res, err)
		}
		res.Records = append(res.Records, records...)

		logger.Debug().
			Int("page", p).
			Int("records", len(records)).
			Int("total", len(res.Records)).
			Msg("Page extracted")

		if d.observer != nil {
			d.observer(Progress{Page: p, Added: len(records), Total: len(res.Records), MaxPages: d.opts.PageCount})
		}

		if d.pacer != nil && p < d.opts.PageCount {
			if err := d.pacer.Pace(ctx); err != nil {
				return res, fmt.Errorf("pacing interrupted after page %d: %w", p, err)
			}
		}
	}

	return res, d.flush(res)
}

func (d *Driver) fetch(ctx context.Context, pageURL string) (string, error) {
	if d.opts.PageTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.opts.PageTimeout)
		defer cancel()
	}

	if err := d.nav.Navigate(ctx, pageURL); err != nil {
		return "", err
	}
	return d.nav.CurrentHTML(ctx)
}

func (d *Driver) markFailed(res *Result, page int, html string) {
	res.FailedPage, res.FailedHTML = page, html
	if sr, ok := d.nav.(statusReporter); ok {
		res.FailedStatus = sr.LastStatus()
	}
}

// failPartial ends the run with scrapeErr, flushing prior records first when the
// policy allows it
func (d *Driver) failPartial(ctx context.Context, res *Result, scrapeErr error) error {
	if !d.opts.SaveOnFailure || len(res.Records) == 0 {
		return scrapeErr
	}

	logger := runctx.Logger(ctx)
	logger.Warn().
		Err(scrapeErr).
		Int("records", len(res.Records)).
		Msg("Saving partial results before stopping")

	if err := d.flush(res); err != nil {
		return errors.Join(scrapeErr, err)
	}
	return scrapeErr
}

func (d *Driver) flush(res *Result) error {
	if d.sink == nil || res.Flushed {
		return nil
	}
	if err := d.sink.Flush(res.Records); err != nil {
		return fmt.Errorf("failed to save results: %w", err)
	}
	res.Flushed = true
	return nil
}
