// internal/cli/ratings.go
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/law-makers/filmexport/internal/app"
	"github.com/law-makers/filmexport/internal/auth"
	"github.com/law-makers/filmexport/internal/config"
	"github.com/law-makers/filmexport/internal/engine"
	"github.com/law-makers/filmexport/internal/ratelimit"
	"github.com/law-makers/filmexport/internal/runctx"
	"github.com/law-makers/filmexport/internal/scrape"
	"github.com/law-makers/filmexport/internal/ui"
	headersutil "github.com/law-makers/filmexport/internal/utils/headers"
	"github.com/law-makers/filmexport/internal/utils/output"
	urlutil "github.com/law-makers/filmexport/internal/utils/url"
	"github.com/law-makers/filmexport/pkg/models"
)

type ratingsOptions struct {
	userID        int
	pageCount     int
	outputFile    string
	noDelay       bool
	format        string
	snapshotDir   string
	saveOnFailure bool
	session       string
	headers       []string
	noProgress    bool
}

func newRatingsCmd() *cobra.Command {
	opts := &ratingsOptions{}

	cmd := &cobra.Command{
		Use:   "ratings",
		Short: "Export the ratings of a FilmAffinity user",
		Long: `Walk the ratings pages of a FilmAffinity user, newest rating first, and write
every film to a Letterboxd import file.

The run stops at the first page that does not exist. Pages are spaced by a
random 1 to 3 second delay unless --no-delay is given. When the site stops
serving the listing part way through, the films collected so far are still
saved (disable with --save-on-failure=false).`,
		Example: `  # Export all ratings of user 123456
  filmexport ratings -u 123456

  # Only the first 3 pages, as JSON
  filmexport ratings -u 123456 -p 3 --format json -o ratings.json

  # Reuse cookies captured with "filmexport session capture"
  filmexport ratings -u 123456 --session fa

  # Keep the page that broke the run for inspection
  filmexport ratings -u 123456 --snapshot-dir ./snapshots`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRatings(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.IntVarP(&opts.userID, "user-id", "u", 0, "FilmAffinity user ID (required)")
	f.IntVarP(&opts.pageCount, "page-count", "p", config.DefaultPageCount, "Maximum number of pages to visit")
	f.StringVarP(&opts.outputFile, "output-file", "o", config.DefaultOutputFile, "Destination file")
	f.BoolVarP(&opts.noDelay, "no-delay", "d", false, "Do not wait between pages (increases the risk of being blocked)")
	f.StringVar(&opts.format, "format", config.DefaultOutputFormat, "Output format: csv or json")
	f.StringVar(&opts.snapshotDir, "snapshot-dir", "", "Save the page that ended the run as HTML and Markdown in this directory")
	f.BoolVar(&opts.saveOnFailure, "save-on-failure", config.DefaultSaveOnFailure, "Save the films collected so far when the run is blocked")
	f.StringVar(&opts.session, "session", "", "Use cookies from a saved session")
	f.StringArrayVarP(&opts.headers, "header", "H", nil, "Extra request header \"Key: Value\" (repeatable)")
	f.BoolVar(&opts.noProgress, "no-progress", false, "Do not show the progress line")
	_ = cmd.MarkFlagRequired("user-id")

	return cmd
}

func (o *ratingsOptions) validate() error {
	if o.userID <= 0 {
		return fmt.Errorf("user ID must be a positive number, got %d", o.userID)
	}
	if o.pageCount < 1 {
		return fmt.Errorf("page count must be >= 1, got %d", o.pageCount)
	}
	if o.outputFile == "" {
		return fmt.Errorf("output file cannot be empty")
	}
	return nil
}

func runRatings(cmd *cobra.Command, opts *ratingsOptions) error {
	if err := opts.validate(); err != nil {
		return err
	}
	cfg := GetConfig(cmd)
	ctx := runctx.WithRun(cmd.Context())

	sink, err := output.NewFileSink(opts.outputFile, models.OutputFormat(opts.format))
	if err != nil {
		return err
	}

	headers, err := headersutil.ParseHeaders(opts.headers)
	if err != nil {
		return err
	}

	session, err := loadRunSession(opts.session)
	if err != nil {
		return err
	}

	logger := runctx.Logger(ctx)
	logger.Info().
		Int("user_id", opts.userID).
		Int("page_count", opts.pageCount).
		Str("engine", cfg.Engine).
		Str("output", opts.outputFile).
		Msg("Starting ratings export")

	startCtx, cancel := context.WithTimeout(ctx, cfg.PageTimeout+30*time.Second)
	application, err := newApplication(startCtx, cfg, app.Options{Session: session, Headers: headers})
	cancel()
	if err != nil {
		if errors.Is(err, engine.ErrBrowserNotFound) {
			logger.Info().Msg("Install Chrome, point --chrome-path at it, or use --engine=static")
		}
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), config.DefaultShutdownGrace)
		defer cancel()
		_ = application.Close(closeCtx)
	}()

	var pacer scrape.Pacer
	if opts.noDelay {
		logger.Warn().Msg("Delay between pages disabled, the site may block the run")
	} else {
		pacer = ratelimit.NewDefaultPacer()
	}

	driver := scrape.NewDriver(application.Navigator, sink, pacer, scrape.Options{
		UserID:           opts.userID,
		PageCount:        opts.pageCount,
		BaseURL:          cfg.BaseURL,
		DefaultPageCount: config.DefaultPageCount,
		SaveOnFailure:    opts.saveOnFailure,
		PageTimeout:      cfg.PageTimeout,
	})

	if showProgress(cfg, opts) {
		progress := ui.NewProgress(os.Stderr)
		restore := redirectLogs(progress.Writer())
		driver.OnProgress(progress.Observe)
		defer func() {
			progress.Finish()
			restore()
		}()
	}

	res, runErr := driver.Run(ctx)
	if runErr != nil {
		handleFailure(ctx, opts, cfg, res, runErr)
		return runErr
	}

	printSummary(cmd.OutOrStdout(), res, opts.outputFile)
	return nil
}

// loadRunSession loads the named session; an expired one is still used since
// some of its cookies may remain valid
func loadRunSession(name string) (*auth.Session, error) {
	if name == "" {
		return nil, nil
	}
	store, err := openStore()
	if err != nil {
		return nil, err
	}
	session, err := store.Load(name)
	if err != nil {
		if errors.Is(err, auth.ErrSessionExpired) && session != nil {
			log.Warn().Err(err).Msg("Session expired, the site may challenge the run")
			return session, nil
		}
		return nil, err
	}
	log.Debug().Str("session", name).Int("cookies", len(session.Cookies)).Msg("Session loaded")
	return session, nil
}

func showProgress(cfg *config.Config, opts *ratingsOptions) bool {
	if opts.noProgress || cfg.JSONLog || cfg.LogLevel == "error" {
		return false
	}
	return ui.IsTerminal(os.Stderr)
}

// redirectLogs routes the console logger through w and returns a func that
// restores the previous logger
func redirectLogs(w io.Writer) func() {
	prev := log.Logger
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}).With().Timestamp().Logger()
	return func() { log.Logger = prev }
}

func handleFailure(ctx context.Context, opts *ratingsOptions, cfg *config.Config, res *scrape.Result, runErr error) {
	logger := runctx.Logger(ctx)

	if res.FailedPage > 0 {
		logger.Info().
			Int("page", res.FailedPage).
			Int("status", res.FailedStatus).
			Msg("Run stopped on page")
	}

	if opts.snapshotDir != "" && res.FailedHTML != "" {
		pageURL := urlutil.PageURL(cfg.BaseURL, opts.userID, res.FailedPage)
		paths, err := output.SaveSnapshot(opts.snapshotDir, res.FailedPage, pageURL, res.FailedHTML)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to save page snapshot")
		} else {
			logger.Info().Strs("files", paths).Int("page", res.FailedPage).Msg("Saved page snapshot")
		}
	}

	if res.Flushed {
		logger.Warn().
			Int("records", len(res.Records)).
			Str("output", opts.outputFile).
			Msg("Run stopped early, partial results were saved")
	}

	if code, ok := scrape.CodeOf(runErr); ok && code == scrape.ErrCodeAntiBotBlock && opts.session == "" {
		logger.Info().Msg("Pass the challenge once with \"filmexport session capture\" and rerun with --session")
	}
}

func printSummary(w io.Writer, res *scrape.Result, dest string) {
	fmt.Fprintf(w, "%s %d movies from %d pages saved to %s %s\n",
		ui.Success("✓"),
		len(res.Records),
		res.PagesVisited,
		ui.Bold(dest),
		ui.Dim(fmt.Sprintf("(%s)", res.Elapsed.Round(time.Millisecond))))
}
