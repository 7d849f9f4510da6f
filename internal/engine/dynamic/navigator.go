// Package dynamic implements the page navigator on top of a real Chrome tab
// driven through the DevTools protocol.
package dynamic

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/go-rod/stealth"
	"github.com/law-makers/filmexport/internal/auth"
	"github.com/law-makers/filmexport/internal/engine"
	"github.com/rs/zerolog/log"
)

// Options configures the browser
type Options struct {
	Headless   bool
	UserAgent  string
	Proxy      string
	ChromePath string

	// Stealth patches the automation fingerprints (navigator.webdriver and
	// friends) before any page script runs
	Stealth bool

	// Headers are sent with every request of the tab
	Headers map[string]string

	// Session cookies are installed before the first navigation
	Session *auth.Session
}

// Navigator drives a single Chrome tab
type Navigator struct {
	tabCtx      context.Context
	tabCancel   context.CancelFunc
	allocCancel context.CancelFunc

	mu     sync.Mutex
	closed bool
	loaded bool

	lastStatus atomic.Int64
}

// New launches Chrome and prepares one tab. ctx bounds the launch only; the
// browser lives until Close.
func New(ctx context.Context, opts Options) (*Navigator, error) {
	chromePath := FindChrome(opts.ChromePath)
	log.Debug().
		Str("path", chromePath).
		Str("version", chromeVersion(chromePath)).
		Bool("headless", opts.Headless).
		Bool("stealth", opts.Stealth).
		Msg("Launching Chrome")

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocatorOptions(chromePath, opts)...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	n := &Navigator{
		tabCtx:      tabCtx,
		tabCancel:   tabCancel,
		allocCancel: allocCancel,
	}

	if err := n.start(ctx); err != nil {
		if chromePath == "" && ctx.Err() == nil {
			err = fmt.Errorf("%w: %w", engine.ErrBrowserNotFound, err)
		}
		return nil, engine.NewNavigationError(engine.ErrCodeBrowserStart, "failed to start Chrome", err)
	}

	chromedp.ListenTarget(tabCtx, n.onEvent)

	runCtx, cancel := n.bind(ctx)
	defer cancel()
	if err := chromedp.Run(runCtx, setupActions(opts)...); err != nil {
		n.Close()
		return nil, engine.NewNavigationError(engine.ErrCodeBrowserStart, "failed to prepare browser tab", err)
	}

	log.Info().Bool("headless", opts.Headless).Msg("Browser ready")
	return n, nil
}

// start allocates the browser. The first Run binds the browser to the context
// it is given, so it runs on the tab context and ctx is enforced by a watchdog.
// On failure everything is torn down.
func (n *Navigator) start(ctx context.Context) error {
	started := make(chan error, 1)
	go func() { started <- chromedp.Run(n.tabCtx) }()

	select {
	case err := <-started:
		if err != nil {
			n.Close()
		}
		return err
	case <-ctx.Done():
		// kill the launch first; Close must not race the allocation
		n.tabCancel()
		n.allocCancel()
		<-started
		n.Close()
		return fmt.Errorf("browser did not start in time: %w", ctx.Err())
	}
}

// Name returns the name of this navigator
func (n *Navigator) Name() string {
	return string(engine.KindDynamic)
}

// Navigate loads url and waits for the document body
func (n *Navigator) Navigate(ctx context.Context, url string) error {
	if err := n.checkOpen(); err != nil {
		return err
	}

	runCtx, cancel := n.bind(ctx)
	defer cancel()

	start := time.Now()
	n.lastStatus.Store(0)

	err := chromedp.Run(runCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		if navErr, ok := engine.FromContext(ctx, url, err); ok {
			return navErr
		}
		if n.tabCtx.Err() != nil {
			return engine.NewNavigationError(engine.ErrCodeNavigation, "browser exited", err).WithURL(url)
		}
		return engine.NewNavigationError(engine.ErrCodeNavigation, "chromedp navigation failed", err).WithURL(url)
	}

	n.mu.Lock()
	n.loaded = true
	n.mu.Unlock()

	log.Debug().
		Str("url", url).
		Int64("status", n.lastStatus.Load()).
		Dur("elapsed_ms", time.Since(start)).
		Msg("Navigation completed")
	return nil
}

// CurrentHTML returns the outer HTML of the rendered document
func (n *Navigator) CurrentHTML(ctx context.Context) (string, error) {
	if err := n.checkOpen(); err != nil {
		return "", err
	}

	n.mu.Lock()
	loaded := n.loaded
	n.mu.Unlock()
	if !loaded {
		return "", engine.ErrNoPage
	}

	runCtx, cancel := n.bind(ctx)
	defer cancel()

	var html string
	if err := chromedp.Run(runCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		if navErr, ok := engine.FromContext(ctx, "", err); ok {
			return "", navErr
		}
		return "", fmt.Errorf("failed to read page content: %w", err)
	}
	return html, nil
}

// LastStatus is the HTTP status of the most recent document response, 0 when unknown
func (n *Navigator) LastStatus() int {
	return int(n.lastStatus.Load())
}

// Close shuts the tab and the browser process. It is safe to call twice.
func (n *Navigator) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return nil
	}
	n.closed = true

	if err := chromedp.Cancel(n.tabCtx); err != nil {
		log.Debug().Err(err).Msg("Error closing browser tab")
	}
	n.tabCancel()
	n.allocCancel()

	log.Debug().Msg("Browser closed")
	return nil
}

func (n *Navigator) checkOpen() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return engine.ErrClosed
	}
	return nil
}

// bind derives a context from the tab that also ends when ctx ends, so caller
// deadlines apply to DevTools calls without closing the tab
func (n *Navigator) bind(ctx context.Context) (context.Context, context.CancelFunc) {
	runCtx, cancel := context.WithCancel(n.tabCtx)
	stop := context.AfterFunc(ctx, cancel)
	return runCtx, func() {
		stop()
		cancel()
	}
}

// onEvent drains target events. It runs on chromedp's event goroutine and
// must not block.
func (n *Navigator) onEvent(ev interface{}) {
	switch ev := ev.(type) {
	case *network.EventResponseReceived:
		if ev.Type != network.ResourceTypeDocument {
			return
		}
		n.lastStatus.Store(ev.Response.Status)
		log.Debug().
			Str("url", ev.Response.URL).
			Int64("status", ev.Response.Status).
			Msg("Document response")
	case *network.EventLoadingFailed:
		if ev.Type == network.ResourceTypeDocument && !ev.Canceled {
			log.Debug().Str("error", ev.ErrorText).Msg("Document load failed")
		}
	}
}

func setupActions(opts Options) []chromedp.Action {
	actions := []chromedp.Action{network.Enable()}

	if opts.Stealth {
		actions = append(actions, chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(stealth.JS).Do(ctx)
			return err
		}))
	}

	if len(opts.Headers) > 0 {
		headers := make(network.Headers, len(opts.Headers))
		for k, v := range opts.Headers {
			headers[k] = v
		}
		actions = append(actions, network.SetExtraHTTPHeaders(headers))
	}

	if opts.Session != nil && len(opts.Session.Cookies) > 0 {
		params := cookieParams(opts.Session.Cookies)
		log.Debug().Int("cookies", len(params)).Str("session", opts.Session.Name).Msg("Injecting session cookies")
		actions = append(actions, network.SetCookies(params))
	}

	return actions
}

// chromeFlags is the command line of the browser, keyed by flag name
func chromeFlags(opts Options) map[string]interface{} {
	flags := map[string]interface{}{
		"no-first-run":                           true,
		"no-default-browser-check":               true,
		"disable-gpu":                            true,
		"no-sandbox":                             true,
		"disable-dev-shm-usage":                  true,
		"disable-extensions":                     true,
		"disable-background-networking":          true,
		"disable-breakpad":                       true,
		"disable-client-side-phishing-detection": true,
		"disable-default-apps":                   true,
		"disable-hang-monitor":                   true,
		"disable-popup-blocking":                 true,
		"disable-prompt-on-repost":               true,
		"disable-renderer-backgrounding":         true,
		"disable-sync":                           true,
		"disable-translate":                      true,
		"disable-blink-features":                 "AutomationControlled",
		"disable-infobars":                       true,
		"force-color-profile":                    "srgb",
		"log-level":                              "3",
		"metrics-recording-only":                 true,
		"mute-audio":                             true,
		"window-size":                            "1920,1080",
	}

	if opts.Headless {
		flags["headless"] = "new"
	} else {
		flags["headless"] = false
	}
	if opts.UserAgent != "" {
		flags["user-agent"] = opts.UserAgent
	}
	if opts.Proxy != "" {
		flags["proxy-server"] = opts.Proxy
	}
	return flags
}

func allocatorOptions(chromePath string, opts Options) []chromedp.ExecAllocatorOption {
	flags := chromeFlags(opts)

	names := make([]string, 0, len(flags))
	for name := range flags {
		names = append(names, name)
	}
	sort.Strings(names)

	allocOpts := make([]chromedp.ExecAllocatorOption, 0, len(flags)+1)
	if chromePath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(chromePath))
	}
	for _, name := range names {
		allocOpts = append(allocOpts, chromedp.Flag(name, flags[name]))
	}
	return allocOpts
}
