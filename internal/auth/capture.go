// internal/auth/capture.go
package auth

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/go-rod/stealth"
	"github.com/rs/zerolog/log"
)

// CaptureOptions configures an interactive cookie capture
type CaptureOptions struct {
	// SessionName is the name to save the session as
	SessionName string
	// URL is opened in the visible browser
	URL string
	// ChromePath overrides browser discovery when set
	ChromePath string
	UserAgent  string
	Proxy      string
	// Timeout bounds the whole capture, user interaction included
	Timeout time.Duration

	// In and Out carry the confirmation prompt; stdin/stdout when nil
	In  io.Reader
	Out io.Writer
}

// Capture opens a visible browser on opts.URL and waits for the user to
// confirm, typically after solving an anti-bot challenge. The cookies present
// at that point are returned as a session.
func Capture(ctx context.Context, opts CaptureOptions) (*Session, error) {
	if opts.SessionName == "" {
		return nil, fmt.Errorf("session name is required")
	}
	if opts.URL == "" {
		return nil, fmt.Errorf("URL is required")
	}
	if opts.Timeout == 0 {
		opts.Timeout = 5 * time.Minute
	}
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}

	if runtime.GOOS == "linux" && os.Getenv("DISPLAY") == "" && os.Getenv("WAYLAND_DISPLAY") == "" {
		return nil, fmt.Errorf("session capture requires a display server (DISPLAY not set)\n\n" +
			"In headless environments export the cookies from your browser instead:\n" +
			"   filmexport session import <name> --format=netscape < cookies.txt")
	}

	log.Info().
		Str("session", opts.SessionName).
		Str("url", opts.URL).
		Msg("Starting session capture")

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	allocOpts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.Flag("headless", false),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-infobars", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("log-level", "3"),
		chromedp.WindowSize(1280, 900),
	}
	if opts.ChromePath != "" {
		allocOpts = append([]chromedp.ExecAllocatorOption{chromedp.ExecPath(opts.ChromePath)}, allocOpts...)
	}
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}
	if opts.Proxy != "" {
		allocOpts = append(allocOpts, chromedp.ProxyServer(opts.Proxy))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer allocCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	var userAgent string
	err := chromedp.Run(browserCtx,
		network.Enable(),
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(stealth.JS).Do(ctx)
			return err
		}),
		chromedp.Navigate(opts.URL),
		chromedp.Evaluate(`navigator.userAgent`, &userAgent),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to navigate: %w", err)
	}

	fmt.Fprintln(opts.Out, "\nBrowser opened. Pass any challenge the site shows until the ratings page loads.")
	fmt.Fprintln(opts.Out, "   Press Enter here once the page is visible...")

	if err := waitForEnter(ctx, opts.In); err != nil {
		return nil, err
	}

	var cookies []*network.Cookie
	err = chromedp.Run(browserCtx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			cookies, err = network.GetCookies().Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to extract cookies: %w", err)
	}
	if len(cookies) == 0 {
		return nil, fmt.Errorf("no cookies found, the page may not have loaded")
	}

	log.Info().Int("cookie_count", len(cookies)).Msg("Cookies extracted")

	session := NewSession(opts.SessionName, opts.URL, fromNetworkCookies(cookies))
	session.UserAgent = userAgent
	return session, nil
}

func waitForEnter(ctx context.Context, in io.Reader) error {
	done := make(chan error, 1)
	go func() {
		_, err := bufio.NewReader(in).ReadString('\n')
		if err == io.EOF {
			err = nil
		}
		done <- err
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("capture timed out: %w", ctx.Err())
	}
}

func fromNetworkCookies(cookies []*network.Cookie) []Cookie {
	out := make([]Cookie, 0, len(cookies))
	for _, c := range cookies {
		expires := c.Expires
		// Session cookies report -1
		if expires < 0 {
			expires = 0
		}
		out = append(out, Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  expires,
			HTTPOnly: c.HTTPOnly,
			Secure:   c.Secure,
			SameSite: string(c.SameSite),
		})
	}
	return out
}
