// Package static implements the page navigator over plain HTTP. It does not run
// page scripts, so it only sees the server-rendered listing.
package static

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"github.com/law-makers/filmexport/internal/auth"
	"github.com/law-makers/filmexport/internal/engine"
	"github.com/law-makers/filmexport/internal/ratelimit"
	"github.com/rs/zerolog/log"
)

// Options configures the HTTP client
type Options struct {
	UserAgent string
	Proxy     string
	Headers   map[string]string
	Session   *auth.Session

	// Timeout is a hard per-request ceiling on the client, 0 for none
	Timeout time.Duration

	// Limiter caps the request rate per host; nil disables it
	Limiter ratelimit.RateLimiter

	// Transport replaces the default Cloudflare-hardened transport. Proxy is
	// ignored when it is set.
	Transport http.RoundTripper
}

// Navigator fetches pages with a resty client and keeps the last body as the
// current page
type Navigator struct {
	client *resty.Client

	mu         sync.Mutex
	html       string
	loaded     bool
	lastStatus int
	closed     bool
}

// New creates a static navigator
func New(opts Options) (*Navigator, error) {
	client := resty.New()
	client.SetLogger(restyLogger{})

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)

	if opts.Transport != nil {
		client.SetTransport(opts.Transport)
	} else {
		// The proxy must be set while the transport is still an *http.Transport
		if opts.Proxy != "" {
			if _, err := url.Parse(opts.Proxy); err != nil {
				return nil, fmt.Errorf("invalid proxy URL: %w", err)
			}
			client.SetProxy(opts.Proxy)
		}
		client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	}

	client.SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	client.SetHeader("Accept-Language", "en-US,en;q=0.9")
	if opts.UserAgent != "" {
		client.SetHeader("User-Agent", opts.UserAgent)
	}

	if s := opts.Session; s != nil {
		if s.UserAgent != "" && opts.UserAgent == "" {
			client.SetHeader("User-Agent", s.UserAgent)
		}
		client.SetHeaders(s.Headers)
		client.SetCookies(s.HTTPCookies())
		log.Debug().Int("cookies", len(s.Cookies)).Str("session", s.Name).Msg("Session cookies injected")
	}
	client.SetHeaders(opts.Headers)

	client.SetRedirectPolicy(resty.FlexibleRedirectPolicy(10))
	if opts.Timeout > 0 {
		client.SetTimeout(opts.Timeout)
	}

	if opts.Limiter != nil {
		limiter := opts.Limiter
		client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			return limiter.Wait(req.Context(), req.URL)
		})
	}

	return &Navigator{client: client}, nil
}

// Name returns the name of this navigator
func (n *Navigator) Name() string {
	return string(engine.KindStatic)
}

// Navigate fetches url. Client error statuses are not failures: a 404 or a
// challenge page is still a page for the classifier to judge. Server errors are.
func (n *Navigator) Navigate(ctx context.Context, url string) error {
	if err := n.checkOpen(); err != nil {
		return err
	}

	resp, err := n.client.R().SetContext(ctx).Get(url)
	if err != nil {
		if navErr, ok := engine.FromContext(ctx, url, err); ok {
			return navErr
		}
		return engine.NewNavigationError(engine.ErrCodeNavigation, "request failed", err).WithURL(url)
	}

	status := resp.StatusCode()
	log.Debug().
		Str("url", url).
		Int("status", status).
		Int("bytes", len(resp.Body())).
		Dur("elapsed_ms", resp.Time()).
		Msg("Fetch completed")

	if status >= http.StatusInternalServerError {
		return engine.NewNavigationError(engine.ErrCodeHTTPStatus, fmt.Sprintf("server returned %d", status), nil).
			WithURL(url).
			WithStatus(status)
	}

	n.mu.Lock()
	n.html = resp.String()
	n.loaded = true
	n.lastStatus = status
	n.mu.Unlock()
	return nil
}

// CurrentHTML returns the body of the last successful fetch
func (n *Navigator) CurrentHTML(ctx context.Context) (string, error) {
	if err := n.checkOpen(); err != nil {
		return "", err
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.loaded {
		return "", engine.ErrNoPage
	}
	return n.html, nil
}

// LastStatus is the HTTP status of the last successful fetch
func (n *Navigator) LastStatus() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.lastStatus
}

// Close drops idle connections
func (n *Navigator) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return nil
	}
	n.closed = true
	n.client.GetClient().CloseIdleConnections()
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
