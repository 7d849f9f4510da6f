// internal/ratelimit/limiter.go
package ratelimit

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// RateLimiter caps how fast requests reach a host
type RateLimiter interface {
	// Wait blocks until a request for urlStr may be sent, or ctx ends
	Wait(ctx context.Context, urlStr string) error
}

// HostLimiter is a token bucket per site for the HTTP engine. The pacer spaces
// listing pages; the ceiling also covers the redirect and challenge hops the
// client follows on its own between two paced pages.
//
// www.filmaffinity.com and filmaffinity.com share a bucket.
type HostLimiter struct {
	mu    sync.Mutex
	sites map[string]*rate.Limiter
	limit rate.Limit
	burst int

	requests int
	held     time.Duration
}

// Stats summarizes what the ceiling did during a run
type Stats struct {
	Requests int
	Held     time.Duration
}

// NewHostLimiter creates a ceiling of requestsPerSecond per site
func NewHostLimiter(requestsPerSecond float64, burst int) *HostLimiter {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 1.0
	}
	if burst <= 0 {
		burst = 1
	}

	return &HostLimiter{
		sites: make(map[string]*rate.Limiter),
		limit: rate.Limit(requestsPerSecond),
		burst: burst,
	}
}

// Wait reserves the next slot for the site of urlStr and sleeps until it is due.
// URLs without a host are not limited.
func (l *HostLimiter) Wait(ctx context.Context, urlStr string) error {
	site := siteOf(urlStr)
	if site == "" {
		return nil
	}

	r := l.bucket(site).Reserve()
	if !r.OK() {
		return fmt.Errorf("rate ceiling for %s cannot admit a request", site)
	}

	delay := r.Delay()
	l.record(delay)
	if delay == 0 {
		return nil
	}

	log.Debug().Str("site", site).Dur("delay", delay).Msg("Request held by rate ceiling")

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		r.Cancel()
		return ctx.Err()
	}
}

// Stats returns the number of requests seen and the total time they were held
func (l *HostLimiter) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Stats{Requests: l.requests, Held: l.held}
}

func (l *HostLimiter) record(delay time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.requests++
	l.held += delay
}

func (l *HostLimiter) bucket(site string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, ok := l.sites[site]
	if !ok {
		limiter = rate.NewLimiter(l.limit, l.burst)
		l.sites[site] = limiter
	}
	return limiter
}

// siteOf returns the lowercased host of urlStr with any www. prefix removed
func siteOf(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err != nil || u.Host == "" {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Host), "www.")
}
