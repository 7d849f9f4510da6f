// Package app provides the core application initialization and lifecycle management.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/law-makers/filmexport/internal/auth"
	"github.com/law-makers/filmexport/internal/config"
	"github.com/law-makers/filmexport/internal/engine"
	"github.com/law-makers/filmexport/internal/engine/dynamic"
	"github.com/law-makers/filmexport/internal/engine/static"
	"github.com/law-makers/filmexport/internal/ratelimit"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Application holds the dependencies of a scrape run and manages their lifecycle.
//
// It is created by the commands that fetch pages, after configuration and the
// optional session are resolved. Use Close() to shut the browser down.
type Application struct {
	Config    *config.Config
	Logger    *zerolog.Logger
	Navigator engine.Navigator
	Limiter   *ratelimit.HostLimiter
	startTime time.Time
}

// Options carries per-run inputs that are not configuration
type Options struct {
	Session *auth.Session
	Headers map[string]string
}

// SetupLogging configures the global zerolog logger from cfg and returns it.
//
// Info logs are shown by default since they carry the per-page progress;
// --quiet limits output to errors and --verbose adds debug detail.
func SetupLogging(cfg *config.Config, w io.Writer) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}

	level := zerolog.InfoLevel
	switch cfg.LogLevel {
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.JSONLog {
		log.Logger = zerolog.New(w).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}).With().Timestamp().Logger()
	}
	return log.Logger
}

// New creates the Application and starts its navigator.
//
// ctx bounds the start-up only (browser launch for the dynamic engine). If the
// navigator cannot be created, an error is returned and nothing is left running.
func New(ctx context.Context, cfg *config.Config, opts Options) (*Application, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	logger := log.With().Str("engine", cfg.Engine).Logger()

	limiter := ratelimit.NewHostLimiter(cfg.StaticRateLimitRPS, cfg.StaticRateLimitBurst)

	nav, err := NewNavigator(ctx, cfg, opts, limiter)
	if err != nil {
		return nil, err
	}

	logger.Debug().
		Str("navigator", nav.Name()).
		Dur("page_timeout", cfg.PageTimeout).
		Bool("session", opts.Session != nil).
		Msg("Application initialized")

	return &Application{
		Config:    cfg,
		Logger:    &logger,
		Navigator: nav,
		Limiter:   limiter,
		startTime: time.Now(),
	}, nil
}

// NewNavigator builds the navigator selected by cfg.Engine
func NewNavigator(ctx context.Context, cfg *config.Config, opts Options, limiter ratelimit.RateLimiter) (engine.Navigator, error) {
	kind, err := engine.ParseKind(cfg.Engine)
	if err != nil {
		return nil, err
	}

	userAgent := cfg.UserAgent
	if userAgent == "" && opts.Session != nil {
		userAgent = opts.Session.UserAgent
	}

	switch kind {
	case engine.KindStatic:
		return static.New(static.Options{
			Timeout:   cfg.PageTimeout,
			UserAgent: userAgent,
			Proxy:     cfg.Proxy,
			Headers:   opts.Headers,
			Session:   opts.Session,
			Limiter:   limiter,
		})
	default:
		return dynamic.New(ctx, dynamic.Options{
			Headless:   cfg.Headless,
			Stealth:    cfg.Stealth,
			UserAgent:  userAgent,
			Proxy:      cfg.Proxy,
			ChromePath: cfg.ChromePath,
			Headers:    opts.Headers,
			Session:    opts.Session,
		})
	}
}

// Close shuts down the navigator. A context with a timeout should be provided
// so a hung browser cannot block exit; errors are logged, not returned.
func (a *Application) Close(ctx context.Context) error {
	if a == nil || a.Navigator == nil {
		return nil
	}

	done := make(chan error, 1)
	go func() { done <- a.Navigator.Close() }()

	select {
	case err := <-done:
		if err != nil {
			a.Logger.Warn().Err(err).Msg("Error closing navigator")
		}
	case <-ctx.Done():
		a.Logger.Warn().Err(ctx.Err()).Msg("Timed out closing navigator")
	}

	event := a.Logger.Debug().Dur("uptime", a.Uptime())
	if a.Limiter != nil {
		stats := a.Limiter.Stats()
		event = event.Int("requests", stats.Requests).Dur("rate_held", stats.Held)
	}
	event.Msg("Application shutdown complete")
	return nil
}

// Uptime returns how long the application has been running.
func (a *Application) Uptime() time.Duration {
	return time.Since(a.startTime)
}
