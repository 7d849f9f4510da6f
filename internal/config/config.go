package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	urlutil "github.com/law-makers/filmexport/internal/utils/url"
)

// Config holds application configuration values
type Config struct {
	// Logging
	LogLevel string
	JSONLog  bool

	// Navigation
	Engine      string
	BaseURL     string
	PageTimeout time.Duration
	UserAgent   string
	Proxy       string

	// Browser
	Headless   bool
	Stealth    bool
	ChromePath string

	// Rate Limiting
	StaticRateLimitRPS   float64
	StaticRateLimitBurst int
}

// Default returns the configuration used when nothing overrides it
func Default() *Config {
	return &Config{
		LogLevel:             DefaultLogLevel,
		JSONLog:              DefaultJSONLog,
		Engine:               DefaultEngine,
		BaseURL:              urlutil.DefaultBaseURL,
		PageTimeout:          DefaultPageTimeout,
		Headless:             DefaultHeadless,
		Stealth:              DefaultStealth,
		StaticRateLimitRPS:   DefaultStaticRateLimitRPS,
		StaticRateLimitBurst: DefaultStaticRateLimitBurst,
	}
}

// Load builds a Config by combining defaults, environment variables, and CLI flags,
// in increasing order of precedence. Caller should pass the executing *cobra.Command
// so inherited flags can be read.
func Load(cmd *cobra.Command) (*Config, error) {
	cfg := Default()

	if v := os.Getenv(EnvUserAgent); v != "" {
		cfg.UserAgent = v
	}
	if v := os.Getenv(EnvProxy); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv(EnvChromePath); v != "" {
		cfg.ChromePath = v
	}
	if v := os.Getenv(EnvBaseURL); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv(EnvEngine); v != "" {
		cfg.Engine = v
	}

	if cmd != nil {
		flags := cmd.Flags()

		stringFlag := func(name string, dst *string) {
			if f := flags.Lookup(name); f != nil && f.Changed {
				*dst = f.Value.String()
			}
		}
		boolFlag := func(name string) bool {
			f := flags.Lookup(name)
			return f != nil && f.Value.String() == "true"
		}

		stringFlag("user-agent", &cfg.UserAgent)
		stringFlag("proxy", &cfg.Proxy)
		stringFlag("chrome-path", &cfg.ChromePath)
		stringFlag("base-url", &cfg.BaseURL)
		stringFlag("engine", &cfg.Engine)

		if f := flags.Lookup("timeout"); f != nil && f.Changed {
			d, err := time.ParseDuration(f.Value.String())
			if err != nil {
				return nil, fmt.Errorf("invalid timeout %q: %w", f.Value.String(), err)
			}
			cfg.PageTimeout = d
		}

		if boolFlag("headful") {
			cfg.Headless = false
		}
		if boolFlag("no-stealth") {
			cfg.Stealth = false
		}
		if boolFlag("json") {
			cfg.JSONLog = true
		}
		if boolFlag("quiet") {
			cfg.LogLevel = "error"
		}
		if boolFlag("verbose") {
			cfg.LogLevel = "debug"
		}
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}
