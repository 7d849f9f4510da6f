package config

import "time"

// Default constants for application configuration
const (
	DefaultLogLevel    = "info"
	DefaultJSONLog     = false
	DefaultEngine      = "dynamic"
	DefaultHeadless    = true
	DefaultStealth     = true
	DefaultPageTimeout = 60 * time.Second

	// DefaultStaticRateLimitRPS is the request ceiling of the HTTP engine; page
	// pacing is applied on top of it
	DefaultStaticRateLimitRPS   = 1.0
	DefaultStaticRateLimitBurst = 1

	DefaultPageCount      = 1000
	DefaultOutputFile     = "filmaffinity-to-letterboxd-result.csv"
	DefaultOutputFormat   = "csv"
	DefaultSaveOnFailure  = true
	DefaultCaptureTimeout = 5 * time.Minute
	DefaultShutdownGrace  = 10 * time.Second
)

// Environment variables read by Load
const (
	EnvUserAgent  = "FILMEXPORT_USER_AGENT"
	EnvProxy      = "FILMEXPORT_PROXY"
	EnvChromePath = "FILMEXPORT_CHROME_PATH"
	EnvBaseURL    = "FILMEXPORT_BASE_URL"
	EnvEngine     = "FILMEXPORT_ENGINE"
)
