package config

import (
	"fmt"
	"net/url"

	urlutil "github.com/law-makers/filmexport/internal/utils/url"
)

func validate(c *Config) error {
	switch c.Engine {
	case "dynamic", "static":
	default:
		return fmt.Errorf("engine must be dynamic or static, got %q", c.Engine)
	}
	if c.PageTimeout < 0 {
		return fmt.Errorf("page timeout must be >= 0")
	}
	if err := urlutil.ValidateURL(c.BaseURL); err != nil {
		return fmt.Errorf("base url: %w", err)
	}
	if c.Proxy != "" {
		u, err := url.Parse(c.Proxy)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("proxy must be a URL such as http://host:port, got %q", c.Proxy)
		}
	}
	if c.StaticRateLimitRPS <= 0 || c.StaticRateLimitBurst <= 0 {
		return fmt.Errorf("static rate limit must be > 0")
	}
	return nil
}
