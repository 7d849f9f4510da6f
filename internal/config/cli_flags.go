package config

import (
	"github.com/spf13/cobra"

	urlutil "github.com/law-makers/filmexport/internal/utils/url"
)

// RegisterFlags registers common CLI flags on the provided root command
func RegisterFlags(cmd *cobra.Command) {
	if cmd == nil {
		return
	}

	pf := cmd.PersistentFlags()
	pf.BoolP("verbose", "v", false, "Enable debug logging")
	pf.BoolP("quiet", "q", false, "Suppress all output except errors")
	pf.Bool("json", false, "Emit logs as JSON on stderr")
	pf.String("engine", DefaultEngine, "Page engine: dynamic (headless Chrome) or static (plain HTTP)")
	pf.String("proxy", "", "Set HTTP/SOCKS5 proxy (e.g., http://localhost:8080)")
	pf.String("timeout", DefaultPageTimeout.String(), "Timeout for loading a single page (0 disables it)")
	pf.String("user-agent", "", "Custom user agent string")
	pf.String("chrome-path", "", "Path to the Chrome/Chromium executable")
	pf.Bool("headful", false, "Show the browser window instead of running headless")
	pf.Bool("no-stealth", false, "Do not patch browser automation fingerprints")
	pf.String("base-url", urlutil.DefaultBaseURL, "Ratings listing URL")
	_ = pf.MarkHidden("base-url")
}
