// internal/cli/session.go
package cli

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/law-makers/filmexport/internal/auth"
	"github.com/law-makers/filmexport/internal/config"
	"github.com/law-makers/filmexport/internal/engine/dynamic"
	"github.com/law-makers/filmexport/internal/ui"
	urlutil "github.com/law-makers/filmexport/internal/utils/url"
)

const rule = "──────────────────────────────────────────────────"

func newSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Manage saved browser sessions",
		Long: `Capture, import, list, and delete saved sessions.

A session holds the cookies of a browser that already passed the site's
anti-bot challenge. Pass it to "ratings --session <name>" to reuse them.
Sessions are kept in the OS keyring, or under ~/.filmexport/sessions when
no keyring is available.`,
		Example: `  # Open a browser, pass the challenge, press Enter
  filmexport session capture fa

  # Import cookies exported from a browser extension
  filmexport session import fa --format netscape < cookies.txt

  # List and remove sessions
  filmexport session list
  filmexport session delete fa`,
	}

	cmd.AddCommand(newSessionCaptureCmd())
	cmd.AddCommand(newSessionImportCmd())
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List saved sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			return listSessions(cmd.OutOrStdout(), store, time.Now())
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "view <name>",
		Short: "Show the details of a saved session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			return viewSession(cmd.OutOrStdout(), store, args[0], time.Now())
		},
	})
	cmd.AddCommand(newSessionDeleteCmd())
	return cmd
}

func newSessionCaptureCmd() *cobra.Command {
	var url string

	cmd := &cobra.Command{
		Use:   "capture <name>",
		Short: "Open a browser, pass the challenge, and save its cookies",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := GetConfig(cmd)
			if url == "" {
				url = urlutil.Origin(cfg.BaseURL) + "/en/"
			}
			if err := urlutil.ValidateURL(url); err != nil {
				return err
			}

			store, err := openStore()
			if err != nil {
				return err
			}

			session, err := auth.Capture(cmd.Context(), auth.CaptureOptions{
				SessionName: args[0],
				URL:         url,
				ChromePath:  dynamic.FindChrome(cfg.ChromePath),
				UserAgent:   cfg.UserAgent,
				Proxy:       cfg.Proxy,
				Timeout:     config.DefaultCaptureTimeout,
				In:          cmd.InOrStdin(),
				Out:         cmd.OutOrStdout(),
			})
			if err != nil {
				return err
			}

			if err := store.Save(session); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\n%s Session %s saved with %d cookies (%s)\n",
				ui.Success("✓"), ui.Bold(session.Name), len(session.Cookies), store.Backend())
			return nil
		},
	}
	cmd.Flags().StringVar(&url, "url", "", "Page to open (defaults to the site's home page)")
	return cmd
}

func newSessionImportCmd() *cobra.Command {
	var (
		format    string
		url       string
		userAgent string
	)

	cmd := &cobra.Command{
		Use:   "import <name>",
		Short: "Import cookies from stdin as a session",
		Long: `Read cookies from stdin and save them as a session.

Two formats are accepted:
- json: an array of cookie objects, as written by most cookie export extensions
- netscape: the tab separated cookies.txt format used by curl and wget

Use --user-agent with the user agent of the browser the cookies came from,
since clearance cookies are usually bound to it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := GetConfig(cmd)
			if url == "" {
				url = urlutil.Origin(cfg.BaseURL)
			}

			store, err := openStore()
			if err != nil {
				return err
			}

			session, err := importSession(cmd.InOrStdin(), args[0], url, userAgent, auth.CookieFormat(format))
			if err != nil {
				return err
			}
			if err := store.Save(session); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s Imported %d cookies into session %s (%s)\n",
				ui.Success("✓"), len(session.Cookies), ui.Bold(session.Name), store.Backend())
			if session.Expired(time.Now()) {
				log.Warn().Str("session", session.Name).Msg("All imported cookies are already expired")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", string(auth.FormatJSON), "Cookie format: json or netscape")
	cmd.Flags().StringVar(&url, "url", "", "Site the cookies belong to")
	cmd.Flags().StringVar(&userAgent, "user-agent", "", "User agent of the browser the cookies came from")
	return cmd
}

func importSession(r io.Reader, name, url, userAgent string, format auth.CookieFormat) (*auth.Session, error) {
	cookies, err := auth.ParseCookies(r, format)
	if err != nil {
		return nil, fmt.Errorf("failed to read cookies: %w", err)
	}
	if len(cookies) == 0 {
		return nil, fmt.Errorf("no cookies found in input")
	}

	session := auth.NewSession(name, url, cookies)
	session.UserAgent = userAgent
	return session, nil
}

func newSessionDeleteCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a saved session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			out := cmd.OutOrStdout()

			if !yes && !confirm(cmd.InOrStdin(), out, fmt.Sprintf("Delete session '%s'? [y/N]: ", name)) {
				fmt.Fprintln(out, "Cancelled.")
				return nil
			}

			store, err := openStore()
			if err != nil {
				return err
			}
			if err := store.Delete(name); err != nil {
				return err
			}
			fmt.Fprintf(out, "%s Session '%s' deleted.\n", ui.Success("✓"), name)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

func confirm(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprint(out, prompt)
	answer, _ := bufio.NewReader(in).ReadString('\n')
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

func listSessions(w io.Writer, store *auth.Store, now time.Time) error {
	names, err := store.List()
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	if len(names) == 0 {
		fmt.Fprintln(w, "No saved sessions.")
		fmt.Fprintf(w, "Create one with: %s\n", ui.Info("filmexport session capture <name>"))
		return nil
	}

	fmt.Fprintf(w, "\n%s\n%s\n", ui.Bold(fmt.Sprintf("Saved sessions (%d)", len(names))), ui.Dim(rule))
	for _, name := range names {
		session, err := store.Load(name)
		if session == nil {
			fmt.Fprintf(w, "  %s  %s\n", name, ui.Error(err.Error()))
			continue
		}
		fmt.Fprintf(w, "  %s  %s  %s\n", ui.Bold(name), ui.Dim(fmt.Sprintf("%d cookies", len(session.Cookies))), status(session, now))
	}
	fmt.Fprintln(w)
	return nil
}

func viewSession(w io.Writer, store *auth.Store, name string, now time.Time) error {
	session, err := store.Load(name)
	if session == nil {
		return err
	}

	fmt.Fprintf(w, "\n%s\n%s\n", ui.Bold("Session "+session.Name), ui.Dim(rule))
	fmt.Fprintf(w, "URL:        %s\n", session.URL)
	fmt.Fprintf(w, "Created:    %s\n", session.CreatedAt.Format(time.RFC1123))
	if session.UserAgent != "" {
		fmt.Fprintf(w, "User agent: %s\n", session.UserAgent)
	}
	fmt.Fprintf(w, "Status:     %s\n", status(session, now))

	fmt.Fprintf(w, "\nCookies (%d):\n", len(session.Cookies))
	for _, c := range session.Cookies {
		fmt.Fprintf(w, "  • %s %s\n", c.Name, ui.Dim("("+c.Domain+")"))
	}

	if len(session.Headers) > 0 {
		keys := make([]string, 0, len(session.Headers))
		for k := range session.Headers {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		fmt.Fprintf(w, "\nHeaders (%d):\n", len(keys))
		for _, k := range keys {
			fmt.Fprintf(w, "  • %s: %s\n", k, session.Headers[k])
		}
	}
	fmt.Fprintln(w)
	return nil
}

func status(s *auth.Session, now time.Time) string {
	switch {
	case s.ExpiresAt.IsZero():
		return ui.Dim("no expiry")
	case s.Expired(now):
		return ui.Warn(fmt.Sprintf("expired %s ago", now.Sub(s.ExpiresAt).Round(time.Minute)))
	default:
		return ui.Success(fmt.Sprintf("valid for %s", s.ExpiresAt.Sub(now).Round(time.Minute)))
	}
}
