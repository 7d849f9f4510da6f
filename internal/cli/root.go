// internal/cli/root.go
package cli

import (
	"context"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/law-makers/filmexport/internal/app"
	"github.com/law-makers/filmexport/internal/config"
	"github.com/law-makers/filmexport/internal/ui"
)

// Version is overridden at build time with -ldflags "-X ...cli.Version=..."
var Version = "0.1.0"

// newRootCmd builds the command tree
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "filmexport",
		Short: "Export FilmAffinity ratings to a Letterboxd import file",
		Long: `Filmexport walks the public ratings pages of a FilmAffinity user and writes
every rated film as a Letterboxd CSV (Title, Year, Directors, Rating10).

Pages are rendered in headless Chrome by default. Use --engine=static to fetch
them over plain HTTP, and a saved session when the site asks for a challenge.`,
		Version:       Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		// Configuration is resolved lazily so -h/--version never touch the environment
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd)
			if err != nil {
				return err
			}
			if !ui.IsTerminal(os.Stdout) || os.Getenv("NO_COLOR") != "" {
				ui.Plain = true
			}
			app.SetupLogging(cfg, os.Stderr)
			SetConfig(cmd, cfg)

			log.Debug().
				Str("engine", cfg.Engine).
				Str("base_url", cfg.BaseURL).
				Dur("page_timeout", cfg.PageTimeout).
				Msg("Configuration loaded")
			return nil
		},
	}

	config.RegisterFlags(rootCmd)

	rootCmd.Flags().BoolP("help", "h", false, "Help for filmexport")
	rootCmd.Flags().Bool("version", false, "Version for filmexport")
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.SetHelpFunc(helpFunc)
	rootCmd.SetUsageFunc(usageFunc)

	rootCmd.AddCommand(newRatingsCmd())
	rootCmd.AddCommand(newSessionCmd())
	return rootCmd
}

// Execute runs the CLI and returns the process exit code
func Execute(ctx context.Context) int {
	return run(ctx, newRootCmd(), os.Args[1:])
}

// run executes cmd. Any returned error, a failed or partially saved export included,
// is logged once and exits 1.
func run(ctx context.Context, cmd *cobra.Command, args []string) int {
	cmd.SetArgs(args)
	if err := cmd.ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("Command failed")
		return 1
	}
	return 0
}
