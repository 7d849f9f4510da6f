// Package cli provides the command-line interface of filmexport.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/law-makers/filmexport/internal/app"
	"github.com/law-makers/filmexport/internal/auth"
	"github.com/law-makers/filmexport/internal/config"
)

// ctxKey is used for storing values in the cobra command context
type ctxKey string

const configKey ctxKey = "config"

// Collaborators resolved at run time. Tests replace them.
var (
	openStore      = auth.DefaultStore
	newApplication = app.New
)

// SetConfig stores the resolved configuration in the command's context
func SetConfig(cmd *cobra.Command, cfg *config.Config) {
	if cmd == nil {
		return
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(context.WithValue(ctx, configKey, cfg))
}

// GetConfig retrieves the configuration stored by SetConfig. Commands run
// outside the root pre-run hook get the defaults.
func GetConfig(cmd *cobra.Command) *config.Config {
	if cmd != nil && cmd.Context() != nil {
		if cfg, ok := cmd.Context().Value(configKey).(*config.Config); ok && cfg != nil {
			return cfg
		}
	}
	return config.Default()
}
