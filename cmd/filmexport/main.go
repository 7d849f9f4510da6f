// cmd/filmexport/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/law-makers/filmexport/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	// The first signal cancels the run so the browser is shut down cleanly.
	// Restoring the default handler lets a second one kill the process.
	go func() {
		<-ctx.Done()
		stop()
		log.Warn().Msg("Interrupt received, shutting down gracefully (press Ctrl-C again to force)")
	}()

	os.Exit(cli.Execute(ctx))
}
