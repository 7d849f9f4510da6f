// Package runctx attaches a run identity to a context so every log line of one
// scrape run can be correlated.
package runctx

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type key int

const runKey key = 0

// Run identifies one scrape run
type Run struct {
	ID        string
	StartTime time.Time
}

// WithRun returns a context carrying a fresh Run
func WithRun(ctx context.Context) context.Context {
	return context.WithValue(ctx, runKey, &Run{
		ID:        generateID(),
		StartTime: time.Now(),
	})
}

// FromContext returns the Run stored in ctx, or a placeholder
func FromContext(ctx context.Context) *Run {
	if ctx != nil {
		if r, ok := ctx.Value(runKey).(*Run); ok {
			return r
		}
	}
	return &Run{
		ID:        "unknown",
		StartTime: time.Now(),
	}
}

// Logger returns the global logger annotated with the run ID of ctx
func Logger(ctx context.Context) zerolog.Logger {
	return log.Logger.With().Str("run_id", FromContext(ctx).ID).Logger()
}

func generateID() string {
	b := make([]byte, 6)
	rand.Read(b)
	return hex.EncodeToString(b)
}
