package ratelimit

import (
	"context"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"
)

// Default pacing bounds, in whole units of DefaultPaceUnit
const (
	DefaultPaceMin  = 1
	DefaultPaceMax  = 3
	DefaultPaceUnit = time.Second
)

// RandomPacer sleeps for a whole number of units drawn uniformly from [Min, Max]
// between pages, to look less like a bot
type RandomPacer struct {
	min   int
	max   int
	unit  time.Duration
	rng   *rand.Rand
	sleep func(ctx context.Context, d time.Duration) error
}

// NewRandomPacer creates a pacer over [min, max] units. Bounds are swapped if
// reversed and clamped to be non-negative.
func NewRandomPacer(min, max int, unit time.Duration) *RandomPacer {
	if min < 0 {
		min = 0
	}
	if max < min {
		min, max = max, min
		if min < 0 {
			min = 0
		}
	}
	if unit <= 0 {
		unit = DefaultPaceUnit
	}

	return &RandomPacer{
		min:   min,
		max:   max,
		unit:  unit,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
		sleep: sleepContext,
	}
}

// NewDefaultPacer creates the 1-3 second pacer
func NewDefaultPacer() *RandomPacer {
	return NewRandomPacer(DefaultPaceMin, DefaultPaceMax, DefaultPaceUnit)
}

// Next draws the next delay without sleeping
func (p *RandomPacer) Next() time.Duration {
	n := p.min + p.rng.Intn(p.max-p.min+1)
	return time.Duration(n) * p.unit
}

// Pace blocks for the next delay or until ctx is done
func (p *RandomPacer) Pace(ctx context.Context) error {
	d := p.Next()
	log.Debug().Dur("delay", d).Msg("Pacing before next page")
	return p.sleep(ctx, d)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if ctx == nil {
		ctx = context.Background()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
