package director

import (
	"time"

	"github.com/rs/zerolog"
)

// DefaultMaxSleepChunk bounds how long a single wait iteration sleeps before
// re-checking for cancellation or a newly scheduled, earlier callback. The
// original implementation hardcoded one hour to avoid duration-overflow on
// very large waits; it is exposed here as a tunable instead.
const DefaultMaxSleepChunk = time.Hour

// Option configures a Director at construction time.
type Option func(*Director)

// WithLogger attaches a structured logger used for logical-clock trace
// output (one Debug entry per executed instant).
func WithLogger(logger zerolog.Logger) Option {
	return func(d *Director) { d.logger = logger }
}

// WithMaxSleepChunk overrides DefaultMaxSleepChunk.
func WithMaxSleepChunk(chunk time.Duration) Option {
	return func(d *Director) {
		if chunk > 0 {
			d.maxSleepChunk = chunk
		}
	}
}
