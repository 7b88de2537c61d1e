// Package debounce turns a rapidly changing input into at most one action
// per quiet period, with a generation counter so that results of superseded
// schedules can be discarded on arrival.
package debounce

import (
	"sync"
	"time"
)

// DefaultQuietPeriod is how long an input must remain unchanged before the
// scheduled action fires.
const DefaultQuietPeriod = 500 * time.Millisecond

// Predicate reports whether a settled value is ready to act on.
type Predicate func(value string) bool

// Action receives the settled value together with the generation it was
// scheduled under. Callers pass the generation back to Current before
// applying any result computed from the value.
type Action func(value string, gen uint64)

// Gate schedules at most one action per quiet period. The zero value is not
// usable; construct with New.
type Gate struct {
	mu    sync.Mutex
	quiet time.Duration
	timer *time.Timer
	gen   uint64
}

// New returns a Gate with the given quiet period. Non-positive durations
// fall back to DefaultQuietPeriod.
func New(quiet time.Duration) *Gate {
	if quiet <= 0 {
		quiet = DefaultQuietPeriod
	}
	return &Gate{quiet: quiet}
}

// Schedule restarts the quiet-period timer for value. When the timer elapses
// without a newer Schedule or Cancel, and ready(value) holds, action runs
// exactly once for that settled value. A burst of calls inside the quiet
// period yields a single invocation carrying the last value of the burst.
func (g *Gate) Schedule(value string, ready Predicate, action Action) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.gen++
	gen := g.gen
	if g.timer != nil {
		g.timer.Stop()
	}
	g.timer = time.AfterFunc(g.quiet, func() {
		g.mu.Lock()
		if g.gen != gen {
			// superseded while the timer was pending
			g.mu.Unlock()
			return
		}
		g.timer = nil
		g.mu.Unlock()
		if ready != nil && !ready(value) {
			return
		}
		action(value, gen)
	})
}

// Cancel stops any pending timer and invalidates all outstanding
// generations, guaranteeing that a superseded action never fires and that
// in-flight results are discarded by Current.
func (g *Gate) Cancel() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.gen++
	if g.timer != nil {
		g.timer.Stop()
		g.timer = nil
	}
}

// Current reports whether gen is still the most recent generation. Results
// computed under an older generation must not be applied.
func (g *Gate) Current(gen uint64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.gen == gen
}
