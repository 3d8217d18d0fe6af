package clock

import (
	"time"

	"go.uber.org/atomic"
)

// Resolution is the wall-clock length of one Tick.
const Resolution = time.Minute

// Tick is a coarse epoch time: whole minutes since the Unix epoch.
// All expiration arithmetic is done in ticks.
type Tick int64

// Clock returns the current tick. Two calls less than one Resolution apart
// may return the same tick.
type Clock interface {
	Now() Tick
}

// TickOf converts a wall-clock time to its tick.
func TickOf(t time.Time) Tick {
	ms := t.UnixMilli()
	unit := Resolution.Milliseconds()
	// floor, also for instants before the epoch
	q := ms / unit
	if ms%unit < 0 {
		q--
	}
	return Tick(q)
}

// Time returns the wall-clock instant at which the tick starts.
func (t Tick) Time() time.Time {
	return time.UnixMilli(int64(t) * Resolution.Milliseconds())
}

type system struct{}

// System is the wall clock.
var System Clock = system{}

func (system) Now() Tick {
	return TickOf(time.Now())
}

// Fixed always reports the same tick.
type Fixed Tick

func (f Fixed) Now() Tick {
	return Tick(f)
}

// Manual is a settable clock for tests. It is safe for concurrent use.
type Manual struct {
	now *atomic.Int64
}

func NewManual(start Tick) *Manual {
	return &Manual{now: atomic.NewInt64(int64(start))}
}

func (m *Manual) Now() Tick {
	return Tick(m.now.Load())
}

func (m *Manual) Set(t Tick) {
	m.now.Store(int64(t))
}

// Advance moves the clock forward by d ticks (backwards when d is negative).
func (m *Manual) Advance(d int64) Tick {
	return Tick(m.now.Add(d))
}
