// Package datalink implements the link controller: the link state machine,
// the flow-control credit accountant and the recovery procedure.
//
// Each component is a small value type with a Next method computing its
// next state from the current state and one tick of inputs. Next never
// mutates the receiver, so an orchestrator can evaluate every component
// against the same committed state before committing any of them.
package datalink

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Reference delays of the link state machine.
const (
	DefaultFullDelay = 12800 * time.Nanosecond
	DefaultHalfDelay = DefaultFullDelay / 2
)

var ErrDelayTooShort = errors.New("datalink: delay too short for tick rate")

// DelayTicks converts d into a number of ticks at rate ticks per second,
// rounding down so the delay elapses at most after d. It fails when the
// result is below minTicks.
func DelayTicks(rate float64, d time.Duration, minTicks int) (int, error) {
	if rate <= 0 {
		return 0, fmt.Errorf("datalink: invalid tick rate %v", rate)
	}
	// the epsilon absorbs float error on exact multiples such as 12.8µs at 20MHz
	ticks := int(math.Floor(rate*d.Seconds() + 1e-9))
	if ticks < minTicks {
		return 0, fmt.Errorf("%w: %v at %v Hz gives %d ticks, want at least %d",
			ErrDelayTooShort, d, rate, ticks, minTicks)
	}

	return ticks, nil
}

// Delay is a saturating tick counter with a half and a full threshold.
type Delay struct {
	elapsed int
	half    int
	full    int
}

// NewDelay creates a stopped counter with the given thresholds in ticks.
func NewDelay(half, full int) Delay {
	return Delay{half: half, full: full}
}

// Advance counts one tick, saturating at the full threshold.
func (d Delay) Advance() Delay {
	if d.elapsed < d.full {
		d.elapsed++
	}
	return d
}

// Restart clears the counter.
func (d Delay) Restart() Delay {
	d.elapsed = 0
	return d
}

func (d Delay) Elapsed() int { return d.elapsed }

func (d Delay) HalfElapsed() bool { return d.elapsed >= d.half }

func (d Delay) FullElapsed() bool { return d.elapsed >= d.full }

func (d Delay) Half() int { return d.half }

func (d Delay) Full() int { return d.full }
