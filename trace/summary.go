package trace

import (
	"fmt"
	"strings"

	"github.com/arloliu/go-spw/spw"
)

// Summary condenses a trace.
type Summary struct {
	// Ticks is the number of ticks the trace covers.
	Ticks uint64
	// FirstRun is the tick the link first entered Run, zero if it never did.
	FirstRun uint64
	// Resets counts the entries into ErrorReset after the first sample.
	Resets int
	// Recoveries counts the recovery procedures started.
	Recoveries int
	// Residency holds the ticks spent in each link state.
	Residency [spw.RunState + 1]uint64
	// Errors is the union of all recorded error flags.
	Errors spw.ErrorFlags
	// Final is the last state recorded.
	Final spw.LinkState
}

// Summarize walks the samples of t.
func (t *Trace) Summarize() Summary {
	sum := Summary{Ticks: t.Ticks}
	for i, s := range t.Samples {
		end := t.Ticks
		if i+1 < len(t.Samples) {
			end = t.Samples[i+1].Tick
		}
		if int(s.State) < len(sum.Residency) && end > s.Tick {
			sum.Residency[s.State] += end - s.Tick
		}
		sum.Errors |= s.Errors
		sum.Final = s.State

		if i == 0 {
			if s.State.IsRun() {
				sum.FirstRun = s.Tick
			}
			continue
		}
		prev := t.Samples[i-1]
		if s.State != prev.State {
			if s.State.IsErrorReset() {
				sum.Resets++
			}
			if s.State.IsRun() && sum.FirstRun == 0 {
				sum.FirstRun = s.Tick
			}
		}
		if prev.Recovery.IsNormal() && !s.Recovery.IsNormal() {
			sum.Recoveries++
		}
	}

	return sum
}

func (s Summary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "ticks=%d first_run=%d resets=%d recoveries=%d errors=%s final=%s",
		s.Ticks, s.FirstRun, s.Resets, s.Recoveries, s.Errors, s.Final)
	for st, n := range s.Residency {
		if n > 0 {
			fmt.Fprintf(&b, " %s=%d", spw.LinkState(st), n)
		}
	}

	return b.String()
}
