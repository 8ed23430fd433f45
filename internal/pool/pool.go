// Package pool provides pooled timers used by the simulation runners.
package pool

import (
	"sync"
	"time"
)

var timers = sync.Pool{
	New: func() any {
		t := time.NewTimer(time.Hour)
		t.Stop()
		return t
	},
}

// GetTimer returns a stopped timer from the pool armed for d.
//
// Return the timer to the pool with PutTimer.
func GetTimer(d time.Duration) *time.Timer {
	t, _ := timers.Get().(*time.Timer)
	t.Reset(d)
	return t
}

// PutTimer stops t, drains a pending tick and returns it to the pool.
// t cannot be accessed afterwards.
func PutTimer(t *time.Timer) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	timers.Put(t)
}
