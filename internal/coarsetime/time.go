// Package coarsetime provides a clock updated every 50ms by a background
// goroutine, for timestamps read on every pool acquire and release.
package coarsetime

import (
	"sync/atomic"
	"time"
)

// Resolution is the update interval of Now.
const Resolution = 50 * time.Millisecond

var now atomic.Pointer[time.Time]

func init() {
	store(time.Now())

	ticker := time.NewTicker(Resolution)
	go func() {
		for t := range ticker.C {
			store(t)
		}
	}()
}

func store(t time.Time) {
	now.Store(&t)
}

// Now returns the current time, at most Resolution old.
func Now() time.Time {
	return *now.Load()
}

// Since is time.Since on the coarse clock.
func Since(t time.Time) time.Duration {
	return Now().Sub(t)
}
