package batch

import (
	"sync"
	"sync/atomic"
)

// ActiveCounter counts jobs currently executing. It is used for observability
// only; admission is controlled by the scheduler's semaphore.
type ActiveCounter struct {
	current atomic.Int64
	peak    atomic.Int64
}

// Enter increments the counter and returns the matching release func.
// Calling release more than once has no further effect.
func (c *ActiveCounter) Enter() (release func()) {
	n := c.current.Add(1)
	for {
		peak := c.peak.Load()
		if n <= peak || c.peak.CompareAndSwap(peak, n) {
			break
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			c.current.Add(-1)
		})
	}
}

// Current returns the number of jobs in flight
func (c *ActiveCounter) Current() int64 {
	return c.current.Load()
}

// Peak returns the highest number of jobs ever in flight at once
func (c *ActiveCounter) Peak() int64 {
	return c.peak.Load()
}
