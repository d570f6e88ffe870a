// Package window implements the sliding window of recent status codes used
// to compute a rolling error rate.
package window

// errorThreshold is the first status code counted as a server error.
const errorThreshold = 500

// Window is a fixed-capacity circular buffer of HTTP status codes with FIFO
// eviction. It is owned by a single monitoring session and is not safe for
// concurrent use.
type Window struct {
	statuses []int
	capacity int
	head     int // next write position
	full     bool
	errors   int // count of statuses >= errorThreshold currently buffered
}

// New creates a window holding the most recent capacity status codes.
// capacity must be positive; configuration validation enforces that before
// a session starts.
func New(capacity int) *Window {
	return &Window{
		statuses: make([]int, capacity),
		capacity: capacity,
	}
}

// Push records a status code, evicting the oldest when at capacity.
func (w *Window) Push(status int) {
	if w.full {
		if w.statuses[w.head] >= errorThreshold {
			w.errors--
		}
	}
	w.statuses[w.head] = status
	if status >= errorThreshold {
		w.errors++
	}
	w.head = (w.head + 1) % w.capacity
	if w.head == 0 {
		w.full = true
	}
}

// Len returns the number of buffered status codes.
func (w *Window) Len() int {
	if w.full {
		return w.capacity
	}
	return w.head
}

// Cap returns the window capacity.
func (w *Window) Cap() int {
	return w.capacity
}

// Errors returns the number of buffered server-error statuses.
func (w *Window) Errors() int {
	return w.errors
}

// ErrorRate returns the percentage of buffered statuses that are server
// errors (>= 500). It reports false until the window has filled once, so a
// handful of early requests cannot produce a statistically noisy reading.
func (w *Window) ErrorRate() (float64, bool) {
	if !w.full {
		return 0, false
	}
	return float64(w.errors) / float64(w.capacity) * 100, true
}
