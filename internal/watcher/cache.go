package watcher

import (
	"sync"
	"time"
)

// Status is a point-in-time snapshot of one monitoring session.
type Status struct {
	LinesSeen        int64
	LinesSkipped     int64
	WindowFill       int
	WindowSize       int
	ErrorRate        float64
	ErrorRateValid   bool
	LastSeenPool     string
	PrimaryPool      string
	MaintenanceMode  bool
	AlertsDelivered  int64
	AlertsSuppressed int64
	UpdatedAt        time.Time
}

// StatusCache is the thread-safe boundary between the stream loop, which
// writes a snapshot per processed line, and the status API, which reads.
type StatusCache struct {
	mu     sync.RWMutex
	status Status
}

// NewStatusCache creates a cache seeded with the session's fixed fields.
func NewStatusCache(primary string, maintenance bool, windowSize int) *StatusCache {
	return &StatusCache{
		status: Status{
			PrimaryPool:     primary,
			MaintenanceMode: maintenance,
			WindowSize:      windowSize,
		},
	}
}

// Set stores a snapshot.
func (c *StatusCache) Set(s Status) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.status = s
}

// Get retrieves the latest snapshot.
func (c *StatusCache) Get() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.status
}
