// Package tracker detects pool failover and recovery from the sequence of
// pool labels observed in traffic.
package tracker

import "github.com/bluegreen-ops/poolwatch/internal/logline"

// Failover is emitted when traffic moves off the previously observed pool
// onto a pool other than the designated primary. Fields are carried from the
// triggering log entry.
type Failover struct {
	Previous  string
	Current   string
	Release   string
	Upstream  string
	Timestamp string
}

// Recovery is emitted when traffic returns to the designated primary pool
// after having been away from it.
type Recovery struct {
	Pool string
}

// Tracker is a two-state machine over the last observed pool label: unset
// until the first valid observation, then tracking. It is owned by a single
// monitoring session. Sentinel pool labels must be filtered out before
// Observe is called.
type Tracker struct {
	primary  string
	lastSeen string // empty until the first observation
}

// New creates a Tracker with the given designated primary pool.
func New(primary string) *Tracker {
	return &Tracker{primary: primary}
}

// Primary returns the designated primary pool.
func (t *Tracker) Primary() string {
	return t.primary
}

// LastSeen returns the most recently observed pool, or empty before the
// first observation.
func (t *Tracker) LastSeen() string {
	return t.lastSeen
}

// Observe consumes one pool observation and reports at most one detection.
// The first observation only initializes state. A repeat of the current pool
// is a no-op. A transition onto the primary is classified as a Recovery; any
// other transition is a Failover. The previous pool is captured before the
// state is overwritten, so a Recovery can never be masked by the update that
// the transition itself performs.
func (t *Tracker) Observe(entry logline.Entry) (*Failover, *Recovery) {
	pool := entry.Pool

	if t.lastSeen == "" {
		t.lastSeen = pool
		return nil, nil
	}

	if pool == t.lastSeen {
		return nil, nil
	}

	previous := t.lastSeen
	t.lastSeen = pool

	if pool == t.primary {
		return nil, &Recovery{Pool: pool}
	}

	return &Failover{
		Previous:  previous,
		Current:   pool,
		Release:   entry.Release,
		Upstream:  entry.UpstreamAddr,
		Timestamp: entry.Timestamp,
	}, nil
}
