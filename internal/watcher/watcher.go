// Package watcher runs the monitoring session: it pulls lines from the log
// source, feeds the window and the pool tracker, and triggers the alert
// dispatcher when a condition is detected.
package watcher

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/bluegreen-ops/poolwatch/internal/alert"
	"github.com/bluegreen-ops/poolwatch/internal/config"
	"github.com/bluegreen-ops/poolwatch/internal/logline"
	"github.com/bluegreen-ops/poolwatch/internal/tracker"
	"github.com/bluegreen-ops/poolwatch/internal/window"
)

// Alert type labels, stable because they key the cooldown table.
const (
	AlertFailover  = "Failover Detected"
	AlertErrorRate = "High Error Rate"
	AlertRecovery  = "Recovery Detected"
)

// Watcher owns all mutable state for one monitoring session: the sliding
// window, the pool tracker, and the dispatch counters. It is driven by a
// single goroutine.
type Watcher struct {
	cfg        config.Config
	window     *window.Window
	tracker    *tracker.Tracker
	dispatcher *alert.Dispatcher
	status     *StatusCache

	linesSeen    int64
	linesSkipped int64
	delivered    int64
	suppressed   int64
}

// New creates a Watcher for one session.
func New(cfg config.Config, dispatcher *alert.Dispatcher) *Watcher {
	return &Watcher{
		cfg:        cfg,
		window:     window.New(cfg.WindowSize),
		tracker:    tracker.New(cfg.ActivePool),
		dispatcher: dispatcher,
		status:     NewStatusCache(cfg.ActivePool, cfg.MaintenanceMode, cfg.WindowSize),
	}
}

// Status returns the cache the session publishes snapshots into.
func (w *Watcher) Status() *StatusCache {
	return w.status
}

// Run consumes lines until the source closes or ctx is cancelled. A cancel
// is honored between lines, never mid-dispatch, so an in-flight alert
// either fully completes or fully fails before Run returns.
func (w *Watcher) Run(ctx context.Context, lines <-chan string) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			w.processLine(ctx, line)
		}
	}
}

func (w *Watcher) processLine(ctx context.Context, line string) {
	w.linesSeen++
	defer w.publish()

	entry, ok := logline.Parse(line)
	if !ok {
		log.Trace().Str("line", line).Msg("unparseable line skipped")
		w.linesSkipped++
		return
	}

	// No pool label means the entry carries no traffic attribution: it
	// neither enters the window nor reaches the tracker.
	if entry.Pool == logline.Missing {
		w.linesSkipped++
		return
	}

	w.window.Push(entry.Status)

	failover, recovery := w.tracker.Observe(entry)
	if failover != nil {
		log.Warn().
			Str("previous", failover.Previous).
			Str("current", failover.Current).
			Msg("failover detected")
		w.count(w.dispatchFailover(ctx, failover))
	}

	if rate, full := w.window.ErrorRate(); full && rate > w.cfg.ErrorRateThreshold {
		log.Warn().
			Float64("rate", rate).
			Int("errors", w.window.Errors()).
			Int("window", w.window.Cap()).
			Msg("high error rate")
		w.count(w.dispatchErrorRate(ctx, rate))
	}

	if recovery != nil {
		log.Info().Str("pool", recovery.Pool).Msg("recovery detected")
		w.count(w.dispatchRecovery(ctx, recovery))
	}

	if entry.Status >= 500 {
		log.Debug().
			Int("status", entry.Status).
			Str("pool", entry.Pool).
			Str("uri", entry.URI).
			Msg("server error observed")
	}
}

func (w *Watcher) dispatchFailover(ctx context.Context, f *tracker.Failover) bool {
	return w.dispatcher.Dispatch(ctx, AlertFailover,
		fmt.Sprintf("Traffic has switched from *%s* to *%s*", f.Previous, f.Current),
		[]alert.Detail{
			{Label: "Previous Pool", Value: f.Previous},
			{Label: "Current Pool", Value: f.Current},
			{Label: "Release", Value: f.Release},
			{Label: "Upstream", Value: f.Upstream},
			{Label: "Timestamp", Value: f.Timestamp},
		})
}

func (w *Watcher) dispatchErrorRate(ctx context.Context, rate float64) bool {
	return w.dispatcher.Dispatch(ctx, AlertErrorRate,
		fmt.Sprintf("Error rate has exceeded threshold: *%.2f%%*", rate),
		[]alert.Detail{
			{Label: "Error Rate", Value: fmt.Sprintf("%.2f%%", rate)},
			{Label: "Threshold", Value: fmt.Sprintf("%g%%", w.cfg.ErrorRateThreshold)},
			{Label: "Errors", Value: fmt.Sprintf("%d", w.window.Errors())},
			{Label: "Window Size", Value: fmt.Sprintf("%d", w.window.Cap())},
			{Label: "Action", Value: "Check upstream container logs"},
		})
}

func (w *Watcher) dispatchRecovery(ctx context.Context, r *tracker.Recovery) bool {
	return w.dispatcher.Dispatch(ctx, AlertRecovery,
		fmt.Sprintf("Primary pool *%s* has recovered and is serving traffic", r.Pool),
		[]alert.Detail{
			{Label: "Recovered Pool", Value: r.Pool},
			{Label: "Status", Value: "Healthy"},
			{Label: "Action", Value: "No action required"},
		})
}

func (w *Watcher) count(delivered bool) {
	if delivered {
		w.delivered++
	} else {
		w.suppressed++
	}
}

func (w *Watcher) publish() {
	rate, valid := w.window.ErrorRate()
	w.status.Set(Status{
		LinesSeen:        w.linesSeen,
		LinesSkipped:     w.linesSkipped,
		WindowFill:       w.window.Len(),
		WindowSize:       w.window.Cap(),
		ErrorRate:        rate,
		ErrorRateValid:   valid,
		LastSeenPool:     w.tracker.LastSeen(),
		PrimaryPool:      w.tracker.Primary(),
		MaintenanceMode:  w.cfg.MaintenanceMode,
		AlertsDelivered:  w.delivered,
		AlertsSuppressed: w.suppressed,
		UpdatedAt:        time.Now(),
	})
}
