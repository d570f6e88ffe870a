package alert

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// DispatcherConfig configures the alert dispatch policy.
type DispatcherConfig struct {
	// Sink delivers alerts. nil disables delivery entirely.
	Sink Sink
	// Cooldown is the minimum interval between two delivered alerts of the
	// same type.
	Cooldown time.Duration
	// Maintenance suppresses all delivery while leaving detection running.
	Maintenance bool
	// History records dispatch outcomes. Optional.
	History Recorder
}

// Dispatcher applies the notification policy: maintenance suppression first,
// then per-type cooldown, then a synchronous sink call. The cooldown table
// is only updated after a successful delivery, so a failed send stays
// eligible for immediate retry on the next triggering condition.
type Dispatcher struct {
	sink        Sink
	cooldown    time.Duration
	maintenance bool
	history     Recorder

	mu       sync.Mutex
	lastSent map[string]time.Time
}

// NewDispatcher creates a Dispatcher with the given config.
func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	return &Dispatcher{
		sink:        cfg.Sink,
		cooldown:    cfg.Cooldown,
		maintenance: cfg.Maintenance,
		history:     cfg.History,
		lastSent:    make(map[string]time.Time),
	}
}

// Dispatch attempts to deliver one alert and reports whether it reached the
// sink. Every branch leaves a local log line; suppressed and failed alerts
// are observable nowhere else.
func (d *Dispatcher) Dispatch(ctx context.Context, alertType, message string, details []Detail) bool {
	a := Alert{
		Type:      alertType,
		Message:   message,
		Details:   details,
		Timestamp: time.Now(),
	}

	if d.sink == nil {
		log.Warn().Str("alert", alertType).Msg("no alert sink configured, alert dropped")
		d.record(a, OutcomeNoSink)
		return false
	}

	if d.maintenance {
		log.Info().Str("alert", alertType).Msg("maintenance mode, alert suppressed")
		d.record(a, OutcomeMaintenance)
		return false
	}

	d.mu.Lock()
	last, seen := d.lastSent[alertType]
	d.mu.Unlock()
	if seen {
		if remaining := d.cooldown - time.Since(last); remaining > 0 {
			log.Info().
				Str("alert", alertType).
				Dur("remaining", remaining).
				Msg("alert cooldown active, skipping")
			d.record(a, OutcomeCooldown)
			return false
		}
	}

	if err := d.sink.Send(ctx, a); err != nil {
		log.Error().Err(err).Str("alert", alertType).Msg("alert delivery failed")
		d.record(a, OutcomeFailed)
		return false
	}

	d.mu.Lock()
	d.lastSent[alertType] = time.Now()
	d.mu.Unlock()

	log.Info().Str("alert", alertType).Msg("alert delivered")
	d.record(a, OutcomeDelivered)
	return true
}

// LastSent returns the last successful dispatch time for an alert type.
func (d *Dispatcher) LastSent(alertType string) (time.Time, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	t, ok := d.lastSent[alertType]
	return t, ok
}

func (d *Dispatcher) record(a Alert, outcome Outcome) {
	if d.history == nil {
		return
	}
	if err := d.history.Record(a, outcome); err != nil {
		log.Warn().Err(err).Str("alert", a.Type).Msg("failed to record alert history")
	}
}
