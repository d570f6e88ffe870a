// Package alert turns detected conditions into delivered notifications. The
// dispatcher applies the suppression and cooldown policy; sinks carry the
// final payload to an external service.
package alert

import (
	"context"
	"time"
)

// Detail is one display pair attached to an alert. Order is preserved all
// the way to the sink payload.
type Detail struct {
	Label string
	Value string
}

// Alert is a transient notification: constructed, dispatched, discarded.
type Alert struct {
	Type      string
	Message   string
	Details   []Detail
	Timestamp time.Time
}

// Sink delivers an alert payload to an external service. Send must respect
// ctx and return an error on any transport failure or non-success response.
type Sink interface {
	Send(ctx context.Context, a Alert) error
}

// Outcome describes what happened to a dispatch attempt.
type Outcome string

const (
	OutcomeDelivered   Outcome = "delivered"
	OutcomeNoSink      Outcome = "no_sink"
	OutcomeMaintenance Outcome = "maintenance"
	OutcomeCooldown    Outcome = "cooldown"
	OutcomeFailed      Outcome = "failed"
)

// Recorder persists dispatch outcomes. Implementations must not block the
// dispatch path for long; failures are logged and otherwise ignored.
type Recorder interface {
	Record(a Alert, outcome Outcome) error
}
