package api

import (
	"time"
)

// HealthResponse represents health check response
type HealthResponse struct {
	Status string `json:"status"`
}

// ReadyResponse represents readiness check response
type ReadyResponse struct {
	Ready   bool     `json:"ready"`
	Reasons []string `json:"reasons,omitempty"`
}

// StatusResponse represents the current monitoring session state
type StatusResponse struct {
	PrimaryPool      string    `json:"primaryPool"`
	LastSeenPool     string    `json:"lastSeenPool,omitempty"`
	MaintenanceMode  bool      `json:"maintenanceMode"`
	LinesSeen        int64     `json:"linesSeen"`
	LinesSkipped     int64     `json:"linesSkipped"`
	WindowFill       int       `json:"windowFill"`
	WindowSize       int       `json:"windowSize"`
	ErrorRate        *float64  `json:"errorRate,omitempty"` // nil until the window is full
	AlertsDelivered  int64     `json:"alertsDelivered"`
	AlertsSuppressed int64     `json:"alertsSuppressed"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// AlertDetail is one label/value pair attached to an alert
type AlertDetail struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// AlertRecordResponse represents one dispatched alert from the history log
type AlertRecordResponse struct {
	ID        int64         `json:"id"`
	Type      string        `json:"type"`
	Message   string        `json:"message"`
	Outcome   string        `json:"outcome"`
	Details   []AlertDetail `json:"details,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
	CreatedAt time.Time     `json:"createdAt"`
}

// AlertsResponse represents a page of alert history
type AlertsResponse struct {
	Alerts []AlertRecordResponse `json:"alerts"`
	Total  int                   `json:"total"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}
