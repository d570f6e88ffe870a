package storage

import (
	"time"

	"github.com/bluegreen-ops/poolwatch/internal/alert"
)

// AlertLog defines the interface for persisting alert dispatch history.
type AlertLog interface {
	// Record persists one dispatch outcome.
	Record(a alert.Alert, outcome alert.Outcome) error

	// Recent retrieves the most recent dispatch records, newest first.
	Recent(limit int) ([]AlertRecord, error)

	// Close closes the storage connection.
	Close() error
}

// AlertRecord is a single persisted dispatch outcome.
type AlertRecord struct {
	ID        int64
	Type      string
	Message   string
	Outcome   string
	Details   []alert.Detail
	Timestamp time.Time
	CreatedAt time.Time
}
