package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/bluegreen-ops/poolwatch/internal/alert"
	"github.com/bluegreen-ops/poolwatch/internal/storage"
)

// Store implements storage.AlertLog using SQLite.
type Store struct {
	db *sql.DB
}

// NewStore creates a new SQLite alert log at the given database path.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// detailPair is the persisted form of one alert detail.
type detailPair struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Record persists one dispatch outcome.
func (s *Store) Record(a alert.Alert, outcome alert.Outcome) error {
	pairs := make([]detailPair, 0, len(a.Details))
	for _, d := range a.Details {
		pairs = append(pairs, detailPair{Label: d.Label, Value: d.Value})
	}
	detailsJSON, err := json.Marshal(pairs)
	if err != nil {
		return fmt.Errorf("failed to marshal details: %w", err)
	}

	query := `
		INSERT INTO alerts (type, message, outcome, details_json, timestamp)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err = s.db.Exec(query, a.Type, a.Message, string(outcome), string(detailsJSON), a.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to record alert: %w", err)
	}

	return nil
}

// Recent retrieves the most recent dispatch records, newest first.
func (s *Store) Recent(limit int) ([]storage.AlertRecord, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, type, message, outcome, details_json, timestamp, created_at
		FROM alerts
		ORDER BY id DESC
		LIMIT ?
	`

	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer rows.Close()

	var records []storage.AlertRecord
	for rows.Next() {
		var record storage.AlertRecord
		var detailsJSON string

		err := rows.Scan(
			&record.ID,
			&record.Type,
			&record.Message,
			&record.Outcome,
			&detailsJSON,
			&record.Timestamp,
			&record.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		var pairs []detailPair
		if err := json.Unmarshal([]byte(detailsJSON), &pairs); err != nil {
			return nil, fmt.Errorf("failed to unmarshal details: %w", err)
		}
		for _, p := range pairs {
			record.Details = append(record.Details, alert.Detail{Label: p.Label, Value: p.Value})
		}

		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return records, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
