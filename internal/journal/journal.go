// Package journal provides an append-only history of load events for
// auditing. The in-memory registry stays the single source of truth for
// load state; the journal never feeds back into load decisions.
package journal

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// EventType represents the type of event in the journal
type EventType string

const (
	EventResourceLoading EventType = "resource_loading"
	EventResourceLoaded  EventType = "resource_loaded"
	EventResourceFailed  EventType = "resource_failed"
	EventBatchCompleted  EventType = "batch_completed"
	EventBatchFailed     EventType = "batch_failed"
)

// Entry represents a single event in the journal
type Entry struct {
	ID        int64
	EventType EventType
	Timestamp time.Time
	URL       string
	BatchID   string
	Error     string
	Payload   map[string]any
}

// Journal provides append-only load-event logging
type Journal struct {
	db *sql.DB
}

// New creates a new Journal using the provided database connection
func New(db *sql.DB) *Journal {
	return &Journal{db: db}
}

// Append adds a new event to the journal
func (j *Journal) Append(eventType EventType, url, batchID, errText string, payload map[string]any) error {
	var payloadJSON []byte
	var err error

	if payload != nil {
		payloadJSON, err = json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal payload: %w", err)
		}
	}

	now := time.Now().UTC().Unix()

	_, err = j.db.Exec(
		`INSERT INTO load_journal (event_type, timestamp, url, batch_id, error, payload) VALUES (?, ?, ?, ?, ?, ?)`,
		string(eventType), now, url, batchID, errText, string(payloadJSON),
	)
	return err
}

// GetByType returns entries filtered by event type, newest first
func (j *Journal) GetByType(eventType EventType, limit int) ([]*Entry, error) {
	rows, err := j.db.Query(`
		SELECT id, event_type, timestamp, url, batch_id, error, payload
		FROM load_journal
		WHERE event_type = ?
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`, string(eventType), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return j.scanEntries(rows)
}

// GetByURL returns entries for one resource, newest first
func (j *Journal) GetByURL(url string, limit int) ([]*Entry, error) {
	rows, err := j.db.Query(`
		SELECT id, event_type, timestamp, url, batch_id, error, payload
		FROM load_journal
		WHERE url = ?
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`, url, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return j.scanEntries(rows)
}

// Recent returns the newest entries across all event types
func (j *Journal) Recent(limit int) ([]*Entry, error) {
	rows, err := j.db.Query(`
		SELECT id, event_type, timestamp, url, batch_id, error, payload
		FROM load_journal
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return j.scanEntries(rows)
}

// Cleanup removes entries older than the retention window
func (j *Journal) Cleanup(retentionDays int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -retentionDays).UTC().Unix()

	res, err := j.db.Exec(`DELETE FROM load_journal WHERE timestamp < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (j *Journal) scanEntries(rows *sql.Rows) ([]*Entry, error) {
	var entries []*Entry

	for rows.Next() {
		var (
			e           Entry
			ts          int64
			url         sql.NullString
			batchID     sql.NullString
			errText     sql.NullString
			payloadJSON sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.EventType, &ts, &url, &batchID, &errText, &payloadJSON); err != nil {
			return nil, err
		}
		e.Timestamp = time.Unix(ts, 0).UTC()
		e.URL = url.String
		e.BatchID = batchID.String
		e.Error = errText.String
		if payloadJSON.String != "" {
			if err := json.Unmarshal([]byte(payloadJSON.String), &e.Payload); err != nil {
				return nil, fmt.Errorf("failed to unmarshal payload for entry %d: %w", e.ID, err)
			}
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}
