package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/moviemate/internal/shared"
)

// EventKind names a session transition.
type EventKind string

const (
	EventLogin   EventKind = "login"
	EventSignup  EventKind = "signup"
	EventLogout  EventKind = "logout"
	EventExpired EventKind = "expired"
)

// SessionEvent is one row of the session audit trail.
type SessionEvent struct {
	ID        string
	Kind      EventKind
	Detail    string
	CreatedAt time.Time
}

// EventRepository records session transitions in the session_events table.
type EventRepository struct {
	db *sql.DB
}

// NewEventRepository creates a new EventRepository with the given database connection
func NewEventRepository(db *sql.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Record appends an event with a generated ID.
func (r *EventRepository) Record(kind EventKind, detail string) (*SessionEvent, error) {
	event := &SessionEvent{
		ID:        shared.GenerateID(),
		Kind:      kind,
		Detail:    detail,
		CreatedAt: time.Now().UTC(),
	}

	var d any = detail
	if detail == "" {
		d = nil
	}

	_, err := r.db.Exec(
		`INSERT INTO session_events (id, kind, detail, created_at) VALUES (?, ?, ?, ?)`,
		event.ID, string(event.Kind), d, event.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to record session event: %w", err)
	}
	return event, nil
}

// List returns the most recent events first. A limit <= 0 returns all events.
func (r *EventRepository) List(limit int) ([]*SessionEvent, error) {
	query := `SELECT id, kind, detail, created_at FROM session_events ORDER BY created_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list session events: %w", err)
	}
	defer rows.Close()

	var events []*SessionEvent
	for rows.Next() {
		var (
			event  SessionEvent
			kind   string
			detail sql.NullString
		)
		if err := rows.Scan(&event.ID, &kind, &detail, &event.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan session event: %w", err)
		}
		event.Kind = EventKind(kind)
		event.Detail = detail.String
		events = append(events, &event)
	}

	return events, rows.Err()
}
