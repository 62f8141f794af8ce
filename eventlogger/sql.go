package eventlogger

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

type sqlEventLogger struct {
	db *sql.DB
}

func NewSqlEventLogger(db *sql.DB) *sqlEventLogger {
	return &sqlEventLogger{
		db: db,
	}
}

func (el *sqlEventLogger) Save(ctx context.Context, e Event) error {
	jsonData, err := json.Marshal(e.Data)
	if err != nil {
		return fmt.Errorf("encoding event data: %w", err)
	}
	jsonMetadata, err := json.Marshal(e.Metadata)
	if err != nil {
		return fmt.Errorf("encoding event metadata: %w", err)
	}

	var groupID sql.NullString
	if e.GroupID != "" {
		groupID = sql.NullString{String: e.GroupID, Valid: true}
	}

	statement := `INSERT INTO events (id, event_type, group_id, event_data, event_metadata, created_at) VALUES ($1, $2, $3, $4, $5, $6)`
	_, err = el.db.ExecContext(ctx, statement, e.ID, e.Type, groupID, jsonData, jsonMetadata, e.CreatedAt)
	return err
}

// ListByGroup returns the newest events of a group first.
func (el *sqlEventLogger) ListByGroup(ctx context.Context, groupID string, limit int) ([]Event, error) {
	query := `SELECT id, event_type, COALESCE(group_id, ''), event_data, event_metadata, created_at
              FROM events
              WHERE group_id = $1
              ORDER BY created_at DESC
              LIMIT $2`

	rows, err := el.db.QueryContext(ctx, query, groupID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]Event, 0)
	for rows.Next() {
		var (
			event        Event
			jsonData     []byte
			jsonMetadata []byte
		)
		if err := rows.Scan(&event.ID, &event.Type, &event.GroupID, &jsonData, &jsonMetadata, &event.CreatedAt); err != nil {
			return events, err
		}
		event.Data = json.RawMessage(jsonData)
		if err := json.Unmarshal(jsonMetadata, &event.Metadata); err != nil {
			return events, fmt.Errorf("decoding metadata of event %s: %w", event.ID, err)
		}

		events = append(events, event)
	}

	return events, rows.Err()
}
