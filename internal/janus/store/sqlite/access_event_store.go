package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	dbpkg "github.com/janus-access/server/internal/db"
	"github.com/janus-access/server/internal/janus/errs"
	"github.com/janus-access/server/internal/janus/store"
	"github.com/janus-access/server/internal/janus/types"
)

// AccessEventStore persists the append-only audit log. Inserts go
// through the writer; there is no update or delete path by design of
// the schema (no statement exists to produce one).
type AccessEventStore struct {
	conn   *sql.DB
	writer *dbpkg.Worker
}

func NewAccessEventStore(conn *sql.DB, writer *dbpkg.Worker) *AccessEventStore {
	return &AccessEventStore{conn: conn, writer: writer}
}

const eventColumns = `event_id, door_id, user_id, event_type, method, success, image_ref, metadata, occurred_at_ms`

func (s *AccessEventStore) RecordEvent(ctx context.Context, ev *types.AccessEvent) error {
	if ev.ID == "" {
		ev.ID = "evt-" + uuid.NewString()[:8]
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}

	var metadata any
	if len(ev.Metadata) > 0 {
		b, err := json.Marshal(ev.Metadata)
		if err != nil {
			return fmt.Errorf("RecordEvent marshal metadata: %w", err)
		}
		metadata = string(b)
	}

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO access_events(`+eventColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?);`,
			ev.ID, ev.DoorID, nullString(ev.UserID), string(ev.EventType), string(ev.Method),
			boolToInt(ev.Success), nullString(ev.ImageRef), metadata,
			ev.OccurredAt.UTC().UnixMilli(),
		); err != nil {
			return fmt.Errorf("RecordEvent insert: %w", err)
		}
		return nil
	})
}

func (s *AccessEventStore) QueryEvents(ctx context.Context, f store.EventFilter) (*store.EventPage, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	page := f.Page
	if page <= 0 {
		page = 1
	}

	var conditions []string
	var args []any

	if f.DoorIDs != nil {
		if len(f.DoorIDs) == 0 {
			// Scoped to zero doors: nothing can match.
			return &store.EventPage{Events: []types.AccessEvent{}, Page: page, Limit: limit}, nil
		}
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(f.DoorIDs)), ", ")
		conditions = append(conditions, "door_id IN ("+placeholders+")")
		for _, id := range f.DoorIDs {
			args = append(args, id)
		}
	}
	if f.DoorID != "" {
		conditions = append(conditions, "door_id = ?")
		args = append(args, f.DoorID)
	}
	if f.UserID != "" {
		conditions = append(conditions, "user_id = ?")
		args = append(args, f.UserID)
	}
	if f.EventType != "" {
		conditions = append(conditions, "event_type = ?")
		args = append(args, string(f.EventType))
	}
	if f.Start != nil {
		conditions = append(conditions, "occurred_at_ms >= ?")
		args = append(args, f.Start.UTC().UnixMilli())
	}
	if f.End != nil {
		conditions = append(conditions, "occurred_at_ms <= ?")
		args = append(args, f.End.UTC().UnixMilli())
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := s.conn.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM access_events"+where+";", args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("QueryEvents count: %w", err)
	}

	query := "SELECT " + eventColumns + " FROM access_events" + where +
		" ORDER BY occurred_at_ms DESC, event_id DESC LIMIT ? OFFSET ?;"
	args = append(args, limit, (page-1)*limit)

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("QueryEvents query: %w", err)
	}
	defer rows.Close()

	events := []types.AccessEvent{}
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("QueryEvents rows: %w", err)
	}

	return &store.EventPage{
		Events:     events,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: (total + limit - 1) / limit,
	}, nil
}

func (s *AccessEventStore) GetEvent(ctx context.Context, id string) (*types.AccessEvent, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM access_events WHERE event_id = ?;`, id)
	return scanEvent(row)
}

func scanEvent(row rowScanner) (*types.AccessEvent, error) {
	var ev types.AccessEvent
	var userID, imageRef, metadata sql.NullString
	var eventType, method string
	var success int
	var occurredMs int64

	err := row.Scan(&ev.ID, &ev.DoorID, &userID, &eventType, &method,
		&success, &imageRef, &metadata, &occurredMs)
	if err == sql.ErrNoRows {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan event: %w", err)
	}

	ev.UserID = userID.String
	ev.EventType = types.EventType(eventType)
	ev.Method = types.VerifyMethod(method)
	ev.Success = success == 1
	ev.ImageRef = imageRef.String
	ev.OccurredAt = time.UnixMilli(occurredMs).UTC()
	if metadata.Valid && metadata.String != "" {
		var m map[string]string
		if json.Unmarshal([]byte(metadata.String), &m) == nil {
			ev.Metadata = m
		}
	}
	return &ev, nil
}
