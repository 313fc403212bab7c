package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	dbpkg "github.com/janus-access/server/internal/db"
	"github.com/janus-access/server/internal/janus/errs"
	"github.com/janus-access/server/internal/janus/types"
)

type DoorStore struct {
	conn   *sql.DB
	writer *dbpkg.Worker
}

func NewDoorStore(conn *sql.DB, writer *dbpkg.Worker) *DoorStore {
	return &DoorStore{conn: conn, writer: writer}
}

const doorColumns = `door_id, name, location, actuator_address, actuator_key,
double_verification_days, is_active, created_by, last_seen_at_ms, created_at_ms, updated_at_ms`

func (s *DoorStore) CreateDoor(ctx context.Context, d *types.Door) error {
	if d.ID == "" {
		d.ID = "door-" + uuid.NewString()[:8]
	}
	now := time.Now().UTC()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	d.UpdatedAt = now

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
INSERT INTO doors(`+doorColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`,
			d.ID, d.Name, nullString(d.Location), d.ActuatorAddress, nullString(d.ActuatorKey),
			d.DoubleVerificationWindowDays, boolToInt(d.IsActive), nullString(d.CreatedBy),
			nullTimeMs(d.LastSeenAt), d.CreatedAt.UnixMilli(), d.UpdatedAt.UnixMilli(),
		)
		if err != nil {
			if isUniqueViolation(err) {
				return errs.ErrConflict
			}
			return fmt.Errorf("CreateDoor insert: %w", err)
		}
		return nil
	})
}

func (s *DoorStore) GetDoor(ctx context.Context, id string) (*types.Door, error) {
	row := s.conn.QueryRowContext(ctx, `SELECT `+doorColumns+` FROM doors WHERE door_id = ?;`, id)
	return scanDoor(row)
}

func (s *DoorStore) ListDoors(ctx context.Context, ids []string) ([]*types.Door, error) {
	query := `SELECT ` + doorColumns + ` FROM doors ORDER BY name;`
	var args []any

	if ids != nil {
		if len(ids) == 0 {
			return nil, nil
		}
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ")
		query = `SELECT ` + doorColumns + ` FROM doors WHERE door_id IN (` + placeholders + `) ORDER BY name;`
		for _, id := range ids {
			args = append(args, id)
		}
	}

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ListDoors query: %w", err)
	}
	defer rows.Close()

	var out []*types.Door
	for rows.Next() {
		d, err := scanDoor(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListDoors rows: %w", err)
	}
	return out, nil
}

func (s *DoorStore) UpdateDoor(ctx context.Context, d *types.Door) error {
	d.UpdatedAt = time.Now().UTC()

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
UPDATE doors SET
  name = ?, location = ?, actuator_address = ?, actuator_key = ?,
  double_verification_days = ?, is_active = ?, updated_at_ms = ?
WHERE door_id = ?;`,
			d.Name, nullString(d.Location), d.ActuatorAddress, nullString(d.ActuatorKey),
			d.DoubleVerificationWindowDays, boolToInt(d.IsActive), d.UpdatedAt.UnixMilli(), d.ID,
		)
		if err != nil {
			return fmt.Errorf("UpdateDoor: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("UpdateDoor rows affected: %w", err)
		}
		if n == 0 {
			return errs.ErrNotFound
		}
		return nil
	})
}

func (s *DoorStore) MarkSeen(ctx context.Context, id string, at time.Time) error {
	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
UPDATE doors SET last_seen_at_ms = ? WHERE door_id = ?;`,
			at.UTC().UnixMilli(), id); err != nil {
			return fmt.Errorf("MarkSeen: %w", err)
		}
		return nil
	})
}

func scanDoor(row rowScanner) (*types.Door, error) {
	var d types.Door
	var location, actuatorKey, createdBy sql.NullString
	var lastSeenMs sql.NullInt64
	var isActive int
	var createdMs, updatedMs int64

	err := row.Scan(&d.ID, &d.Name, &location, &d.ActuatorAddress, &actuatorKey,
		&d.DoubleVerificationWindowDays, &isActive, &createdBy, &lastSeenMs,
		&createdMs, &updatedMs)
	if err == sql.ErrNoRows {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan door: %w", err)
	}

	d.Location = location.String
	d.ActuatorKey = actuatorKey.String
	d.CreatedBy = createdBy.String
	d.IsActive = isActive == 1
	d.CreatedAt = time.UnixMilli(createdMs).UTC()
	d.UpdatedAt = time.UnixMilli(updatedMs).UTC()
	if lastSeenMs.Valid {
		t := time.UnixMilli(lastSeenMs.Int64).UTC()
		d.LastSeenAt = &t
	}
	return &d, nil
}
