// Package sqlite implements the store contracts on the shared SQLite
// database. Reads go straight to the connection; writes go through the
// single-writer db.Worker.
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

type UserStore struct {
	conn   *sql.DB
	writer *dbpkg.Worker
}

func NewUserStore(conn *sql.DB, writer *dbpkg.Worker) *UserStore {
	return &UserStore{conn: conn, writer: writer}
}

const userColumns = `user_id, name, email, phone, role, access_code_hash, face_descriptor,
expiration_at_ms, last_verification_at_ms, is_active, created_by, created_at_ms, updated_at_ms`

func (s *UserStore) CreateUser(ctx context.Context, u *types.User) error {
	if u.ID == "" {
		u.ID = "usr-" + uuid.NewString()[:8]
	}
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
INSERT INTO users(`+userColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`,
			u.ID, u.Name, u.Email, nullString(u.Phone), string(u.Role),
			u.AccessCodeHash, nullBytes(u.FaceDescriptor),
			nullTimeMs(u.ExpirationDate), nullTimeMs(u.LastVerificationAt),
			boolToInt(u.IsActive), nullString(u.CreatedBy),
			u.CreatedAt.UnixMilli(), u.UpdatedAt.UnixMilli(),
		)
		if err != nil {
			if isUniqueViolation(err) {
				return errs.ErrConflict
			}
			return fmt.Errorf("CreateUser insert: %w", err)
		}

		return insertPeriods(ctx, tx, u.ID, u.AccessPeriods)
	})
}

func (s *UserStore) GetUser(ctx context.Context, id string) (*types.User, error) {
	row := s.conn.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE user_id = ?;`, id)
	u, err := scanUser(row)
	if err != nil {
		return nil, err
	}
	if err := s.loadAssociations(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *UserStore) GetUserByEmail(ctx context.Context, email string) (*types.User, error) {
	row := s.conn.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?;`, email)
	u, err := scanUser(row)
	if err != nil {
		return nil, err
	}
	if err := s.loadAssociations(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *UserStore) ListUsers(ctx context.Context, createdBy string) ([]*types.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at_ms DESC;`
	args := []any{}
	if createdBy != "" {
		query = `SELECT ` + userColumns + ` FROM users WHERE created_by = ? ORDER BY created_at_ms DESC;`
		args = append(args, createdBy)
	}

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ListUsers query: %w", err)
	}
	defer rows.Close()

	var out []*types.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListUsers rows: %w", err)
	}

	for _, u := range out {
		if err := s.loadAssociations(ctx, u); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *UserStore) UpdateUser(ctx context.Context, u *types.User) error {
	u.UpdatedAt = time.Now().UTC()

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
UPDATE users SET
  name = ?, email = ?, phone = ?, role = ?, access_code_hash = ?,
  face_descriptor = ?, expiration_at_ms = ?, is_active = ?, updated_at_ms = ?
WHERE user_id = ?;`,
			u.Name, u.Email, nullString(u.Phone), string(u.Role), u.AccessCodeHash,
			nullBytes(u.FaceDescriptor), nullTimeMs(u.ExpirationDate),
			boolToInt(u.IsActive), u.UpdatedAt.UnixMilli(), u.ID,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return errs.ErrConflict
			}
			return fmt.Errorf("UpdateUser: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("UpdateUser rows affected: %w", err)
		}
		if n == 0 {
			return errs.ErrNotFound
		}

		// Access periods are replaced wholesale on update.
		if _, err := tx.ExecContext(ctx, `DELETE FROM access_periods WHERE user_id = ?;`, u.ID); err != nil {
			return fmt.Errorf("UpdateUser clear periods: %w", err)
		}
		return insertPeriods(ctx, tx, u.ID, u.AccessPeriods)
	})
}

func (s *UserStore) ListDoorCandidates(ctx context.Context, doorID string) ([]*types.User, error) {
	rows, err := s.conn.QueryContext(ctx, `
SELECT `+prefixColumns("u", userColumns)+`
FROM users u
JOIN door_grants g ON g.user_id = u.user_id
WHERE g.door_id = ? AND u.is_active = 1
ORDER BY u.user_id;`, doorID)
	if err != nil {
		return nil, fmt.Errorf("ListDoorCandidates query: %w", err)
	}
	defer rows.Close()

	var out []*types.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListDoorCandidates rows: %w", err)
	}

	for _, u := range out {
		if err := s.loadAssociations(ctx, u); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *UserStore) AddGrant(ctx context.Context, userID, doorID string, grantedAt time.Time) error {
	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
INSERT INTO door_grants(user_id, door_id, granted_at_ms) VALUES (?, ?, ?);`,
			userID, doorID, grantedAt.UTC().UnixMilli())
		if err != nil {
			if isUniqueViolation(err) {
				return errs.ErrConflict
			}
			return fmt.Errorf("AddGrant: %w", err)
		}
		return nil
	})
}

func (s *UserStore) RemoveGrant(ctx context.Context, userID, doorID string) error {
	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
DELETE FROM door_grants WHERE user_id = ? AND door_id = ?;`, userID, doorID)
		if err != nil {
			return fmt.Errorf("RemoveGrant: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("RemoveGrant rows affected: %w", err)
		}
		if n == 0 {
			return errs.ErrConflict
		}
		return nil
	})
}

func (s *UserStore) SetLastVerification(ctx context.Context, userID string, at time.Time) error {
	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
UPDATE users SET last_verification_at_ms = ? WHERE user_id = ?;`,
			at.UTC().UnixMilli(), userID)
		if err != nil {
			return fmt.Errorf("SetLastVerification: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("SetLastVerification rows affected: %w", err)
		}
		if n == 0 {
			return errs.ErrNotFound
		}
		return nil
	})
}

// loadAssociations fills in the user's door grants and access periods.
func (s *UserStore) loadAssociations(ctx context.Context, u *types.User) error {
	rows, err := s.conn.QueryContext(ctx, `
SELECT door_id, granted_at_ms FROM door_grants WHERE user_id = ? ORDER BY door_id;`, u.ID)
	if err != nil {
		return fmt.Errorf("load grants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var doorID string
		var grantedMs int64
		if err := rows.Scan(&doorID, &grantedMs); err != nil {
			return fmt.Errorf("scan grant: %w", err)
		}
		u.DoorGrants = append(u.DoorGrants, types.DoorGrant{
			DoorID:    doorID,
			GrantedAt: time.UnixMilli(grantedMs).UTC(),
		})
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("grants rows: %w", err)
	}

	prows, err := s.conn.QueryContext(ctx, `
SELECT start_ms, end_ms FROM access_periods WHERE user_id = ? ORDER BY start_ms;`, u.ID)
	if err != nil {
		return fmt.Errorf("load periods: %w", err)
	}
	defer prows.Close()

	for prows.Next() {
		var startMs, endMs int64
		if err := prows.Scan(&startMs, &endMs); err != nil {
			return fmt.Errorf("scan period: %w", err)
		}
		u.AccessPeriods = append(u.AccessPeriods, types.AccessPeriod{
			Start: time.UnixMilli(startMs).UTC(),
			End:   time.UnixMilli(endMs).UTC(),
		})
	}
	return prows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*types.User, error) {
	var u types.User
	var phone, createdBy sql.NullString
	var face []byte
	var expirationMs, lastVerifMs sql.NullInt64
	var isActive int
	var createdMs, updatedMs int64
	var roleStr string

	err := row.Scan(&u.ID, &u.Name, &u.Email, &phone, &roleStr, &u.AccessCodeHash,
		&face, &expirationMs, &lastVerifMs, &isActive, &createdBy, &createdMs, &updatedMs)
	if err == sql.ErrNoRows {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}

	u.Role = types.Role(roleStr)
	u.Phone = phone.String
	u.CreatedBy = createdBy.String
	u.FaceDescriptor = face
	u.IsActive = isActive == 1
	u.CreatedAt = time.UnixMilli(createdMs).UTC()
	u.UpdatedAt = time.UnixMilli(updatedMs).UTC()
	if expirationMs.Valid {
		t := time.UnixMilli(expirationMs.Int64).UTC()
		u.ExpirationDate = &t
	}
	if lastVerifMs.Valid {
		t := time.UnixMilli(lastVerifMs.Int64).UTC()
		u.LastVerificationAt = &t
	}
	return &u, nil
}

func insertPeriods(ctx context.Context, tx *sql.Tx, userID string, periods []types.AccessPeriod) error {
	for _, p := range periods {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO access_periods(user_id, start_ms, end_ms) VALUES (?, ?, ?);`,
			userID, p.Start.UTC().UnixMilli(), p.End.UTC().UnixMilli()); err != nil {
			return fmt.Errorf("insert period: %w", err)
		}
	}
	return nil
}

// prefixColumns qualifies each column in a comma-separated list with a
// table alias for use in joins.
func prefixColumns(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullBytes(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}

func nullTimeMs(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().UnixMilli()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// isUniqueViolation detects SQLite unique/primary-key constraint errors.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "constraint failed: UNIQUE")
}
