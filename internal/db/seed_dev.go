package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/janus-access/server/internal/janus/credential"
)

type SeedDevOptions struct {
	// AdminEmail and AdminAccessCode configure the bootstrap
	// administrator. The account has no creator (CreatedBy is NULL).
	AdminEmail      string
	AdminAccessCode string
	HashParams      credential.HashParams
}

// SeedDev creates a bootstrap administrator and a starter door so a
// fresh dev database is immediately usable. Safe to run repeatedly.
func SeedDev(ctx context.Context, conn *sql.DB, opt SeedDevOptions) error {
	now := time.Now().UTC().UnixMilli()

	if opt.AdminEmail == "" {
		opt.AdminEmail = "admin@localhost"
	}
	if opt.AdminAccessCode == "" {
		opt.AdminAccessCode = "0000"
	}

	hash, err := credential.HashAccessCode(opt.AdminAccessCode, opt.HashParams)
	if err != nil {
		return fmt.Errorf("seed admin hash: %w", err)
	}

	if _, err := conn.ExecContext(ctx, `
INSERT INTO users(user_id, name, email, role, access_code_hash, is_active, created_at_ms, updated_at_ms)
VALUES ('usr-bootstrap', 'Administrator', ?, 'administrator', ?, 1, ?, ?)
ON CONFLICT(email) DO NOTHING;`, opt.AdminEmail, hash, now, now); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	if _, err := conn.ExecContext(ctx, `
INSERT OR IGNORE INTO doors(door_id, name, location, actuator_address, double_verification_days, is_active, created_by, created_at_ms, updated_at_ms)
VALUES ('door-main', 'Main Door', 'Dev', '127.0.0.1:8088', 0, 1, 'usr-bootstrap', ?, ?);`, now, now); err != nil {
		return fmt.Errorf("seed door: %w", err)
	}

	if _, err := conn.ExecContext(ctx, `
INSERT OR IGNORE INTO door_grants(user_id, door_id, granted_at_ms)
VALUES ('usr-bootstrap', 'door-main', ?);`, now); err != nil {
		return fmt.Errorf("seed grant: %w", err)
	}

	return nil
}
