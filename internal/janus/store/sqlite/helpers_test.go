package sqlite_test

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/janus-access/server/internal/db"
	"github.com/janus-access/server/internal/janus/store/sqlite"
	"github.com/janus-access/server/internal/janus/types"
)

// openTestDB returns an in-memory SQLite connection with the same
// PRAGMAs and schema as production. The connection is closed
// automatically when the test finishes.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	// Each call gets a unique in-memory database. The shared-cache URI
	// keeps the database alive for the lifetime of the connection pool.
	dsn := fmt.Sprintf(
		"file:test_%s?mode=memory&cache=shared&_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)",
		t.Name(),
	)

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("openTestDB: sql.Open: %v", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	if err := conn.Ping(); err != nil {
		conn.Close()
		t.Fatalf("openTestDB: ping: %v", err)
	}

	if err := db.Migrate(context.Background(), conn); err != nil {
		conn.Close()
		t.Fatalf("openTestDB: migrate: %v", err)
	}

	t.Cleanup(func() { conn.Close() })
	return conn
}

// newTestWriter returns a db.Worker backed by conn, closed when the
// test finishes.
func newTestWriter(t *testing.T, conn *sql.DB) *db.Worker {
	t.Helper()

	w := db.NewWorker(conn)
	t.Cleanup(func() { w.Close() })
	return w
}

// seedUser inserts a minimal active user and returns it.
func seedUser(t *testing.T, us *sqlite.UserStore, id, email string, role types.Role) *types.User {
	t.Helper()

	u := &types.User{
		ID:             id,
		Name:           "Test " + id,
		Email:          email,
		Role:           role,
		AccessCodeHash: "$argon2id$v=19$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA",
		IsActive:       true,
	}
	if err := us.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("seedUser %s: %v", id, err)
	}
	return u
}

// seedDoor inserts a minimal active door and returns it.
func seedDoor(t *testing.T, ds *sqlite.DoorStore, id string) *types.Door {
	t.Helper()

	d := &types.Door{
		ID:              id,
		Name:            "Door " + id,
		ActuatorAddress: "127.0.0.1:0",
		IsActive:        true,
	}
	if err := ds.CreateDoor(context.Background(), d); err != nil {
		t.Fatalf("seedDoor %s: %v", id, err)
	}
	return d
}

// eventAt builds an access event with a fixed timestamp.
func eventAt(doorID, userID string, et types.EventType, at time.Time) *types.AccessEvent {
	return &types.AccessEvent{
		DoorID:     doorID,
		UserID:     userID,
		EventType:  et,
		Method:     types.MethodCode,
		Success:    et == types.EventAccessGranted,
		OccurredAt: at,
	}
}
