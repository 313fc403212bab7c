package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/janus-access/server/internal/janus/errs"
	"github.com/janus-access/server/internal/janus/store/sqlite"
	"github.com/janus-access/server/internal/janus/types"
)

func TestDoorStore_CreateAndGet(t *testing.T) {
	conn := openTestDB(t)
	ds := sqlite.NewDoorStore(conn, newTestWriter(t, conn))
	ctx := context.Background()

	d := &types.Door{
		Name:                         "Front Door",
		Location:                     "Building A",
		ActuatorAddress:              "http://10.0.0.5",
		ActuatorKey:                  "relay-secret",
		DoubleVerificationWindowDays: 3,
		IsActive:                     true,
		CreatedBy:                    "usr-admin",
	}
	if err := ds.CreateDoor(ctx, d); err != nil {
		t.Fatalf("CreateDoor: %v", err)
	}
	if d.ID == "" {
		t.Fatal("CreateDoor must assign an id")
	}

	got, err := ds.GetDoor(ctx, d.ID)
	if err != nil {
		t.Fatalf("GetDoor: %v", err)
	}
	if got.Name != "Front Door" || got.ActuatorAddress != "http://10.0.0.5" {
		t.Errorf("unexpected door: %+v", got)
	}
	if got.ActuatorKey != "relay-secret" {
		t.Errorf("actuator key = %q", got.ActuatorKey)
	}
	if got.DoubleVerificationWindowDays != 3 || !got.IsActive {
		t.Errorf("unexpected door settings: %+v", got)
	}
	if got.LastSeenAt != nil {
		t.Errorf("new door must have no last seen, got %v", got.LastSeenAt)
	}
}

func TestDoorStore_GetMissing(t *testing.T) {
	conn := openTestDB(t)
	ds := sqlite.NewDoorStore(conn, newTestWriter(t, conn))

	if _, err := ds.GetDoor(context.Background(), "door-missing"); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDoorStore_ListScoped(t *testing.T) {
	conn := openTestDB(t)
	ds := sqlite.NewDoorStore(conn, newTestWriter(t, conn))
	ctx := context.Background()

	for _, name := range []string{"Alpha", "Beta", "Gamma"} {
		if err := ds.CreateDoor(ctx, &types.Door{
			ID: "door-" + name, Name: name, ActuatorAddress: "http://relay", IsActive: true,
		}); err != nil {
			t.Fatalf("CreateDoor %s: %v", name, err)
		}
	}

	all, err := ds.ListDoors(ctx, nil)
	if err != nil {
		t.Fatalf("ListDoors all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 doors, got %d", len(all))
	}
	if all[0].Name != "Alpha" || all[2].Name != "Gamma" {
		t.Errorf("doors not ordered by name: %s, %s, %s", all[0].Name, all[1].Name, all[2].Name)
	}

	scoped, err := ds.ListDoors(ctx, []string{"door-Beta"})
	if err != nil {
		t.Fatalf("ListDoors scoped: %v", err)
	}
	if len(scoped) != 1 || scoped[0].Name != "Beta" {
		t.Errorf("unexpected scoped result: %+v", scoped)
	}

	// An empty (non-nil) scope matches nothing.
	none, err := ds.ListDoors(ctx, []string{})
	if err != nil {
		t.Fatalf("ListDoors empty scope: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("empty scope must match nothing, got %d doors", len(none))
	}
}

func TestDoorStore_Update(t *testing.T) {
	conn := openTestDB(t)
	ds := sqlite.NewDoorStore(conn, newTestWriter(t, conn))
	ctx := context.Background()

	d := &types.Door{Name: "Side Door", ActuatorAddress: "http://relay", IsActive: true}
	if err := ds.CreateDoor(ctx, d); err != nil {
		t.Fatalf("CreateDoor: %v", err)
	}

	d.Name = "Side Entrance"
	d.IsActive = false
	d.DoubleVerificationWindowDays = 7
	if err := ds.UpdateDoor(ctx, d); err != nil {
		t.Fatalf("UpdateDoor: %v", err)
	}

	got, err := ds.GetDoor(ctx, d.ID)
	if err != nil {
		t.Fatalf("GetDoor: %v", err)
	}
	if got.Name != "Side Entrance" || got.IsActive || got.DoubleVerificationWindowDays != 7 {
		t.Errorf("update not applied: %+v", got)
	}

	missing := &types.Door{ID: "door-missing", Name: "x", ActuatorAddress: "http://relay"}
	if err := ds.UpdateDoor(ctx, missing); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDoorStore_MarkSeen(t *testing.T) {
	conn := openTestDB(t)
	ds := sqlite.NewDoorStore(conn, newTestWriter(t, conn))
	ctx := context.Background()

	d := &types.Door{Name: "Gate", ActuatorAddress: "http://relay", IsActive: true}
	if err := ds.CreateDoor(ctx, d); err != nil {
		t.Fatalf("CreateDoor: %v", err)
	}

	at := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	if err := ds.MarkSeen(ctx, d.ID, at); err != nil {
		t.Fatalf("MarkSeen: %v", err)
	}

	got, err := ds.GetDoor(ctx, d.ID)
	if err != nil {
		t.Fatalf("GetDoor: %v", err)
	}
	if got.LastSeenAt == nil || !got.LastSeenAt.Equal(at) {
		t.Errorf("last seen = %v, want %v", got.LastSeenAt, at)
	}
}
