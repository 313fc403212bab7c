package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/janus-access/server/internal/janus/errs"
	"github.com/janus-access/server/internal/janus/store"
	"github.com/janus-access/server/internal/janus/store/sqlite"
	"github.com/janus-access/server/internal/janus/types"
)

func TestAccessEventStore_RecordAndGet(t *testing.T) {
	conn := openTestDB(t)
	es := sqlite.NewAccessEventStore(conn, newTestWriter(t, conn))
	ctx := context.Background()

	ev := &types.AccessEvent{
		DoorID:    "d-1",
		UserID:    "u-1",
		EventType: types.EventAccessGranted,
		Method:    types.MethodCode,
		Success:   true,
		ImageRef:  "cap-123.jpg",
		Metadata:  map[string]string{"reason": "granted"},
	}
	if err := es.RecordEvent(ctx, ev); err != nil {
		t.Fatalf("RecordEvent: %v", err)
	}
	if ev.ID == "" {
		t.Fatal("RecordEvent must assign an id")
	}
	if ev.OccurredAt.IsZero() {
		t.Fatal("RecordEvent must stamp occurred_at")
	}

	got, err := es.GetEvent(ctx, ev.ID)
	if err != nil {
		t.Fatalf("GetEvent: %v", err)
	}
	if got.DoorID != "d-1" || got.UserID != "u-1" || !got.Success {
		t.Errorf("unexpected event: %+v", got)
	}
	if got.Metadata["reason"] != "granted" {
		t.Errorf("metadata not round-tripped: %+v", got.Metadata)
	}
	if got.ImageRef != "cap-123.jpg" {
		t.Errorf("image ref = %q", got.ImageRef)
	}
}

func TestAccessEventStore_NullUserID(t *testing.T) {
	conn := openTestDB(t)
	es := sqlite.NewAccessEventStore(conn, newTestWriter(t, conn))
	ctx := context.Background()

	// No principal resolved: user id stays empty.
	ev := &types.AccessEvent{
		DoorID:    "d-1",
		EventType: types.EventAccessAttempt,
		Method:    types.MethodCode,
	}
	if err := es.RecordEvent(ctx, ev); err != nil {
		t.Fatalf("RecordEvent: %v", err)
	}

	got, err := es.GetEvent(ctx, ev.ID)
	if err != nil {
		t.Fatalf("GetEvent: %v", err)
	}
	if got.UserID != "" {
		t.Errorf("expected empty user id, got %q", got.UserID)
	}
}

func TestAccessEventStore_QueryFiltersAndPagination(t *testing.T) {
	conn := openTestDB(t)
	es := sqlite.NewAccessEventStore(conn, newTestWriter(t, conn))
	ctx := context.Background()

	base := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		if err := es.RecordEvent(ctx, eventAt("d-1", "u-1", types.EventAccessGranted, base.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatalf("RecordEvent: %v", err)
		}
	}
	if err := es.RecordEvent(ctx, eventAt("d-2", "u-2", types.EventAccessAttempt, base.Add(10*time.Hour))); err != nil {
		t.Fatalf("RecordEvent: %v", err)
	}

	// Door filter + pagination, newest first.
	page, err := es.QueryEvents(ctx, store.EventFilter{DoorID: "d-1", Page: 1, Limit: 2})
	if err != nil {
		t.Fatalf("QueryEvents: %v", err)
	}
	if page.Total != 5 || page.TotalPages != 3 {
		t.Errorf("total = %d, pages = %d; want 5, 3", page.Total, page.TotalPages)
	}
	if len(page.Events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(page.Events))
	}
	if !page.Events[0].OccurredAt.After(page.Events[1].OccurredAt) {
		t.Error("events must be ordered newest first")
	}
	if !page.Events[0].OccurredAt.Equal(base.Add(4 * time.Hour)) {
		t.Errorf("first event at %v, want %v", page.Events[0].OccurredAt, base.Add(4*time.Hour))
	}

	// Event type filter.
	page, err = es.QueryEvents(ctx, store.EventFilter{EventType: types.EventAccessAttempt})
	if err != nil {
		t.Fatalf("QueryEvents by type: %v", err)
	}
	if page.Total != 1 || page.Events[0].DoorID != "d-2" {
		t.Errorf("unexpected result: %+v", page)
	}

	// Closed date interval.
	start := base.Add(1 * time.Hour)
	end := base.Add(3 * time.Hour)
	page, err = es.QueryEvents(ctx, store.EventFilter{Start: &start, End: &end})
	if err != nil {
		t.Fatalf("QueryEvents by interval: %v", err)
	}
	if page.Total != 3 {
		t.Errorf("interval total = %d, want 3 (boundaries inclusive)", page.Total)
	}
}

func TestAccessEventStore_DoorScope(t *testing.T) {
	conn := openTestDB(t)
	es := sqlite.NewAccessEventStore(conn, newTestWriter(t, conn))
	ctx := context.Background()

	now := time.Now().UTC()
	if err := es.RecordEvent(ctx, eventAt("d-1", "u-1", types.EventAccessGranted, now)); err != nil {
		t.Fatalf("RecordEvent: %v", err)
	}
	if err := es.RecordEvent(ctx, eventAt("d-2", "u-1", types.EventAccessGranted, now)); err != nil {
		t.Fatalf("RecordEvent: %v", err)
	}

	page, err := es.QueryEvents(ctx, store.EventFilter{DoorIDs: []string{"d-1"}})
	if err != nil {
		t.Fatalf("QueryEvents scoped: %v", err)
	}
	if page.Total != 1 || page.Events[0].DoorID != "d-1" {
		t.Errorf("scope leak: %+v", page.Events)
	}

	// Empty scope matches nothing.
	page, err = es.QueryEvents(ctx, store.EventFilter{DoorIDs: []string{}})
	if err != nil {
		t.Fatalf("QueryEvents empty scope: %v", err)
	}
	if page.Total != 0 || len(page.Events) != 0 {
		t.Errorf("empty scope must match nothing, got %+v", page)
	}
}

func TestAccessEventStore_GetEventNotFound(t *testing.T) {
	conn := openTestDB(t)
	es := sqlite.NewAccessEventStore(conn, newTestWriter(t, conn))

	if _, err := es.GetEvent(context.Background(), "evt-missing"); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
