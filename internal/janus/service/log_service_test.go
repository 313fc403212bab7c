package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/janus-access/server/internal/janus/errs"
	"github.com/janus-access/server/internal/janus/store"
	"github.com/janus-access/server/internal/janus/store/memory"
	"github.com/janus-access/server/internal/janus/types"
)

func seedLogEvents(t *testing.T, events *memory.AccessEventStore) {
	t.Helper()
	now := time.Now().UTC()
	for i, doorID := range []string{"d-1", "d-1", "d-2"} {
		ev := &types.AccessEvent{
			ID:         "evt-" + doorID + "-" + string(rune('a'+i)),
			DoorID:     doorID,
			UserID:     "u-1",
			EventType:  types.EventAccessGranted,
			Method:     types.MethodCode,
			Success:    true,
			OccurredAt: now.Add(time.Duration(i) * time.Minute),
		}
		if err := events.RecordEvent(context.Background(), ev); err != nil {
			t.Fatalf("seed event: %v", err)
		}
	}
}

func TestLogQuery_AdminUnscoped(t *testing.T) {
	events := memory.NewAccessEventStore()
	seedLogEvents(t, events)
	svc := NewLogService(events, nil)

	page, err := svc.Query(context.Background(), actor("u-admin", types.RoleAdministrator), store.EventFilter{})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if page.Total != 3 {
		t.Errorf("admin total = %d, want 3", page.Total)
	}
}

func TestLogQuery_ScopedToGrants(t *testing.T) {
	events := memory.NewAccessEventStore()
	seedLogEvents(t, events)
	svc := NewLogService(events, nil)

	host := actor("u-host", types.RoleHost)
	host.DoorGrants = []types.DoorGrant{{DoorID: "d-1", GrantedAt: time.Now()}}

	page, err := svc.Query(context.Background(), host, store.EventFilter{})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if page.Total != 2 {
		t.Errorf("host total = %d, want 2", page.Total)
	}
	for _, ev := range page.Events {
		if ev.DoorID != "d-1" {
			t.Errorf("scope leak: %+v", ev)
		}
	}

	// An explicit door outside the grant set is Forbidden, not empty.
	_, err = svc.Query(context.Background(), host, store.EventFilter{DoorID: "d-2"})
	if !errors.Is(err, errs.ErrForbidden) {
		t.Errorf("out-of-scope door: err = %v, want Forbidden", err)
	}

	// No grants at all: empty result.
	page, err = svc.Query(context.Background(), actor("u-guest", types.RoleGuest), store.EventFilter{})
	if err != nil {
		t.Fatalf("grantless query: %v", err)
	}
	if page.Total != 0 {
		t.Errorf("grantless total = %d, want 0", page.Total)
	}
}

func TestGetImage(t *testing.T) {
	events := memory.NewAccessEventStore()
	images, err := NewImageStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewImageStore: %v", err)
	}
	svc := NewLogService(events, images)
	ctx := context.Background()

	ref, err := images.Save("aGVsbG8=") // "hello"
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	ev := &types.AccessEvent{
		ID: "evt-1", DoorID: "d-1", EventType: types.EventAccessGranted,
		Method: types.MethodFace, Success: true, ImageRef: ref,
		OccurredAt: time.Now().UTC(),
	}
	if err := events.RecordEvent(ctx, ev); err != nil {
		t.Fatalf("RecordEvent: %v", err)
	}

	rc, err := svc.GetImage(ctx, actor("u-admin", types.RoleAdministrator), "evt-1")
	if err != nil {
		t.Fatalf("GetImage: %v", err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if string(data) != "hello" {
		t.Errorf("image data = %q", data)
	}

	// Out-of-scope caller is Forbidden.
	if _, err := svc.GetImage(ctx, actor("u-guest", types.RoleGuest), "evt-1"); !errors.Is(err, errs.ErrForbidden) {
		t.Errorf("out-of-scope image: err = %v, want Forbidden", err)
	}

	// Missing event or missing image are NotFound.
	if _, err := svc.GetImage(ctx, actor("u-admin", types.RoleAdministrator), "evt-missing"); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("missing event: err = %v, want NotFound", err)
	}
}

func TestImageStore_RejectsPathRefs(t *testing.T) {
	images, err := NewImageStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewImageStore: %v", err)
	}
	for _, ref := range []string{"", "../etc/passwd", "a/b.jpg", ".hidden"} {
		if _, err := images.Open(ref); !errors.Is(err, errs.ErrNotFound) {
			t.Errorf("Open(%q): err = %v, want NotFound", ref, err)
		}
	}
}

func TestImageStore_DataURLPrefix(t *testing.T) {
	images, err := NewImageStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewImageStore: %v", err)
	}
	ref, err := images.Save("data:image/jpeg;base64,aGVsbG8=")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !strings.HasPrefix(ref, "cap-") {
		t.Errorf("ref = %q", ref)
	}
	rc, err := images.Open(ref)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if string(data) != "hello" {
		t.Errorf("data = %q", data)
	}
}
