package actuator_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/janus-access/server/internal/actuator"
	"github.com/janus-access/server/internal/janus/types"
)

// fakeRelay mimics a Tasmota relay: GET /cm?cmnd=Power reads the state,
// Power On / Power Off set it.
type fakeRelay struct {
	mu       sync.Mutex
	on       bool
	commands []string
	wantKey  string
}

func (f *fakeRelay) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if f.wantKey != "" && r.Header.Get("Authorization") != "Bearer "+f.wantKey {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		cmd := r.URL.Query().Get("cmnd")

		f.mu.Lock()
		defer f.mu.Unlock()
		f.commands = append(f.commands, cmd)
		switch cmd {
		case "Power On":
			f.on = true
		case "Power Off":
			f.on = false
		case "Power":
		default:
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		state := "OFF"
		if f.on {
			state = "ON"
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"POWER":"` + state + `"}`))
	}
}

func testDoor(addr string) *types.Door {
	return &types.Door{ID: "door-1", Name: "Front", ActuatorAddress: addr, IsActive: true}
}

func TestRelayClient_ReadState(t *testing.T) {
	relay := &fakeRelay{on: true}
	srv := httptest.NewServer(relay.handler())
	defer srv.Close()

	c := actuator.NewRelayClient(time.Second)
	state, err := c.ReadState(context.Background(), testDoor(srv.URL))
	if err != nil {
		t.Fatalf("ReadState: %v", err)
	}
	if state != actuator.StateOn {
		t.Errorf("state = %q, want ON", state)
	}
}

func TestRelayClient_SetState(t *testing.T) {
	relay := &fakeRelay{}
	srv := httptest.NewServer(relay.handler())
	defer srv.Close()

	c := actuator.NewRelayClient(time.Second)
	if err := c.SetState(context.Background(), testDoor(srv.URL), actuator.StateOn); err != nil {
		t.Fatalf("SetState: %v", err)
	}
	if !relay.on {
		t.Error("relay should be on")
	}
}

func TestRelayClient_Toggle(t *testing.T) {
	relay := &fakeRelay{on: false}
	srv := httptest.NewServer(relay.handler())
	defer srv.Close()

	c := actuator.NewRelayClient(time.Second)
	door := testDoor(srv.URL)

	state, err := c.Toggle(context.Background(), door)
	if err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	if state != actuator.StateOn || !relay.on {
		t.Errorf("first toggle: state = %q, relay on = %v", state, relay.on)
	}

	state, err = c.Toggle(context.Background(), door)
	if err != nil {
		t.Fatalf("Toggle back: %v", err)
	}
	if state != actuator.StateOff || relay.on {
		t.Errorf("second toggle: state = %q, relay on = %v", state, relay.on)
	}

	want := []string{"Power", "Power On", "Power", "Power Off"}
	if len(relay.commands) != len(want) {
		t.Fatalf("commands = %v, want %v", relay.commands, want)
	}
	for i := range want {
		if relay.commands[i] != want[i] {
			t.Errorf("command[%d] = %q, want %q", i, relay.commands[i], want[i])
		}
	}
}

func TestRelayClient_ToggleSerialized(t *testing.T) {
	relay := &fakeRelay{}
	srv := httptest.NewServer(relay.handler())
	defer srv.Close()

	c := actuator.NewRelayClient(time.Second)
	door := testDoor(srv.URL)

	const n = 8
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.Toggle(context.Background(), door); err != nil {
				t.Errorf("Toggle: %v", err)
			}
		}()
	}
	wg.Wait()

	// Serialized toggles always alternate, so an even count lands back off.
	if relay.on {
		t.Error("after an even number of toggles the relay must be off")
	}
	if len(relay.commands) != 2*n {
		t.Errorf("command count = %d, want %d", len(relay.commands), 2*n)
	}
}

func TestRelayClient_BearerKey(t *testing.T) {
	relay := &fakeRelay{wantKey: "relay-secret"}
	srv := httptest.NewServer(relay.handler())
	defer srv.Close()

	c := actuator.NewRelayClient(time.Second)

	door := testDoor(srv.URL)
	if _, err := c.ReadState(context.Background(), door); err == nil {
		t.Fatal("expected error without key")
	}

	door.ActuatorKey = "relay-secret"
	if _, err := c.ReadState(context.Background(), door); err != nil {
		t.Fatalf("ReadState with key: %v", err)
	}
}

func TestRelayClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	addr := srv.URL
	srv.Close()

	c := actuator.NewRelayClient(200 * time.Millisecond)
	_, err := c.ReadState(context.Background(), testDoor(addr))
	if err == nil {
		t.Fatal("expected transport error")
	}
	var te *actuator.TransportError
	if !errors.As(err, &te) {
		t.Errorf("error type = %T, want *TransportError", err)
	}
	if te.DoorID != "door-1" {
		t.Errorf("door id = %q", te.DoorID)
	}
}
