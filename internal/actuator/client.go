// Package actuator talks to the relay hardware behind each door. Relays
// expose a Tasmota-style HTTP command endpoint: GET /cm?cmnd=Power reads
// the power state, Power On / Power Off set it.
package actuator

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/janus-access/server/internal/janus/types"
)

// State is the relay power state.
type State string

const (
	StateOn  State = "ON"
	StateOff State = "OFF"
)

// Client is the contract the verification engine actuates through.
type Client interface {
	ReadState(ctx context.Context, door *types.Door) (State, error)
	SetState(ctx context.Context, door *types.Door, s State) error
	// Toggle reads the current state and sets the opposite. Calls for the
	// same door are serialized so concurrent grants cannot interleave the
	// read and the flip.
	Toggle(ctx context.Context, door *types.Door) (State, error)
}

// TransportError wraps a failure to reach or understand the relay. The
// engine records it on the decision but never downgrades a grant over it.
type TransportError struct {
	DoorID string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("actuator %s: %v", e.DoorID, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// RelayClient is the HTTP implementation of Client.
type RelayClient struct {
	httpClient *http.Client
	locks      *DoorLocks
}

func NewRelayClient(timeout time.Duration) *RelayClient {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &RelayClient{
		httpClient: &http.Client{Timeout: timeout},
		locks:      NewDoorLocks(),
	}
}

func (c *RelayClient) ReadState(ctx context.Context, door *types.Door) (State, error) {
	return c.command(ctx, door, "Power")
}

func (c *RelayClient) SetState(ctx context.Context, door *types.Door, s State) error {
	cmd := "Power Off"
	if s == StateOn {
		cmd = "Power On"
	}
	_, err := c.command(ctx, door, cmd)
	return err
}

func (c *RelayClient) Toggle(ctx context.Context, door *types.Door) (State, error) {
	unlock := c.locks.Lock(door.ID)
	defer unlock()

	cur, err := c.ReadState(ctx, door)
	if err != nil {
		return "", err
	}
	next := StateOn
	if cur == StateOn {
		next = StateOff
	}
	if err := c.SetState(ctx, door, next); err != nil {
		return "", err
	}
	return next, nil
}

func (c *RelayClient) command(ctx context.Context, door *types.Door, cmd string) (State, error) {
	addr := strings.TrimRight(door.ActuatorAddress, "/")
	reqURL := addr + "/cm?cmnd=" + url.QueryEscape(cmd)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", &TransportError{DoorID: door.ID, Err: err}
	}
	if door.ActuatorKey != "" {
		req.Header.Set("Authorization", "Bearer "+door.ActuatorKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &TransportError{DoorID: door.ID, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	if err != nil {
		return "", &TransportError{DoorID: door.ID, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return "", &TransportError{DoorID: door.ID,
			Err: fmt.Errorf("relay returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))}
	}

	var payload struct {
		Power string `json:"POWER"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", &TransportError{DoorID: door.ID, Err: fmt.Errorf("decode relay response: %w", err)}
	}
	switch payload.Power {
	case "ON":
		return StateOn, nil
	case "OFF":
		return StateOff, nil
	}
	return "", &TransportError{DoorID: door.ID,
		Err: fmt.Errorf("unexpected relay state %q", payload.Power)}
}
