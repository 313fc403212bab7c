package types

import "time"

// Door is a physical access point controlled by a network relay.
type Door struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location,omitempty"`

	// ActuatorAddress is the network address of the relay controlling
	// the lock, e.g. "10.0.1.21" or "relay-7.local:80".
	ActuatorAddress string `json:"actuator_address"`

	// ActuatorKey is an optional bearer credential for the relay.
	// Never serialised.
	ActuatorKey string `json:"-"`

	// DoubleVerificationWindowDays is how long a prior verification
	// remains sufficient before a second factor is demanded.
	// 0 disables step-up verification for this door.
	DoubleVerificationWindowDays int `json:"double_verification_window_days"`

	IsActive  bool   `json:"is_active"`
	CreatedBy string `json:"created_by,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// LastSeenAt is the most recent successful relay state read,
	// maintained by the relay monitor.
	LastSeenAt *time.Time `json:"last_seen_at,omitempty"`
}
