package types

import "time"

// EventType classifies an access event.
type EventType string

const (
	EventApproach           EventType = "approach"
	EventAccessAttempt      EventType = "access_attempt"
	EventAccessGranted      EventType = "access_granted"
	EventAccessDenied       EventType = "access_denied"
	EventDoubleVerification EventType = "double_verification"
)

// IsValidEventType returns true if t is one of the defined event types.
func IsValidEventType(t EventType) bool {
	switch t {
	case EventApproach, EventAccessAttempt, EventAccessGranted,
		EventAccessDenied, EventDoubleVerification:
		return true
	}
	return false
}

// VerifyMethod is the credential method used for an attempt.
type VerifyMethod string

const (
	MethodCode   VerifyMethod = "code"
	MethodFace   VerifyMethod = "face"
	MethodDouble VerifyMethod = "double"
	MethodNone   VerifyMethod = "none"
)

// AccessEvent is one immutable audit record. Events are append-only:
// the verification service is the only writer, and nothing mutates or
// deletes them. Events retain user/door ids even after the referenced
// record is deactivated.
type AccessEvent struct {
	ID     string `json:"id"`
	DoorID string `json:"door_id"`

	// UserID is empty when no principal could be resolved for the attempt.
	UserID string `json:"user_id,omitempty"`

	EventType EventType    `json:"event_type"`
	Method    VerifyMethod `json:"method"`
	Success   bool         `json:"success"`

	ImageRef string            `json:"image_ref,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`

	OccurredAt time.Time `json:"occurred_at"`
}
