package types

// VerifyCodeRequest is a primary verification attempt by shared access code.
type VerifyCodeRequest struct {
	DoorID     string `json:"door_id"`
	AccessCode string `json:"access_code"`
}

// VerifyFaceRequest is a primary verification attempt by face descriptor.
// Image is an optional base64-encoded capture stored alongside the event.
type VerifyFaceRequest struct {
	DoorID         string `json:"door_id"`
	FaceDescriptor []byte `json:"face_descriptor"`
	Image          string `json:"image,omitempty"`
}

// DoubleVerifyRequest is the second factor of a step-up flow. Exactly one
// of AccessCode or FaceDescriptor must be set.
type DoubleVerifyRequest struct {
	DoorID         string `json:"door_id"`
	UserID         string `json:"user_id"`
	AccessCode     string `json:"access_code,omitempty"`
	FaceDescriptor []byte `json:"face_descriptor,omitempty"`
}

// MotionRequest reports a detected approach. Fire-and-forget: it records
// an event and carries no decision logic.
type MotionRequest struct {
	DoorID string `json:"door_id"`
	Image  string `json:"image,omitempty"`
}

// DecisionStatus is the terminal (or pending) state of a verification attempt.
type DecisionStatus string

const (
	StatusGranted             DecisionStatus = "granted"
	StatusPendingSecondFactor DecisionStatus = "pending_second_factor"
	StatusDenied              DecisionStatus = "denied"
)

// DenyReason explains a denied decision.
type DenyReason string

const (
	DenyInvalidCredential DenyReason = "invalid_credential"
	DenyExpired           DenyReason = "expired"
	DenyLockedOut         DenyReason = "locked_out"
)

// Decision is the outcome of a verification attempt. Denials are
// first-class results, never errors.
type Decision struct {
	Status DecisionStatus `json:"status"`

	// User is the resolved principal. Nil when no candidate matched.
	User *User `json:"-"`

	// UserID mirrors User.ID for serialisation.
	UserID string `json:"user_id,omitempty"`

	// Reason is set only when Status is StatusDenied.
	Reason DenyReason `json:"reason,omitempty"`

	// ActuatorError carries a relay transport failure on an otherwise
	// granted decision. It never causes a denial.
	ActuatorError string `json:"actuator_error,omitempty"`
}
