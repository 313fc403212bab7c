package types

import "time"

// DoorGrant associates a principal with a door they may use.
// A user holds at most one grant per door.
type DoorGrant struct {
	DoorID    string    `json:"door_id"`
	GrantedAt time.Time `json:"granted_at"`
}

// AccessPeriod is a start/end interval during which access is intended.
// Periods are stored and returned but not enforced by the verification
// path (advisory only).
type AccessPeriod struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// User is a credential-holding principal.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
	Role  Role   `json:"role"`

	// AccessCodeHash is the salted one-way hash of the shared access code.
	// Never serialised.
	AccessCodeHash string `json:"-"`

	// FaceDescriptor is an opaque embedding produced by the external
	// recognizer. Nil when the user has not enrolled a face.
	FaceDescriptor []byte `json:"-"`

	DoorGrants    []DoorGrant    `json:"door_grants,omitempty"`
	AccessPeriods []AccessPeriod `json:"access_periods,omitempty"`

	// ExpirationDate is the instant after which access is denied.
	// Nil means the account never expires.
	ExpirationDate *time.Time `json:"expiration_date,omitempty"`

	// LastVerificationAt is updated exclusively by the verification
	// service on a granted outcome.
	LastVerificationAt *time.Time `json:"last_verification_at,omitempty"`

	IsActive bool `json:"is_active"`

	// CreatedBy is the id of the principal who created this account.
	// Empty only for a bootstrap administrator.
	CreatedBy string `json:"created_by,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GrantFor returns the user's grant on the given door, if any.
func (u *User) GrantFor(doorID string) (DoorGrant, bool) {
	for _, g := range u.DoorGrants {
		if g.DoorID == doorID {
			return g, true
		}
	}
	return DoorGrant{}, false
}

// HasAccessToDoor reports whether the user holds a grant on the door.
func (u *User) HasAccessToDoor(doorID string) bool {
	_, ok := u.GrantFor(doorID)
	return ok
}

// IsExpired reports whether the account has expired as of now.
// The boundary is strict: an expiration date exactly equal to now is
// still valid.
func (u *User) IsExpired(now time.Time) bool {
	if u.ExpirationDate == nil {
		return false
	}
	return now.After(*u.ExpirationDate)
}
