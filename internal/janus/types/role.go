package types

// Role is an authorisation tier. The set is closed: values outside the
// four constants are rejected at every boundary rather than trusted.
type Role string

const (
	RoleAdministrator Role = "administrator"
	RoleHost          Role = "host"
	RoleResident      Role = "resident"
	RoleGuest         Role = "guest"
)

// ValidRoles is the full set of principal roles.
var ValidRoles = []Role{RoleAdministrator, RoleHost, RoleResident, RoleGuest}

// IsValidRole returns true if r is one of the four defined roles.
func IsValidRole(r Role) bool {
	switch r {
	case RoleAdministrator, RoleHost, RoleResident, RoleGuest:
		return true
	}
	return false
}
