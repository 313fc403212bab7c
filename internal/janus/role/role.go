// Package role implements the four-level role hierarchy as stateless
// decision functions. The lattice is a total function over the closed
// Role enumeration, not string matching.
package role

import "github.com/janus-access/server/internal/janus/types"

// lattice maps each role to the set of roles it may create.
var lattice = map[types.Role]map[types.Role]struct{}{
	types.RoleAdministrator: {
		types.RoleAdministrator: {},
		types.RoleHost:          {},
		types.RoleResident:      {},
		types.RoleGuest:         {},
	},
	types.RoleHost: {
		types.RoleResident: {},
		types.RoleGuest:    {},
	},
	types.RoleResident: {
		types.RoleGuest: {},
	},
	types.RoleGuest: {},
}

// CanCreate reports whether an actor with actorRole may create an
// account with targetRole.
func CanCreate(actorRole, targetRole types.Role) bool {
	allowed, ok := lattice[actorRole]
	if !ok {
		return false
	}
	_, ok = allowed[targetRole]
	return ok
}

// CanModify reports whether actor may modify target: administrators may
// modify anyone, users may modify themselves, and creators may modify
// the accounts they created.
func CanModify(actor, target *types.User) bool {
	if actor.Role == types.RoleAdministrator {
		return true
	}
	if actor.ID == target.ID {
		return true
	}
	return target.CreatedBy != "" && actor.ID == target.CreatedBy
}

// CanChangeRole reports whether actorRole may change a user's role.
// Role changes are administrator-exclusive regardless of the current or
// requested role.
func CanChangeRole(actorRole, _, _ types.Role) bool {
	return actorRole == types.RoleAdministrator
}

// CanGrantDoorAccess reports whether actor may grant granteeRole access
// to door. Non-administrators must themselves hold a grant on the door;
// hosts may grant to residents and guests, residents only to guests,
// guests to nobody.
func CanGrantDoorAccess(actor *types.User, door *types.Door, granteeRole types.Role) bool {
	if actor.Role == types.RoleAdministrator {
		return true
	}
	if !actor.HasAccessToDoor(door.ID) {
		return false
	}

	switch actor.Role {
	case types.RoleHost:
		return granteeRole == types.RoleResident || granteeRole == types.RoleGuest
	case types.RoleResident:
		return granteeRole == types.RoleGuest
	default:
		return false
	}
}

// CanRevokeDoorAccess reports whether actor may revoke target's door
// access: administrators always, otherwise only the account's creator.
func CanRevokeDoorAccess(actor, target *types.User) bool {
	if actor.Role == types.RoleAdministrator {
		return true
	}
	return target.CreatedBy != "" && actor.ID == target.CreatedBy
}
