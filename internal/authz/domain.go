// Package authz implements the role-based authorization core: the fixed
// role-permission registry, the permission evaluator, the hierarchical
// school/user access predicates and the HTTP middleware composing them.
package authz

// Role is the closed set of platform roles.
type Role string

// Platform roles. Ordering encodes no permission hierarchy; the creation
// hierarchy is expressed separately by CanCreateRole.
const (
	RoleSuperAdmin Role = "super-admin"
	RolePrincipal  Role = "principal"
	RoleTeacher    Role = "teacher"
	RoleStudent    Role = "student"
)

// Valid reports whether r is one of the four platform roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RolePrincipal, RoleTeacher, RoleStudent:
		return true
	}
	return false
}

// ParseRole maps a stored role string onto the closed enumeration.
func ParseRole(s string) (Role, bool) {
	r := Role(s)
	return r, r.Valid()
}

// Action is the closed set of operations a grant can cover.
type Action string

// Actions. ActionManage is a wildcard subsuming the other three.
const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionManage Action = "manage"
)

// Valid reports whether a is a known action.
func (a Action) Valid() bool {
	switch a {
	case ActionCreate, ActionRead, ActionUpdate, ActionManage:
		return true
	}
	return false
}

// Scope qualifies which instances of a resource an action applies to.
type Scope string

// Scopes. ScopeAll is a wildcard subsuming the other three. The zero value
// ScopeNone marks a request that does not ask for a particular scope.
const (
	ScopeNone     Scope = ""
	ScopeOwn      Scope = "own"
	ScopeSchool   Scope = "school"
	ScopeAssigned Scope = "assigned"
	ScopeAll      Scope = "all"
)

// Valid reports whether s is a known non-empty scope.
func (s Scope) Valid() bool {
	switch s {
	case ScopeOwn, ScopeSchool, ScopeAssigned, ScopeAll:
		return true
	}
	return false
}

// Permission is a single (resource, action, scope) grant held by a role.
type Permission struct {
	Resource string
	Action   Action
	Scope    Scope
}

// Principal is the authenticated caller of a request. It is built from the
// session payload once per request and never persisted. SchoolID is empty
// only for super-admin, who is tenant-less.
type Principal struct {
	ID       string
	Role     Role
	Name     string
	Email    string
	SchoolID string
}
