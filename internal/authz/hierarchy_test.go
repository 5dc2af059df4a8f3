package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanAccessSchool(t *testing.T) {
	// Super-admin crosses every boundary, including with no school of its own.
	assert.True(t, CanAccessSchool(RoleSuperAdmin, "", "school-A"))
	assert.True(t, CanAccessSchool(RoleSuperAdmin, "school-A", "school-B"))

	// Everyone else stays inside their tenant.
	for _, role := range []Role{RolePrincipal, RoleTeacher, RoleStudent} {
		assert.True(t, CanAccessSchool(role, "school-A", "school-A"), "role %s", role)
		assert.False(t, CanAccessSchool(role, "school-A", "school-B"), "role %s", role)
		assert.False(t, CanAccessSchool(role, "", "school-A"), "empty caller school must not match, role %s", role)
	}
}

func TestCanAccessUserSelfAlwaysWins(t *testing.T) {
	for _, role := range []Role{RoleSuperAdmin, RolePrincipal, RoleTeacher, RoleStudent} {
		assert.True(t, CanAccessUser(role, "U1", "U1", "school-A", "school-B", RolePrincipal),
			"self-access must hold across tenants for role %s", role)
	}
}

func TestCanAccessUserHierarchy(t *testing.T) {
	// Principal reaches any user of their own school, no one elsewhere.
	assert.True(t, CanAccessUser(RolePrincipal, "P1", "U2", "S1", "S1", RoleTeacher))
	assert.False(t, CanAccessUser(RolePrincipal, "P1", "U2", "S1", "S2", RoleTeacher))

	// Teacher reaches same-school students only; peers and principals are out.
	assert.True(t, CanAccessUser(RoleTeacher, "T1", "U2", "S1", "S1", RoleStudent))
	assert.False(t, CanAccessUser(RoleTeacher, "T1", "U2", "S1", "S2", RoleStudent))
	assert.False(t, CanAccessUser(RoleTeacher, "T1", "U2", "S1", "S1", RoleTeacher))
	assert.False(t, CanAccessUser(RoleTeacher, "T1", "U2", "S1", "S1", RolePrincipal))

	// Students hold no hierarchical grant over peers, even same-school.
	assert.False(t, CanAccessUser(RoleStudent, "U1", "U2", "S1", "S1", RoleStudent))

	// Super-admin reaches everyone.
	assert.True(t, CanAccessUser(RoleSuperAdmin, "A1", "U2", "", "S2", RoleStudent))
}

func TestAccessibleSchools(t *testing.T) {
	assert.Equal(t, SchoolFilter{All: true}, AccessibleSchools(RoleSuperAdmin, ""))
	assert.Equal(t, SchoolFilter{All: true}, AccessibleSchools(RoleSuperAdmin, "S1"))

	assert.Equal(t, SchoolFilter{IDs: []string{"S1"}}, AccessibleSchools(RolePrincipal, "S1"))
	assert.Equal(t, SchoolFilter{IDs: []string{"S1"}}, AccessibleSchools(RoleStudent, "S1"))

	// A non-super-admin without a school may query nothing.
	assert.Equal(t, SchoolFilter{}, AccessibleSchools(RoleTeacher, ""))
}

func TestCanCreateRoleMatrix(t *testing.T) {
	cases := []struct {
		caller Role
		target Role
		want   bool
	}{
		{RoleSuperAdmin, RolePrincipal, true},
		{RoleSuperAdmin, RoleSuperAdmin, true},
		{RoleSuperAdmin, RoleTeacher, false},
		{RoleSuperAdmin, RoleStudent, false},
		{RolePrincipal, RoleTeacher, true},
		{RolePrincipal, RoleStudent, true},
		{RolePrincipal, RolePrincipal, false},
		{RolePrincipal, RoleSuperAdmin, false},
		{RoleTeacher, RoleStudent, false},
		{RoleTeacher, RoleTeacher, false},
		{RoleStudent, RoleStudent, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, CanCreateRole(tc.caller, tc.target), "%s creates %s", tc.caller, tc.target)
	}
}
