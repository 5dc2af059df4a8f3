package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllowsResourceExactness(t *testing.T) {
	ev := NewEvaluator(NewRegistry())

	// attendance read is granted to everyone who works with attendance records.
	assert.True(t, ev.Allows(RoleTeacher, ResourceAttendance, ActionRead, ScopeNone))
	assert.True(t, ev.Allows(RolePrincipal, ResourceAttendance, ActionRead, ScopeNone))
	assert.True(t, ev.Allows(RoleSuperAdmin, ResourceAttendance, ActionRead, ScopeNone))

	// A resource outside the grant list never matches, regardless of action.
	assert.False(t, ev.Allows(RoleStudent, "billing", ActionRead, ScopeNone))
	assert.False(t, ev.Allows(RoleTeacher, "Attendance", ActionRead, ScopeNone), "resource match is case-sensitive")
}

func TestAllowsManageWildcard(t *testing.T) {
	ev := NewEvaluator(NewRegistry())

	// principal holds {teachers, manage, school}; manage subsumes every action.
	for _, action := range []Action{ActionCreate, ActionRead, ActionUpdate, ActionManage} {
		assert.True(t, ev.Allows(RolePrincipal, ResourceTeachers, action, ScopeSchool), "action %s", action)
	}

	// The wildcard does not run the other way: a create grant does not cover manage.
	assert.False(t, ev.Allows(RoleTeacher, ResourceMarks, ActionManage, ScopeAssigned))
}

func TestAllowsScopeWildcard(t *testing.T) {
	ev := NewEvaluator(NewRegistry())

	// super-admin holds {users, manage, all}; all subsumes any requested scope.
	for _, scope := range []Scope{ScopeOwn, ScopeSchool, ScopeAssigned, ScopeAll, ScopeNone} {
		assert.True(t, ev.Allows(RoleSuperAdmin, ResourceUsers, ActionManage, scope), "scope %q", scope)
	}
}

func TestAllowsScopeNarrowing(t *testing.T) {
	ev := NewEvaluator(NewRegistry())

	// Teacher holds {marks, create, assigned}.
	assert.True(t, ev.Allows(RoleTeacher, ResourceMarks, ActionCreate, ScopeAssigned))

	// No teacher grant carries scope school or all for marks.
	assert.False(t, ev.Allows(RoleTeacher, ResourceMarks, ActionCreate, ScopeSchool))
	assert.False(t, ev.Allows(RoleTeacher, ResourceMarks, ActionCreate, ScopeAll))

	// An unqualified request matches any scope.
	assert.True(t, ev.Allows(RoleTeacher, ResourceMarks, ActionCreate, ScopeNone))
}

func TestAllowsIsTotal(t *testing.T) {
	ev := NewEvaluator(NewRegistry())

	assert.False(t, ev.Allows(Role("janitor"), ResourceMarks, ActionRead, ScopeNone))
	assert.False(t, ev.Allows(RoleTeacher, ResourceMarks, Action("delete"), ScopeNone))
	assert.False(t, ev.Allows(RoleTeacher, ResourceMarks, ActionRead, Scope("galaxy")))

	var nilEv *Evaluator
	assert.False(t, nilEv.Allows(RoleTeacher, ResourceMarks, ActionRead, ScopeNone))
}

func TestRegistryUnknownRole(t *testing.T) {
	reg := NewRegistry()
	assert.Empty(t, reg.Grants(Role("visitor")))

	var nilReg *Registry
	assert.Empty(t, nilReg.Grants(RoleTeacher))
}
