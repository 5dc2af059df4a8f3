package authz

// Resource names used by the grant table. The resource vocabulary is open;
// these constants cover the nouns the platform ships with.
const (
	ResourceSchools    = "schools"
	ResourceUsers      = "users"
	ResourcePrincipals = "principals"
	ResourceTeachers   = "teachers"
	ResourceStudents   = "students"
	ResourceAttendance = "attendance"
	ResourceMarks      = "marks"
	ResourceCourses    = "courses"
	ResourceContent    = "content"
	ResourceReports    = "reports"
)

// Registry holds the fixed grant list per role. It is built once at process
// start and is read-only afterwards, so it is safe for unbounded concurrent
// readers without locking.
type Registry struct {
	grants map[Role][]Permission
}

// NewRegistry builds the platform grant table.
func NewRegistry() *Registry {
	return &Registry{grants: map[Role][]Permission{
		RoleSuperAdmin: {
			{Resource: ResourceSchools, Action: ActionManage, Scope: ScopeAll},
			{Resource: ResourceUsers, Action: ActionManage, Scope: ScopeAll},
			{Resource: ResourcePrincipals, Action: ActionManage, Scope: ScopeAll},
			{Resource: ResourceAttendance, Action: ActionRead, Scope: ScopeAll},
			{Resource: ResourceMarks, Action: ActionRead, Scope: ScopeAll},
			{Resource: ResourceCourses, Action: ActionRead, Scope: ScopeAll},
			{Resource: ResourceContent, Action: ActionManage, Scope: ScopeAll},
			{Resource: ResourceReports, Action: ActionRead, Scope: ScopeAll},
		},
		RolePrincipal: {
			{Resource: ResourceSchools, Action: ActionRead, Scope: ScopeOwn},
			{Resource: ResourceSchools, Action: ActionUpdate, Scope: ScopeOwn},
			{Resource: ResourceTeachers, Action: ActionManage, Scope: ScopeSchool},
			{Resource: ResourceStudents, Action: ActionManage, Scope: ScopeSchool},
			{Resource: ResourceUsers, Action: ActionRead, Scope: ScopeSchool},
			{Resource: ResourceAttendance, Action: ActionManage, Scope: ScopeSchool},
			{Resource: ResourceMarks, Action: ActionManage, Scope: ScopeSchool},
			{Resource: ResourceCourses, Action: ActionManage, Scope: ScopeSchool},
			{Resource: ResourceContent, Action: ActionManage, Scope: ScopeSchool},
			{Resource: ResourceReports, Action: ActionRead, Scope: ScopeSchool},
		},
		RoleTeacher: {
			{Resource: ResourceStudents, Action: ActionRead, Scope: ScopeAssigned},
			{Resource: ResourceAttendance, Action: ActionManage, Scope: ScopeAssigned},
			{Resource: ResourceMarks, Action: ActionCreate, Scope: ScopeAssigned},
			{Resource: ResourceMarks, Action: ActionRead, Scope: ScopeAssigned},
			{Resource: ResourceMarks, Action: ActionUpdate, Scope: ScopeAssigned},
			{Resource: ResourceCourses, Action: ActionRead, Scope: ScopeAssigned},
			{Resource: ResourceContent, Action: ActionRead, Scope: ScopeAssigned},
			{Resource: ResourceContent, Action: ActionCreate, Scope: ScopeAssigned},
		},
		RoleStudent: {
			{Resource: ResourceAttendance, Action: ActionRead, Scope: ScopeOwn},
			{Resource: ResourceMarks, Action: ActionRead, Scope: ScopeOwn},
			{Resource: ResourceCourses, Action: ActionRead, Scope: ScopeOwn},
			{Resource: ResourceContent, Action: ActionRead, Scope: ScopeOwn},
			{Resource: ResourceUsers, Action: ActionUpdate, Scope: ScopeOwn},
		},
	}}
}

// Grants returns the grant list for role. Unknown roles yield an empty list,
// never nil dereferences: lookups fail closed.
func (r *Registry) Grants(role Role) []Permission {
	if r == nil {
		return nil
	}
	return r.grants[role]
}
