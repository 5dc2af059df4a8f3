package authz

// Hierarchical access predicates. These are independent of the grant table:
// they answer tenant and ownership questions for a concrete (caller, target)
// pair. All of them are pure and fail closed on missing identifiers.

// CanAccessSchool reports whether a caller with the given role and school may
// touch data belonging to targetSchoolID. Super-admin crosses every tenant
// boundary; everyone else stays inside their own school. An empty caller
// school never matches a non-empty target.
func CanAccessSchool(role Role, callerSchoolID, targetSchoolID string) bool {
	if role == RoleSuperAdmin {
		return true
	}
	return callerSchoolID != "" && callerSchoolID == targetSchoolID
}

// CanAccessUser reports whether the caller may access the target user record.
// Self-access is always allowed regardless of role or tenant. A principal
// reaches every user of their school; a teacher reaches students of their
// school. Narrowing teacher access to assigned classes is the calling
// handler's concern, not decided here.
func CanAccessUser(role Role, callerID, targetID, callerSchoolID, targetSchoolID string, targetRole Role) bool {
	if role == RoleSuperAdmin {
		return true
	}
	if callerID != "" && callerID == targetID {
		return true
	}
	sameSchool := callerSchoolID != "" && callerSchoolID == targetSchoolID
	switch role {
	case RolePrincipal:
		return sameSchool
	case RoleTeacher:
		return sameSchool && targetRole == RoleStudent
	}
	return false
}

// SchoolFilter is the result of AccessibleSchools. All set means "apply no
// school filter"; otherwise IDs lists the schools a query may touch, possibly
// none.
type SchoolFilter struct {
	All bool
	IDs []string
}

// AccessibleSchools resolves the set of schools a caller may query. It never
// touches storage; handlers use it to build tenant-filtered queries.
func AccessibleSchools(role Role, callerSchoolID string) SchoolFilter {
	if role == RoleSuperAdmin {
		return SchoolFilter{All: true}
	}
	if callerSchoolID == "" {
		return SchoolFilter{}
	}
	return SchoolFilter{IDs: []string{callerSchoolID}}
}

// CanCreateRole encodes the strict, non-transitive account creation
// hierarchy: super-admin provisions principals (and other super-admins),
// a principal provisions teachers and students of their school. Every other
// pair is denied; in particular super-admin does not create teachers or
// students directly, and a principal cannot create another principal.
func CanCreateRole(callerRole, targetRole Role) bool {
	switch callerRole {
	case RoleSuperAdmin:
		return targetRole == RolePrincipal || targetRole == RoleSuperAdmin
	case RolePrincipal:
		return targetRole == RoleTeacher || targetRole == RoleStudent
	}
	return false
}
