package users

import (
	"errors"
	"time"

	"github.com/lyceum-sms/lyceum-sms/internal/authz"
)

// User is the account record exposed by the users module. The password hash
// never leaves the repository layer.
type User struct {
	ID        string     `json:"id"`
	SchoolID  string     `json:"schoolId,omitempty"`
	Role      authz.Role `json:"role"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	IsActive  bool       `json:"isActive"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// CreateUserInput carries the fields needed to provision an account.
type CreateUserInput struct {
	Role     authz.Role
	SchoolID string
	Name     string
	Email    string
	Password string
}

// ListFilter restricts user listings.
type ListFilter struct {
	// AllSchools disables tenant filtering; otherwise SchoolIDs lists the
	// schools the caller may see.
	AllSchools bool
	SchoolIDs  []string
	Role       authz.Role
	Page       int
	PerPage    int
}

var (
	// ErrRoleNotAllowed means the caller's role may not provision the target role.
	ErrRoleNotAllowed = errors.New("users: role creation not allowed")
	// ErrSchoolRequired means the target role needs a school and none was resolved.
	ErrSchoolRequired = errors.New("users: school required")
)
