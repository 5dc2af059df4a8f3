package auth

import (
	"time"

	"github.com/lyceum-sms/lyceum-sms/internal/authz"
)

// User represents an authenticated user account.
type User struct {
	ID           string
	SchoolID     string
	Role         authz.Role
	Name         string
	Email        string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
