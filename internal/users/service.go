package users

import (
	"context"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/lyceum-sms/lyceum-sms/internal/authz"
	"github.com/lyceum-sms/lyceum-sms/internal/shared"
)

// Service wraps account provisioning rules on top of the repository.
type Service struct {
	repo  Repository
	audit *shared.AuditLogger
	title cases.Caser
}

// NewService constructs a new Service.
func NewService(repo Repository, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, audit: audit, title: cases.Title(language.Und)}
}

// CreateUser provisions an account on behalf of actor. The creation hierarchy
// is strict: super-admin provisions principals and super-admins, a principal
// provisions teachers and students of their own school. The target school is
// always resolved from the actor for principals; super-admin must name one
// explicitly when the target role is school-bound.
func (s *Service) CreateUser(ctx context.Context, actor authz.Principal, input CreateUserInput) (User, error) {
	if !authz.CanCreateRole(actor.Role, input.Role) {
		return User{}, ErrRoleNotAllowed
	}

	switch actor.Role {
	case authz.RolePrincipal:
		// A principal provisions accounts only inside their own tenant,
		// whatever the payload claims.
		input.SchoolID = actor.SchoolID
	case authz.RoleSuperAdmin:
		if input.Role == authz.RoleSuperAdmin {
			input.SchoolID = ""
		}
	}
	if input.Role != authz.RoleSuperAdmin && input.SchoolID == "" {
		return User{}, ErrSchoolRequired
	}

	input.Name = s.normalizeName(input.Name)
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}

	created, err := s.repo.Create(ctx, input, string(hash))
	if err != nil {
		return User{}, err
	}
	if s.audit != nil {
		if err := s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actor.ID,
			SchoolID: created.SchoolID,
			Action:   "user.create",
			Entity:   "user",
			EntityID: created.ID,
			Meta:     map[string]any{"role": string(created.Role)},
		}); err != nil {
			// Account already exists at this point; do not fail the call.
			return created, nil
		}
	}
	return created, nil
}

// GetUser fetches a single account.
func (s *Service) GetUser(ctx context.Context, id string) (User, error) {
	return s.repo.Get(ctx, id)
}

// ListUsers returns accounts visible through the given filter.
func (s *Service) ListUsers(ctx context.Context, filter ListFilter) ([]User, shared.Pagination, error) {
	list, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return list, shared.NewPagination(filter.Page, filter.PerPage, total), nil
}

// UpdateOwnName lets a user change their display name.
func (s *Service) UpdateOwnName(ctx context.Context, actorID, name string) (User, error) {
	return s.repo.UpdateName(ctx, actorID, s.normalizeName(name))
}

func (s *Service) normalizeName(name string) string {
	return s.title.String(strings.Join(strings.Fields(name), " "))
}
