package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/lyceum-sms/lyceum-sms/internal/authz"
	"github.com/lyceum-sms/lyceum-sms/internal/shared"
)

type mockRepository struct {
	created    []CreateUserInput
	lastHash   string
	users      map[string]User
	listFilter ListFilter
}

func newMockRepository() *mockRepository {
	return &mockRepository{users: make(map[string]User)}
}

func (m *mockRepository) Create(ctx context.Context, input CreateUserInput, passwordHash string) (User, error) {
	m.created = append(m.created, input)
	m.lastHash = passwordHash
	u := User{ID: "generated", SchoolID: input.SchoolID, Role: input.Role, Name: input.Name, Email: input.Email, IsActive: true}
	m.users[u.ID] = u
	return u, nil
}

func (m *mockRepository) Get(ctx context.Context, id string) (User, error) {
	u, ok := m.users[id]
	if !ok {
		return User{}, shared.ErrNotFound
	}
	return u, nil
}

func (m *mockRepository) List(ctx context.Context, filter ListFilter) ([]User, int, error) {
	m.listFilter = filter
	return nil, 0, nil
}

func (m *mockRepository) UpdateName(ctx context.Context, id, name string) (User, error) {
	u, ok := m.users[id]
	if !ok {
		return User{}, shared.ErrNotFound
	}
	u.Name = name
	m.users[id] = u
	return u, nil
}

func TestCreateUserHierarchy(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil)
	ctx := context.Background()

	admin := authz.Principal{ID: "A1", Role: authz.RoleSuperAdmin}
	principal := authz.Principal{ID: "P1", Role: authz.RolePrincipal, SchoolID: "S1"}
	teacher := authz.Principal{ID: "T1", Role: authz.RoleTeacher, SchoolID: "S1"}

	_, err := svc.CreateUser(ctx, admin, CreateUserInput{Role: authz.RoleTeacher, SchoolID: "S1", Name: "x y", Email: "t@s1.test", Password: "secret123"})
	assert.ErrorIs(t, err, ErrRoleNotAllowed, "super-admin does not create teachers directly")

	_, err = svc.CreateUser(ctx, principal, CreateUserInput{Role: authz.RolePrincipal, Name: "x y", Email: "p@s1.test", Password: "secret123"})
	assert.ErrorIs(t, err, ErrRoleNotAllowed, "principal does not create principals")

	_, err = svc.CreateUser(ctx, teacher, CreateUserInput{Role: authz.RoleStudent, Name: "x y", Email: "s@s1.test", Password: "secret123"})
	assert.ErrorIs(t, err, ErrRoleNotAllowed, "teacher creates no accounts")

	created, err := svc.CreateUser(ctx, principal, CreateUserInput{Role: authz.RoleStudent, SchoolID: "S9", Name: "ada lovelace", Email: "ada@s1.test", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, "S1", created.SchoolID, "principal provisions inside their own school regardless of payload")
	assert.Equal(t, "Ada Lovelace", created.Name)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.lastHash), []byte("secret123")))
}

func TestCreateUserSchoolResolution(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil)
	ctx := context.Background()
	admin := authz.Principal{ID: "A1", Role: authz.RoleSuperAdmin}

	_, err := svc.CreateUser(ctx, admin, CreateUserInput{Role: authz.RolePrincipal, Name: "n n", Email: "p@test", Password: "secret123"})
	assert.ErrorIs(t, err, ErrSchoolRequired, "a principal account must belong to a school")

	created, err := svc.CreateUser(ctx, admin, CreateUserInput{Role: authz.RoleSuperAdmin, SchoolID: "S1", Name: "root admin", Email: "root@test", Password: "secret123"})
	require.NoError(t, err)
	assert.Empty(t, created.SchoolID, "super-admin accounts are tenant-less")
}

func TestUpdateOwnNameNormalizes(t *testing.T) {
	repo := newMockRepository()
	repo.users["U1"] = User{ID: "U1", Name: "old"}
	svc := NewService(repo, nil)

	u, err := svc.UpdateOwnName(context.Background(), "U1", "  grace   hopper ")
	require.NoError(t, err)
	assert.Equal(t, "Grace Hopper", u.Name)
}
