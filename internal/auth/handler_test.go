package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/lyceum-sms/lyceum-sms/internal/authz"
	"github.com/lyceum-sms/lyceum-sms/internal/platform/httpx"
	"github.com/lyceum-sms/lyceum-sms/internal/shared"
	_ "github.com/lyceum-sms/lyceum-sms/testing"
)

type stubRepository struct {
	user            *User
	sessionsCreated []string
	sessionsDeleted []string
}

func (s *stubRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	if s.user == nil || s.user.Email != email {
		return nil, shared.ErrNotFound
	}
	u := *s.user
	return &u, nil
}

func (s *stubRepository) CreateSession(ctx context.Context, id, userID string, expiresAt time.Time, ip, ua string) error {
	s.sessionsCreated = append(s.sessionsCreated, id)
	return nil
}

func (s *stubRepository) DeleteSession(ctx context.Context, id string) error {
	s.sessionsDeleted = append(s.sessionsDeleted, id)
	return nil
}

func newTestHandler(t *testing.T, repo *stubRepository) (*Handler, *shared.SessionManager) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sessions := shared.NewSessionManager(client, "test_session", "secret", time.Hour, false)
	csrf := shared.NewCSRFManager("csrf-secret")
	mw := authz.Middleware{Evaluator: authz.NewEvaluator(authz.NewRegistry())}
	return NewHandler(nil, NewService(repo), sessions, csrf, mw), sessions
}

func requestWithSession(t *testing.T, sessions *shared.SessionManager, method, path, body string) (*http.Request, *shared.Session) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	sess, err := sessions.Load(context.Background(), req)
	require.NoError(t, err)
	return req.WithContext(shared.ContextWithSession(req.Context(), sess)), sess
}

func teacherAccount(t *testing.T) *User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)
	return &User{
		ID:           "T1",
		SchoolID:     "S1",
		Role:         authz.RoleTeacher,
		Name:         "Jo Teacher",
		Email:        "jo@s1.test",
		PasswordHash: string(hash),
		IsActive:     true,
	}
}

func TestLoginStoresPrincipal(t *testing.T) {
	repo := &stubRepository{user: teacherAccount(t)}
	handler, sessions := newTestHandler(t, repo)

	req, sess := requestWithSession(t, sessions, http.MethodPost, "/auth/login",
		`{"email":"jo@s1.test","password":"secret123"}`)
	res := httptest.NewRecorder()
	handler.login(res, req)

	require.Equal(t, http.StatusOK, res.Code)
	principal := sess.Principal()
	require.NotNil(t, principal)
	assert.Equal(t, "T1", principal.ID)
	assert.Equal(t, "teacher", principal.Role)
	assert.Equal(t, "S1", principal.SchoolID)
	assert.Equal(t, []string{sess.ID}, repo.sessionsCreated)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	account := teacherAccount(t)
	inactive := *account
	inactive.IsActive = false

	cases := []struct {
		name string
		repo *stubRepository
		body string
	}{
		{"unknown account", &stubRepository{}, `{"email":"jo@s1.test","password":"secret123"}`},
		{"wrong password", &stubRepository{user: account}, `{"email":"jo@s1.test","password":"wrong password"}`},
		{"inactive account", &stubRepository{user: &inactive}, `{"email":"jo@s1.test","password":"secret123"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler, sessions := newTestHandler(t, tc.repo)
			req, sess := requestWithSession(t, sessions, http.MethodPost, "/auth/login", tc.body)
			res := httptest.NewRecorder()
			handler.login(res, req)

			assert.Equal(t, http.StatusBadRequest, res.Code)
			var env httpx.Envelope
			require.NoError(t, json.Unmarshal(res.Body.Bytes(), &env))
			assert.Equal(t, "invalid_credentials", env.Error)
			assert.Nil(t, sess.Principal())
		})
	}
}

func TestMeRequiresAuthentication(t *testing.T) {
	handler, sessions := newTestHandler(t, &stubRepository{})

	req, _ := requestWithSession(t, sessions, http.MethodGet, "/auth/me", "")
	res := httptest.NewRecorder()
	handler.me(res, req)
	assert.Equal(t, http.StatusUnauthorized, res.Code)

	req, sess := requestWithSession(t, sessions, http.MethodGet, "/auth/me", "")
	sess.SetPrincipal(shared.PrincipalPayload{ID: "T1", Role: "teacher", SchoolID: "S1"})
	res = httptest.NewRecorder()
	handler.me(res, req)
	require.Equal(t, http.StatusOK, res.Code)
	var env httpx.Envelope
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &env))
	assert.True(t, env.Success)
}

func TestLogoutRemovesSession(t *testing.T) {
	repo := &stubRepository{}
	handler, sessions := newTestHandler(t, repo)

	req, sess := requestWithSession(t, sessions, http.MethodPost, "/auth/logout", "")
	sess.SetPrincipal(shared.PrincipalPayload{ID: "T1", Role: "teacher"})
	res := httptest.NewRecorder()
	handler.logout(res, req)

	assert.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, []string{sess.ID}, repo.sessionsDeleted)
}
