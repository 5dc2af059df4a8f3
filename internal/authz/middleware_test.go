package authz_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lyceum-sms/lyceum-sms/internal/authz"
	"github.com/lyceum-sms/lyceum-sms/internal/platform/httpx"
	"github.com/lyceum-sms/lyceum-sms/internal/shared"
	_ "github.com/lyceum-sms/lyceum-sms/testing"
)

type recordedDecision struct {
	allowed bool
	code    string
}

type decisionRecorder struct {
	decisions []recordedDecision
}

func (r *decisionRecorder) RecordAuthzDecision(allowed bool, code string) {
	r.decisions = append(r.decisions, recordedDecision{allowed: allowed, code: code})
}

func newMiddleware(t *testing.T) (authz.Middleware, *decisionRecorder) {
	t.Helper()
	recorder := &decisionRecorder{}
	return authz.Middleware{
		Evaluator: authz.NewEvaluator(authz.NewRegistry()),
		Metrics:   recorder,
	}, recorder
}

func requestWithPrincipal(t *testing.T, payload *shared.PrincipalPayload) *http.Request {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	manager := shared.NewSessionManager(client, "test_session", "secret", time.Hour, false)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	sess, err := manager.Load(context.Background(), req)
	require.NoError(t, err)
	if payload != nil {
		sess.SetPrincipal(*payload)
	}
	return req.WithContext(shared.ContextWithSession(req.Context(), sess))
}

func decodeEnvelope(t *testing.T, res *httptest.ResponseRecorder) httpx.Envelope {
	t.Helper()
	var env httpx.Envelope
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &env))
	return env
}

func TestAuthorizeWithoutSession(t *testing.T) {
	mw, recorder := newMiddleware(t)

	// Authentication is checked before the role gate: even a request that
	// would also fail the allow-list comes back as 401, not 403.
	req := requestWithPrincipal(t, nil)
	_, denial := mw.Authorize(req, authz.Policy{Roles: []authz.Role{authz.RolePrincipal}})
	require.NotNil(t, denial)
	assert.Equal(t, http.StatusUnauthorized, denial.Status)
	assert.Equal(t, authz.CodeAuthenticationRequired, denial.Code)
	assert.Equal(t, []recordedDecision{{allowed: false, code: authz.CodeAuthenticationRequired}}, recorder.decisions)
}

func TestAuthorizeMalformedSessionRole(t *testing.T) {
	mw, _ := newMiddleware(t)

	req := requestWithPrincipal(t, &shared.PrincipalPayload{ID: "U1", Role: "superuser"})
	_, denial := mw.Authorize(req, authz.Policy{})
	require.NotNil(t, denial)
	assert.Equal(t, authz.CodeAuthenticationRequired, denial.Code)
}

func TestAuthorizeRoleGate(t *testing.T) {
	mw, _ := newMiddleware(t)
	req := requestWithPrincipal(t, &shared.PrincipalPayload{ID: "T1", Role: "teacher", SchoolID: "S1"})

	_, denial := mw.Authorize(req, authz.Policy{Roles: []authz.Role{authz.RolePrincipal, authz.RoleSuperAdmin}})
	require.NotNil(t, denial)
	assert.Equal(t, http.StatusForbidden, denial.Status)
	assert.Equal(t, authz.CodeInsufficientRole, denial.Code)
	assert.Contains(t, denial.Message, "principal")
	assert.Contains(t, denial.Message, "super-admin")
}

func TestAuthorizePermissionGate(t *testing.T) {
	mw, recorder := newMiddleware(t)
	req := requestWithPrincipal(t, &shared.PrincipalPayload{ID: "T1", Role: "teacher", SchoolID: "S1"})

	// Teacher recording marks for an assigned class is covered.
	p, denial := mw.Authorize(req, authz.Policy{
		Resource: authz.ResourceMarks,
		Action:   authz.ActionCreate,
		Scope:    authz.ScopeAssigned,
	})
	require.Nil(t, denial)
	assert.Equal(t, "T1", p.ID)
	assert.Equal(t, authz.RoleTeacher, p.Role)

	// The same request at school scope is not.
	_, denial = mw.Authorize(req, authz.Policy{
		Resource: authz.ResourceMarks,
		Action:   authz.ActionCreate,
		Scope:    authz.ScopeSchool,
	})
	require.NotNil(t, denial)
	assert.Equal(t, authz.CodeInsufficientPermission, denial.Code)
	assert.Contains(t, denial.Message, "marks")

	assert.Equal(t, []recordedDecision{
		{allowed: true},
		{allowed: false, code: authz.CodeInsufficientPermission},
	}, recorder.decisions)
}

func TestRequireWritesDenyEnvelope(t *testing.T) {
	mw, _ := newMiddleware(t)

	var sawPrincipal bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, sawPrincipal = authz.PrincipalFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	protected := mw.Require(authz.Policy{Roles: []authz.Role{authz.RoleSuperAdmin}})(next)

	res := httptest.NewRecorder()
	protected.ServeHTTP(res, requestWithPrincipal(t, &shared.PrincipalPayload{ID: "U1", Role: "student", SchoolID: "S1"}))

	assert.Equal(t, http.StatusForbidden, res.Code)
	assert.False(t, sawPrincipal)
	env := decodeEnvelope(t, res)
	assert.False(t, env.Success)
	assert.Equal(t, authz.CodeInsufficientRole, env.Error)

	res = httptest.NewRecorder()
	protected.ServeHTTP(res, requestWithPrincipal(t, &shared.PrincipalPayload{ID: "A1", Role: "super-admin"}))
	assert.Equal(t, http.StatusNoContent, res.Code)
	assert.True(t, sawPrincipal)
}

func TestRequireSchoolAccessGuard(t *testing.T) {
	mw, _ := newMiddleware(t)
	teacher := authz.Principal{ID: "T1", Role: authz.RoleTeacher, SchoolID: "S1"}
	admin := authz.Principal{ID: "A1", Role: authz.RoleSuperAdmin}

	denial := mw.RequireSchoolAccess(teacher, "")
	require.NotNil(t, denial)
	assert.Equal(t, http.StatusBadRequest, denial.Status)
	assert.Equal(t, authz.CodeSchoolInfoMissing, denial.Code)

	denial = mw.RequireSchoolAccess(teacher, "S2")
	require.NotNil(t, denial)
	assert.Equal(t, http.StatusForbidden, denial.Status)
	assert.Equal(t, authz.CodeSchoolAccessDenied, denial.Code)

	assert.Nil(t, mw.RequireSchoolAccess(teacher, "S1"))
	assert.Nil(t, mw.RequireSchoolAccess(admin, "S2"))
}

func TestRequireSameSchoolGuard(t *testing.T) {
	mw, _ := newMiddleware(t)

	// A super-admin's missing school never blocks the check.
	assert.Nil(t, mw.RequireSameSchool(authz.Principal{ID: "A1", Role: authz.RoleSuperAdmin}, "S1"))

	// A non-super-admin without a tenant is a data problem, not a denial.
	orphan := authz.Principal{ID: "T1", Role: authz.RoleTeacher}
	denial := mw.RequireSameSchool(orphan, "S1")
	require.NotNil(t, denial)
	assert.Equal(t, authz.CodeSchoolInfoMissing, denial.Code)

	member := authz.Principal{ID: "T1", Role: authz.RoleTeacher, SchoolID: "S1"}
	assert.Nil(t, mw.RequireSameSchool(member, "S1"))
	denial = mw.RequireSameSchool(member, "S2")
	require.NotNil(t, denial)
	assert.Equal(t, authz.CodeSchoolAccessDenied, denial.Code)
}
