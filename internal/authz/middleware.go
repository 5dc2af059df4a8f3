package authz

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/lyceum-sms/lyceum-sms/internal/platform/httpx"
	"github.com/lyceum-sms/lyceum-sms/internal/shared"
)

// Policy is the declarative per-endpoint authorization requirement a handler
// supplies. Zero-value fields disable their gate: an empty Roles list skips
// the role gate, an empty Resource/Action pair skips the permission gate.
type Policy struct {
	Roles    []Role
	Resource string
	Action   Action
	Scope    Scope
}

// DecisionMetrics records authorization outcomes.
type DecisionMetrics interface {
	RecordAuthzDecision(allowed bool, code string)
}

// Middleware wires the authorization pipeline for HTTP handlers.
type Middleware struct {
	Evaluator *Evaluator
	Logger    *slog.Logger
	Metrics   DecisionMetrics
}

// Authenticate extracts the principal from the request session. The second
// return is false whenever no well-formed identity is present; a malformed
// session is indistinguishable from an absent one.
func (m Middleware) Authenticate(r *http.Request) (Principal, bool) {
	payload := shared.SessionFromContext(r.Context()).Principal()
	if payload == nil || payload.ID == "" {
		return Principal{}, false
	}
	role, ok := ParseRole(payload.Role)
	if !ok {
		return Principal{}, false
	}
	return Principal{
		ID:       payload.ID,
		Role:     role,
		Name:     payload.Name,
		Email:    payload.Email,
		SchoolID: payload.SchoolID,
	}, true
}

// Authorize runs the three-gate pipeline: authenticate, role gate, permission
// gate. Each gate short-circuits; a nil Denial means the request passed and
// the returned Principal is valid. Nothing is fetched or mutated on success.
func (m Middleware) Authorize(r *http.Request, policy Policy) (Principal, *Denial) {
	p, ok := m.Authenticate(r)
	if !ok {
		return Principal{}, m.record(denyUnauthenticated())
	}

	if len(policy.Roles) > 0 && !roleIn(p.Role, policy.Roles) {
		return Principal{}, m.record(denyForbidden(
			CodeInsufficientRole,
			fmt.Sprintf("requires one of roles: %s", joinRoles(policy.Roles)),
		))
	}

	if policy.Resource != "" && policy.Action != "" {
		if !m.Evaluator.Allows(p.Role, policy.Resource, policy.Action, policy.Scope) {
			return Principal{}, m.record(denyForbidden(
				CodeInsufficientPermission,
				fmt.Sprintf("not permitted to %s %s", policy.Action, policy.Resource),
			))
		}
	}

	if m.Metrics != nil {
		m.Metrics.RecordAuthzDecision(true, "")
	}
	return p, nil
}

// Require adapts Authorize into chi middleware. On success the principal is
// stored in the request context; on failure the denial is written and the
// chain stops.
func (m Middleware) Require(policy Policy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, denial := m.Authorize(r, policy)
			if denial != nil {
				m.logDenial(r, denial)
				denial.WriteTo(w)
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(r.Context(), p)))
		})
	}
}

// RequireRoles gates an endpoint on a role allow-list only.
func (m Middleware) RequireRoles(roles ...Role) func(http.Handler) http.Handler {
	return m.Require(Policy{Roles: roles})
}

// RequirePermission gates an endpoint on a registry permission only.
func (m Middleware) RequirePermission(resource string, action Action, scope Scope) func(http.Handler) http.Handler {
	return m.Require(Policy{Resource: resource, Action: action, Scope: scope})
}

// RequireSchoolAccess guards a school-scoped operation after Authorize has
// passed. A missing target school is a data problem (400), a tenant mismatch
// a policy denial (403).
func (m Middleware) RequireSchoolAccess(p Principal, targetSchoolID string) *Denial {
	if targetSchoolID == "" {
		return m.record(denySchoolInfoMissing())
	}
	if !CanAccessSchool(p.Role, p.SchoolID, targetSchoolID) {
		return m.record(denyForbidden(CodeSchoolAccessDenied, "access to this school is denied"))
	}
	return nil
}

// RequireSameSchool is the strict variant for operations that must happen
// inside the caller's own tenant: a non-super-admin caller without a school
// of their own is a data problem, not a policy denial.
func (m Middleware) RequireSameSchool(p Principal, targetSchoolID string) *Denial {
	if p.Role == RoleSuperAdmin {
		return nil
	}
	if p.SchoolID == "" || targetSchoolID == "" {
		return m.record(denySchoolInfoMissing())
	}
	if !CanAccessSchool(p.Role, p.SchoolID, targetSchoolID) {
		return m.record(denyForbidden(CodeSchoolAccessDenied, "access to this school is denied"))
	}
	return nil
}

// WriteTo renders the denial as the standard error envelope.
func (d *Denial) WriteTo(w http.ResponseWriter) {
	httpx.Fail(w, d.Status, d.Code, d.Message)
}

func (m Middleware) record(d *Denial) *Denial {
	if d != nil && m.Metrics != nil {
		m.Metrics.RecordAuthzDecision(false, d.Code)
	}
	return d
}

func (m Middleware) logDenial(r *http.Request, d *Denial) {
	if m.Logger == nil {
		return
	}
	m.Logger.Warn("authorization denied",
		slog.String("code", d.Code),
		slog.Int("status", d.Status),
		slog.String("path", r.URL.Path),
	)
}

func roleIn(role Role, allowed []Role) bool {
	for _, a := range allowed {
		if role == a {
			return true
		}
	}
	return false
}

func joinRoles(roles []Role) string {
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	return strings.Join(names, ", ")
}
