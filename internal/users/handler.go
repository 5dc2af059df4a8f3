package users

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/lyceum-sms/lyceum-sms/internal/authz"
	"github.com/lyceum-sms/lyceum-sms/internal/platform/httpx"
	"github.com/lyceum-sms/lyceum-sms/internal/shared"
)

// Handler manages user management endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	authz    authz.Middleware
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, authzMW authz.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, authz: authzMW, validate: validator.New()}
}

// MountRoutes registers user routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequirePermission(authz.ResourceUsers, authz.ActionRead, authz.ScopeNone))
		r.Get("/", h.list)
	})
	r.Group(func(r chi.Router) {
		// Creation is gated by the role hierarchy, not the grant table:
		// only the two provisioning roles get past this point.
		r.Use(h.authz.RequireRoles(authz.RoleSuperAdmin, authz.RolePrincipal))
		r.Post("/", h.create)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require(authz.Policy{}))
		r.Get("/{userID}", h.get)
		r.Patch("/me", h.updateOwnProfile)
	})
}

type createUserRequest struct {
	Role     string `json:"role" validate:"required"`
	SchoolID string `json:"schoolId"`
	Name     string `json:"name" validate:"required,min=2,max=120"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type updateProfileRequest struct {
	Name string `json:"name" validate:"required,min=2,max=120"`
}

type listResponse struct {
	Users      []User            `json:"users"`
	Pagination shared.Pagination `json:"pagination"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	p, _ := authz.PrincipalFromContext(r.Context())

	filter := ListFilter{
		Page:    queryInt(r, "page"),
		PerPage: queryInt(r, "perPage"),
	}
	if role := r.URL.Query().Get("role"); role != "" {
		parsed, ok := authz.ParseRole(role)
		if !ok {
			httpx.RespondValidation(w, "unknown role filter")
			return
		}
		filter.Role = parsed
	}

	schools := authz.AccessibleSchools(p.Role, p.SchoolID)
	filter.AllSchools = schools.All
	filter.SchoolIDs = schools.IDs
	if !schools.All && len(schools.IDs) == 0 {
		httpx.OK(w, http.StatusOK, listResponse{Users: []User{}})
		return
	}

	list, pagination, err := h.service.ListUsers(r.Context(), filter)
	if err != nil {
		h.logger.Error("list users", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if list == nil {
		list = []User{}
	}
	httpx.OK(w, http.StatusOK, listResponse{Users: list, Pagination: pagination})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	p, _ := authz.PrincipalFromContext(r.Context())

	var req createUserRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondValidation(w, "malformed request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondValidation(w, "role, name, email and password are required")
		return
	}
	role, ok := authz.ParseRole(req.Role)
	if !ok {
		httpx.RespondValidation(w, "unknown role")
		return
	}

	user, err := h.service.CreateUser(r.Context(), p, CreateUserInput{
		Role:     role,
		SchoolID: req.SchoolID,
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrRoleNotAllowed):
			httpx.Fail(w, http.StatusForbidden, authz.CodeInsufficientPermission,
				"your role may not create accounts with role "+req.Role)
		case errors.Is(err, ErrSchoolRequired):
			httpx.Fail(w, http.StatusBadRequest, authz.CodeSchoolInfoMissing, "school information missing")
		default:
			h.logger.Error("create user", slog.Any("error", err))
			httpx.RespondError(w, err)
		}
		return
	}
	httpx.OK(w, http.StatusCreated, user)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	p, _ := authz.PrincipalFromContext(r.Context())
	userID := chi.URLParam(r, "userID")

	user, err := h.service.GetUser(r.Context(), userID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if !authz.CanAccessUser(p.Role, p.ID, user.ID, p.SchoolID, user.SchoolID, user.Role) {
		httpx.Fail(w, http.StatusForbidden, authz.CodeSchoolAccessDenied, "access to this user is denied")
		return
	}
	httpx.OK(w, http.StatusOK, user)
}

func (h *Handler) updateOwnProfile(w http.ResponseWriter, r *http.Request) {
	p, _ := authz.PrincipalFromContext(r.Context())

	var req updateProfileRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondValidation(w, "malformed request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondValidation(w, "name is required")
		return
	}
	user, err := h.service.UpdateOwnName(r.Context(), p.ID, req.Name)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, user)
}

func queryInt(r *http.Request, key string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(key))
	return n
}
