package schools

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"github.com/lyceum-sms/lyceum-sms/internal/authz"
	"github.com/lyceum-sms/lyceum-sms/internal/platform/httpx"
	"github.com/lyceum-sms/lyceum-sms/internal/shared"
)

// Handler manages school endpoints.
type Handler struct {
	logger   *slog.Logger
	repo     *Repository
	audit    *shared.AuditLogger
	authz    authz.Middleware
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, repo *Repository, audit *shared.AuditLogger, authzMW authz.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, repo: repo, audit: audit, authz: authzMW, validate: validator.New()}
}

// MountRoutes registers school routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequirePermission(authz.ResourceSchools, authz.ActionRead, authz.ScopeNone))
		r.Get("/", h.list)
		r.Get("/{schoolID}", h.get)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require(authz.Policy{
			Roles:    []authz.Role{authz.RoleSuperAdmin},
			Resource: authz.ResourceSchools,
			Action:   authz.ActionCreate,
		}))
		r.Post("/", h.create)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequirePermission(authz.ResourceSchools, authz.ActionUpdate, authz.ScopeNone))
		r.Put("/{schoolID}", h.update)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequirePermission(authz.ResourceReports, authz.ActionRead, authz.ScopeNone))
		r.Get("/{schoolID}/overview", h.overview)
	})
}

type schoolRequest struct {
	Code    string `json:"code" validate:"required,min=2,max=16"`
	Name    string `json:"name" validate:"required,min=2,max=120"`
	Address string `json:"address" validate:"max=300"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	p, _ := authz.PrincipalFromContext(r.Context())

	filter := authz.AccessibleSchools(p.Role, p.SchoolID)
	if !filter.All && len(filter.IDs) == 0 {
		httpx.OK(w, http.StatusOK, []School{})
		return
	}
	list, err := h.repo.List(r.Context(), filter.IDs)
	if err != nil {
		h.logger.Error("list schools", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if list == nil {
		list = []School{}
	}
	httpx.OK(w, http.StatusOK, list)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	p, _ := authz.PrincipalFromContext(r.Context())
	schoolID := chi.URLParam(r, "schoolID")

	if denial := h.authz.RequireSchoolAccess(p, schoolID); denial != nil {
		denial.WriteTo(w)
		return
	}
	school, err := h.repo.Get(r.Context(), schoolID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, school)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	p, _ := authz.PrincipalFromContext(r.Context())

	var req schoolRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondValidation(w, "malformed request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondValidation(w, "code and name are required")
		return
	}

	school, err := h.repo.Create(r.Context(), req.Code, req.Name, req.Address)
	if err != nil {
		h.logger.Error("create school", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if err := h.audit.Record(r.Context(), shared.AuditLog{
		ActorID:  p.ID,
		Action:   "school.create",
		Entity:   "school",
		EntityID: school.ID,
	}); err != nil {
		h.logger.Warn("audit school create", slog.Any("error", err))
	}
	httpx.OK(w, http.StatusCreated, school)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	p, _ := authz.PrincipalFromContext(r.Context())
	schoolID := chi.URLParam(r, "schoolID")

	if denial := h.authz.RequireSchoolAccess(p, schoolID); denial != nil {
		denial.WriteTo(w)
		return
	}

	var req schoolRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondValidation(w, "malformed request body")
		return
	}
	if req.Name == "" {
		httpx.RespondValidation(w, "name is required")
		return
	}

	school, err := h.repo.Update(r.Context(), schoolID, req.Name, req.Address)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.audit.Record(r.Context(), shared.AuditLog{
		ActorID:  p.ID,
		SchoolID: schoolID,
		Action:   "school.update",
		Entity:   "school",
		EntityID: school.ID,
	}); err != nil {
		h.logger.Warn("audit school update", slog.Any("error", err))
	}
	httpx.OK(w, http.StatusOK, school)
}

func (h *Handler) overview(w http.ResponseWriter, r *http.Request) {
	p, _ := authz.PrincipalFromContext(r.Context())
	schoolID := chi.URLParam(r, "schoolID")

	if denial := h.authz.RequireSchoolAccess(p, schoolID); denial != nil {
		denial.WriteTo(w)
		return
	}

	var ov Overview
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		n, err := h.repo.CountUsersByRole(ctx, schoolID, string(authz.RoleStudent))
		ov.Students = n
		return err
	})
	g.Go(func() error {
		n, err := h.repo.CountUsersByRole(ctx, schoolID, string(authz.RoleTeacher))
		ov.Teachers = n
		return err
	})
	g.Go(func() error {
		n, err := h.repo.CountCourses(ctx, schoolID)
		ov.Courses = n
		return err
	})
	if err := g.Wait(); err != nil {
		h.logger.Error("school overview", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, ov)
}
