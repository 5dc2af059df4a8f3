package courses

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/lyceum-sms/lyceum-sms/internal/authz"
	"github.com/lyceum-sms/lyceum-sms/internal/platform/httpx"
	"github.com/lyceum-sms/lyceum-sms/internal/shared"
)

// Handler manages course and course-content endpoints.
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

// MountRoutes registers course routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequirePermission(authz.ResourceCourses, authz.ActionRead, authz.ScopeNone))
		r.Get("/", h.list)
		r.Get("/{courseID}", h.get)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequirePermission(authz.ResourceCourses, authz.ActionCreate, authz.ScopeNone))
		r.Post("/", h.create)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequirePermission(authz.ResourceCourses, authz.ActionUpdate, authz.ScopeNone))
		r.Put("/{courseID}", h.update)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequirePermission(authz.ResourceContent, authz.ActionRead, authz.ScopeNone))
		r.Get("/{courseID}/content", h.listContent)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequirePermission(authz.ResourceContent, authz.ActionCreate, authz.ScopeNone))
		r.Post("/{courseID}/content", h.createContent)
	})
}

type courseRequest struct {
	Code      string `json:"code" validate:"required,max=40"`
	Name      string `json:"name" validate:"required,min=2,max=160"`
	TeacherID string `json:"teacherId"`
}

type updateCourseRequest struct {
	Name      string `json:"name" validate:"required,min=2,max=160"`
	TeacherID string `json:"teacherId"`
}

type contentRequest struct {
	Title string `json:"title" validate:"required,min=2,max=200"`
	Body  string `json:"body" validate:"required"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	p, _ := authz.PrincipalFromContext(r.Context())

	schools := authz.AccessibleSchools(p.Role, p.SchoolID)
	if !schools.All && len(schools.IDs) == 0 {
		httpx.Fail(w, http.StatusBadRequest, authz.CodeSchoolInfoMissing, "school information missing")
		return
	}
	list, err := h.repo.List(r.Context(), schools.All, schools.IDs)
	if err != nil {
		h.logger.Error("list courses", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if list == nil {
		list = []Course{}
	}
	httpx.OK(w, http.StatusOK, map[string]any{"courses": list})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	p, _ := authz.PrincipalFromContext(r.Context())

	course, err := h.repo.Get(r.Context(), chi.URLParam(r, "courseID"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if denial := h.authz.RequireSchoolAccess(p, course.SchoolID); denial != nil {
		denial.WriteTo(w)
		return
	}
	httpx.OK(w, http.StatusOK, course)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	p, _ := authz.PrincipalFromContext(r.Context())

	var req courseRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondValidation(w, "malformed request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondValidation(w, "code and name are required")
		return
	}
	if p.SchoolID == "" {
		httpx.Fail(w, http.StatusBadRequest, authz.CodeSchoolInfoMissing, "school information missing")
		return
	}

	created, err := h.repo.Create(r.Context(), Course{
		SchoolID:  p.SchoolID,
		Code:      req.Code,
		Name:      req.Name,
		TeacherID: req.TeacherID,
	})
	if err != nil {
		h.logger.Error("create course", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if h.audit != nil {
		_ = h.audit.Record(r.Context(), shared.AuditLog{
			ActorID:  p.ID,
			SchoolID: created.SchoolID,
			Action:   "course.create",
			Entity:   "course",
			EntityID: created.ID,
			Meta:     map[string]any{"code": created.Code},
		})
	}
	httpx.OK(w, http.StatusCreated, created)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	p, _ := authz.PrincipalFromContext(r.Context())
	courseID := chi.URLParam(r, "courseID")

	var req updateCourseRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondValidation(w, "malformed request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondValidation(w, "name is required")
		return
	}

	course, err := h.repo.Get(r.Context(), courseID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if denial := h.authz.RequireSameSchool(p, course.SchoolID); denial != nil {
		denial.WriteTo(w)
		return
	}

	updated, err := h.repo.Update(r.Context(), courseID, req.Name, req.TeacherID)
	if err != nil {
		h.logger.Error("update course", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if h.audit != nil {
		_ = h.audit.Record(r.Context(), shared.AuditLog{
			ActorID:  p.ID,
			SchoolID: updated.SchoolID,
			Action:   "course.update",
			Entity:   "course",
			EntityID: updated.ID,
		})
	}
	httpx.OK(w, http.StatusOK, updated)
}

func (h *Handler) listContent(w http.ResponseWriter, r *http.Request) {
	p, _ := authz.PrincipalFromContext(r.Context())
	courseID := chi.URLParam(r, "courseID")

	course, err := h.repo.Get(r.Context(), courseID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if denial := h.authz.RequireSchoolAccess(p, course.SchoolID); denial != nil {
		denial.WriteTo(w)
		return
	}

	entries, err := h.repo.ListContent(r.Context(), courseID)
	if err != nil {
		h.logger.Error("list course content", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if entries == nil {
		entries = []ContentEntry{}
	}
	httpx.OK(w, http.StatusOK, map[string]any{"content": entries})
}

func (h *Handler) createContent(w http.ResponseWriter, r *http.Request) {
	p, _ := authz.PrincipalFromContext(r.Context())
	courseID := chi.URLParam(r, "courseID")

	var req contentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondValidation(w, "malformed request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondValidation(w, "title and body are required")
		return
	}

	course, err := h.repo.Get(r.Context(), courseID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if denial := h.authz.RequireSchoolAccess(p, course.SchoolID); denial != nil {
		denial.WriteTo(w)
		return
	}

	created, err := h.repo.CreateContent(r.Context(), ContentEntry{
		CourseID: course.ID,
		SchoolID: course.SchoolID,
		AuthorID: p.ID,
		Title:    req.Title,
		Body:     req.Body,
	})
	if err != nil {
		h.logger.Error("create course content", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusCreated, created)
}
