package marks

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/lyceum-sms/lyceum-sms/internal/authz"
	"github.com/lyceum-sms/lyceum-sms/internal/platform/httpx"
	"github.com/lyceum-sms/lyceum-sms/internal/shared"
)

// Handler manages mark endpoints.
type Handler struct {
	logger    *slog.Logger
	repo      *Repository
	directory *shared.Directory
	audit     *shared.AuditLogger
	authz     authz.Middleware
	validate  *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, repo *Repository, directory *shared.Directory, audit *shared.AuditLogger, authzMW authz.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, repo: repo, directory: directory, audit: audit, authz: authzMW, validate: validator.New()}
}

// MountRoutes registers mark routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequirePermission(authz.ResourceMarks, authz.ActionRead, authz.ScopeNone))
		r.Get("/", h.list)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequirePermission(authz.ResourceMarks, authz.ActionCreate, authz.ScopeNone))
		r.Post("/", h.create)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequirePermission(authz.ResourceMarks, authz.ActionUpdate, authz.ScopeNone))
		r.Put("/{markID}", h.update)
	})
}

type createMarkRequest struct {
	StudentID string  `json:"studentId" validate:"required"`
	CourseID  string  `json:"courseId" validate:"required"`
	Term      string  `json:"term" validate:"required,max=40"`
	Score     float64 `json:"score" validate:"min=0"`
	MaxScore  float64 `json:"maxScore" validate:"required,gt=0"`
	Comment   string  `json:"comment" validate:"max=500"`
}

type updateMarkRequest struct {
	Score   float64 `json:"score" validate:"min=0"`
	Comment string  `json:"comment" validate:"max=500"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	p, _ := authz.PrincipalFromContext(r.Context())

	var req createMarkRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondValidation(w, "malformed request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondValidation(w, "studentId, courseId, term and maxScore are required")
		return
	}
	if req.Score > req.MaxScore {
		httpx.RespondValidation(w, "score may not exceed maxScore")
		return
	}

	student, err := h.directory.Lookup(r.Context(), req.StudentID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			httpx.Fail(w, http.StatusNotFound, "not_found", "student not found")
			return
		}
		h.logger.Error("lookup student", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if authz.Role(student.Role) != authz.RoleStudent {
		httpx.RespondValidation(w, "marks can only be recorded for students")
		return
	}
	if !authz.CanAccessUser(p.Role, p.ID, req.StudentID, p.SchoolID, student.SchoolID, authz.Role(student.Role)) {
		httpx.Fail(w, http.StatusForbidden, authz.CodeSchoolAccessDenied, "access to this student is denied")
		return
	}

	created, err := h.repo.Create(r.Context(), Mark{
		SchoolID:   student.SchoolID,
		StudentID:  req.StudentID,
		CourseID:   req.CourseID,
		RecordedBy: p.ID,
		Term:       req.Term,
		Score:      req.Score,
		MaxScore:   req.MaxScore,
		Comment:    req.Comment,
	})
	if err != nil {
		h.logger.Error("create mark", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if h.audit != nil {
		_ = h.audit.Record(r.Context(), shared.AuditLog{
			ActorID:  p.ID,
			SchoolID: created.SchoolID,
			Action:   "mark.create",
			Entity:   "mark",
			EntityID: created.ID,
			Meta:     map[string]any{"studentId": created.StudentID, "courseId": created.CourseID},
		})
	}
	httpx.OK(w, http.StatusCreated, created)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	p, _ := authz.PrincipalFromContext(r.Context())
	markID := chi.URLParam(r, "markID")

	var req updateMarkRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondValidation(w, "malformed request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondValidation(w, "score must be non-negative")
		return
	}

	mark, err := h.repo.Get(r.Context(), markID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if req.Score > mark.MaxScore {
		httpx.RespondValidation(w, "score may not exceed maxScore")
		return
	}
	if denial := h.authz.RequireSameSchool(p, mark.SchoolID); denial != nil {
		denial.WriteTo(w)
		return
	}

	updated, err := h.repo.Update(r.Context(), markID, req.Score, req.Comment)
	if err != nil {
		h.logger.Error("update mark", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if h.audit != nil {
		_ = h.audit.Record(r.Context(), shared.AuditLog{
			ActorID:  p.ID,
			SchoolID: updated.SchoolID,
			Action:   "mark.update",
			Entity:   "mark",
			EntityID: updated.ID,
		})
	}
	httpx.OK(w, http.StatusOK, updated)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	p, _ := authz.PrincipalFromContext(r.Context())

	filter := ListFilter{
		CourseID: r.URL.Query().Get("courseId"),
		Term:     r.URL.Query().Get("term"),
	}

	if p.Role == authz.RoleStudent {
		// Students see their own marks, whatever the query says.
		filter.StudentID = p.ID
		filter.SchoolIDs = []string{p.SchoolID}
	} else {
		schools := authz.AccessibleSchools(p.Role, p.SchoolID)
		filter.AllSchools = schools.All
		filter.SchoolIDs = schools.IDs
		if studentID := r.URL.Query().Get("studentId"); studentID != "" {
			student, err := h.directory.Lookup(r.Context(), studentID)
			if err != nil {
				if errors.Is(err, shared.ErrNotFound) {
					httpx.Fail(w, http.StatusNotFound, "not_found", "student not found")
					return
				}
				httpx.RespondError(w, err)
				return
			}
			if !authz.CanAccessUser(p.Role, p.ID, studentID, p.SchoolID, student.SchoolID, authz.Role(student.Role)) {
				httpx.Fail(w, http.StatusForbidden, authz.CodeSchoolAccessDenied, "access to this student is denied")
				return
			}
			filter.StudentID = studentID
		}
	}
	if !filter.AllSchools && len(filter.SchoolIDs) == 0 && filter.StudentID == "" {
		httpx.Fail(w, http.StatusBadRequest, authz.CodeSchoolInfoMissing, "school information missing")
		return
	}

	marks, err := h.repo.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("list marks", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if marks == nil {
		marks = []Mark{}
	}
	httpx.OK(w, http.StatusOK, map[string]any{"marks": marks})
}
