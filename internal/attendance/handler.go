package attendance

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/lyceum-sms/lyceum-sms/internal/authz"
	"github.com/lyceum-sms/lyceum-sms/internal/platform/httpx"
	"github.com/lyceum-sms/lyceum-sms/internal/shared"
)

// DigestEnqueuer schedules the per-school attendance digest after a record is
// written. Implemented by the jobs client.
type DigestEnqueuer interface {
	EnqueueAttendanceDigest(ctx context.Context, schoolID string, day time.Time) error
}

// Handler manages attendance endpoints.
type Handler struct {
	logger    *slog.Logger
	repo      *Repository
	directory *shared.Directory
	audit     *shared.AuditLogger
	digests   DigestEnqueuer
	authz     authz.Middleware
	validate  *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, repo *Repository, directory *shared.Directory, audit *shared.AuditLogger, digests DigestEnqueuer, authzMW authz.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, repo: repo, directory: directory, audit: audit, digests: digests, authz: authzMW, validate: validator.New()}
}

// MountRoutes registers attendance routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequirePermission(authz.ResourceAttendance, authz.ActionRead, authz.ScopeNone))
		r.Get("/", h.list)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequirePermission(authz.ResourceAttendance, authz.ActionCreate, authz.ScopeNone))
		r.Post("/", h.record)
	})
}

type recordRequest struct {
	StudentID string `json:"studentId" validate:"required"`
	CourseID  string `json:"courseId"`
	Date      string `json:"date" validate:"required"`
	Status    string `json:"status" validate:"required"`
	Note      string `json:"note" validate:"max=500"`
}

func (h *Handler) record(w http.ResponseWriter, r *http.Request) {
	p, _ := authz.PrincipalFromContext(r.Context())

	var req recordRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondValidation(w, "malformed request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondValidation(w, "studentId, date and status are required")
		return
	}
	status := Status(req.Status)
	if !status.Valid() {
		httpx.RespondValidation(w, "unknown attendance status")
		return
	}
	day, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		httpx.RespondValidation(w, "date must be formatted YYYY-MM-DD")
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
		httpx.RespondValidation(w, "attendance can only be recorded for students")
		return
	}
	if !authz.CanAccessUser(p.Role, p.ID, req.StudentID, p.SchoolID, student.SchoolID, authz.Role(student.Role)) {
		httpx.Fail(w, http.StatusForbidden, authz.CodeSchoolAccessDenied, "access to this student is denied")
		return
	}

	created, err := h.repo.Create(r.Context(), Record{
		SchoolID:   student.SchoolID,
		StudentID:  req.StudentID,
		CourseID:   req.CourseID,
		RecordedBy: p.ID,
		Date:       day,
		Status:     status,
		Note:       req.Note,
	})
	if err != nil {
		h.logger.Error("record attendance", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	if h.audit != nil {
		_ = h.audit.Record(r.Context(), shared.AuditLog{
			ActorID:  p.ID,
			SchoolID: created.SchoolID,
			Action:   "attendance.record",
			Entity:   "attendance_record",
			EntityID: created.ID,
			Meta:     map[string]any{"status": string(created.Status), "studentId": created.StudentID},
		})
	}
	if h.digests != nil {
		if err := h.digests.EnqueueAttendanceDigest(r.Context(), created.SchoolID, day); err != nil {
			h.logger.Warn("enqueue attendance digest", slog.Any("error", err))
		}
	}
	httpx.OK(w, http.StatusCreated, created)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	p, _ := authz.PrincipalFromContext(r.Context())

	filter := ListFilter{}
	if from := r.URL.Query().Get("from"); from != "" {
		t, err := time.Parse("2006-01-02", from)
		if err != nil {
			httpx.RespondValidation(w, "from must be formatted YYYY-MM-DD")
			return
		}
		filter.From = t
	}
	if to := r.URL.Query().Get("to"); to != "" {
		t, err := time.Parse("2006-01-02", to)
		if err != nil {
			httpx.RespondValidation(w, "to must be formatted YYYY-MM-DD")
			return
		}
		filter.To = t
	}

	if p.Role == authz.RoleStudent {
		// Students see their own history, whatever the query says.
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

	records, err := h.repo.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("list attendance", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if records == nil {
		records = []Record{}
	}
	httpx.OK(w, http.StatusOK, map[string]any{"records": records})
}
