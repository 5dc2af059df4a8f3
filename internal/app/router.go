package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/lyceum-sms/lyceum-sms/internal/attendance"
	"github.com/lyceum-sms/lyceum-sms/internal/auth"
	"github.com/lyceum-sms/lyceum-sms/internal/authz"
	"github.com/lyceum-sms/lyceum-sms/internal/courses"
	"github.com/lyceum-sms/lyceum-sms/internal/marks"
	"github.com/lyceum-sms/lyceum-sms/internal/observability"
	"github.com/lyceum-sms/lyceum-sms/internal/schools"
	"github.com/lyceum-sms/lyceum-sms/internal/shared"
	"github.com/lyceum-sms/lyceum-sms/internal/users"
	"github.com/lyceum-sms/lyceum-sms/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	Authz          authz.Middleware

	AuthHandler       *auth.Handler
	SchoolsHandler    *schools.Handler
	UsersHandler      *users.Handler
	AttendanceHandler *attendance.Handler
	MarksHandler      *marks.Handler
	CoursesHandler    *courses.Handler
	JobHandler        *jobs.Handler

	Metrics *observability.Metrics
}

// NewRouter constructs the chi.Router with Lyceum defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/auth", params.AuthHandler.MountRoutes)
	if params.SchoolsHandler != nil {
		r.Route("/schools", func(r chi.Router) {
			params.SchoolsHandler.MountRoutes(r)
		})
	}
	if params.UsersHandler != nil {
		r.Route("/users", func(r chi.Router) {
			params.UsersHandler.MountRoutes(r)
		})
	}
	if params.AttendanceHandler != nil {
		r.Route("/attendance", func(r chi.Router) {
			params.AttendanceHandler.MountRoutes(r)
		})
	}
	if params.MarksHandler != nil {
		r.Route("/marks", func(r chi.Router) {
			params.MarksHandler.MountRoutes(r)
		})
	}
	if params.CoursesHandler != nil {
		r.Route("/courses", func(r chi.Router) {
			params.CoursesHandler.MountRoutes(r)
		})
	}
	if params.JobHandler != nil {
		r.Route("/jobs", func(r chi.Router) {
			r.Use(params.Authz.RequireRoles(authz.RoleSuperAdmin))
			params.JobHandler.MountRoutes(r)
		})
	}

	return r
}
