package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/lyceum-sms/lyceum-sms/internal/app"
	"github.com/lyceum-sms/lyceum-sms/internal/attendance"
	"github.com/lyceum-sms/lyceum-sms/internal/auth"
	"github.com/lyceum-sms/lyceum-sms/internal/authz"
	"github.com/lyceum-sms/lyceum-sms/internal/courses"
	"github.com/lyceum-sms/lyceum-sms/internal/marks"
	"github.com/lyceum-sms/lyceum-sms/internal/observability"
	"github.com/lyceum-sms/lyceum-sms/internal/platform/cache"
	"github.com/lyceum-sms/lyceum-sms/internal/platform/db"
	"github.com/lyceum-sms/lyceum-sms/internal/schools"
	"github.com/lyceum-sms/lyceum-sms/internal/shared"
	"github.com/lyceum-sms/lyceum-sms/internal/users"
	"github.com/lyceum-sms/lyceum-sms/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "lyceum_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	auditLogger := shared.NewAuditLogger(dbpool)
	directory := shared.NewDirectory(dbpool)
	metrics := observability.NewMetrics()

	evaluator := authz.NewEvaluator(authz.NewRegistry())
	authzMiddleware := authz.Middleware{Evaluator: evaluator, Logger: logger, Metrics: metrics}

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, sessionManager, csrfManager, authzMiddleware)

	schoolsRepo := schools.NewRepository(dbpool)
	schoolsHandler := schools.NewHandler(logger, schoolsRepo, auditLogger, authzMiddleware)

	usersRepo := users.NewRepository(dbpool)
	usersService := users.NewService(usersRepo, auditLogger)
	usersHandler := users.NewHandler(logger, usersService, authzMiddleware)

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	attendanceRepo := attendance.NewRepository(dbpool)
	attendanceHandler := attendance.NewHandler(logger, attendanceRepo, directory, auditLogger, jobClient, authzMiddleware)

	marksRepo := marks.NewRepository(dbpool)
	marksHandler := marks.NewHandler(logger, marksRepo, directory, auditLogger, authzMiddleware)

	coursesRepo := courses.NewRepository(dbpool)
	coursesHandler := courses.NewHandler(logger, coursesRepo, auditLogger, authzMiddleware)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		SessionManager:    sessionManager,
		CSRFManager:       csrfManager,
		Authz:             authzMiddleware,
		AuthHandler:       authHandler,
		SchoolsHandler:    schoolsHandler,
		UsersHandler:      usersHandler,
		AttendanceHandler: attendanceHandler,
		MarksHandler:      marksHandler,
		CoursesHandler:    coursesHandler,
		JobHandler:        jobHandler,
		Metrics:           metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
