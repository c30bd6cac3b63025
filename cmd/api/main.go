package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/flexi-attendance/internal/config"
	"github.com/cmlabs-hris/flexi-attendance/internal/domain/attendance"
	"github.com/cmlabs-hris/flexi-attendance/internal/domain/employee"
	"github.com/cmlabs-hris/flexi-attendance/internal/domain/shift"
	"github.com/cmlabs-hris/flexi-attendance/internal/fixtures"
	appHTTP "github.com/cmlabs-hris/flexi-attendance/internal/handler/http"
	"github.com/cmlabs-hris/flexi-attendance/internal/pkg/audit"
	"github.com/cmlabs-hris/flexi-attendance/internal/pkg/cron"
	"github.com/cmlabs-hris/flexi-attendance/internal/pkg/database"
	"github.com/cmlabs-hris/flexi-attendance/internal/pkg/jwt"
	"github.com/cmlabs-hris/flexi-attendance/internal/pkg/sse"
	"github.com/cmlabs-hris/flexi-attendance/internal/repository/memory"
	"github.com/cmlabs-hris/flexi-attendance/internal/repository/postgresql"
	attendanceService "github.com/cmlabs-hris/flexi-attendance/internal/service/attendance"
	employeeService "github.com/cmlabs-hris/flexi-attendance/internal/service/employee"
	shiftService "github.com/cmlabs-hris/flexi-attendance/internal/service/shift"
	"github.com/go-chi/httplog/v3"
)

type storage struct {
	db            database.Transactor
	employeeRepo  employee.EmployeeRepository
	shiftRepo     shift.ShiftRepository
	allotmentRepo shift.AllotmentRepository
	attendRepo    attendance.AttendanceRepository
	auditSink     audit.Sink
	close         func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		os.Exit(1)
	}

	logFormat := httplog.SchemaECS.Concise(cfg.App.Env != "development")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       cfg.SlogLevel(),
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "flexi-attendance"),
		slog.String("env", cfg.App.Env),
	)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Server stopped with error", "error", err)
		stop()
		os.Exit(1)
	}
}

// run wires the application and serves until ctx is cancelled or the server
// fails. Storage is released on every return path.
func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := context.WithCancel(ctx)
	defer stop()

	store, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize %s storage: %w", cfg.Storage.Driver, err)
	}
	defer store.close()

	auditEmitter := audit.NewAsyncEmitter(store.auditSink, cfg.Audit.Buffer, logger)
	defer func() {
		drainCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := auditEmitter.Close(drainCtx); err != nil {
			logger.Warn("Audit queue not drained", "error", err, "dropped", auditEmitter.Dropped())
		}
	}()

	hub := sse.NewHub()
	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)

	shiftSvc := shiftService.NewShiftService(
		store.db,
		store.shiftRepo,
		store.allotmentRepo,
		store.employeeRepo,
		auditEmitter,
		shiftService.Options{
			TrimFutureAllotments: cfg.Attendance.TrimFutureAllotments,
			DefaultGraceMinutes:  cfg.Attendance.DefaultGraceMinutes,
		},
	)
	employeeSvc := employeeService.NewEmployeeService(store.employeeRepo, auditEmitter)
	attendanceSvc := attendanceService.NewAttendanceService(
		store.db,
		store.attendRepo,
		store.employeeRepo,
		shiftSvc,
		hub,
		auditEmitter,
	)

	if cfg.Attendance.SeedDefaultShifts {
		if _, err := fixtures.SeedDefaultShifts(ctx, shiftSvc); err != nil {
			return fmt.Errorf("failed to seed default shifts: %w", err)
		}
	}

	scheduler := cron.NewScheduler(logger)
	cron.NewAttendanceJobs(attendanceSvc, hub, auditEmitter).RegisterJobs(scheduler, cfg.Attendance.TotalsInterval)
	scheduler.Start(ctx)
	defer scheduler.Stop()

	router := appHTTP.NewRouter(appHTTP.RouterOptions{
		Logger:         logger,
		FrontendURL:    cfg.App.FrontendURL,
		RequestTimeout: cfg.Database.Timeout,
	}, JWTService, appHTTP.Handlers{
		Shift:      appHTTP.NewShiftHandler(shiftSvc),
		Employee:   appHTTP.NewEmployeeHandler(employeeSvc, shiftSvc, time.Now),
		Attendance: appHTTP.NewAttendanceHandler(attendanceSvc, time.Now),
		Stream:     appHTTP.NewStreamHandler(hub, JWTService),
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Server running", "addr", server.Addr, "storage", cfg.Storage.Driver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case err, ok := <-serveErr:
		if ok {
			runErr = fmt.Errorf("server error: %w", err)
		}
	}
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}
	return runErr
}

// openStorage is a variable so tests can substitute the repositories.
var openStorage = openStorageDriver

func openStorageDriver(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*storage, error) {
	switch cfg.Storage.Driver {
	case config.StorageDriverMemory:
		repos := memory.NewRepositories()
		return &storage{
			db:            repos.Store,
			employeeRepo:  repos.Employees,
			shiftRepo:     repos.Shifts,
			allotmentRepo: repos.Allotments,
			attendRepo:    repos.Attendance,
			auditSink:     audit.LogSink{Logger: logger},
			close:         func() {},
		}, nil

	case config.StorageDriverPostgres:
		db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), database.PoolOptions{
			MaxConns:    cfg.Database.MaxConns,
			ConnTimeout: cfg.Database.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		return &storage{
			db:            postgresql.NewTransactor(db),
			employeeRepo:  postgresql.NewEmployeeRepository(db),
			shiftRepo:     postgresql.NewShiftRepository(db),
			allotmentRepo: postgresql.NewAllotmentRepository(db),
			attendRepo:    postgresql.NewAttendanceRepository(db),
			auditSink:     postgresql.NewAuditSink(db),
			close:         db.Close,
		}, nil
	}

	return nil, fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
}
