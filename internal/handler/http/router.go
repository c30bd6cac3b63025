package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/cmlabs-hris/flexi-attendance/internal/handler/http/middleware"
	"github.com/cmlabs-hris/flexi-attendance/internal/handler/http/response"
	"github.com/cmlabs-hris/flexi-attendance/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

type RouterOptions struct {
	Logger         *slog.Logger
	FrontendURL    string
	RequestTimeout time.Duration
}

type Handlers struct {
	Shift      ShiftHandler
	Employee   EmployeeHandler
	Attendance AttendanceHandler
	Stream     StreamHandler
}

func NewRouter(opts RouterOptions, JWTService jwt.Service, h Handlers) *chi.Mux {
	r := chi.NewRouter()

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{opts.FrontendURL},
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelDebug,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Route("/api/v1", func(r chi.Router) {

		// The feed authenticates with a short-lived ?token= and must outlive
		// the request timeout.
		r.Get("/attendance/stream", h.Stream.Stream)

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(chiMiddleware.Timeout(opts.RequestTimeout))
			r.Use(chiMiddleware.AllowContentEncoding("application/json"))
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired(JWTService.JWTAuth()))

			r.Route("/shifts", func(r chi.Router) {
				r.Get("/", h.Shift.ListShifts)
				r.Get("/{id}", h.Shift.GetShift)

				// Admin only
				r.Group(func(r chi.Router) {
					r.Use(middleware.AdminOnly)
					r.Post("/", h.Shift.CreateShift)
					r.Delete("/{id}", h.Shift.DeleteShift)
					r.Post("/{id}/assignments", h.Shift.AssignShift)
				})
			})

			r.Route("/employees", func(r chi.Router) {
				r.Get("/", h.Employee.ListEmployees)
				r.Get("/{id}/shift", h.Employee.ResolveShift)
				r.Get("/{id}/allotments", h.Employee.ListAllotments)

				// Admin only
				r.Group(func(r chi.Router) {
					r.Use(middleware.AdminOnly)
					r.Post("/", h.Employee.CreateEmployee)
				})
			})

			r.Route("/attendance", func(r chi.Router) {
				r.Get("/today", h.Attendance.Today)
				r.Get("/report", h.Attendance.Report)
				r.Get("/report.xlsx", h.Attendance.ExportReport)
				r.Post("/stream/token", h.Stream.GetStreamToken)

				// Punch devices
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireRole(jwt.RoleAdmin, jwt.RoleKiosk))
					r.Post("/log", h.Attendance.Log)
					r.Post("/scan", h.Attendance.Scan)
				})
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, "Route not found")
	})

	return r
}
