package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/cmlabs-hris/payroll-backend-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
	"github.com/redis/go-redis/v9"
)

// RouterConfig carries the pieces of configuration the router needs.
type RouterConfig struct {
	Logger         *slog.Logger
	AllowedOrigins []string
	// Redis enables Idempotency-Key handling when non-nil.
	Redis          redis.Cmdable
	IdempotencyTTL time.Duration
}

func NewRouter(cfg RouterConfig, JWTService jwt.Service, payrollHandler PayrollHandler, deductionHandler DeductionHandler, notificationHandler NotificationHandler) *chi.Mux {
	r := chi.NewRouter()

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", middleware.IdempotencyHeader},
		ExposedHeaders:   []string{"Link", "Content-Disposition", middleware.ReplayedHeader},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelInfo,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	idempotent := func(next http.Handler) http.Handler { return next }
	if cfg.Redis != nil {
		idempotent = middleware.Idempotency(cfg.Redis, cfg.IdempotencyTTL)
	}

	r.Route("/api/v1", func(r chi.Router) {
		// SSE authenticates with a short-lived query token.
		r.Get("/notifications/stream", notificationHandler.Stream)

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired)

			r.Route("/payrolls", func(r chi.Router) {
				r.Get("/", payrollHandler.ListPayrollRecords)
				r.Post("/", payrollHandler.CreatePayroll)

				r.Group(func(r chi.Router) {
					r.Use(idempotent)
					r.Post("/batch", payrollHandler.CreateBatchPayroll)
					r.Post("/submit", payrollHandler.SubmitBulk)
					r.Post("/department/approve", payrollHandler.ApproveDepartment)
					r.Post("/department/reject", payrollHandler.RejectDepartment)
				})

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", payrollHandler.GetPayrollRecord)
					r.Get("/payslip", payrollHandler.GetPayslip)
					r.Post("/submit", payrollHandler.Submit)
					r.Post("/approve", payrollHandler.Approve)
					r.Post("/reject", payrollHandler.Reject)
					r.Post("/resubmit", payrollHandler.Resubmit)
					r.Post("/cancel", payrollHandler.Cancel)
					r.With(idempotent).Post("/payment", payrollHandler.ProcessPayment)
				})
			})

			r.Route("/deductions", func(r chi.Router) {
				r.Get("/", deductionHandler.List)
				r.Post("/", deductionHandler.Create)
				r.Post("/preview", deductionHandler.Preview)
				r.Get("/{id}", deductionHandler.Get)
				r.Delete("/{id}", deductionHandler.Deactivate)
			})

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", notificationHandler.List)
				r.Post("/read", notificationHandler.MarkAsRead)
				r.Post("/read-all", notificationHandler.MarkAllAsRead)
				r.Get("/sse-token", notificationHandler.GetSSEToken)
			})
		})
	})
	return r
}
