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

	"github.com/cmlabs-hris/payroll-backend-go/internal/config"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/payroll"
	appHTTP "github.com/cmlabs-hris/payroll-backend-go/internal/handler/http"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/cron"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/kafka"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/sse"
	"github.com/cmlabs-hris/payroll-backend-go/internal/repository/postgresql"
	auditService "github.com/cmlabs-hris/payroll-backend-go/internal/service/audit"
	deductionService "github.com/cmlabs-hris/payroll-backend-go/internal/service/deduction"
	notificationService "github.com/cmlabs-hris/payroll-backend-go/internal/service/notification"
	payrollService "github.com/cmlabs-hris/payroll-backend-go/internal/service/payroll"
	"github.com/go-chi/httplog/v3"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logFormat := httplog.SchemaECS.Concise(!cfg.IsProduction())
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       cfg.SlogLevel(),
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "cmlabs-payroll"),
		slog.String("env", cfg.App.Env),
	)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), database.PoolConfig{
		MaxConns: cfg.Database.MaxConns,
		MinConns: cfg.Database.MinConns,
	})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	if cfg.Database.Migrate {
		if err := db.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}
	}

	payrollRepo := postgresql.NewPayrollRepository(db)
	employeeRepo := postgresql.NewEmployeeRepository(db)
	departmentRepo := postgresql.NewDepartmentRepository(db)
	gradeRepo := postgresql.NewGradeRepository(db)
	deductionRepo := postgresql.NewDeductionRepository(db)
	notificationRepo := postgresql.NewNotificationRepository(db)
	auditRepo := postgresql.NewAuditRepository(db)

	var publisher payroll.EventPublisher = kafka.NoopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaPublisher := kafka.NewPayrollEventPublisher(kafka.NewWriter(cfg.Kafka.Brokers, cfg.Kafka.PayrollTopic))
		defer func() {
			if err := kafkaPublisher.Close(); err != nil {
				slog.Warn("failed to close kafka writer", "error", err)
			}
		}()
		publisher = kafkaPublisher
		slog.Info("payroll events enabled", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.PayrollTopic)
	}

	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			slog.Warn("redis unreachable, idempotency keys degrade to pass-through", "addr", cfg.Redis.Addr, "error", err)
		}
	}

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	hub := sse.NewHub()

	auditSvc := auditService.NewAuditService(auditRepo)
	notificationSvc := notificationService.NewNotificationService(notificationRepo, hub)
	deductionSvc := deductionService.NewDeductionService(deductionRepo, employeeRepo)
	payrollSvc := payrollService.NewPayrollService(payrollService.Deps{
		Tx:             db,
		PayrollRepo:    payrollRepo,
		EmployeeRepo:   employeeRepo,
		DepartmentRepo: departmentRepo,
		GradeRepo:      gradeRepo,
		DeductionRepo:  deductionRepo,
		Approvers:      employeeRepo,
		Notifier:       notificationSvc,
		Auditor:        auditSvc,
		Publisher:      publisher,
		CompanyName:    cfg.Payroll.CompanyName,
	})

	routerCfg := appHTTP.RouterConfig{
		Logger:         logger,
		AllowedOrigins: cfg.App.CORSAllowedOrigins,
		IdempotencyTTL: cfg.Redis.IdempotencyTTL,
	}
	if rdb != nil {
		routerCfg.Redis = rdb
	}

	router := appHTTP.NewRouter(
		routerCfg,
		JWTService,
		appHTTP.NewPayrollHandler(payrollSvc),
		appHTTP.NewDeductionHandler(deductionSvc),
		appHTTP.NewNotificationHandler(notificationSvc, JWTService),
	)

	scheduler := cron.NewScheduler()
	scheduler.AddJob("notification-retention", cfg.Notification.SweepInterval,
		cron.NotificationRetentionJob(notificationSvc, cfg.Notification.Retention))

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return scheduler.Run(gCtx)
	})
	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		slog.Info("shutting down")
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
