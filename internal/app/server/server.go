// Package server assembles the HTTP application: storage, domain services,
// handlers, middleware and the background scheduler.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"hris/internal/domain/analysis"
	"hris/internal/domain/audit"
	"hris/internal/domain/auth"
	"hris/internal/domain/core"
	"hris/internal/domain/directory"
	"hris/internal/domain/feedback"
	"hris/internal/domain/leave"
	"hris/internal/domain/notifications"
	"hris/internal/domain/payroll"
	"hris/internal/domain/payroll/statutory"
	"hris/internal/domain/performance"
	"hris/internal/domain/policy"
	"hris/internal/domain/reports"
	"hris/internal/domain/succession"
	"hris/internal/platform/aigateway"
	"hris/internal/platform/cache"
	"hris/internal/platform/config"
	"hris/internal/platform/crypto"
	"hris/internal/platform/db"
	"hris/internal/platform/email"
	"hris/internal/platform/events"
	"hris/internal/platform/jobs"
	"hris/internal/platform/metrics"
	"hris/internal/transport/http/api"
	audithandler "hris/internal/transport/http/handlers/audit"
	authhandler "hris/internal/transport/http/handlers/auth"
	corehandler "hris/internal/transport/http/handlers/core"
	feedbackhandler "hris/internal/transport/http/handlers/feedback"
	functionshandler "hris/internal/transport/http/handlers/functions"
	leavehandler "hris/internal/transport/http/handlers/leave"
	notificationshandler "hris/internal/transport/http/handlers/notifications"
	payrollhandler "hris/internal/transport/http/handlers/payroll"
	performancehandler "hris/internal/transport/http/handlers/performance"
	policyhandler "hris/internal/transport/http/handlers/policy"
	reportshandler "hris/internal/transport/http/handlers/reports"
	successionhandler "hris/internal/transport/http/handlers/succession"
	"hris/internal/transport/http/middleware"
)

const (
	JobReminders     = "reminders"
	JobVacationGrant = "vacation_grant"

	reminderWindow = 72 * time.Hour
)

// Services is every domain service the router and the scheduler share.
type Services struct {
	Auth          *auth.Service
	Core          *core.Service
	Audit         *audit.Service
	Policy        *policy.Service
	Payroll       *payroll.Service
	Tables        *payroll.TableService
	Performance   *performance.Service
	Feedback      *feedback.Service
	Leave         *leave.Service
	Succession    *succession.Service
	Reports       *reports.Service
	Notifications *notifications.Service
	Directory     *directory.Service
	Analysis      *analysis.Service
}

type App struct {
	Config   config.Config
	DB       *pgxpool.Pool
	Router   http.Handler
	Services Services
	Jobs     *jobs.Service

	cache     cache.Backend
	redis     *cache.Redis
	publisher events.Publisher
	mailer    email.Mailer
}

// New connects to the database, applies migrations and seed data when
// configured and wires the full application.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	if cfg.RunMigrations {
		if err := db.MigrateUp(cfg.DatabaseURL); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}

	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	app := &App{Config: cfg, DB: pool}
	if err := app.wire(ctx); err != nil {
		app.Close()
		return nil, err
	}

	if cfg.RunSeed {
		tenantID, err := db.Seed(ctx, pool, cfg)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("seed: %w", err)
		}
		slog.Info("seed applied", "tenantId", tenantID)
	}
	if cfg.SeedStatutoryTables {
		years, err := app.Services.Tables.SeedBuiltin(ctx)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("seed statutory tables: %w", err)
		}
		if len(years) > 0 {
			slog.Info("statutory tables seeded", "years", years)
		}
	}
	if cfg.StatutoryTablesDir != "" {
		if _, err := LoadTables(ctx, app.Services.Tables, cfg.StatutoryTablesDir); err != nil {
			app.Close()
			return nil, err
		}
	}
	return app, nil
}

func (a *App) wire(ctx context.Context) error {
	cfg := a.Config

	sealer, err := crypto.New(cfg.DataEncryptionKey)
	if err != nil {
		return fmt.Errorf("encryption key: %w", err)
	}
	if !sealer.Configured() {
		slog.Warn("DATA_ENCRYPTION_KEY not set; sensitive fields are stored in plain text")
	}

	if cfg.RedisURL != "" {
		redis, err := cache.NewRedis(cfg.RedisURL, "hris")
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		if err := redis.Ping(ctx); err != nil {
			_ = redis.Close()
			return fmt.Errorf("redis ping: %w", err)
		}
		a.redis = redis
		a.cache = redis
	} else {
		a.cache = cache.NewMemory()
	}

	a.publisher = events.New(cfg.KafkaBrokers, cfg.KafkaTopic)
	a.mailer = email.New(cfg)

	a.Services = buildServices(a.DB, cfg, sealer, a.cache, a.publisher, a.mailer)
	a.Jobs = jobs.New(jobs.NewPGStore(a.DB))
	if err := a.schedule(); err != nil {
		return err
	}
	a.Router = a.routes()
	return nil
}

func buildServices(pool *pgxpool.Pool, cfg config.Config, sealer *crypto.Service, backend cache.Backend, publisher events.Publisher, mailer email.Mailer) Services {
	coreStore := core.NewStore(pool, sealer)
	policyService := policy.NewService(policy.NewStore(pool), publisher)
	notificationService := notifications.New(notifications.NewStore(pool), mailer, publisher, cfg.EmailFrom)

	tableStore := payroll.NewTableStore(pool)
	cached := payroll.NewCachedSource(tableStore, backend, cfg.CacheTTL)
	calculator := statutory.NewCalculator(cached)

	return Services{
		Auth:          auth.NewService(auth.NewStore(pool), sealer, cfg.JWTSecret),
		Core:          core.NewService(coreStore),
		Audit:         audit.New(pool),
		Policy:        policyService,
		Payroll:       payroll.NewService(payroll.NewStore(pool), calculator, sealer, publisher),
		Tables:        payroll.NewTableService(tableStore, cached),
		Performance:   performance.NewService(performance.NewStore(pool)),
		Feedback:      feedback.NewService(feedback.NewStore(pool)),
		Leave:         leave.NewService(leave.NewStore(pool), policyService, notificationService),
		Succession:    succession.NewService(succession.NewStore(pool)),
		Reports:       reports.NewService(reports.NewStore(pool)),
		Notifications: notificationService,
		Directory:     directory.NewService(directory.NewStore(pool, coreStore), policyService, notificationService, publisher, cfg.ImportMaxRows),
		Analysis:      analysis.NewService(aigateway.New(cfg.AIGatewayURL, cfg.AIGatewayKey, cfg.AIModel, cfg.AITimeout)),
	}
}

func (a *App) schedule() error {
	if err := a.Jobs.Schedule(a.Config.ReminderSchedule, JobReminders, a.SendReminders); err != nil {
		return err
	}
	return a.Jobs.Schedule(a.Config.VacationGrantSchedule, JobVacationGrant, a.GrantVacations)
}

// SendReminders notifies reviewers whose feedback or self review is due soon.
func (a *App) SendReminders(ctx context.Context, tenantID string, _ time.Time) (any, error) {
	return a.Services.Notifications.SendReminders(ctx, tenantID, a.Services.Feedback, a.Services.Performance, reminderWindow)
}

// GrantVacations credits statutory vacation days on work anniversaries.
func (a *App) GrantVacations(ctx context.Context, tenantID string, now time.Time) (any, error) {
	return a.Services.Leave.GrantVacations(ctx, tenantID, now)
}

func (a *App) routes() http.Handler {
	cfg := a.Config
	s := a.Services

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	if cfg.MetricsEnabled {
		router.Use(metrics.Instrument)
	}
	router.Use(middleware.SecureHeaders(cfg.IsProduction()))
	router.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, map[string]string{"status": "ok"}, middleware.GetRequestID(r.Context()))
	})
	router.Get("/readyz", a.handleReady)
	if cfg.MetricsEnabled {
		router.Handle("/metrics", metrics.Handler())
	}

	idempotency := middleware.NewIdempotencyStore(a.DB)

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret, s.Auth))
		r.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))
		r.Use(middleware.SensitiveMutationRateLimit(cfg.RateLimitPerMinute, time.Minute))

		authhandler.NewHandler(s.Auth, a.mailer, cfg.EmailFrom, cfg.PublicBaseURL).RegisterRoutes(r)
		corehandler.NewHandler(s.Core, s.Auth, s.Audit).RegisterRoutes(r)
		notificationshandler.NewHandler(s.Notifications, s.Audit).RegisterRoutes(r)
		audithandler.NewHandler(s.Audit, s.Auth).RegisterRoutes(r)
		reportshandler.NewHandler(s.Reports, s.Auth).RegisterRoutes(r)

		payrollHandler := payrollhandler.NewHandler(s.Payroll, s.Tables, s.Auth, s.Audit)
		a.module(r, core.ModulePayroll, payrollHandler.RegisterRoutes)
		a.module(r, core.ModulePerformance, performancehandler.NewHandler(s.Performance, s.Core, s.Auth, s.Audit).RegisterRoutes)
		a.module(r, core.ModuleFeedback, feedbackhandler.NewHandler(s.Feedback, s.Core, s.Auth, s.Audit).RegisterRoutes)
		a.module(r, core.ModuleLeave, leavehandler.NewHandler(s.Leave, s.Core, s.Auth, s.Audit).RegisterRoutes)
		a.module(r, core.ModuleSuccession, successionhandler.NewHandler(s.Succession, s.Auth, s.Audit).RegisterRoutes)
		a.module(r, core.ModulePolicy, policyhandler.NewHandler(s.Policy, s.Auth, s.Audit).RegisterRoutes)

		payrollHandler.RegisterFunctionRoutes(r)
		functions := &functionshandler.Handler{
			Analysis:    s.Analysis,
			Notify:      s.Notifications,
			Directory:   s.Directory,
			Perms:       s.Auth,
			Audit:       s.Audit,
			Limiter:     middleware.NewTokenBucket("ai", cfg.AIRatePerMinute, max(cfg.AIRatePerMinute/4, 1)),
			Idempotency: idempotency,
			Modules:     s.Core,
		}
		functions.RegisterRoutes(r)
	})

	return router
}

// module mounts a route group behind the tenant's module switch.
func (a *App) module(r chi.Router, name string, register func(chi.Router)) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireModule(name, a.Services.Core))
		register(r)
	})
}

func (a *App) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	requestID := middleware.GetRequestID(r.Context())
	if err := a.DB.Ping(ctx); err != nil {
		api.Fail(w, http.StatusServiceUnavailable, "not_ready", "database not ready", requestID)
		return
	}
	if a.redis != nil {
		if err := a.redis.Ping(ctx); err != nil {
			api.Fail(w, http.StatusServiceUnavailable, "not_ready", "cache not ready", requestID)
			return
		}
	}
	api.Success(w, map[string]string{"status": "ready"}, requestID)
}

// Run serves HTTP and the scheduler until ctx is cancelled, then drains both.
func (a *App) Run(ctx context.Context) error {
	jobCtx, stopJobs := context.WithCancel(ctx)
	defer stopJobs()
	a.Jobs.Start(jobCtx)
	if dir := a.Config.StatutoryTablesDir; dir != "" {
		go func() {
			if err := WatchTables(jobCtx, a.Services.Tables, dir); err != nil {
				slog.Warn("statutory table watcher stopped", "err", err)
			}
		}()
	}

	srv := &http.Server{
		Addr:              a.Config.Addr,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("hris server listening", "addr", a.Config.Addr, "env", a.Config.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		stopJobs()
		a.Jobs.Wait()
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	stopJobs()
	a.Jobs.Wait()
	return err
}

func (a *App) Close() {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			slog.Warn("event publisher close failed", "err", err)
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			slog.Warn("redis close failed", "err", err)
		}
	}
	if a.DB != nil {
		a.DB.Close()
	}
}
