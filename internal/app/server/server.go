package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"

	"leavedesk/internal/domain/announcements"
	"leavedesk/internal/domain/auth"
	"leavedesk/internal/domain/directory"
	"leavedesk/internal/domain/leave"
	"leavedesk/internal/domain/notifications"
	"leavedesk/internal/domain/quota"
	"leavedesk/internal/domain/reports"
	"leavedesk/internal/platform/config"
	"leavedesk/internal/platform/db"
	"leavedesk/internal/platform/email"
	"leavedesk/internal/platform/jobs"
	"leavedesk/internal/platform/line"
	"leavedesk/internal/platform/metrics"
	"leavedesk/internal/platform/storage"
	adminhandler "leavedesk/internal/transport/http/handlers/admin"
	announcementshandler "leavedesk/internal/transport/http/handlers/announcements"
	authhandler "leavedesk/internal/transport/http/handlers/auth"
	directoryhandler "leavedesk/internal/transport/http/handlers/directory"
	leavehandler "leavedesk/internal/transport/http/handlers/leave"
	notificationshandler "leavedesk/internal/transport/http/handlers/notifications"
	quotahandler "leavedesk/internal/transport/http/handlers/quota"
	reportshandler "leavedesk/internal/transport/http/handlers/reports"
	"leavedesk/internal/transport/http/middleware"
)

type App struct {
	Config  config.Config
	DB      *pgxpool.Pool
	Router  http.Handler
	Ledger  *quota.Ledger
	Leave   *leave.Service
	Jobs    *jobs.Service
	Metrics *metrics.Collector
}

// New connects, migrates, seeds, and wires the full HTTP surface. The
// returned App owns the pool; call Close when done.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config invalid: %w", err)
	}

	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, cfg.MigrationsDir); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg); err != nil {
			pool.Close()
			return nil, fmt.Errorf("seed: %w", err)
		}
	}

	files, err := storage.New(cfg.UploadDir)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("storage init: %w", err)
	}

	ledger := quota.NewLedger(cfg.HoursPerDay)
	authStore := auth.NewStore(pool)
	directoryStore := directory.NewStore(pool)
	announcementStore := announcements.NewStore(pool)
	notifySvc := notifications.New(notifications.NewStore(pool), email.New(cfg), line.New(cfg))
	leaveSvc := leave.NewService(pool, ledger, files)
	reportSvc := reports.NewService(reports.NewStore(pool), ledger)
	var collector *metrics.Collector
	if cfg.MetricsEnabled {
		collector = metrics.New()
	}
	jobsSvc := jobs.New(pool, cfg, ledger)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(collector))
	router.Use(middleware.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	router.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.Auth(cfg.JWTSecret))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	router.Route("/api/v1", func(r chi.Router) {
		authHandler := authhandler.NewHandler(pool, cfg.JWTSecret)
		r.Post("/auth/login", authHandler.HandleLogin)
		r.Get("/auth/me", authHandler.HandleMe)

		perm := func(permission string) func(http.Handler) http.Handler {
			return middleware.RequirePermission(permission, authStore)
		}

		directoryHandler := directoryhandler.NewHandler(directoryStore)
		r.Get("/profile", directoryHandler.HandleProfile)
		r.With(perm(auth.PermUsersRead)).Get("/users", directoryHandler.HandleListUsers)
		r.With(perm(auth.PermUsersWrite)).Post("/users", directoryHandler.HandleCreateUser)
		r.With(perm(auth.PermUsersRead)).Get("/users/{userID}", directoryHandler.HandleGetUser)
		r.With(perm(auth.PermUsersWrite)).Put("/users/{userID}", directoryHandler.HandleUpdateUser)
		r.With(perm(auth.PermUsersWrite)).Delete("/users/{userID}", directoryHandler.HandleDeleteUser)

		r.With(perm(auth.PermOrgRead)).Get("/departments", directoryHandler.HandleListDepartments)
		r.With(perm(auth.PermOrgWrite)).Post("/departments", directoryHandler.HandleCreateDepartment)
		r.With(perm(auth.PermOrgWrite)).Put("/departments/{departmentID}", directoryHandler.HandleUpdateDepartment)
		r.With(perm(auth.PermOrgWrite)).Delete("/departments/{departmentID}", directoryHandler.HandleDeleteDepartment)
		r.With(perm(auth.PermOrgRead)).Get("/positions", directoryHandler.HandleListPositions)
		r.With(perm(auth.PermOrgWrite)).Post("/positions", directoryHandler.HandleCreatePosition)
		r.With(perm(auth.PermOrgWrite)).Put("/positions/{positionID}", directoryHandler.HandleUpdatePosition)
		r.With(perm(auth.PermOrgWrite)).Delete("/positions/{positionID}", directoryHandler.HandleDeletePosition)

		leaveHandler := leavehandler.NewHandler(leaveSvc, notifySvc)
		r.With(perm(auth.PermLeaveRead)).Get("/leave/types", leaveHandler.HandleListTypes)
		r.With(perm(auth.PermSystemAdmin)).Post("/leave/types", leaveHandler.HandleCreateType)
		r.With(perm(auth.PermSystemAdmin)).Put("/leave/types/{typeID}", leaveHandler.HandleUpdateType)
		r.With(perm(auth.PermSystemAdmin)).Delete("/leave/types/{typeID}", leaveHandler.HandleDeleteType)
		r.With(perm(auth.PermLeaveRead)).Get("/holidays", leaveHandler.HandleListHolidays)
		r.With(perm(auth.PermSystemAdmin)).Post("/holidays", leaveHandler.HandleCreateHoliday)
		r.With(perm(auth.PermSystemAdmin)).Delete("/holidays/{holidayID}", leaveHandler.HandleDeleteHoliday)

		r.With(perm(auth.PermLeaveWrite), middleware.UploadLimit(cfg.MaxUploadBytes)).Post("/leave/requests", leaveHandler.HandleSubmit)
		r.With(perm(auth.PermLeaveRead)).Get("/leave/requests", leaveHandler.HandleListRequests)
		r.With(perm(auth.PermLeaveRead)).Get("/leave/requests/{requestID}", leaveHandler.HandleGetRequest)
		r.With(perm(auth.PermLeaveApprove)).Post("/leave/requests/{requestID}/approve", leaveHandler.HandleApprove)
		r.With(perm(auth.PermLeaveApprove)).Post("/leave/requests/{requestID}/reject", leaveHandler.HandleReject)
		r.With(perm(auth.PermLeaveWrite)).Delete("/leave/requests/{requestID}", leaveHandler.HandleDelete)
		r.With(perm(auth.PermLeaveRead)).Get("/leave/requests/{requestID}/attachments/{attachmentID}", leaveHandler.HandleDownloadAttachment)

		quotaHandler := quotahandler.NewHandler(pool, ledger, jobsSvc)
		r.With(perm(auth.PermQuotaRead)).Get("/quota/balances", quotaHandler.HandleMyBalances)
		r.With(perm(auth.PermLeaveApprove)).Get("/users/{userID}/balances", quotaHandler.HandleUserBalances)
		r.With(perm(auth.PermQuotaRead)).Get("/positions/{positionID}/entitlements", quotaHandler.HandleListEntitlements)
		r.With(perm(auth.PermQuotaWrite)).Put("/positions/{positionID}/entitlements", quotaHandler.HandleUpsertEntitlement)
		r.With(perm(auth.PermQuotaReset)).Post("/quota/reset", quotaHandler.HandleReset)

		announcementHandler := announcementshandler.NewHandler(announcementStore)
		r.With(perm(auth.PermAnnouncementsRead)).Get("/announcements", announcementHandler.HandleList)
		r.With(perm(auth.PermAnnouncementsRead)).Get("/announcements/{announcementID}", announcementHandler.HandleGet)
		r.With(perm(auth.PermAnnouncementsWrite)).Post("/announcements", announcementHandler.HandleCreate)
		r.With(perm(auth.PermAnnouncementsWrite)).Put("/announcements/{announcementID}", announcementHandler.HandleUpdate)
		r.With(perm(auth.PermAnnouncementsWrite)).Delete("/announcements/{announcementID}", announcementHandler.HandleDelete)

		notificationHandler := notificationshandler.NewHandler(notifySvc)
		r.Get("/notifications", notificationHandler.HandleList)
		r.Get("/notifications/unread-count", notificationHandler.HandleUnreadCount)
		r.Post("/notifications/{notificationID}/read", notificationHandler.HandleMarkRead)

		reportHandler := reportshandler.NewHandler(reportSvc)
		r.With(perm(auth.PermReportsRead)).Get("/reports/dashboard", reportHandler.HandleDashboard)
		r.With(perm(auth.PermReportsRead)).Get("/reports/leave-usage", reportHandler.HandleUsage)
		r.With(perm(auth.PermReportsRead)).Get("/reports/leave-usage.csv", reportHandler.HandleUsageCSV)
		r.With(perm(auth.PermReportsRead)).Get("/reports/leave-usage.pdf", reportHandler.HandleUsagePDF)

		adminHandler := adminhandler.NewHandler(collector, jobsSvc)
		r.With(perm(auth.PermSystemAdmin)).Get("/admin/metrics", adminHandler.HandleMetrics)
		r.With(perm(auth.PermSystemAdmin)).Get("/admin/jobs", adminHandler.HandleJobRuns)
	})

	router.Mount("/", spaHandler{staticPath: cfg.FrontendDir, indexPath: "index.html"})

	return &App{
		Config:  cfg,
		DB:      pool,
		Router:  router,
		Ledger:  ledger,
		Leave:   leaveSvc,
		Jobs:    jobsSvc,
		Metrics: collector,
	}, nil
}

func (a *App) Close() {
	a.DB.Close()
}

func Run() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := New(ctx, cfg)
	if err != nil {
		log.Fatalf("startup failed: %v", err)
	}
	defer app.Close()

	app.Jobs.Start(ctx)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown failed", "err", err)
		}
	}()

	slog.Info("server listening", "addr", cfg.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server failed: %v", err)
	}
}

// spaHandler serves the built frontend, falling back to index.html so
// client-side routes resolve on refresh.
type spaHandler struct {
	staticPath string
	indexPath  string
}

func (h spaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	path := filepath.Join(h.staticPath, r.URL.Path)
	_, err := os.Stat(path)
	if err == nil {
		http.FileServer(http.Dir(h.staticPath)).ServeHTTP(w, r)
		return
	}

	if os.IsNotExist(err) {
		http.ServeFile(w, r, filepath.Join(h.staticPath, h.indexPath))
		return
	}

	http.NotFound(w, r)
}
