package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/councilbooks/councilbooks/internal/app"
	"github.com/councilbooks/councilbooks/internal/auth"
	"github.com/councilbooks/councilbooks/internal/backup"
	"github.com/councilbooks/councilbooks/internal/banks"
	"github.com/councilbooks/councilbooks/internal/contractors"
	"github.com/councilbooks/councilbooks/internal/observability"
	"github.com/councilbooks/councilbooks/internal/platform/cache"
	"github.com/councilbooks/councilbooks/internal/platform/db"
	"github.com/councilbooks/councilbooks/internal/rbac"
	"github.com/councilbooks/councilbooks/internal/reports"
	"github.com/councilbooks/councilbooks/internal/settings"
	"github.com/councilbooks/councilbooks/internal/shared"
	"github.com/councilbooks/councilbooks/internal/transactions"
	"github.com/councilbooks/councilbooks/internal/users"
	"github.com/councilbooks/councilbooks/internal/view"
	"github.com/councilbooks/councilbooks/report"
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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

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

	sessionManager := shared.NewSessionManager(redisClient, "councilbooks_session", cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	auditLogger := shared.NewAuditLogger(pool)

	metrics := observability.NewMetrics()

	rbacRepo := rbac.NewRepository(pool)
	rbacService := rbac.NewService(rbacRepo)
	guard := rbac.Guard{Service: rbacService, Logger: logger, Metrics: metrics}
	gate, err := rbac.NewGate(rbacService, logger, rbac.DefaultRules(), rbac.DefaultSkipPrefixes())
	if err != nil {
		logger.Error("build rbac gate", slog.Any("error", err))
		os.Exit(1)
	}
	gate.UseMetrics(metrics)

	bootstrap := rbac.NewBootstrap(rbacRepo, logger)
	if seedReport, err := bootstrap.SeedCatalog(ctx); err != nil {
		logger.Error("seed rbac catalog", slog.Any("error", err))
		os.Exit(1)
	} else {
		logger.Info("rbac catalog ready",
			slog.Int("permissions_created", seedReport.PermissionsCreated),
			slog.Int("roles_created", seedReport.RolesCreated),
		)
	}

	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo, cfg.TokenSecret, cfg.TokenTTL)
	authHandler := auth.NewHandler(logger, authService, templates, sessionManager, csrfManager)

	usersRepo := users.NewRepository(pool)
	usersService := users.NewService(usersRepo, rbacService, auditLogger, logger)
	usersHandler := users.NewHandler(usersService)

	transactionsRepo := transactions.NewRepository(pool)

	banksRepo := banks.NewRepository(pool)
	banksService := banks.NewService(banksRepo, transactionsRepo, auditLogger, logger)
	banksHandler := banks.NewHandler(banksService)

	contractorsRepo := contractors.NewRepository(pool)
	contractorsService := contractors.NewService(contractorsRepo, transactionsRepo, auditLogger, logger)
	contractorsHandler := contractors.NewHandler(contractorsService)

	reportCache := reports.NewCache(redisClient, cfg.ReportCacheTTL)

	transactionsService := transactions.NewService(transactionsRepo, banksRepo, contractorsRepo, reportCache, auditLogger, logger)
	transactionsHandler := transactions.NewHandler(transactionsService)

	settingsRepo := settings.NewRepository(pool)
	settingsService := settings.NewService(settingsRepo, auditLogger, logger)
	settingsHandler := settings.NewHandler(settingsService)

	pdfClient := report.NewClient(cfg.GotenbergURL)
	reportsService := reports.NewService(transactionsRepo, reportCache)
	reportsHandler := reports.NewHandler(reportsService, rbacService, pdfClient, logger)

	backupRepo := backup.NewRepository(pool)
	backupService := backup.NewService(backupRepo, cfg.BackupDir, auditLogger, logger)
	backupHandler := backup.NewHandler(backupService, rbacService, logger)

	permissionsHandler := rbac.NewPermissionsHandler(logger, rbacService)
	rolesHandler := rbac.NewRolesHandler(logger, rbacService)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		Templates:      templates,
		SessionManager: sessionManager,
		CSRFManager:    csrfManager,
		AuthService:    authService,
		Guard:          guard,
		Gate:           gate,
		Metrics:        metrics,

		AuthHandler:         authHandler,
		PermissionsHandler:  permissionsHandler,
		RolesHandler:        rolesHandler,
		UsersHandler:        usersHandler,
		BanksHandler:        banksHandler,
		ContractorsHandler:  contractorsHandler,
		TransactionsHandler: transactionsHandler,
		SettingsHandler:     settingsHandler,
		ReportsHandler:      reportsHandler,
		BackupHandler:       backupHandler,
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
