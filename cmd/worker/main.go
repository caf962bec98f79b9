package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/councilbooks/councilbooks/internal/app"
	"github.com/councilbooks/councilbooks/internal/backup"
	"github.com/councilbooks/councilbooks/internal/platform/db"
	"github.com/councilbooks/councilbooks/internal/rbac"
	"github.com/councilbooks/councilbooks/internal/shared"
	"github.com/councilbooks/councilbooks/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	audit := shared.NewAuditLogger(pool)
	backupRepo := backup.NewRepository(pool)
	backupService := backup.NewService(backupRepo, cfg.BackupDir, audit, logger)
	backupJob := jobs.NewBackupJob(backupService, logger)

	rbacRepo := rbac.NewRepository(pool)
	bootstrap := rbac.NewBootstrap(rbacRepo, logger)
	syncJob := jobs.NewSyncUserRolesJob(bootstrap, logger)

	backupTask, err := jobs.NewBackupCreateTask(jobs.BackupCreatePayload{Reason: "nightly"})
	if err != nil {
		logger.Error("build backup task", slog.Any("error", err))
		os.Exit(1)
	}
	syncTask, err := jobs.NewSyncUserRolesTask(jobs.SyncUserRolesPayload{Reason: "nightly"})
	if err != nil {
		logger.Error("build role sync task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskBackupCreate, Handler: backupJob.Handle},
			{Type: jobs.TaskSyncUserRoles, Handler: syncJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "0 1 * * *", Task: backupTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "30 1 * * *", Task: syncTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
