package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/councilbooks/councilbooks/internal/backup"
)

// BackupJob runs the nightly table dump.
type BackupJob struct {
	Service *backup.Service
	Logger  *slog.Logger
}

// NewBackupJob initialises the backup handler.
func NewBackupJob(service *backup.Service, logger *slog.Logger) *BackupJob {
	return &BackupJob{Service: service, Logger: logger}
}

// Handle executes the backup.
func (j *BackupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Service == nil {
		return errors.New("backup job: handler not configured")
	}
	var payload BackupCreatePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	start := time.Now()
	// actor 0 marks a system-initiated backup in the audit trail
	file, err := j.Service.Create(ctx, 0)
	if err != nil {
		j.Logger.Error("scheduled backup failed", slog.Any("error", err))
		return err
	}
	j.Logger.Info("scheduled backup complete",
		slog.String("file", file),
		slog.String("reason", payload.Reason),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}
