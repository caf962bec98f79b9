package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/councilbooks/councilbooks/internal/rbac"
)

// SyncUserRolesJob reconciles user_roles with the legacy integer role column.
type SyncUserRolesJob struct {
	Bootstrap *rbac.Bootstrap
	Logger    *slog.Logger
}

// NewSyncUserRolesJob initialises the role sync handler.
func NewSyncUserRolesJob(bootstrap *rbac.Bootstrap, logger *slog.Logger) *SyncUserRolesJob {
	return &SyncUserRolesJob{Bootstrap: bootstrap, Logger: logger}
}

// Handle executes the sync.
func (j *SyncUserRolesJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Bootstrap == nil {
		return errors.New("role sync job: handler not configured")
	}
	var payload SyncUserRolesPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	start := time.Now()
	report, err := j.Bootstrap.SyncUserRoles(ctx)
	if err != nil {
		j.Logger.Error("role sync failed", slog.Any("error", err))
		return err
	}
	j.Logger.Info("role sync complete",
		slog.Int("created", report.Created),
		slog.Int("activated", report.Activated),
		slog.Int("skipped", report.Skipped),
		slog.String("reason", payload.Reason),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}
