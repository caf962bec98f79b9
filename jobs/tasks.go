// Package jobs holds the asynq task definitions and the worker runtime.
package jobs

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskBackupCreate dumps the business tables to a JSON file.
	TaskBackupCreate = "backup:create"
	// TaskSyncUserRoles backfills explicit role assignments from the legacy
	// integer role column.
	TaskSyncUserRoles = "rbac:sync_user_roles"
)

// BackupCreatePayload configures a scheduled backup run.
type BackupCreatePayload struct {
	Reason string `json:"reason"`
}

// NewBackupCreateTask constructs the backup task.
func NewBackupCreateTask(payload BackupCreatePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskBackupCreate, data), nil
}

// SyncUserRolesPayload configures a role sync run.
type SyncUserRolesPayload struct {
	Reason string `json:"reason"`
}

// NewSyncUserRolesTask constructs the role sync task.
func NewSyncUserRolesTask(payload SyncUserRolesPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSyncUserRoles, data), nil
}

// Client submits jobs to the queue.
type Client struct {
	client *asynq.Client
}

// NewClient constructs an Asynq client.
func NewClient(redisOpts asynq.RedisClientOpt) *Client {
	return &Client{client: asynq.NewClient(redisOpts)}
}

// EnqueueBackup enqueues an on-demand backup task.
func (c *Client) EnqueueBackup(ctx context.Context, reason string) (*asynq.TaskInfo, error) {
	task, err := NewBackupCreateTask(BackupCreatePayload{Reason: reason})
	if err != nil {
		return nil, err
	}
	return c.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault))
}

// EnqueueSyncUserRoles enqueues an on-demand role sync task.
func (c *Client) EnqueueSyncUserRoles(ctx context.Context, reason string) (*asynq.TaskInfo, error) {
	task, err := NewSyncUserRolesTask(SyncUserRolesPayload{Reason: reason})
	if err != nil {
		return nil, err
	}
	return c.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault))
}

// Close releases client resources.
func (c *Client) Close() error {
	return c.client.Close()
}
