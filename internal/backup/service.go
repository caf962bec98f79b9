package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/councilbooks/councilbooks/internal/shared"
)

// StorePort defines the persistence operations backups depend on.
type StorePort interface {
	DumpTable(ctx context.Context, table string) ([]map[string]any, error)
	RestoreTables(ctx context.Context, tables map[string][]map[string]any) error
	RecordLog(ctx context.Context, action, filePath string) error
	ListLogs(ctx context.Context, limit int) ([]Log, error)
}

// Service creates and restores dump files under dir.
type Service struct {
	repo   StorePort
	dir    string
	audit  *shared.AuditLogger
	logger *slog.Logger
}

// NewService builds a Service instance.
func NewService(repo StorePort, dir string, audit *shared.AuditLogger, logger *slog.Logger) *Service {
	return &Service{repo: repo, dir: dir, audit: audit, logger: logger}
}

// Create dumps every business table to a timestamped JSON file. Tables dump
// concurrently; one failure aborts the whole backup.
func (s *Service) Create(ctx context.Context, actorID int64) (string, error) {
	archive := Archive{
		CreatedAt: time.Now().UTC(),
		Tables:    make(map[string][]map[string]any, len(businessTables)),
	}
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, table := range businessTables {
		table := table
		g.Go(func() error {
			records, err := s.repo.DumpTable(gctx, table)
			if err != nil {
				return fmt.Errorf("dump %s: %w", table, err)
			}
			mu.Lock()
			archive.Tables[table] = records
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", err
	}
	name := fmt.Sprintf("backup-%s.json", archive.CreatedAt.Format("20060102-150405"))
	path := filepath.Join(s.dir, name)
	raw, err := json.MarshalIndent(archive, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		return "", err
	}

	if err := s.repo.RecordLog(ctx, ActionBackup, path); err != nil {
		s.logger.Warn("record backup log", slog.Any("error", err))
	}
	s.record(ctx, actorID, "backup.create", name)
	s.logger.Info("backup created", slog.String("file", path))
	return name, nil
}

// Restore loads a dump file produced by Create and replaces the business
// tables with its contents.
func (s *Service) Restore(ctx context.Context, actorID int64, file string) error {
	path, err := s.resolve(file)
	if err != nil {
		return err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return shared.ErrNotFound
		}
		return err
	}
	var archive Archive
	if err := json.Unmarshal(raw, &archive); err != nil {
		return fmt.Errorf("parse backup file: %w", err)
	}
	if err := s.repo.RestoreTables(ctx, archive.Tables); err != nil {
		return err
	}
	if err := s.repo.RecordLog(ctx, ActionRestore, path); err != nil {
		s.logger.Warn("record backup log", slog.Any("error", err))
	}
	s.record(ctx, actorID, "backup.restore", file)
	s.logger.Info("backup restored", slog.String("file", path))
	return nil
}

// History lists recent backup and restore operations.
func (s *Service) History(ctx context.Context, limit int) ([]Log, error) {
	return s.repo.ListLogs(ctx, limit)
}

// resolve keeps restore file names inside the backup directory.
func (s *Service) resolve(file string) (string, error) {
	if file == "" {
		return "", fmt.Errorf("backup file name required")
	}
	clean := filepath.Base(filepath.Clean(file))
	if clean != file || strings.HasPrefix(clean, ".") {
		return "", fmt.Errorf("invalid backup file name %q", file)
	}
	return filepath.Join(s.dir, clean), nil
}

func (s *Service) record(ctx context.Context, actorID int64, action, file string) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "backup",
		EntityID: file,
	})
	if err != nil {
		s.logger.Warn("audit record", slog.Any("error", err))
	}
}
