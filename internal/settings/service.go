package settings

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/councilbooks/councilbooks/internal/shared"
)

// Service handles settings business logic.
type Service struct {
	repo   RepositoryPort
	audit  *shared.AuditLogger
	logger *slog.Logger
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, audit *shared.AuditLogger, logger *slog.Logger) *Service {
	return &Service{repo: repo, audit: audit, logger: logger}
}

// List returns all settings rows.
func (s *Service) List(ctx context.Context) ([]Setting, error) {
	return s.repo.List(ctx)
}

// Get fetches one settings row.
func (s *Service) Get(ctx context.Context, id int64) (*Setting, error) {
	return s.repo.Get(ctx, id)
}

// ImagePath returns the letterhead image path from the current settings row.
// No settings row yet means an empty path, not an error.
func (s *Service) ImagePath(ctx context.Context) (string, error) {
	setting, err := s.repo.First(ctx)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	return setting.ImagePath, nil
}

// Create adds a settings row.
func (s *Service) Create(ctx context.Context, actorID int64, setting Setting) (*Setting, error) {
	created, err := s.repo.Create(ctx, setting)
	if err != nil {
		return nil, err
	}
	s.record(ctx, actorID, "setting.create", created.ID)
	return created, nil
}

// Update modifies a settings row.
func (s *Service) Update(ctx context.Context, actorID int64, setting Setting) (*Setting, error) {
	updated, err := s.repo.Update(ctx, setting)
	if err != nil {
		return nil, err
	}
	s.record(ctx, actorID, "setting.update", updated.ID)
	return updated, nil
}

// Delete removes a settings row.
func (s *Service) Delete(ctx context.Context, actorID, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.record(ctx, actorID, "setting.delete", id)
	return nil
}

func (s *Service) record(ctx context.Context, actorID int64, action string, entityID int64) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "setting",
		EntityID: strconv.FormatInt(entityID, 10),
	})
	if err != nil && s.logger != nil {
		s.logger.Warn("audit record", slog.Any("error", err))
	}
}
