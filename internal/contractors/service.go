package contractors

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/councilbooks/councilbooks/internal/shared"
)

// Relabeler stamps a contractor's display name into the cash book rows
// that reference it. *transactions.Repository implements it.
type Relabeler interface {
	RelabelContractor(ctx context.Context, contractorID int64, label string) error
}

// Service handles contractor business logic.
type Service struct {
	repo    RepositoryPort
	relabel Relabeler
	audit   *shared.AuditLogger
	logger  *slog.Logger
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, relabel Relabeler, audit *shared.AuditLogger, logger *slog.Logger) *Service {
	return &Service{repo: repo, relabel: relabel, audit: audit, logger: logger}
}

// List returns all contractors.
func (s *Service) List(ctx context.Context) ([]Contractor, error) {
	return s.repo.List(ctx)
}

// Get fetches one contractor.
func (s *Service) Get(ctx context.Context, id int64) (*Contractor, error) {
	return s.repo.Get(ctx, id)
}

// Create adds a contractor, stamping the acting user.
func (s *Service) Create(ctx context.Context, actorID int64, contractor Contractor) (*Contractor, error) {
	contractor.UpdatedBy = actorID
	if contractor.Status == "" {
		contractor.Status = "active"
	}
	created, err := s.repo.Create(ctx, contractor)
	if err != nil {
		return nil, err
	}
	s.record(ctx, actorID, "contractor.create", created.ID)
	return created, nil
}

// Update modifies a contractor.
func (s *Service) Update(ctx context.Context, actorID int64, contractor Contractor) (*Contractor, error) {
	contractor.UpdatedBy = actorID
	updated, err := s.repo.Update(ctx, contractor)
	if err != nil {
		return nil, err
	}
	s.record(ctx, actorID, "contractor.update", updated.ID)
	return updated, nil
}

// Delete removes a contractor. The contractor's name is stamped into
// referencing transactions first, so historical rows keep a readable label
// after the contractor is gone. The stamp is best effort: a failure is
// logged and the delete proceeds.
func (s *Service) Delete(ctx context.Context, actorID, id int64) error {
	s.relabelTransactions(ctx, id)
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.record(ctx, actorID, "contractor.delete", id)
	return nil
}

// BulkDelete removes multiple contractors, stamping each one's name into
// referencing transactions, and returns the count removed.
func (s *Service) BulkDelete(ctx context.Context, actorID int64, ids []int64) (int64, error) {
	for _, id := range ids {
		s.relabelTransactions(ctx, id)
	}
	deleted, err := s.repo.DeleteMany(ctx, ids)
	if err != nil {
		return 0, err
	}
	for _, id := range ids {
		s.record(ctx, actorID, "contractor.delete", id)
	}
	return deleted, nil
}

func (s *Service) relabelTransactions(ctx context.Context, id int64) {
	if s.relabel == nil {
		return
	}
	contractor, err := s.repo.Get(ctx, id)
	if err != nil {
		return
	}
	if err := s.relabel.RelabelContractor(ctx, id, contractor.DisplayName()); err != nil && s.logger != nil {
		s.logger.Warn("relabel transactions", slog.Int64("contractor_id", id), slog.Any("error", err))
	}
}

func (s *Service) record(ctx context.Context, actorID int64, action string, entityID int64) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "contractor",
		EntityID: strconv.FormatInt(entityID, 10),
	})
	if err != nil && s.logger != nil {
		s.logger.Warn("audit record", slog.Any("error", err))
	}
}
