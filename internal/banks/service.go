package banks

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/councilbooks/councilbooks/internal/shared"
)

// Relabeler stamps a bank account's display name into the cash book rows
// that reference it. *transactions.Repository implements it.
type Relabeler interface {
	RelabelBank(ctx context.Context, bankID int64, label string) error
}

// Service handles bank account business logic.
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

// List returns all bank accounts.
func (s *Service) List(ctx context.Context) ([]BankAccount, error) {
	return s.repo.List(ctx)
}

// Get fetches one bank account.
func (s *Service) Get(ctx context.Context, id int64) (*BankAccount, error) {
	return s.repo.Get(ctx, id)
}

// Create adds a bank account, stamping the acting user.
func (s *Service) Create(ctx context.Context, actorID int64, account BankAccount) (*BankAccount, error) {
	account.UpdatedBy = actorID
	if account.Status == "" {
		account.Status = "active"
	}
	created, err := s.repo.Create(ctx, account)
	if err != nil {
		return nil, err
	}
	s.record(ctx, actorID, "bank_account.create", created.ID)
	return created, nil
}

// Update modifies a bank account.
func (s *Service) Update(ctx context.Context, actorID int64, account BankAccount) (*BankAccount, error) {
	account.UpdatedBy = actorID
	updated, err := s.repo.Update(ctx, account)
	if err != nil {
		return nil, err
	}
	s.record(ctx, actorID, "bank_account.update", updated.ID)
	return updated, nil
}

// Delete removes a bank account. The account's display name is stamped
// into referencing transactions first, so historical rows keep a readable
// label after the account is gone. The stamp is best effort: a failure is
// logged and the delete proceeds.
func (s *Service) Delete(ctx context.Context, actorID, id int64) error {
	s.relabelTransactions(ctx, id)
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.record(ctx, actorID, "bank_account.delete", id)
	return nil
}

// BulkDelete removes multiple bank accounts, stamping each one's display
// name into referencing transactions, and returns the count removed.
func (s *Service) BulkDelete(ctx context.Context, actorID int64, ids []int64) (int64, error) {
	for _, id := range ids {
		s.relabelTransactions(ctx, id)
	}
	deleted, err := s.repo.DeleteMany(ctx, ids)
	if err != nil {
		return 0, err
	}
	for _, id := range ids {
		s.record(ctx, actorID, "bank_account.delete", id)
	}
	return deleted, nil
}

func (s *Service) relabelTransactions(ctx context.Context, id int64) {
	if s.relabel == nil {
		return
	}
	account, err := s.repo.Get(ctx, id)
	if err != nil {
		return
	}
	if err := s.relabel.RelabelBank(ctx, id, account.DisplayName()); err != nil && s.logger != nil {
		s.logger.Warn("relabel transactions", slog.Int64("bank_account_id", id), slog.Any("error", err))
	}
}

func (s *Service) record(ctx context.Context, actorID int64, action string, entityID int64) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "bank_account",
		EntityID: strconv.FormatInt(entityID, 10),
	})
	if err != nil && s.logger != nil {
		s.logger.Warn("audit record", slog.Any("error", err))
	}
}
