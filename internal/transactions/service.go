package transactions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/councilbooks/councilbooks/internal/banks"
	"github.com/councilbooks/councilbooks/internal/contractors"
	"github.com/councilbooks/councilbooks/internal/shared"
)

// BankLookup resolves bank accounts for display name snapshots.
type BankLookup interface {
	Get(ctx context.Context, id int64) (*banks.BankAccount, error)
}

// ContractorLookup resolves contractors for display name snapshots.
type ContractorLookup interface {
	Get(ctx context.Context, id int64) (*contractors.Contractor, error)
}

// CacheInvalidator marks derived data stale after a cash book write.
// *reports.Cache implements it.
type CacheInvalidator interface {
	Bump(ctx context.Context) error
}

// Service handles cash book business logic.
type Service struct {
	repo        RepositoryPort
	banks       BankLookup
	contractors ContractorLookup
	invalidator CacheInvalidator
	audit       *shared.AuditLogger
	logger      *slog.Logger
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, bankLookup BankLookup, contractorLookup ContractorLookup, invalidator CacheInvalidator, audit *shared.AuditLogger, logger *slog.Logger) *Service {
	return &Service{repo: repo, banks: bankLookup, contractors: contractorLookup, invalidator: invalidator, audit: audit, logger: logger}
}

// List returns transactions matching the filter.
func (s *Service) List(ctx context.Context, filter Filter) ([]Transaction, error) {
	return s.repo.List(ctx, filter)
}

// Get fetches one transaction.
func (s *Service) Get(ctx context.Context, id int64) (*Transaction, error) {
	return s.repo.Get(ctx, id)
}

// Create records a transaction. The bank and contractor display names are
// snapshotted from the referenced rows at this point; deleting those rows
// later leaves the labels intact.
func (s *Service) Create(ctx context.Context, actorID int64, tx Transaction) (*Transaction, error) {
	if !ValidType(tx.Type) {
		return nil, fmt.Errorf("unknown transaction type %q", tx.Type)
	}
	tx.UpdatedBy = actorID
	if err := s.snapshotDisplayNames(ctx, &tx); err != nil {
		return nil, err
	}
	created, err := s.repo.Create(ctx, tx)
	if err != nil {
		return nil, err
	}
	s.record(ctx, actorID, "transaction.create", created.ID)
	s.invalidate(ctx)
	return created, nil
}

// Update modifies a transaction and refreshes its snapshots.
func (s *Service) Update(ctx context.Context, actorID int64, tx Transaction) (*Transaction, error) {
	if !ValidType(tx.Type) {
		return nil, fmt.Errorf("unknown transaction type %q", tx.Type)
	}
	tx.UpdatedBy = actorID
	if err := s.snapshotDisplayNames(ctx, &tx); err != nil {
		return nil, err
	}
	updated, err := s.repo.Update(ctx, tx)
	if err != nil {
		return nil, err
	}
	s.record(ctx, actorID, "transaction.update", updated.ID)
	s.invalidate(ctx)
	return updated, nil
}

// Delete removes a transaction.
func (s *Service) Delete(ctx context.Context, actorID, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.record(ctx, actorID, "transaction.delete", id)
	s.invalidate(ctx)
	return nil
}

// BulkDelete removes multiple transactions and returns the count removed.
// The report cache is bumped only when something actually went away.
func (s *Service) BulkDelete(ctx context.Context, actorID int64, ids []int64) (int64, error) {
	deleted, err := s.repo.DeleteMany(ctx, ids)
	if err != nil {
		return 0, err
	}
	for _, id := range ids {
		s.record(ctx, actorID, "transaction.delete", id)
	}
	if deleted > 0 {
		s.invalidate(ctx)
	}
	return deleted, nil
}

func (s *Service) invalidate(ctx context.Context) {
	if s.invalidator == nil {
		return
	}
	if err := s.invalidator.Bump(ctx); err != nil && s.logger != nil {
		s.logger.Warn("bump report cache", slog.Any("error", err))
	}
}

// snapshotDisplayNames fills the display name fields from the referenced
// rows. A dangling reference keeps whatever label the caller supplied.
func (s *Service) snapshotDisplayNames(ctx context.Context, tx *Transaction) error {
	if tx.BankAccountID != nil && s.banks != nil {
		account, err := s.banks.Get(ctx, *tx.BankAccountID)
		switch {
		case err == nil:
			tx.BankDisplayName = account.DisplayName()
		case errors.Is(err, shared.ErrNotFound):
			// keep the existing label
		default:
			return err
		}
	}
	if tx.ContractorID != nil && s.contractors != nil {
		contractor, err := s.contractors.Get(ctx, *tx.ContractorID)
		switch {
		case err == nil:
			tx.ContractorDisplayName = contractor.DisplayName()
		case errors.Is(err, shared.ErrNotFound):
			// keep the existing label
		default:
			return err
		}
	}
	return nil
}

func (s *Service) record(ctx context.Context, actorID int64, action string, entityID int64) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "transaction",
		EntityID: strconv.FormatInt(entityID, 10),
	})
	if err != nil && s.logger != nil {
		s.logger.Warn("audit record", slog.Any("error", err))
	}
}
