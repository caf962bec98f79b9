package transactions

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/councilbooks/councilbooks/internal/banks"
	"github.com/councilbooks/councilbooks/internal/contractors"
	"github.com/councilbooks/councilbooks/internal/shared"
)

// Filter narrows List and report queries. Zero values mean "no constraint".
type Filter struct {
	Type         string
	BankID       int64
	ContractorID int64
	From         time.Time
	To           time.Time
}

// RepositoryPort defines data access for transactions.
type RepositoryPort interface {
	List(ctx context.Context, filter Filter) ([]Transaction, error)
	Get(ctx context.Context, id int64) (*Transaction, error)
	Create(ctx context.Context, tx Transaction) (*Transaction, error)
	Update(ctx context.Context, tx Transaction) (*Transaction, error)
	Delete(ctx context.Context, id int64) error
	DeleteMany(ctx context.Context, ids []int64) (int64, error)
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var (
	_ RepositoryPort        = (*Repository)(nil)
	_ banks.Relabeler       = (*Repository)(nil)
	_ contractors.Relabeler = (*Repository)(nil)
)

const columns = `id, tx_type, bank_account_id, bank_display_name, contractor_id,
	contractor_display_name, tx_date, amount, account, particular, remark,
	updated_by, updated_at`

func scanTransaction(row pgx.Row) (*Transaction, error) {
	var t Transaction
	err := row.Scan(&t.ID, &t.Type, &t.BankAccountID, &t.BankDisplayName,
		&t.ContractorID, &t.ContractorDisplayName, &t.Date, &t.Amount,
		&t.Account, &t.Particular, &t.Remark, &t.UpdatedBy, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// List returns transactions matching the filter, newest date first.
func (r *Repository) List(ctx context.Context, filter Filter) ([]Transaction, error) {
	query := `SELECT ` + columns + ` FROM transactions WHERE TRUE`
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}
	if filter.Type != "" {
		query += ` AND tx_type = ` + arg(filter.Type)
	}
	if filter.BankID != 0 {
		query += ` AND bank_account_id = ` + arg(filter.BankID)
	}
	if filter.ContractorID != 0 {
		query += ` AND contractor_id = ` + arg(filter.ContractorID)
	}
	if !filter.From.IsZero() {
		query += ` AND tx_date >= ` + arg(filter.From)
	}
	if !filter.To.IsZero() {
		query += ` AND tx_date <= ` + arg(filter.To)
	}
	query += ` ORDER BY tx_date DESC, id DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var txs []Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, *t)
	}
	return txs, rows.Err()
}

// Get fetches one transaction.
func (r *Repository) Get(ctx context.Context, id int64) (*Transaction, error) {
	return scanTransaction(r.pool.QueryRow(ctx, `SELECT `+columns+` FROM transactions WHERE id = $1`, id))
}

// Create inserts a transaction with its display name snapshots.
func (r *Repository) Create(ctx context.Context, tx Transaction) (*Transaction, error) {
	return scanTransaction(r.pool.QueryRow(ctx, `
		INSERT INTO transactions (tx_type, bank_account_id, bank_display_name, contractor_id,
			contractor_display_name, tx_date, amount, account, particular, remark, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING `+columns,
		tx.Type, tx.BankAccountID, tx.BankDisplayName, tx.ContractorID,
		tx.ContractorDisplayName, tx.Date, tx.Amount, tx.Account, tx.Particular,
		tx.Remark, tx.UpdatedBy))
}

// Update modifies a transaction, refreshing the snapshots.
func (r *Repository) Update(ctx context.Context, tx Transaction) (*Transaction, error) {
	return scanTransaction(r.pool.QueryRow(ctx, `
		UPDATE transactions
		SET tx_type = $2, bank_account_id = $3, bank_display_name = $4, contractor_id = $5,
			contractor_display_name = $6, tx_date = $7, amount = $8, account = $9,
			particular = $10, remark = $11, updated_by = $12, updated_at = NOW()
		WHERE id = $1
		RETURNING `+columns,
		tx.ID, tx.Type, tx.BankAccountID, tx.BankDisplayName, tx.ContractorID,
		tx.ContractorDisplayName, tx.Date, tx.Amount, tx.Account, tx.Particular,
		tx.Remark, tx.UpdatedBy))
}

// Delete removes a transaction.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DeleteMany removes the given transactions and reports how many rows went
// away.
func (r *Repository) DeleteMany(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM transactions WHERE id = ANY($1)`, ids)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// RelabelBank stamps a bank account's display name into every transaction
// that references it. Runs before the account row is deleted, so the cash
// book keeps a readable label once the FK goes NULL.
func (r *Repository) RelabelBank(ctx context.Context, bankID int64, label string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE transactions SET bank_display_name = $2 WHERE bank_account_id = $1`, bankID, label)
	return err
}

// RelabelContractor stamps a contractor's display name into every
// transaction that references it.
func (r *Repository) RelabelContractor(ctx context.Context, contractorID int64, label string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE transactions SET contractor_display_name = $2 WHERE contractor_id = $1`, contractorID, label)
	return err
}
