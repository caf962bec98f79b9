package banks

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/councilbooks/councilbooks/internal/shared"
)

// RepositoryPort defines data access for bank accounts.
type RepositoryPort interface {
	List(ctx context.Context) ([]BankAccount, error)
	Get(ctx context.Context, id int64) (*BankAccount, error)
	Create(ctx context.Context, account BankAccount) (*BankAccount, error)
	Update(ctx context.Context, account BankAccount) (*BankAccount, error)
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

var _ RepositoryPort = (*Repository)(nil)

const columns = `id, account_name, account_no, ifsc, bank_name, scheme_name,
	manager_name, contact, address, remark, status, updated_by, updated_at`

func scanAccount(row pgx.Row) (*BankAccount, error) {
	var b BankAccount
	err := row.Scan(&b.ID, &b.AccountName, &b.AccountNo, &b.IFSC, &b.BankName,
		&b.SchemeName, &b.ManagerName, &b.Contact, &b.Address, &b.Remark,
		&b.Status, &b.UpdatedBy, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

// List returns all bank accounts ordered by ID.
func (r *Repository) List(ctx context.Context) ([]BankAccount, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+columns+` FROM bank_accounts ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var accounts []BankAccount
	for rows.Next() {
		b, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *b)
	}
	return accounts, rows.Err()
}

// Get fetches one bank account.
func (r *Repository) Get(ctx context.Context, id int64) (*BankAccount, error) {
	return scanAccount(r.pool.QueryRow(ctx, `SELECT `+columns+` FROM bank_accounts WHERE id = $1`, id))
}

// Create inserts a bank account.
func (r *Repository) Create(ctx context.Context, account BankAccount) (*BankAccount, error) {
	return scanAccount(r.pool.QueryRow(ctx, `
		INSERT INTO bank_accounts (account_name, account_no, ifsc, bank_name, scheme_name,
			manager_name, contact, address, remark, status, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING `+columns,
		account.AccountName, account.AccountNo, account.IFSC, account.BankName,
		account.SchemeName, account.ManagerName, account.Contact, account.Address,
		account.Remark, account.Status, account.UpdatedBy))
}

// Update modifies a bank account.
func (r *Repository) Update(ctx context.Context, account BankAccount) (*BankAccount, error) {
	return scanAccount(r.pool.QueryRow(ctx, `
		UPDATE bank_accounts
		SET account_name = $2, account_no = $3, ifsc = $4, bank_name = $5, scheme_name = $6,
			manager_name = $7, contact = $8, address = $9, remark = $10, status = $11,
			updated_by = $12, updated_at = NOW()
		WHERE id = $1
		RETURNING `+columns,
		account.ID, account.AccountName, account.AccountNo, account.IFSC, account.BankName,
		account.SchemeName, account.ManagerName, account.Contact, account.Address,
		account.Remark, account.Status, account.UpdatedBy))
}

// Delete removes a bank account. The service stamps the display name into
// referencing transactions before calling this.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM bank_accounts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DeleteMany removes the given accounts and reports how many rows went away.
func (r *Repository) DeleteMany(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM bank_accounts WHERE id = ANY($1)`, ids)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
