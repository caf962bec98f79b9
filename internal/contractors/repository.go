package contractors

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/councilbooks/councilbooks/internal/shared"
)

// RepositoryPort defines data access for contractors.
type RepositoryPort interface {
	List(ctx context.Context) ([]Contractor, error)
	Get(ctx context.Context, id int64) (*Contractor, error)
	Create(ctx context.Context, contractor Contractor) (*Contractor, error)
	Update(ctx context.Context, contractor Contractor) (*Contractor, error)
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

const columns = `id, name, address, contact_no, pan, tan, gst, bank_ac, ifsc, bank,
	remark, status, updated_by, updated_at`

func scanContractor(row pgx.Row) (*Contractor, error) {
	var c Contractor
	err := row.Scan(&c.ID, &c.Name, &c.Address, &c.ContactNo, &c.PAN, &c.TAN,
		&c.GST, &c.BankAC, &c.IFSC, &c.Bank, &c.Remark, &c.Status,
		&c.UpdatedBy, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// List returns all contractors ordered by ID.
func (r *Repository) List(ctx context.Context) ([]Contractor, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+columns+` FROM contractors ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var contractors []Contractor
	for rows.Next() {
		c, err := scanContractor(rows)
		if err != nil {
			return nil, err
		}
		contractors = append(contractors, *c)
	}
	return contractors, rows.Err()
}

// Get fetches one contractor.
func (r *Repository) Get(ctx context.Context, id int64) (*Contractor, error) {
	return scanContractor(r.pool.QueryRow(ctx, `SELECT `+columns+` FROM contractors WHERE id = $1`, id))
}

// Create inserts a contractor.
func (r *Repository) Create(ctx context.Context, contractor Contractor) (*Contractor, error) {
	return scanContractor(r.pool.QueryRow(ctx, `
		INSERT INTO contractors (name, address, contact_no, pan, tan, gst, bank_ac, ifsc, bank,
			remark, status, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING `+columns,
		contractor.Name, contractor.Address, contractor.ContactNo, contractor.PAN,
		contractor.TAN, contractor.GST, contractor.BankAC, contractor.IFSC,
		contractor.Bank, contractor.Remark, contractor.Status, contractor.UpdatedBy))
}

// Update modifies a contractor.
func (r *Repository) Update(ctx context.Context, contractor Contractor) (*Contractor, error) {
	return scanContractor(r.pool.QueryRow(ctx, `
		UPDATE contractors
		SET name = $2, address = $3, contact_no = $4, pan = $5, tan = $6, gst = $7,
			bank_ac = $8, ifsc = $9, bank = $10, remark = $11, status = $12,
			updated_by = $13, updated_at = NOW()
		WHERE id = $1
		RETURNING `+columns,
		contractor.ID, contractor.Name, contractor.Address, contractor.ContactNo,
		contractor.PAN, contractor.TAN, contractor.GST, contractor.BankAC,
		contractor.IFSC, contractor.Bank, contractor.Remark, contractor.Status,
		contractor.UpdatedBy))
}

// Delete removes a contractor. The service stamps the display name into
// referencing transactions before calling this.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM contractors WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DeleteMany removes the given contractors and reports how many rows went
// away.
func (r *Repository) DeleteMany(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM contractors WHERE id = ANY($1)`, ids)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
