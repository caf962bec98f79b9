package settings

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/councilbooks/councilbooks/internal/shared"
)

// RepositoryPort defines data access for settings.
type RepositoryPort interface {
	List(ctx context.Context) ([]Setting, error)
	Get(ctx context.Context, id int64) (*Setting, error)
	First(ctx context.Context) (*Setting, error)
	Create(ctx context.Context, setting Setting) (*Setting, error)
	Update(ctx context.Context, setting Setting) (*Setting, error)
	Delete(ctx context.Context, id int64) error
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

const columns = `id, council_name, district_name, session, image_path, notice_date_111,
	issue_date, renewal_date, assessment_year, notice_date_120, age, updated_at`

func scanSetting(row pgx.Row) (*Setting, error) {
	var s Setting
	err := row.Scan(&s.ID, &s.CouncilName, &s.DistrictName, &s.Session, &s.ImagePath,
		&s.NoticeDate111, &s.IssueDate, &s.RenewalDate, &s.AssessmentYear,
		&s.NoticeDate120, &s.Age, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

// List returns all settings rows.
func (r *Repository) List(ctx context.Context) ([]Setting, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+columns+` FROM settings ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Setting
	for rows.Next() {
		s, err := scanSetting(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

// Get fetches one settings row.
func (r *Repository) Get(ctx context.Context, id int64) (*Setting, error) {
	return scanSetting(r.pool.QueryRow(ctx, `SELECT `+columns+` FROM settings WHERE id = $1`, id))
}

// First returns the lowest-ID settings row, the one the UI treats as current.
func (r *Repository) First(ctx context.Context) (*Setting, error) {
	return scanSetting(r.pool.QueryRow(ctx, `SELECT `+columns+` FROM settings ORDER BY id LIMIT 1`))
}

// Create inserts a settings row.
func (r *Repository) Create(ctx context.Context, setting Setting) (*Setting, error) {
	return scanSetting(r.pool.QueryRow(ctx, `
		INSERT INTO settings (council_name, district_name, session, image_path, notice_date_111,
			issue_date, renewal_date, assessment_year, notice_date_120, age)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+columns,
		setting.CouncilName, setting.DistrictName, setting.Session, setting.ImagePath,
		setting.NoticeDate111, setting.IssueDate, setting.RenewalDate,
		setting.AssessmentYear, setting.NoticeDate120, setting.Age))
}

// Update modifies a settings row.
func (r *Repository) Update(ctx context.Context, setting Setting) (*Setting, error) {
	return scanSetting(r.pool.QueryRow(ctx, `
		UPDATE settings
		SET council_name = $2, district_name = $3, session = $4, image_path = $5,
			notice_date_111 = $6, issue_date = $7, renewal_date = $8, assessment_year = $9,
			notice_date_120 = $10, age = $11, updated_at = NOW()
		WHERE id = $1
		RETURNING `+columns,
		setting.ID, setting.CouncilName, setting.DistrictName, setting.Session,
		setting.ImagePath, setting.NoticeDate111, setting.IssueDate, setting.RenewalDate,
		setting.AssessmentYear, setting.NoticeDate120, setting.Age))
}

// Delete removes a settings row.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM settings WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
