package banks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/councilbooks/councilbooks/internal/shared"
)

type mockRepository struct {
	rows   map[int64]*BankAccount
	nextID int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{rows: make(map[int64]*BankAccount), nextID: 1}
}

func (m *mockRepository) List(context.Context) ([]BankAccount, error) {
	out := make([]BankAccount, 0, len(m.rows))
	for _, row := range m.rows {
		out = append(out, *row)
	}
	return out, nil
}

func (m *mockRepository) Get(_ context.Context, id int64) (*BankAccount, error) {
	row, ok := m.rows[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copy := *row
	return &copy, nil
}

func (m *mockRepository) Create(_ context.Context, account BankAccount) (*BankAccount, error) {
	account.ID = m.nextID
	m.nextID++
	m.rows[account.ID] = &account
	copy := account
	return &copy, nil
}

func (m *mockRepository) Update(_ context.Context, account BankAccount) (*BankAccount, error) {
	if _, ok := m.rows[account.ID]; !ok {
		return nil, shared.ErrNotFound
	}
	m.rows[account.ID] = &account
	copy := account
	return &copy, nil
}

func (m *mockRepository) Delete(_ context.Context, id int64) error {
	if _, ok := m.rows[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *mockRepository) DeleteMany(_ context.Context, ids []int64) (int64, error) {
	var deleted int64
	for _, id := range ids {
		if _, ok := m.rows[id]; ok {
			delete(m.rows, id)
			deleted++
		}
	}
	return deleted, nil
}

type recordingRelabeler struct {
	labels map[int64]string
	err    error
}

func (r *recordingRelabeler) RelabelBank(_ context.Context, id int64, label string) error {
	if r.err != nil {
		return r.err
	}
	if r.labels == nil {
		r.labels = make(map[int64]string)
	}
	r.labels[id] = label
	return nil
}

func TestCreateStampsActorAndDefaults(t *testing.T) {
	svc := NewService(newMockRepository(), nil, nil, nil)

	created, err := svc.Create(context.Background(), 7, BankAccount{
		AccountName: "Development Fund",
		AccountNo:   "30124478821",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), created.UpdatedBy)
	assert.Equal(t, "active", created.Status)
}

func TestDeleteStampsLabelIntoTransactions(t *testing.T) {
	repo := newMockRepository()
	relabeler := &recordingRelabeler{}
	svc := NewService(repo, relabeler, nil, nil)

	created, err := svc.Create(context.Background(), 7, BankAccount{
		AccountName: "Development Fund",
		AccountNo:   "30124478821",
		BankName:    "State Bank",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), 7, created.ID))
	assert.Equal(t, "Development Fund", relabeler.labels[created.ID])
	assert.Empty(t, repo.rows)
}

func TestDeleteStampsAccountNoWhenNameBlank(t *testing.T) {
	repo := newMockRepository()
	relabeler := &recordingRelabeler{}
	svc := NewService(repo, relabeler, nil, nil)

	created, err := svc.Create(context.Background(), 7, BankAccount{
		AccountNo: "30124478821",
		BankName:  "State Bank",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), 7, created.ID))
	assert.Equal(t, "30124478821", relabeler.labels[created.ID])
}

func TestDeleteProceedsWhenRelabelFails(t *testing.T) {
	repo := newMockRepository()
	relabeler := &recordingRelabeler{err: assert.AnError}
	svc := NewService(repo, relabeler, nil, nil)

	created, err := svc.Create(context.Background(), 7, BankAccount{AccountName: "Development Fund"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), 7, created.ID))
	assert.Empty(t, repo.rows)
}

func TestDeleteMissingAccount(t *testing.T) {
	svc := NewService(newMockRepository(), nil, nil, nil)
	err := svc.Delete(context.Background(), 7, 99)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestBulkDeleteStampsAndCountsExistingOnly(t *testing.T) {
	repo := newMockRepository()
	relabeler := &recordingRelabeler{}
	svc := NewService(repo, relabeler, nil, nil)

	first, err := svc.Create(context.Background(), 7, BankAccount{AccountName: "Development Fund"})
	require.NoError(t, err)
	second, err := svc.Create(context.Background(), 7, BankAccount{AccountName: "Water Scheme"})
	require.NoError(t, err)

	deleted, err := svc.BulkDelete(context.Background(), 7, []int64{first.ID, second.ID, 99})
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)
	assert.Equal(t, "Development Fund", relabeler.labels[first.ID])
	assert.Equal(t, "Water Scheme", relabeler.labels[second.ID])
	assert.Empty(t, repo.rows)
}
