package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/councilbooks/councilbooks/internal/shared"
)

type mockRepository struct {
	users  map[int64]*User
	hashes map[int64]string
	nextID int64

	createErr error
	deleteErr error
}

func newMockRepository() *mockRepository {
	return &mockRepository{users: make(map[int64]*User), hashes: make(map[int64]string), nextID: 1}
}

func (m *mockRepository) List(context.Context) ([]User, error) {
	out := make([]User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, *u)
	}
	return out, nil
}

func (m *mockRepository) Get(_ context.Context, id int64) (*User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copy := *u
	return &copy, nil
}

func (m *mockRepository) Create(_ context.Context, user User, passwordHash string) (*User, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	user.ID = m.nextID
	m.nextID++
	m.users[user.ID] = &user
	m.hashes[user.ID] = passwordHash
	copy := user
	return &copy, nil
}

func (m *mockRepository) Update(_ context.Context, user User) (*User, error) {
	current, ok := m.users[user.ID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	current.Username = user.Username
	current.Role = user.Role
	current.Status = user.Status
	current.Contact = user.Contact
	copy := *current
	return &copy, nil
}

func (m *mockRepository) UpdatePassword(_ context.Context, id int64, passwordHash string) error {
	if _, ok := m.users[id]; !ok {
		return shared.ErrNotFound
	}
	m.hashes[id] = passwordHash
	return nil
}

func (m *mockRepository) Delete(_ context.Context, id int64) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	if _, ok := m.users[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *mockRepository) DeleteMany(_ context.Context, ids []int64) (int64, error) {
	if m.deleteErr != nil {
		return 0, m.deleteErr
	}
	var deleted int64
	for _, id := range ids {
		if _, ok := m.users[id]; ok {
			delete(m.users, id)
			deleted++
		}
	}
	return deleted, nil
}

type recordingSyncer struct {
	calls map[int64]int
	err   error
}

func (r *recordingSyncer) AssignLegacyRole(_ context.Context, userID int64, legacyRole int) error {
	if r.calls == nil {
		r.calls = make(map[int64]int)
	}
	r.calls[userID] = legacyRole
	return r.err
}

func TestCreateDefaults(t *testing.T) {
	repo := newMockRepository()
	syncer := &recordingSyncer{}
	svc := NewService(repo, syncer, nil, nil)

	user, err := svc.Create(context.Background(), 1, CreateInput{
		Username: "newclerk",
		Password: "changeme",
	})
	require.NoError(t, err)
	assert.Equal(t, "active", user.Status)
	assert.Equal(t, 4, user.Role)

	// Password is stored hashed, never verbatim.
	hash := repo.hashes[user.ID]
	require.NotEmpty(t, hash)
	assert.NotEqual(t, "changeme", hash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("changeme")))

	// Legacy role mirrored into explicit assignments.
	assert.Equal(t, 4, syncer.calls[user.ID])
}

func TestCreateExplicitRoleAndStatus(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil, nil, nil)

	user, err := svc.Create(context.Background(), 1, CreateInput{
		Username: "auditor",
		Password: "changeme",
		Role:     3,
		Status:   "inactive",
	})
	require.NoError(t, err)
	assert.Equal(t, 3, user.Role)
	assert.Equal(t, "inactive", user.Status)
}

func TestCreateSyncFailureIsNotFatal(t *testing.T) {
	repo := newMockRepository()
	syncer := &recordingSyncer{err: assert.AnError}
	svc := NewService(repo, syncer, nil, nil)

	user, err := svc.Create(context.Background(), 1, CreateInput{Username: "x", Password: "y"})
	require.NoError(t, err)
	require.NotNil(t, user)
}

func TestUpdateBackfillsFromCurrent(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil, nil, nil)

	created, err := svc.Create(context.Background(), 1, CreateInput{
		Username: "keeper",
		Password: "original",
		Role:     2,
		Contact:  "555-0100",
	})
	require.NoError(t, err)
	originalHash := repo.hashes[created.ID]

	// Only status changes; everything else carries over, password untouched.
	updated, err := svc.Update(context.Background(), 1, created.ID, UpdateInput{Status: "inactive"})
	require.NoError(t, err)
	assert.Equal(t, "keeper", updated.Username)
	assert.Equal(t, 2, updated.Role)
	assert.Equal(t, "555-0100", updated.Contact)
	assert.Equal(t, "inactive", updated.Status)
	assert.Equal(t, originalHash, repo.hashes[created.ID])
}

func TestUpdateChangesPassword(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil, nil, nil)

	created, err := svc.Create(context.Background(), 1, CreateInput{Username: "keeper", Password: "original"})
	require.NoError(t, err)
	originalHash := repo.hashes[created.ID]

	_, err = svc.Update(context.Background(), 1, created.ID, UpdateInput{Password: "rotated"})
	require.NoError(t, err)
	assert.NotEqual(t, originalHash, repo.hashes[created.ID])
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.hashes[created.ID]), []byte("rotated")))
}

func TestUpdateMissingUser(t *testing.T) {
	svc := NewService(newMockRepository(), nil, nil, nil)

	_, err := svc.Update(context.Background(), 1, 999, UpdateInput{Username: "nobody"})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestDelete(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil, nil, nil)

	created, err := svc.Create(context.Background(), 1, CreateInput{Username: "victim", Password: "x"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), 1, created.ID))
	_, err = svc.Get(context.Background(), created.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestBulkDeleteCountsExistingOnly(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil, nil, nil)

	a, err := svc.Create(context.Background(), 1, CreateInput{Username: "a", Password: "x"})
	require.NoError(t, err)
	b, err := svc.Create(context.Background(), 1, CreateInput{Username: "b", Password: "x"})
	require.NoError(t, err)

	deleted, err := svc.BulkDelete(context.Background(), 1, []int64{a.ID, b.ID, 999})
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)
}
