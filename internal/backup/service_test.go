package backup

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/councilbooks/councilbooks/internal/shared"
)

type mockStore struct {
	tables   map[string][]map[string]any
	restored map[string][]map[string]any
	logs     []Log

	dumpErr    error
	restoreErr error
}

func (m *mockStore) DumpTable(_ context.Context, table string) ([]map[string]any, error) {
	if m.dumpErr != nil {
		return nil, m.dumpErr
	}
	return m.tables[table], nil
}

func (m *mockStore) RestoreTables(_ context.Context, tables map[string][]map[string]any) error {
	if m.restoreErr != nil {
		return m.restoreErr
	}
	m.restored = tables
	return nil
}

func (m *mockStore) RecordLog(_ context.Context, action, filePath string) error {
	m.logs = append(m.logs, Log{Action: action, FilePath: filePath})
	return nil
}

func (m *mockStore) ListLogs(_ context.Context, limit int) ([]Log, error) {
	if limit > 0 && limit < len(m.logs) {
		return m.logs[:limit], nil
	}
	return m.logs, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(t *testing.T, store *mockStore) (*Service, string) {
	t.Helper()
	dir := t.TempDir()
	return NewService(store, dir, nil, discardLogger()), dir
}

func TestCreateWritesArchive(t *testing.T) {
	store := &mockStore{tables: map[string][]map[string]any{
		"settings":      {{"id": int64(1), "council_name": "Shirdi Nagar Panchayat"}},
		"bank_accounts": {{"id": int64(1), "account_name": "Development Fund"}},
		"contractors":   {},
		"transactions": {
			{"id": int64(1), "tx_type": "credit", "amount": 50000.0},
			{"id": int64(2), "tx_type": "debit", "amount": 12500.5},
		},
	}}
	svc, dir := newTestService(t, store)

	name, err := svc.Create(context.Background(), 1)
	require.NoError(t, err)
	assert.Regexp(t, `^backup-\d{8}-\d{6}\.json$`, name)

	raw, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Shirdi Nagar Panchayat")

	require.Len(t, store.logs, 1)
	assert.Equal(t, ActionBackup, store.logs[0].Action)
}

func TestCreateDumpFailureAborts(t *testing.T) {
	store := &mockStore{dumpErr: assert.AnError}
	svc, dir := newTestService(t, store)

	_, err := svc.Create(context.Background(), 1)
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "no file should be written on a failed dump")
	assert.Empty(t, store.logs)
}

func TestRestoreRoundTrip(t *testing.T) {
	store := &mockStore{tables: map[string][]map[string]any{
		"settings":      {{"id": int64(1), "council_name": "Shirdi Nagar Panchayat"}},
		"bank_accounts": {},
		"contractors":   {},
		"transactions":  {{"id": int64(1), "tx_type": "credit", "amount": 50000.0}},
	}}
	svc, _ := newTestService(t, store)

	name, err := svc.Create(context.Background(), 1)
	require.NoError(t, err)

	require.NoError(t, svc.Restore(context.Background(), 1, name))
	require.NotNil(t, store.restored)
	require.Len(t, store.restored["transactions"], 1)
	assert.Equal(t, "credit", store.restored["transactions"][0]["tx_type"])

	require.Len(t, store.logs, 2)
	assert.Equal(t, ActionRestore, store.logs[1].Action)
}

func TestRestoreMissingFile(t *testing.T) {
	svc, _ := newTestService(t, &mockStore{})

	err := svc.Restore(context.Background(), 1, "backup-20260101-000000.json")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestRestoreCorruptFile(t *testing.T) {
	svc, dir := newTestService(t, &mockStore{})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{not json"), 0o600))

	err := svc.Restore(context.Background(), 1, "bad.json")
	assert.Error(t, err)
}

func TestRestoreRejectsTraversalNames(t *testing.T) {
	svc, _ := newTestService(t, &mockStore{})

	for _, name := range []string{
		"",
		"../etc/passwd",
		"../../backup.json",
		"/etc/passwd",
		"nested/backup.json",
		".hidden",
		"..",
	} {
		err := svc.Restore(context.Background(), 1, name)
		assert.Error(t, err, "expected %q to be rejected", name)
		assert.NotErrorIs(t, err, shared.ErrNotFound, "expected %q to fail validation, not lookup", name)
	}
}

func TestHistory(t *testing.T) {
	store := &mockStore{logs: []Log{
		{Action: ActionBackup, FilePath: "/data/backup-1.json"},
		{Action: ActionRestore, FilePath: "/data/backup-1.json"},
		{Action: ActionBackup, FilePath: "/data/backup-2.json"},
	}}
	svc, _ := newTestService(t, store)

	logs, err := svc.History(context.Background(), 2)
	require.NoError(t, err)
	assert.Len(t, logs, 2)
}
