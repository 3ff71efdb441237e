package file

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"account-auth/internal/domain"
)

func newStore(t *testing.T) (*AccountStore, string) {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	path := filepath.Join(t.TempDir(), "nested", "users.json")
	store := NewAccountStore(path, logger).(*AccountStore)
	require.NoError(t, store.Init(context.Background()))
	return store, path
}

func TestLoad_MissingFileIsEmpty(t *testing.T) {
	store, _ := newStore(t)

	accounts, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, accounts)
	assert.Empty(t, accounts)
}

func TestLoad_CorruptFileIsEmpty(t *testing.T) {
	store, path := newStore(t)
	require.NoError(t, os.WriteFile(path, []byte("{oops"), 0o600))

	accounts, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, accounts)
}

func TestSaveThenLoad(t *testing.T) {
	store, path := newStore(t)
	ctx := context.Background()

	accounts := domain.Accounts{
		"a@x.com": {ID: "1", Email: "a@x.com", Username: "alice", PasswordHash: "h1"},
		"b@x.com": {ID: "2", Email: "b@x.com", Username: "bob", PasswordHash: "h2", Profile: map[string]any{"team": "blue"}},
	}
	require.NoError(t, store.Save(ctx, accounts))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, accounts, loaded)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestSave_OverwritesWholeDocument(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, domain.Accounts{
		"a@x.com": {ID: "1", Email: "a@x.com", Username: "alice", PasswordHash: "h1"},
	}))
	require.NoError(t, store.Save(ctx, domain.Accounts{
		"b@x.com": {ID: "2", Email: "b@x.com", Username: "bob", PasswordHash: "h2"},
	}))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, loaded, 1)
	assert.Contains(t, loaded, "b@x.com")
}

func TestLoad_CancelledContext(t *testing.T) {
	store, _ := newStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, store.Save(ctx, domain.Accounts{}), context.Canceled)
}
