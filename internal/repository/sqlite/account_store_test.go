package sqlite

import (
	"context"
	"database/sql"
	"io"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"account-auth/internal/domain"
	"account-auth/internal/repository"
)

func newStore(t *testing.T) (repository.AccountStore, *sql.DB) {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "data", "accounts.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	store := NewAccountStore(db, logger)
	require.NoError(t, store.Init(context.Background()))
	return store, db
}

func TestLoad_EmptyDatabase(t *testing.T) {
	store, _ := newStore(t)

	accounts, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, accounts)
	assert.Empty(t, accounts)
}

func TestSaveThenLoad(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	accounts := domain.Accounts{
		"a@x.com": {ID: "1", Email: "a@x.com", Username: "alice", PasswordHash: "h1", Profile: map[string]any{"plan": "pro"}},
	}
	require.NoError(t, store.Save(ctx, accounts))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, accounts, loaded)

	accounts["b@x.com"] = domain.Account{ID: "2", Email: "b@x.com", Username: "bob", PasswordHash: "h2"}
	require.NoError(t, store.Save(ctx, accounts))

	loaded, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, loaded, 2)
}

func TestLoad_CorruptDocumentIsEmpty(t *testing.T) {
	store, db := newStore(t)
	_, err := db.Exec(`INSERT INTO account_documents (name, body, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)`, documentName, "{broken")
	require.NoError(t, err)

	accounts, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, accounts)
}

func TestCancelledContext(t *testing.T) {
	store, _ := newStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, store.Save(ctx, domain.Accounts{}), context.Canceled)
}
