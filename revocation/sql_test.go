package revocation

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func setupSQLStore(t *testing.T, now func() time.Time) (*SQLStore, *bun.DB, func()) {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	store := NewSQLStore(db, SQLConfig{Now: now})
	require.NoError(t, store.CreateSchema(context.Background()))

	cleanup := func() {
		_ = db.Close()
	}
	return store, db, cleanup
}

func TestSQLStoreRevokeAndIsRevoked(t *testing.T) {
	store, _, cleanup := setupSQLStore(t, nil)
	defer cleanup()
	ctx := context.Background()

	revoked, err := store.IsRevoked(ctx, "tok-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, store.Revoke(ctx, "tok-1"))

	revoked, err = store.IsRevoked(ctx, "tok-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = store.IsRevoked(ctx, "tok-2")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestSQLStoreRevokeIsIdempotent(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	store, db, cleanup := setupSQLStore(t, func() time.Time { return now })
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, store.Revoke(ctx, "tok-1"))
	first, err := store.Lookup(ctx, "tok-1")
	require.NoError(t, err)

	now = now.Add(time.Hour)
	require.NoError(t, store.Revoke(ctx, "tok-1"))
	second, err := store.Lookup(ctx, "tok-1")
	require.NoError(t, err)

	assert.True(t, first.RevokedAt.Equal(second.RevokedAt))
	assert.True(t, second.RevokedAt.Equal(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)))

	count, err := db.NewSelect().Model((*RevokedToken)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSQLStoreLookupMissing(t *testing.T) {
	store, _, cleanup := setupSQLStore(t, nil)
	defer cleanup()

	_, err := store.Lookup(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLStoreCreateSchemaIsRepeatable(t *testing.T) {
	store, _, cleanup := setupSQLStore(t, nil)
	defer cleanup()

	require.NoError(t, store.CreateSchema(context.Background()))
}

func TestSQLStorePurge(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store, _, cleanup := setupSQLStore(t, func() time.Time { return now })
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, store.Revoke(ctx, "old"))
	now = now.Add(48 * time.Hour)
	require.NoError(t, store.Revoke(ctx, "recent"))

	removed, err := store.Purge(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	revoked, err := store.IsRevoked(ctx, "old")
	require.NoError(t, err)
	assert.False(t, revoked)

	revoked, err = store.IsRevoked(ctx, "recent")
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestSQLStoreUnavailableAfterClose(t *testing.T) {
	store, db, cleanup := setupSQLStore(t, nil)
	defer cleanup()

	require.NoError(t, db.Close())

	_, err := store.IsRevoked(context.Background(), "tok-1")
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.ErrorIs(t, store.Revoke(context.Background(), "tok-1"), ErrStoreUnavailable)
}

func TestSQLStoreRejectsEmptyToken(t *testing.T) {
	store, _, cleanup := setupSQLStore(t, nil)
	defer cleanup()

	assert.ErrorIs(t, store.Revoke(context.Background(), ""), ErrEmptyToken)
	_, err := store.IsRevoked(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyToken)
}
