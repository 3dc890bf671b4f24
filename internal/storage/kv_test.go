package storage_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/gradecalc/internal/db"
	"github.com/mind-engage/gradecalc/internal/storage"
)

// exerciseKV runs the same contract checks against every driver.
func exerciseKV(t *testing.T, kv storage.KV) {
	t.Helper()
	ctx := context.Background()

	_, err := kv.Get(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, kv.Set(ctx, "testHistory", `[{"id":"a"}]`))
	v, err := kv.Get(ctx, "testHistory")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"a"}]`, v)

	require.NoError(t, kv.Set(ctx, "testHistory", `[]`))
	v, err = kv.Get(ctx, "testHistory")
	require.NoError(t, err)
	assert.Equal(t, `[]`, v)

	require.NoError(t, kv.Remove(ctx, "testHistory"))
	_, err = kv.Get(ctx, "testHistory")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// removing twice is fine
	assert.NoError(t, kv.Remove(ctx, "testHistory"))

	assert.Error(t, kv.Set(ctx, "", "x"))
}

func TestMemoryKV(t *testing.T) {
	exerciseKV(t, storage.NewMemoryKV())
}

func TestFSStore(t *testing.T) {
	dir := t.TempDir()
	s, err := storage.NewFSStore(dir)
	require.NoError(t, err)
	exerciseKV(t, s)
}

func TestFSStore_NoTempFilesLeft(t *testing.T) {
	dir := t.TempDir()
	s, err := storage.NewFSStore(dir)
	require.NoError(t, err)
	require.NoError(t, s.Set(context.Background(), "k", "v"))

	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "k.json", files[0].Name())
}

func TestFSStore_RejectsNestedKeys(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := storage.NewFSStore(filepath.Join(dir, "inner"))
	require.NoError(t, err)

	for _, key := range []string{"../outside", "a/h", `a\h`, ".", ".."} {
		assert.ErrorIs(t, s.Set(ctx, key, "v"), storage.ErrInvalidKey, key)
		_, err := s.Get(ctx, key)
		assert.ErrorIs(t, err, storage.ErrInvalidKey, key)
		assert.ErrorIs(t, s.Remove(ctx, key), storage.ErrInvalidKey, key)
	}
	_, err = os.Stat(filepath.Join(dir, "outside.json"))
	assert.True(t, os.IsNotExist(err))

	// "h" is its own key and is not shadowed by "a/h"
	require.NoError(t, s.Set(ctx, "h", "plain"))
	v, err := s.Get(ctx, "h")
	require.NoError(t, err)
	assert.Equal(t, "plain", v)
}

func TestSQLStore_SQLite(t *testing.T) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	dbh, err := db.Open(context.Background(), db.DriverSQLite, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { dbh.Close() })

	exerciseKV(t, storage.NewSQLStore(dbh))
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := db.Open(context.Background(), db.Driver("mysql"), "")
	assert.Error(t, err)
}
