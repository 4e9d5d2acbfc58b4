package storage

import (
	"context"
	"testing"

	"github.com/ikkim/storefront/config"
	"github.com/ikkim/storefront/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupSQLStoreTest(t *testing.T) *SQLStore {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})
	return NewSQLStore(testDB)
}

// exerciseStore runs the same contract against any backend.
func exerciseStore(t *testing.T, store KVStore) {
	ctx := context.Background()

	_, found, err := store.Get(ctx, "cart:missing")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Set(ctx, "cart:s1", `[{"id":1}]`))
	val, found, err := store.Get(ctx, "cart:s1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `[{"id":1}]`, val)

	// overwrite
	require.NoError(t, store.Set(ctx, "cart:s1", `[]`))
	val, _, err = store.Get(ctx, "cart:s1")
	require.NoError(t, err)
	assert.Equal(t, `[]`, val)

	require.NoError(t, store.Delete(ctx, "cart:s1"))
	_, found, err = store.Get(ctx, "cart:s1")
	require.NoError(t, err)
	assert.False(t, found)

	// deleting a missing key is fine
	assert.NoError(t, store.Delete(ctx, "cart:s1"))
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestSQLStore(t *testing.T) {
	exerciseStore(t, setupSQLStoreTest(t))
}

func TestSQLStore_KeysAreIndependent(t *testing.T) {
	store := setupSQLStoreTest(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "cart:a", "A"))
	require.NoError(t, store.Set(ctx, "cart:b", "B"))

	a, _, err := store.Get(ctx, "cart:a")
	require.NoError(t, err)
	b, _, err := store.Get(ctx, "cart:b")
	require.NoError(t, err)
	assert.Equal(t, "A", a)
	assert.Equal(t, "B", b)
}

func TestOpen_MemoryAndUnknownDriver(t *testing.T) {
	cfg := &config.Config{Storage: config.StorageConfig{Driver: "memory"}}
	store, closeFn, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)
	assert.NoError(t, closeFn())

	cfg.Storage.Driver = "floppy"
	_, closeFn, err = Open(context.Background(), cfg)
	assert.Error(t, err)
	assert.NotNil(t, closeFn)
}

func TestS3Store_ObjectKey(t *testing.T) {
	s := &S3Store{prefix: "carts"}
	assert.Equal(t, "carts/cart:abc.json", s.objectKey("cart:abc"))

	s = &S3Store{prefix: ""}
	assert.Equal(t, "cart:abc.json", s.objectKey("cart:abc"))
}
