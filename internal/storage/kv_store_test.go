package storage_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaharia-lab/stockbell/internal/storage"
)

const testRedisAddr = "localhost:6379"

func kvBackends(t *testing.T) map[string]storage.KVStore {
	t.Helper()

	db, _, err := storage.NewSQLiteDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	backends := map[string]storage.KVStore{
		"memory": storage.NewMemoryKVStore(),
		"sqlite": storage.NewSQLiteKVStore(db),
	}

	client, err := storage.NewRedisClient(context.Background(), testRedisAddr, "", 0)
	if err == nil {
		prefix := "stockbell-test:" + uuid.NewString() + ":"
		t.Cleanup(func() { cleanupRedis(client, prefix) })
		backends["redis"] = storage.NewRedisKVStore(client, prefix)
	}
	return backends
}

func cleanupRedis(client *redis.Client, prefix string) {
	ctx := context.Background()
	keys, _ := client.Keys(ctx, prefix+"*").Result()
	if len(keys) > 0 {
		client.Del(ctx, keys...)
	}
	_ = client.Close()
}

func TestKVStore(t *testing.T) {
	for name, store := range kvBackends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := store.Get(ctx, storage.KeyWatchlist)
			assert.ErrorIs(t, err, storage.ErrNotFound)

			require.NoError(t, store.Set(ctx, storage.KeyWatchlist, `["Mango"]`))
			v, err := store.Get(ctx, storage.KeyWatchlist)
			require.NoError(t, err)
			assert.Equal(t, `["Mango"]`, v)

			require.NoError(t, store.Set(ctx, storage.KeyWatchlist, `["Mango","Grape"]`))
			v, err = store.Get(ctx, storage.KeyWatchlist)
			require.NoError(t, err)
			assert.Equal(t, `["Mango","Grape"]`, v)

			require.NoError(t, store.Delete(ctx, storage.KeyWatchlist))
			_, err = store.Get(ctx, storage.KeyWatchlist)
			assert.ErrorIs(t, err, storage.ErrNotFound)

			assert.NoError(t, store.Delete(ctx, "never-set"))
		})
	}
}

func TestRedisKVStore_Prefix(t *testing.T) {
	ctx := context.Background()
	client, err := storage.NewRedisClient(ctx, testRedisAddr, "", 0)
	if err != nil {
		t.Skipf("redis not available at %s: %v", testRedisAddr, err)
	}
	prefix := "stockbell-test:" + uuid.NewString() + ":"
	defer cleanupRedis(client, prefix)

	store := storage.NewRedisKVStore(client, prefix)
	require.NoError(t, store.Set(ctx, storage.KeyHistory, `["1"]`))

	raw, err := client.Get(ctx, prefix+storage.KeyHistory).Result()
	require.NoError(t, err)
	assert.Equal(t, `["1"]`, raw)
}
