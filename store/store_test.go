package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/behuman/moodrec/core"
)

func openStores(t *testing.T) map[string]core.KeyValueStore {
	t.Helper()

	mem := NewMemoryStore()
	t.Cleanup(func() { _ = mem.Close() })

	bdg, err := OpenBadgerStore(BadgerConfig{Dir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = bdg.Close() })

	return map[string]core.KeyValueStore{
		"memory": mem,
		"badger": bdg,
	}
}

func TestStore_GetSetDelete(t *testing.T) {
	ctx := context.Background()
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Get(ctx, "missing")
			assert.True(t, core.IsStoreNotFound(err))

			require.NoError(t, s.Set(ctx, "emb:user:u1", []byte("v1")))
			got, err := s.Get(ctx, "emb:user:u1")
			require.NoError(t, err)
			assert.Equal(t, []byte("v1"), got)

			require.NoError(t, s.Delete(ctx, "emb:user:u1"))
			_, err = s.Get(ctx, "emb:user:u1")
			assert.True(t, core.IsStoreNotFound(err))
		})
	}
}

func TestStore_Batch(t *testing.T) {
	ctx := context.Background()
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.BatchSet(ctx, map[string][]byte{
				"a": []byte("1"),
				"b": []byte("2"),
			}))
			got, err := s.BatchGet(ctx, []string{"a", "b", "c"})
			require.NoError(t, err)
			assert.Equal(t, map[string][]byte{"a": []byte("1"), "b": []byte("2")}, got)
		})
	}
}

func TestStore_HashAndSortedSet(t *testing.T) {
	ctx := context.Background()
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.HSet(ctx, "engagement:u1", "a1", []byte(`{"x":1}`)))
			require.NoError(t, s.HSet(ctx, "engagement:u1", "a2", []byte(`{"x":2}`)))
			require.NoError(t, s.HSet(ctx, "engagement:u2", "a1", []byte(`{"x":3}`)))

			v, err := s.HGet(ctx, "engagement:u1", "a2")
			require.NoError(t, err)
			assert.Equal(t, `{"x":2}`, string(v))

			_, err = s.HGet(ctx, "engagement:u1", "a9")
			assert.True(t, core.IsStoreNotFound(err))

			all, err := s.HGetAll(ctx, "engagement:u1")
			require.NoError(t, err)
			assert.Len(t, all, 2)

			require.NoError(t, s.ZAdd(ctx, "rank:u1", 0.3, "a1"))
			require.NoError(t, s.ZAdd(ctx, "rank:u1", 1.2, "a2"))
			require.NoError(t, s.ZAdd(ctx, "rank:u1", 0.7, "a3"))

			top, err := s.ZRange(ctx, "rank:u1", 0, 1)
			require.NoError(t, err)
			assert.Equal(t, []string{"a2", "a3"}, top)

			all3, err := s.ZRange(ctx, "rank:u1", 0, -1)
			require.NoError(t, err)
			assert.Equal(t, []string{"a2", "a3", "a1"}, all3)

			score, err := s.ZScore(ctx, "rank:u1", "a3")
			require.NoError(t, err)
			assert.Equal(t, 0.7, score)

			_, err = s.ZScore(ctx, "rank:u1", "a9")
			assert.True(t, core.IsStoreNotFound(err))
		})
	}
}

func TestMemoryStore_TTL(t *testing.T) {
	ctx := context.Background()
	s := newMemoryStore()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	require.NoError(t, s.Set(ctx, "k", []byte("v"), 10))
	_, err := s.Get(ctx, "k")
	require.NoError(t, err)

	now = now.Add(11 * time.Second)
	_, err = s.Get(ctx, "k")
	assert.True(t, core.IsStoreNotFound(err))

	s.purge()
	assert.Empty(t, s.data)
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), Config{Backend: "cassandra"})
	assert.True(t, core.IsConfig(err))
}
