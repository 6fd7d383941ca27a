package embedding

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	feastsdk "github.com/feast-dev/feast/sdk/go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/behuman/moodrec/core"
	"github.com/behuman/moodrec/pkg/sqlitedb"
	"github.com/behuman/moodrec/store"
)

var testSchema = core.EmbeddingSchema{CFDim: 3, DescriptorDim: 2}

func openStores(t *testing.T) map[string]ReadWriter {
	t.Helper()
	mem := store.NewMemoryStore()
	t.Cleanup(func() { _ = mem.Close() })
	kv, err := NewKVStore(mem, testSchema)
	require.NoError(t, err)

	sq, err := OpenSQLiteStore(sqlitedb.MemoryDSN, testSchema)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sq.Close() })

	return map[string]ReadWriter{"kv": kv, "sqlite": sq}
}

func TestStore_AbsentIsNotAnError(t *testing.T) {
	ctx := context.Background()
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			u, err := s.UserEmbedding(ctx, "nobody")
			assert.NoError(t, err)
			assert.Nil(t, u)

			a, err := s.ActivityEmbedding(ctx, "")
			assert.NoError(t, err)
			assert.Nil(t, a)
		})
	}
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	trained := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.PutUserEmbedding(ctx, &core.Embedding{
				OwnerID:          "u1",
				CF:               []float64{0.1, -0.2, 0.3},
				Descriptor:       []float64{1, 0},
				DescriptorTokens: []string{"outdoor", "social"},
				TrainedAt:        trained,
			}))
			require.NoError(t, s.PutActivityEmbedding(ctx, &core.Embedding{
				OwnerID:          "a1",
				DescriptorTokens: []string{"calm"},
				TrainedAt:        trained,
			}))

			u, err := s.UserEmbedding(ctx, "u1")
			require.NoError(t, err)
			require.NotNil(t, u)
			assert.Equal(t, []float64{0.1, -0.2, 0.3}, u.CF)
			assert.Equal(t, []float64{1, 0}, u.Descriptor)
			assert.Equal(t, []string{"outdoor", "social"}, u.DescriptorTokens)
			assert.True(t, trained.Equal(u.TrainedAt))

			// 只有 token，没有向量
			a, err := s.ActivityEmbedding(ctx, "a1")
			require.NoError(t, err)
			require.NotNil(t, a)
			assert.Empty(t, a.CF)
			assert.Empty(t, a.Descriptor)
			assert.Equal(t, []string{"calm"}, a.DescriptorTokens)

			// 用户与活动命名空间互不干扰
			none, err := s.ActivityEmbedding(ctx, "u1")
			require.NoError(t, err)
			assert.Nil(t, none)
		})
	}
}

func TestStore_RejectsWrongDimensionOnWrite(t *testing.T) {
	ctx := context.Background()
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			err := s.PutUserEmbedding(ctx, &core.Embedding{OwnerID: "u1", CF: []float64{1, 2}})
			assert.True(t, core.IsConfig(err))

			err = s.PutUserEmbedding(ctx, &core.Embedding{CF: []float64{1, 2, 3}})
			assert.True(t, core.IsValidation(err))
		})
	}
}

func TestKVStore_DimensionMismatchOnRead(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()
	defer mem.Close()

	writer, err := NewKVStore(mem, core.EmbeddingSchema{CFDim: 4, DescriptorDim: 2})
	require.NoError(t, err)
	require.NoError(t, writer.PutActivityEmbedding(ctx, &core.Embedding{OwnerID: "a1", CF: []float64{1, 0, 0, 0}}))

	reader, err := NewKVStore(mem, testSchema)
	require.NoError(t, err)
	_, err = reader.ActivityEmbedding(ctx, "a1")
	assert.True(t, core.IsConfig(err), "want config error, got %v", err)
}

func TestSQLiteStore_DimensionMismatchOnRead(t *testing.T) {
	ctx := context.Background()
	db, err := sqlitedb.Open(sqlitedb.MemoryDSN, Schema)
	require.NoError(t, err)
	defer db.Close()

	writer, err := NewSQLiteStore(db, core.EmbeddingSchema{CFDim: 3, DescriptorDim: 5})
	require.NoError(t, err)
	require.NoError(t, writer.PutUserEmbedding(ctx, &core.Embedding{OwnerID: "u1", Descriptor: []float64{1, 0, 0, 0, 0}}))

	reader, err := NewSQLiteStore(db, testSchema)
	require.NoError(t, err)
	_, err = reader.UserEmbedding(ctx, "u1")
	assert.True(t, core.IsConfig(err), "want config error, got %v", err)
}

func TestKVStore_CorruptRowIsUnavailable(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()
	defer mem.Close()
	require.NoError(t, mem.Set(ctx, "emb:activity:a1", []byte("{not json")))

	s, err := NewKVStore(mem, testSchema)
	require.NoError(t, err)
	_, err = s.ActivityEmbedding(ctx, "a1")
	assert.True(t, core.IsUnavailable(err), "want unavailable error, got %v", err)
}

func TestSQLiteStore_CorruptRowIsUnavailable(t *testing.T) {
	ctx := context.Background()
	db, err := sqlitedb.Open(sqlitedb.MemoryDSN, Schema)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.ExecContext(ctx, `INSERT INTO embeddings (owner, owner_id, cf, cf_dim, trained_at) VALUES ('activity', 'short', ?, 2, 0)`, []byte{1, 2, 3})
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `INSERT INTO embeddings (owner, owner_id, tokens, trained_at) VALUES ('activity', 'tokens', '[oops', 0)`)
	require.NoError(t, err)

	s, err := NewSQLiteStore(db, testSchema)
	require.NoError(t, err)
	for _, id := range []string{"short", "tokens"} {
		_, err = s.ActivityEmbedding(ctx, id)
		assert.True(t, core.IsUnavailable(err), "%s: want unavailable error, got %v", id, err)
	}
}

func TestNewKVStore_InvalidSchema(t *testing.T) {
	_, err := NewKVStore(store.NewMemoryStore(), core.EmbeddingSchema{})
	assert.True(t, core.IsConfig(err))
}

type stubRows struct {
	calls atomic.Int32
	rows  []feastsdk.Row
	err   error
}

func (s *stubRows) OnlineRows(_ context.Context, req *feastsdk.OnlineFeaturesRequest) ([]feastsdk.Row, error) {
	s.calls.Add(1)
	return s.rows, s.err
}

func feastConfig() FeastConfig {
	cfg := DefaultFeastConfig()
	cfg.Project = "moodrec"
	cfg.RatePerSecond = 0
	cfg.FailureThreshold = 2
	cfg.BreakerTimeout = time.Minute
	return cfg
}

func TestFeastStore_MissingRowsAreAbsent(t *testing.T) {
	src := &stubRows{rows: []feastsdk.Row{{}}}
	s, err := NewFeastStore(feastConfig(), testSchema, src, zerolog.Nop())
	require.NoError(t, err)

	e, err := s.UserEmbedding(context.Background(), "u1")
	assert.NoError(t, err)
	assert.Nil(t, e)

	src.rows = nil
	e, err = s.ActivityEmbedding(context.Background(), "a1")
	assert.NoError(t, err)
	assert.Nil(t, e)
}

func TestFeastStore_BreakerOpensAfterFailures(t *testing.T) {
	src := &stubRows{err: errors.New("connection refused")}
	s, err := NewFeastStore(feastConfig(), testSchema, src, zerolog.Nop())
	require.NoError(t, err)

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		_, err := s.UserEmbedding(ctx, "u1")
		assert.True(t, core.IsUnavailable(err))
	}
	_, err = s.UserEmbedding(ctx, "u1")
	assert.True(t, core.IsUnavailable(err))
	// 熔断打开后不再请求后端
	assert.Equal(t, int32(2), src.calls.Load())
}

type closingRows struct {
	stubRows
	closed int
}

func (s *closingRows) Close() error {
	s.closed++
	return nil
}

func TestFeastStore_CloseReleasesSource(t *testing.T) {
	src := &closingRows{}
	s, err := NewFeastStore(feastConfig(), testSchema, src, zerolog.Nop())
	require.NoError(t, err)

	var c io.Closer = s
	require.NoError(t, c.Close())
	assert.Equal(t, 1, src.closed)

	plain, err := NewFeastStore(feastConfig(), testSchema, &stubRows{}, zerolog.Nop())
	require.NoError(t, err)
	assert.NoError(t, plain.Close())
	assert.NoError(t, GrpcRowSource{}.Close())
}

func TestNewFeastStore_RequiresProject(t *testing.T) {
	_, err := NewFeastStore(DefaultFeastConfig(), testSchema, &stubRows{}, zerolog.Nop())
	assert.True(t, core.IsConfig(err))
}
