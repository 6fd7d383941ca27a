package embedding

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/behuman/moodrec/core"
)

// KVStore 把向量以 JSON 存在任意 core.Store 上（memory / redis / badger）。
//
//	emb:user:{id}
//	emb:activity:{id}
type KVStore struct {
	kv     core.Store
	schema core.EmbeddingSchema
}

// NewKVStore 创建 KV 向量存储。
func NewKVStore(kv core.Store, schema core.EmbeddingSchema) (*KVStore, error) {
	if err := schema.Check(); err != nil {
		return nil, err
	}
	return &KVStore{kv: kv, schema: schema}, nil
}

var _ ReadWriter = (*KVStore)(nil)

func kvKey(owner core.EmbeddingOwner, id string) string {
	return "emb:" + string(owner) + ":" + id
}

func (s *KVStore) UserEmbedding(ctx context.Context, userID string) (*core.Embedding, error) {
	e, err := s.get(ctx, core.OwnerUser, userID)
	return observe(s.kv.Name(), core.OwnerUser, e, err)
}

func (s *KVStore) ActivityEmbedding(ctx context.Context, activityID string) (*core.Embedding, error) {
	e, err := s.get(ctx, core.OwnerActivity, activityID)
	return observe(s.kv.Name(), core.OwnerActivity, e, err)
}

func (s *KVStore) get(ctx context.Context, owner core.EmbeddingOwner, id string) (*core.Embedding, error) {
	if id == "" {
		return nil, nil
	}
	data, err := s.kv.Get(ctx, kvKey(owner, id))
	if core.IsStoreNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, core.NewUnavailableError(core.ModuleEmbedding, fmt.Sprintf("read %s embedding %q", owner, id), err)
	}

	var e core.Embedding
	if err := json.Unmarshal(data, &e); err != nil {
		// 坏行按缺失处理，不拖垮整次推荐
		return nil, core.NewUnavailableError(core.ModuleEmbedding, fmt.Sprintf("decode %s embedding %q", owner, id), err)
	}
	if e.OwnerID == "" {
		e.OwnerID = id
	}
	if err := s.schema.Validate(owner, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *KVStore) PutUserEmbedding(ctx context.Context, e *core.Embedding) error {
	return s.put(ctx, core.OwnerUser, e)
}

func (s *KVStore) PutActivityEmbedding(ctx context.Context, e *core.Embedding) error {
	return s.put(ctx, core.OwnerActivity, e)
}

func (s *KVStore) put(ctx context.Context, owner core.EmbeddingOwner, e *core.Embedding) error {
	if err := checkWrite(s.schema, owner, e); err != nil {
		return err
	}
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode %s embedding %q: %w", owner, e.OwnerID, err)
	}
	return s.kv.Set(ctx, kvKey(owner, e.OwnerID), data)
}
