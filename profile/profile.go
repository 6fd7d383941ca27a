// Package profile 提供用户画像来源：内存实现与基于 KV 存储的实现。
// 未知用户返回 (nil, nil)，由调用方按冷启动处理。
package profile

import (
	"context"
	"fmt"
	"sync"

	"github.com/goccy/go-json"

	"github.com/behuman/moodrec/core"
)

// MemoryProvider 是内存画像表。
type MemoryProvider struct {
	mu       sync.RWMutex
	profiles map[string]core.UserProfile
}

var _ core.ProfileProvider = (*MemoryProvider)(nil)

func NewMemoryProvider(profiles ...core.UserProfile) *MemoryProvider {
	p := &MemoryProvider{profiles: make(map[string]core.UserProfile, len(profiles))}
	for _, up := range profiles {
		p.Put(up)
	}
	return p
}

// Put 写入画像，标签归一化。
func (p *MemoryProvider) Put(up core.UserProfile) {
	normalize(&up)
	p.mu.Lock()
	p.profiles[up.UserID] = up
	p.mu.Unlock()
}

func (p *MemoryProvider) Profile(_ context.Context, userID string) (*core.UserProfile, error) {
	p.mu.RLock()
	up, ok := p.profiles[userID]
	p.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return &up, nil
}

// KVProvider 把画像以 JSON 存在 core.Store 上，键为 profile:{user_id}。
type KVProvider struct {
	kv core.Store
}

var _ core.ProfileProvider = (*KVProvider)(nil)

func NewKVProvider(kv core.Store) *KVProvider {
	return &KVProvider{kv: kv}
}

func profileKey(userID string) string { return "profile:" + userID }

// Put 写入画像。
func (p *KVProvider) Put(ctx context.Context, up core.UserProfile) error {
	if up.UserID == "" {
		return core.NewValidationError(core.ModuleStore, "profile user_id is required")
	}
	normalize(&up)
	data, err := json.Marshal(up)
	if err != nil {
		return fmt.Errorf("encode profile %q: %w", up.UserID, err)
	}
	return p.kv.Set(ctx, profileKey(up.UserID), data)
}

func (p *KVProvider) Profile(ctx context.Context, userID string) (*core.UserProfile, error) {
	data, err := p.kv.Get(ctx, profileKey(userID))
	if core.IsStoreNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, core.NewUnavailableError(core.ModuleStore, fmt.Sprintf("read profile %q", userID), err)
	}
	var up core.UserProfile
	if err := json.Unmarshal(data, &up); err != nil {
		return nil, core.NewUnavailableError(core.ModuleStore, fmt.Sprintf("decode profile %q", userID), err)
	}
	return &up, nil
}

func normalize(up *core.UserProfile) {
	up.ProfileTags = core.NormalizeTags(up.ProfileTags)
	up.SituationTags = core.NormalizeTags(up.SituationTags)
	up.AgeGroup = core.NormalizeTag(up.AgeGroup)
}
