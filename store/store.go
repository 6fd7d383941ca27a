// Package store 提供 core.Store / core.KeyValueStore 的实现：
// MemoryStore（测试/单机）、RedisStore（多实例共享）、BadgerStore（嵌入式持久化）。
//
// 接口定义在 core 包，此包只包含实现：
//
//	var kv core.KeyValueStore = store.NewMemoryStore()
package store

import (
	"context"

	"github.com/behuman/moodrec/core"
)

// Backend 名称
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendBadger = "badger"
)

// Config 选择并配置 KV 后端。
type Config struct {
	Backend string       `koanf:"backend"`
	Redis   RedisConfig  `koanf:"redis"`
	Badger  BadgerConfig `koanf:"badger"`
}

// Open 按配置打开 KV 后端。
func Open(ctx context.Context, cfg Config) (core.KeyValueStore, error) {
	switch cfg.Backend {
	case "", BackendMemory:
		return NewMemoryStore(), nil
	case BackendRedis:
		return NewRedisStore(ctx, cfg.Redis)
	case BackendBadger:
		return OpenBadgerStore(cfg.Badger)
	default:
		return nil, core.NewConfigError(core.ModuleStore, "unknown store backend %q", cfg.Backend)
	}
}
