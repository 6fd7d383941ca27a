package store

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/behuman/moodrec/core"
)

// BadgerStore 是基于 BadgerDB 的嵌入式 KeyValueStore，单机部署时持久化
// Embedding 与互动聚合导出，不依赖外部服务。
//
// key 布局：
//
//	k/{key}                  普通 KV
//	h/{key}\x00{field}       Hash 字段
//	z/{key}\x00{member}      有序集合成员，value 为 8 字节分数
type BadgerStore struct {
	db *badger.DB
}

const keySep = "\x00"

// BadgerConfig 是 BadgerDB 配置，Dir 为空时使用纯内存模式。
type BadgerConfig struct {
	Dir      string `koanf:"dir"`
	InMemory bool   `koanf:"in_memory"`
}

// OpenBadgerStore 打开（或创建）BadgerDB。
func OpenBadgerStore(cfg BadgerConfig) (*BadgerStore, error) {
	opts := badger.DefaultOptions(cfg.Dir)
	if cfg.InMemory || cfg.Dir == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, core.NewUnavailableError(core.ModuleStore, fmt.Sprintf("open badger %q", cfg.Dir), err)
	}
	return &BadgerStore{db: db}, nil
}

// NewBadgerStore 复用已打开的 DB。
func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

func (b *BadgerStore) Name() string { return "badger" }

func kvKey(key string) []byte { return []byte("k/" + key) }

func hashPrefix(key string) []byte { return []byte("h/" + key + keySep) }

func zsetPrefix(key string) []byte { return []byte("z/" + key + keySep) }

func newEntry(key, value []byte, ttl []int) *badger.Entry {
	e := badger.NewEntry(key, value)
	if len(ttl) > 0 && ttl[0] > 0 {
		e = e.WithTTL(time.Duration(ttl[0]) * time.Second)
	}
	return e
}

func (b *BadgerStore) get(raw []byte) ([]byte, error) {
	var out []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(raw)
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, core.ErrStoreNotFound
	}
	return out, err
}

func (b *BadgerStore) Get(_ context.Context, key string) ([]byte, error) {
	return b.get(kvKey(key))
}

func (b *BadgerStore) Set(_ context.Context, key string, value []byte, ttl ...int) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(newEntry(kvKey(key), value, ttl))
	})
}

// Delete 删除 key 及其同名 Hash / 有序集合。
func (b *BadgerStore) Delete(_ context.Context, key string) error {
	return b.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete(kvKey(key)); err != nil {
			return err
		}
		for _, prefix := range [][]byte{hashPrefix(key), zsetPrefix(key)} {
			keys, err := collectKeys(txn, prefix)
			if err != nil {
				return err
			}
			for _, k := range keys {
				if err := txn.Delete(k); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func (b *BadgerStore) BatchGet(_ context.Context, keys []string) (map[string][]byte, error) {
	result := make(map[string][]byte, len(keys))
	err := b.db.View(func(txn *badger.Txn) error {
		for _, k := range keys {
			item, err := txn.Get(kvKey(k))
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			v, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			result[k] = v
		}
		return nil
	})
	return result, err
}

// BatchSet 使用 WriteBatch 写入，不受单事务大小限制。
func (b *BadgerStore) BatchSet(_ context.Context, kvs map[string][]byte, ttl ...int) error {
	wb := b.db.NewWriteBatch()
	defer wb.Cancel()
	for k, v := range kvs {
		if err := wb.SetEntry(newEntry(kvKey(k), v, ttl)); err != nil {
			return err
		}
	}
	return wb.Flush()
}

func (b *BadgerStore) Close() error {
	return b.db.Close()
}

var _ core.KeyValueStore = (*BadgerStore)(nil)

func (b *BadgerStore) ZAdd(_ context.Context, key string, score float64, member string) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], math.Float64bits(score))
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(append(zsetPrefix(key), member...), buf[:])
	})
}

func (b *BadgerStore) ZRange(_ context.Context, key string, start, stop int64) ([]string, error) {
	zset := make(map[string]float64)
	prefix := zsetPrefix(key)
	err := b.db.View(func(txn *badger.Txn) error {
		return scanPrefix(txn, prefix, func(member string, val []byte) error {
			if len(val) != 8 {
				return fmt.Errorf("zset %q member %q: corrupt score", key, member)
			}
			zset[member] = math.Float64frombits(binary.BigEndian.Uint64(val))
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return rangeByScore(zset, start, stop), nil
}

func (b *BadgerStore) ZScore(_ context.Context, key string, member string) (float64, error) {
	val, err := b.get(append(zsetPrefix(key), member...))
	if err != nil {
		return 0, err
	}
	if len(val) != 8 {
		return 0, fmt.Errorf("zset %q member %q: corrupt score", key, member)
	}
	return math.Float64frombits(binary.BigEndian.Uint64(val)), nil
}

func (b *BadgerStore) HGet(_ context.Context, key, field string) ([]byte, error) {
	return b.get(append(hashPrefix(key), field...))
}

func (b *BadgerStore) HSet(_ context.Context, key, field string, value []byte) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(append(hashPrefix(key), field...), value)
	})
}

func (b *BadgerStore) HGetAll(_ context.Context, key string) (map[string][]byte, error) {
	result := make(map[string][]byte)
	err := b.db.View(func(txn *badger.Txn) error {
		return scanPrefix(txn, hashPrefix(key), func(field string, val []byte) error {
			result[field] = val
			return nil
		})
	})
	return result, err
}

// scanPrefix 遍历 prefix 下的所有 key，回调的 name 为去掉前缀后的部分。
func scanPrefix(txn *badger.Txn, prefix []byte, fn func(name string, val []byte) error) error {
	it := txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		item := it.Item()
		name := strings.TrimPrefix(string(item.Key()), string(prefix))
		val, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		if err := fn(name, val); err != nil {
			return err
		}
	}
	return nil
}

func collectKeys(txn *badger.Txn, prefix []byte) ([][]byte, error) {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	it := txn.NewIterator(opts)
	defer it.Close()
	var keys [][]byte
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		keys = append(keys, bytes.Clone(it.Item().Key()))
	}
	return keys, nil
}
