// Package catalog 提供活动目录：内存快照与 YAML 加载。
package catalog

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/behuman/moodrec/core"
)

// MemoryCatalog 是内存活动目录。Activities 返回按 ID 升序的快照副本，
// Replace 原子替换整个目录。
type MemoryCatalog struct {
	mu    sync.RWMutex
	byID  map[string]core.Activity
	order []string
}

var _ core.Catalog = (*MemoryCatalog)(nil)

// New 创建目录，ID 为空或重复时返回 CONFIG 错误。标签在入库时归一化。
func New(activities ...core.Activity) (*MemoryCatalog, error) {
	c := &MemoryCatalog{}
	if err := c.Replace(activities); err != nil {
		return nil, err
	}
	return c, nil
}

// Replace 校验并替换整个目录，失败时保留旧目录。
func (c *MemoryCatalog) Replace(activities []core.Activity) error {
	byID := make(map[string]core.Activity, len(activities))
	order := make([]string, 0, len(activities))
	for i, a := range activities {
		if a.ID == "" {
			return core.NewConfigError(core.ModuleCatalog, "activity %d has no id", i)
		}
		if _, dup := byID[a.ID]; dup {
			return core.NewConfigError(core.ModuleCatalog, "duplicate activity id %q", a.ID)
		}
		a.ProfileTags = core.NormalizeTags(a.ProfileTags)
		a.SituationTags = core.NormalizeTags(a.SituationTags)
		a.AgeGroup = core.NormalizeTag(a.AgeGroup)
		byID[a.ID] = a
		order = append(order, a.ID)
	}
	sort.Strings(order)

	c.mu.Lock()
	c.byID, c.order = byID, order
	c.mu.Unlock()
	return nil
}

func (c *MemoryCatalog) Activities(_ context.Context) ([]core.Activity, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]core.Activity, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.byID[id])
	}
	return out, nil
}

func (c *MemoryCatalog) Activity(_ context.Context, id string) (core.Activity, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	a, ok := c.byID[id]
	if !ok {
		return core.Activity{}, core.NewNotFoundError(core.ModuleCatalog, "activity %q", id)
	}
	return a, nil
}

// Len 返回活动数。
func (c *MemoryCatalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.order)
}

type document struct {
	Activities []core.Activity `yaml:"activities"`
}

// LoadYAML 从 YAML 读取目录：
//
//	activities:
//	  - id: yoga-01
//	    name: Yoga grupal
//	    profile_tags: [tranquilo]
//	    situation_tags: [mindfulness, stress_relief, morning]
//	    active: true
func LoadYAML(r io.Reader) (*MemoryCatalog, error) {
	var doc document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && err != io.EOF {
		return nil, core.NewConfigError(core.ModuleCatalog, "decode catalog: %v", err)
	}
	return New(doc.Activities...)
}

// LoadFile 从文件读取目录，path 为空时返回空目录。
func LoadFile(path string) (*MemoryCatalog, error) {
	if path == "" {
		return New()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return LoadYAML(f)
}
