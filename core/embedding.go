package core

import (
	"math"
	"time"
)

// EmbeddingOwner 区分向量的归属方。
type EmbeddingOwner string

const (
	OwnerUser     EmbeddingOwner = "user"
	OwnerActivity EmbeddingOwner = "activity"
)

// Embedding 是离线训练产出的向量记录，核心只读。
//   - CF：协同过滤向量，所有用户/活动同一维度
//   - Descriptor：描述文本向量
//   - DescriptorTokens：可解释的语义短标签（如 "outdoor", "social"）
type Embedding struct {
	OwnerID          string    `json:"owner_id"`
	CF               []float64 `json:"cf,omitempty"`
	Descriptor       []float64 `json:"descriptor,omitempty"`
	DescriptorTokens []string  `json:"descriptor_tokens,omitempty"`
	TrainedAt        time.Time `json:"trained_at"`
}

// EmbeddingSchema 是按向量种类固定的维度配置。
type EmbeddingSchema struct {
	CFDim         int `json:"cf_dim" koanf:"cf_dim"`
	DescriptorDim int `json:"descriptor_dim" koanf:"descriptor_dim"`
}

// DefaultEmbeddingSchema 默认维度：CF 256，Descriptor 384
func DefaultEmbeddingSchema() EmbeddingSchema {
	return EmbeddingSchema{CFDim: 256, DescriptorDim: 384}
}

// Check 校验 schema 本身。
func (s EmbeddingSchema) Check() error {
	if s.CFDim <= 0 || s.DescriptorDim <= 0 {
		return NewConfigError(ModuleEmbedding, "embedding dimensions must be positive (cf=%d, descriptor=%d)", s.CFDim, s.DescriptorDim)
	}
	return nil
}

// Validate 校验向量维度。空向量表示该种类缺失，是合法状态；
// 非空但维度不符是配置错误，不做任何截断或补齐。
func (s EmbeddingSchema) Validate(owner EmbeddingOwner, e *Embedding) error {
	if e == nil {
		return nil
	}
	if n := len(e.CF); n != 0 && n != s.CFDim {
		return NewConfigError(ModuleEmbedding, "%s %q: cf vector has %d dims, configured %d", owner, e.OwnerID, n, s.CFDim)
	}
	if n := len(e.Descriptor); n != 0 && n != s.DescriptorDim {
		return NewConfigError(ModuleEmbedding, "%s %q: descriptor vector has %d dims, configured %d", owner, e.OwnerID, n, s.DescriptorDim)
	}
	for _, v := range e.CF {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return NewConfigError(ModuleEmbedding, "%s %q: cf vector contains non-finite values", owner, e.OwnerID)
		}
	}
	for _, v := range e.Descriptor {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return NewConfigError(ModuleEmbedding, "%s %q: descriptor vector contains non-finite values", owner, e.OwnerID)
		}
	}
	return nil
}
