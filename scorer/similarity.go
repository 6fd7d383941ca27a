package scorer

import (
	"math"

	"github.com/behuman/moodrec/core"
)

// SimilarityScorer 计算用户与活动向量的相似度。
// 任一侧缺失时得分为 0，缺失不是错误。
type SimilarityScorer struct{}

// CF 返回 CF 向量的余弦相似度，负值截断为 0。
func (SimilarityScorer) CF(u, a *core.Embedding) float64 {
	if u == nil || a == nil {
		return 0
	}
	return Cosine(u.CF, a.CF)
}

// Semantic 优先使用描述向量；任一侧描述向量缺失而两侧都有描述 token 时，
// 退化为 token 重合度 |a ∩ u| / max(|a|, 1)。
func (SimilarityScorer) Semantic(u, a *core.Embedding) float64 {
	if u == nil || a == nil {
		return 0
	}
	if len(u.Descriptor) > 0 && len(a.Descriptor) > 0 {
		return Cosine(u.Descriptor, a.Descriptor)
	}
	if len(u.DescriptorTokens) > 0 && len(a.DescriptorTokens) > 0 {
		return overlap(core.NewTagSet(a.DescriptorTokens), core.NewTagSet(u.DescriptorTokens))
	}
	return 0
}

// Cosine 返回 1 - cosine_distance，截断到 [0,1]。
// 向量为空、长度不一致或范数为 0 时返回 0。
func Cosine(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return clamp01(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}
