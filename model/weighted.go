package model

import (
	"github.com/behuman/moodrec/core"
)

// WeightedModel 是四个分量的线性混合：final = Σ weight_i * score_i。
// 权重在构造时按总和归一化；没有偏置项，也不做 sigmoid，
// 分量都在 [0,1] 时最终分也在 [0,1]。
type WeightedModel struct {
	Weights core.Weights
}

// NewWeightedModel 归一化权重后创建模型，权重和为 0 时返回 CONFIG 错误。
func NewWeightedModel(w core.Weights) (*WeightedModel, error) {
	n, err := w.Normalize()
	if err != nil {
		return nil, err
	}
	return &WeightedModel{Weights: n}, nil
}

var _ RankModel = (*WeightedModel)(nil)

func (m *WeightedModel) Name() string { return "hybrid" }

// Predict 对 cf/tag/semantic/context 四个特征加权求和，缺失特征按 0 计。
func (m *WeightedModel) Predict(features map[string]float64) (float64, error) {
	return m.Blend(core.ComponentScores{
		CF:       features[core.ComponentCF],
		Tag:      features[core.ComponentTag],
		Semantic: features[core.ComponentSemantic],
		Context:  features[core.ComponentContext],
	}), nil
}

// Blend 按固定顺序加权求和，相同输入得到逐位相同的结果。
func (m *WeightedModel) Blend(s core.ComponentScores) float64 {
	w := m.Weights
	return w.CF*s.CF + w.Tag*s.Tag + w.Semantic*s.Semantic + w.Context*s.Context
}
