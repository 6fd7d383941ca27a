package core

import (
	"math"
	"time"

	"github.com/behuman/moodrec/pkg/conv"
)

// 四个打分分量的名称，同时用作特征名与 DSL 变量名
const (
	ComponentCF       = "cf"
	ComponentTag      = "tag"
	ComponentSemantic = "semantic"
	ComponentContext  = "context"
)

// Weights 是四个分量的混合权重，使用前需要 Normalize。
type Weights struct {
	CF       float64 `json:"cf" yaml:"cf" koanf:"cf"`
	Tag      float64 `json:"tag" yaml:"tag" koanf:"tag"`
	Semantic float64 `json:"semantic" yaml:"semantic" koanf:"semantic"`
	Context  float64 `json:"context" yaml:"context" koanf:"context"`
}

// DefaultWeights 默认权重 cf=0.30, tag=0.25, semantic=0.25, context=0.20
func DefaultWeights() Weights {
	return Weights{CF: 0.30, Tag: 0.25, Semantic: 0.25, Context: 0.20}
}

// Sum 返回权重之和。
func (w Weights) Sum() float64 {
	return w.CF + w.Tag + w.Semantic + w.Context
}

// Normalize 按总和归一化；任一权重为负、非有限值或总和为 0 时返回 CONFIG 错误。
func (w Weights) Normalize() (Weights, error) {
	for _, v := range []float64{w.CF, w.Tag, w.Semantic, w.Context} {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return Weights{}, NewConfigError(ModuleScoring, "weights must be finite and non-negative: %+v", w)
		}
	}
	sum := w.Sum()
	if sum == 0 {
		return Weights{}, NewConfigError(ModuleScoring, "weights sum to zero")
	}
	return Weights{
		CF:       w.CF / sum,
		Tag:      w.Tag / sum,
		Semantic: w.Semantic / sum,
		Context:  w.Context / sum,
	}, nil
}

// WeightsFromMap 从动态配置（JSON/YAML 解出的 map）构建权重，
// 缺失的分量为 0，无法转为数值时返回 CONFIG 错误。
func WeightsFromMap(m map[string]any) (Weights, error) {
	var w Weights
	for k, v := range m {
		f, ok := conv.ToFloat64(v)
		if !ok {
			return Weights{}, NewConfigError(ModuleScoring, "weight %q is not numeric: %v", k, v)
		}
		switch k {
		case ComponentCF:
			w.CF = f
		case ComponentTag:
			w.Tag = f
		case ComponentSemantic:
			w.Semantic = f
		case ComponentContext:
			w.Context = f
		default:
			return Weights{}, NewConfigError(ModuleScoring, "unknown weight component %q", k)
		}
	}
	return w, nil
}

// RecommendRequest 是一次推荐请求。
type RecommendRequest struct {
	UserID string `json:"user_id"`

	// SituationID 来自上游处境分类器，SituationTags 为空时用知识库展开
	SituationID   string   `json:"situation_id,omitempty"`
	SituationTags []string `json:"situation_tags,omitempty"`

	// EmotionalState 如 "stressed", "anxious"，可为空
	EmotionalState string `json:"emotional_state,omitempty"`

	// Limit 返回条数，<=0 时使用默认值
	Limit int `json:"limit,omitempty"`

	// Weights 覆盖默认权重，会按总和归一化
	Weights *Weights `json:"weights,omitempty"`

	// Exclude 不参与打分的活动 ID
	Exclude []string `json:"exclude,omitempty"`

	// Now 请求时间，零值时使用引擎时钟
	Now time.Time `json:"now,omitempty"`
}

// ComponentScores 是四个分量的得分，均在 [0,1]。
type ComponentScores struct {
	CF       float64 `json:"cf"`
	Tag      float64 `json:"tag"`
	Semantic float64 `json:"semantic"`
	Context  float64 `json:"context"`
}

// AsFeatures 以分量名为 key 返回得分。
func (s ComponentScores) AsFeatures() map[string]float64 {
	return map[string]float64{
		ComponentCF:       s.CF,
		ComponentTag:      s.Tag,
		ComponentSemantic: s.Semantic,
		ComponentContext:  s.Context,
	}
}

// Recommendation 是结果中的一条推荐。
type Recommendation struct {
	ActivityID  string          `json:"activity_id"`
	FinalScore  float64         `json:"final_score"`
	Scores      ComponentScores `json:"scores"`
	Explanation string          `json:"explanation"`
}

// RecommendResult 是按 FinalScore 降序、ActivityID 升序排列的推荐结果。
type RecommendResult struct {
	UserID      string           `json:"user_id"`
	Items       []Recommendation `json:"items"`
	ColdStart   bool             `json:"cold_start"`
	Weights     Weights          `json:"weights"`
	GeneratedAt time.Time        `json:"generated_at"`
}
