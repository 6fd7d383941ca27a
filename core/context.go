package core

import "time"

// RecommendContext 承载一次请求的用户/处境/时间信息，贯穿整个 Pipeline 透传。
// Pipeline 运行期间只读。
type RecommendContext struct {
	RequestID string
	UserID    string

	// User 是用户画像，冷启动用户为空画像
	User *UserProfile

	// UserEmbedding 是用户向量，缺失时为 nil
	UserEmbedding *Embedding

	// ColdStart 表示用户没有画像记录
	ColdStart bool

	// SituationID 与已展开的处境标签
	SituationID   string
	SituationTags []string

	// AvoidTags 当前处境应回避的活动标签
	AvoidTags []string

	EmotionalState string

	// Weights 已归一化的混合权重
	Weights Weights

	// Exclude 请求级排除的活动 ID
	Exclude map[string]struct{}

	Now time.Time
}

// ProfileTags 返回用户画像标签，画像为空时返回 nil。
func (rctx *RecommendContext) ProfileTags() []string {
	if rctx.User == nil {
		return nil
	}
	return rctx.User.ProfileTags
}
