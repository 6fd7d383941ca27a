package core

import "time"

// EngagementScore 是 (用户, 活动) 维度的隐式参与度聚合。
// 它是从互动日志派生的缓存，不是事实来源，随时可以重新计算。
type EngagementScore struct {
	UserID     string `json:"user_id"`
	ActivityID string `json:"activity_id"`

	// ImplicitScore = Σ base_weight * duration_boost
	ImplicitScore float64 `json:"implicit_score"`

	InteractionCount int `json:"interaction_count"`
	CompletionCount  int `json:"completion_count"`
	BookmarkCount    int `json:"bookmark_count"`

	// AverageRating 没有 rate 事件时为 nil
	AverageRating *float64 `json:"average_rating"`

	FirstInteractionAt time.Time `json:"first_interaction_at"`
	LastInteractionAt  time.Time `json:"last_interaction_at"`
}
