// Package engagement 从互动日志派生 (用户, 活动) 维度的隐式参与度。
// 聚合结果是缓存而不是事实来源：任何时候都可以从日志完整重算。
package engagement

import (
	"github.com/behuman/moodrec/core"
)

// DurationBoost 返回浏览时长加成：>30s 为 1.2，>10s 为 1.1，否则 1.0。
func DurationBoost(viewSeconds float64) float64 {
	switch {
	case viewSeconds > 30:
		return 1.2
	case viewSeconds > 10:
		return 1.1
	default:
		return 1.0
	}
}

// InteractionWeight 返回单条事件对隐式分的贡献：base_weight * duration_boost。
func InteractionWeight(in *core.Interaction) float64 {
	return in.BaseWeight() * DurationBoost(in.ViewSeconds())
}

// Compute 聚合同一 (用户, 活动) 的全部事件，纯函数。
// interactions 为空时返回零值分数，调用方不应为没有事件的 pair 生成记录。
func Compute(userID, activityID string, interactions []core.Interaction) core.EngagementScore {
	score := core.EngagementScore{UserID: userID, ActivityID: activityID}

	var ratingSum float64
	var ratingCount int
	for i := range interactions {
		in := &interactions[i]
		score.ImplicitScore += InteractionWeight(in)
		score.InteractionCount++

		switch in.Type {
		case core.InteractionComplete:
			score.CompletionCount++
		case core.InteractionBookmark:
			score.BookmarkCount++
		case core.InteractionRate:
			if in.Rating != nil {
				ratingSum += *in.Rating
				ratingCount++
			}
		}

		if score.FirstInteractionAt.IsZero() || in.Timestamp.Before(score.FirstInteractionAt) {
			score.FirstInteractionAt = in.Timestamp
		}
		if in.Timestamp.After(score.LastInteractionAt) {
			score.LastInteractionAt = in.Timestamp
		}
	}

	if ratingCount > 0 {
		avg := ratingSum / float64(ratingCount)
		score.AverageRating = &avg
	}
	return score
}
