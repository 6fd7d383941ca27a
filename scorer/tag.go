// Package scorer 实现混合打分的三类分量：标签匹配、向量相似度、上下文加权。
// 所有打分都是纯函数，结果在 [0,1]，可被并发调用。
package scorer

import "github.com/behuman/moodrec/core"

// TagMatcher 计算用户画像/处境标签与活动标签的重合度：
//
//	profile_overlap   = |activity.profile_tags ∩ user_profile_tags| / max(|activity.profile_tags|, 1)
//	situation_overlap = |activity.situation_tags ∩ situation_tags|   / max(|activity.situation_tags|, 1)
//	score = (profile_overlap + situation_overlap) / 2
//
// 标签大小写归一化后精确匹配。
type TagMatcher struct{}

func (TagMatcher) Score(a *core.Activity, profileTags, situationTags []string) float64 {
	profile := overlap(core.NewTagSet(a.ProfileTags), core.NewTagSet(profileTags))
	situation := overlap(core.NewTagSet(a.SituationTags), core.NewTagSet(situationTags))
	return clamp01((profile + situation) / 2)
}

// overlap = |activity ∩ user| / max(|activity|, 1)
func overlap(activity, user core.TagSet) float64 {
	if len(activity) == 0 {
		return 0
	}
	return float64(activity.Intersect(user)) / float64(len(activity))
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
