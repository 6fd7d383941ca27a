package scorer

import (
	"time"

	"github.com/behuman/moodrec/core"
)

// Boosts 是上下文加权的各项幅度。
type Boosts struct {
	Daypart float64 `json:"daypart" koanf:"daypart"`
	Weekend float64 `json:"weekend" koanf:"weekend"`
	Emotion float64 `json:"emotion" koanf:"emotion"`
}

// DefaultBoosts 时段 +0.3，周末 +0.2，情绪 +0.5
func DefaultBoosts() Boosts {
	return Boosts{Daypart: 0.3, Weekend: 0.2, Emotion: 0.5}
}

// WeekendTag 是活动上表示适合周末的标签
const WeekendTag = "weekend"

// DefaultEmotionTags 是情绪到活动标签的固定映射
func DefaultEmotionTags() map[string]string {
	return map[string]string{
		"stressed": "stress_relief",
		"anxious":  "calming",
		"sad":      "mood_boost",
		"lonely":   "social",
	}
}

// ContextBooster 根据时段、周末与情绪给活动加分，总分截断到 1。
// 活动的标签取画像标签与处境标签的并集。
type ContextBooster struct {
	Boosts      Boosts
	EmotionTags map[string]string
}

// NewContextBooster 使用默认映射创建。
func NewContextBooster(b Boosts) *ContextBooster {
	return &ContextBooster{Boosts: b, EmotionTags: DefaultEmotionTags()}
}

func (c *ContextBooster) Score(a *core.Activity, now time.Time, emotionalState string) float64 {
	tags := a.Tags()
	var score float64

	// 夜间不属于任何时段，不加分
	if dp := core.Daypart(now); dp != core.DaypartNight && tags.Has(dp) {
		score += c.Boosts.Daypart
	}
	if core.IsWeekend(now) && tags.Has(WeekendTag) {
		score += c.Boosts.Weekend
	}
	if emotionalState != "" {
		if tag, ok := c.EmotionTags[core.NormalizeTag(emotionalState)]; ok && tags.Has(tag) {
			score += c.Boosts.Emotion
		}
	}
	return clamp01(score)
}
