package core

import (
	"encoding/json"
	"time"
)

// InteractionType 是用户对活动的行为类型。
type InteractionType string

const (
	InteractionImpression InteractionType = "impression"
	InteractionView       InteractionType = "view"
	InteractionClick      InteractionType = "click"
	InteractionBookmark   InteractionType = "bookmark"
	InteractionShare      InteractionType = "share"
	InteractionStart      InteractionType = "start"
	InteractionComplete   InteractionType = "complete"
	InteractionRate       InteractionType = "rate"
	InteractionReview     InteractionType = "review"
)

// 评分区间
const (
	MinRating = 1.0
	MaxRating = 5.0
)

// baseWeights 是各行为的固定基础权重，rate 使用 rating/5 代替。
var baseWeights = map[InteractionType]float64{
	InteractionImpression: 0.05,
	InteractionView:       0.10,
	InteractionClick:      0.30,
	InteractionBookmark:   0.50,
	InteractionShare:      0.60,
	InteractionStart:      0.70,
	InteractionComplete:   1.00,
	InteractionReview:     0.80,
}

// InteractionTypes 返回所有合法的行为类型。
func InteractionTypes() []InteractionType {
	return []InteractionType{
		InteractionImpression, InteractionView, InteractionClick,
		InteractionBookmark, InteractionShare, InteractionStart,
		InteractionComplete, InteractionRate, InteractionReview,
	}
}

// Valid 判断是否为已知行为类型。
func (t InteractionType) Valid() bool {
	if t == InteractionRate {
		return true
	}
	_, ok := baseWeights[t]
	return ok
}

// BaseWeight 返回行为的基础权重。rate 的权重取决于评分，这里返回 0，
// 由 Interaction.BaseWeight 计算。
func (t InteractionType) BaseWeight() float64 {
	return baseWeights[t]
}

// DurationMetrics 是浏览/参与时长信息。
type DurationMetrics struct {
	ViewDurationSeconds float64 `json:"view_duration_seconds"`
	// CompletionRatio 完成比例，范围 [0,1]
	CompletionRatio float64 `json:"completion_ratio,omitempty"`
}

// EmotionSignal 是行为发生时检测到的情绪。
type EmotionSignal struct {
	Label     string  `json:"label"`
	Intensity float64 `json:"intensity"` // [0,1]
}

// 时段
const (
	DaypartMorning   = "morning"
	DaypartAfternoon = "afternoon"
	DaypartEvening   = "evening"
	DaypartNight     = "night"
)

// Daypart 返回给定时间所在的时段：morning 6-11，afternoon 12-17，evening 18-22，其余为 night。
func Daypart(t time.Time) string {
	h := t.Hour()
	switch {
	case h >= 6 && h <= 11:
		return DaypartMorning
	case h >= 12 && h <= 17:
		return DaypartAfternoon
	case h >= 18 && h <= 22:
		return DaypartEvening
	default:
		return DaypartNight
	}
}

// IsWeekend 判断是否为周六/周日。
func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// Interaction 是一条用户-活动行为事件，只追加、不修改。
type Interaction struct {
	ID         string          `json:"id"`
	UserID     string          `json:"user_id"`
	ActivityID string          `json:"activity_id"`
	Type       InteractionType `json:"type"`

	// Rating 仅 type=rate 时出现，范围 [1,5]
	Rating   *float64         `json:"rating,omitempty"`
	Duration *DurationMetrics `json:"duration,omitempty"`
	Emotion  *EmotionSignal   `json:"emotion,omitempty"`

	Timestamp time.Time `json:"timestamp"`

	// 记录时由 Timestamp 推导
	TimeOfDay string       `json:"time_of_day"`
	DayOfWeek time.Weekday `json:"day_of_week"`

	// Annotations 是调用方附带的不透明数据，核心逻辑从不解析
	Annotations json.RawMessage `json:"annotations,omitempty"`
}

// BaseWeight 返回该事件的基础权重（rate 为 rating/5）。
func (in *Interaction) BaseWeight() float64 {
	if in.Type == InteractionRate {
		if in.Rating == nil {
			return 0
		}
		return *in.Rating / MaxRating
	}
	return in.Type.BaseWeight()
}

// ViewSeconds 返回浏览时长（秒），未提供时为 0。
func (in *Interaction) ViewSeconds() float64 {
	if in.Duration == nil {
		return 0
	}
	return in.Duration.ViewDurationSeconds
}

// Derive 根据 Timestamp 填充 TimeOfDay 与 DayOfWeek。
func (in *Interaction) Derive() {
	in.TimeOfDay = Daypart(in.Timestamp)
	in.DayOfWeek = in.Timestamp.Weekday()
}

// InteractionQuery 是互动日志的查询条件。ActivityID、Since 为空表示不限。
type InteractionQuery struct {
	UserID     string
	ActivityID string
	Since      time.Time
}

// Match 判断事件是否满足查询条件。
func (q InteractionQuery) Match(in *Interaction) bool {
	if q.UserID != "" && in.UserID != q.UserID {
		return false
	}
	if q.ActivityID != "" && in.ActivityID != q.ActivityID {
		return false
	}
	if !q.Since.IsZero() && in.Timestamp.Before(q.Since) {
		return false
	}
	return true
}
