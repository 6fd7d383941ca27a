package core

import "time"

// UserProfile 是单次推荐请求使用的用户画像，由画像服务提供。
//
//	维度          作用
//	画像标签      Tag 匹配（长期偏好）
//	处境标签      Tag 匹配（当前对话上下文）
//	情绪          上下文加权
//	年龄段        基础过滤
type UserProfile struct {
	UserID string `json:"user_id" yaml:"user_id"`

	// ProfileTags 推断或用户显式声明的偏好标签
	ProfileTags []string `json:"profile_tags,omitempty" yaml:"profile_tags"`

	// SituationTags 当前对话上下文给出的处境标签
	SituationTags []string `json:"situation_tags,omitempty" yaml:"situation_tags"`

	Country  string `json:"country,omitempty" yaml:"country"`
	Mood     string `json:"mood,omitempty" yaml:"mood"`
	AgeGroup string `json:"age_group,omitempty" yaml:"age_group"`

	UpdateTime time.Time `json:"update_time" yaml:"update_time"`
}

// NewUserProfile 创建一个空画像（冷启动用户使用）。
func NewUserProfile(userID string) *UserProfile {
	return &UserProfile{
		UserID:     userID,
		UpdateTime: time.Now(),
	}
}

// IsEmpty 画像没有任何可用于匹配的标签。
func (p *UserProfile) IsEmpty() bool {
	return p == nil || (len(p.ProfileTags) == 0 && len(p.SituationTags) == 0)
}

// AddProfileTag 追加画像标签（归一化、去重）。
func (p *UserProfile) AddProfileTag(tag string) {
	p.ProfileTags = NormalizeTags(append(p.ProfileTags, tag))
	p.UpdateTime = time.Now()
}

// HasProfileTag 判断是否有某个画像标签。
func (p *UserProfile) HasProfileTag(tag string) bool {
	return NewTagSet(p.ProfileTags).Has(tag)
}
