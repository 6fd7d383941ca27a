package core

// Activity 是目录中的一个可推荐活动（疗愈/休闲活动）。
// 对打分链路而言是只读的，由目录方维护。
type Activity struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description"`
	Category    string `json:"category,omitempty" yaml:"category"`

	// ProfileTags 描述适合什么样的人（如 "activo", "aventurero"）
	ProfileTags []string `json:"profile_tags,omitempty" yaml:"profile_tags"`

	// SituationTags 描述适合什么处境（如 "baja autoestima", "stress_relief"），
	// 时段标签（morning/afternoon/evening）与 "weekend" 也放在这里
	SituationTags []string `json:"situation_tags,omitempty" yaml:"situation_tags"`

	// AgeGroup 适合的年龄段，空或 "all" 表示不限
	AgeGroup string `json:"age_group,omitempty" yaml:"age_group"`

	Active bool `json:"active" yaml:"active"`

	// Price 价格信息，打分不使用
	Price *Price `json:"price,omitempty" yaml:"price"`
}

// Price 是活动的价格元信息。
type Price struct {
	Amount   float64 `json:"amount" yaml:"amount"`
	Currency string  `json:"currency,omitempty" yaml:"currency"`
	Promoted bool    `json:"promoted,omitempty" yaml:"promoted"`
}

// AgeGroupAll 表示不限年龄段
const AgeGroupAll = "all"

// Tags 返回活动所有标签（画像标签 + 处境标签）的归一化集合。
func (a *Activity) Tags() TagSet {
	return NewTagSet(a.ProfileTags, a.SituationTags)
}

// SuitsAgeGroup 判断活动是否适合给定年龄段。
// 任一方未声明年龄段时视为适合。
func (a *Activity) SuitsAgeGroup(group string) bool {
	want := NormalizeTag(group)
	have := NormalizeTag(a.AgeGroup)
	if want == "" || have == "" || have == AgeGroupAll || want == AgeGroupAll {
		return true
	}
	return want == have
}
