package core

// Item 是推荐链路中的统一承载结构：候选活动、分量得分、最终分数、标签。
// Labels 用于解释与观测；Score 用于排序决策。
type Item struct {
	ID       string
	Activity *Activity

	// Embedding 是活动向量，缺失时为 nil
	Embedding *Embedding

	Score       float64
	Scores      ComponentScores
	Explanation string
	Labels      map[string]Label
}

// NewItem 用活动构建候选。
func NewItem(a *Activity) *Item {
	return &Item{
		ID:       a.ID,
		Activity: a,
		Labels:   make(map[string]Label),
	}
}

// PutLabel 写入 Label；若已存在同名 key，则按 MergeLabel 规则累积。
func (it *Item) PutLabel(key string, lbl Label) {
	if it.Labels == nil {
		it.Labels = make(map[string]Label)
	}
	if old, ok := it.Labels[key]; ok {
		it.Labels[key] = MergeLabel(old, lbl)
		return
	}
	it.Labels[key] = lbl
}

// Recommendation 转为对外结果。
func (it *Item) Recommendation() Recommendation {
	return Recommendation{
		ActivityID:  it.ID,
		FinalScore:  it.Score,
		Scores:      it.Scores,
		Explanation: it.Explanation,
	}
}
