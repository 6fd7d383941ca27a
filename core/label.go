package core

// Label 是推荐链路中的可解释标记：每个阶段都可以在 Item 上留下 Label，
// 例如过滤原因、排序模型、推荐理由。
type Label struct {
	Value  string `json:"value"`
	Source string `json:"source"` // filter / rank / rerank / explain ...
}

// 常用的 Label key
const (
	LabelFiltered    = "filtered"
	LabelRankModel   = "rank_model"
	LabelExplanation = "explanation"
)

// MergeLabel 合并同名 Label：Value 以 '|' 累积，Source 以 ',' 累积。
func MergeLabel(existing Label, incoming Label) Label {
	if existing.Value == "" {
		return incoming
	}
	if incoming.Value == "" {
		return existing
	}

	merged := existing
	merged.Value = existing.Value + "|" + incoming.Value
	switch {
	case existing.Source == "":
		merged.Source = incoming.Source
	case incoming.Source == "":
		merged.Source = existing.Source
	default:
		merged.Source = existing.Source + "," + incoming.Source
	}
	return merged
}
