package rerank

import (
	"context"

	"github.com/behuman/moodrec/core"
	"github.com/behuman/moodrec/pipeline"
	"github.com/behuman/moodrec/pkg/dsl"
)

// ExplainNode 按解释规则为每个结果生成一句解释，写入 Explanation 与 labels：explanation。
type ExplainNode struct {
	Explainer *dsl.Explainer
}

func (n *ExplainNode) Name() string        { return "postprocess.explain" }
func (n *ExplainNode) Kind() pipeline.Kind { return pipeline.KindPostProcess }

func (n *ExplainNode) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	x := n.Explainer
	if x == nil {
		var err error
		if x, err = dsl.NewExplainer(nil, ""); err != nil {
			return nil, err
		}
	}
	for _, it := range items {
		msg, err := x.Explain(it.Scores, it.Score)
		if err != nil {
			return nil, err
		}
		it.Explanation = msg
		it.PutLabel(core.LabelExplanation, core.Label{Value: msg, Source: "explain"})
	}
	return items, nil
}
