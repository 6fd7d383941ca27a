package filter

import (
	"context"

	"github.com/behuman/moodrec/core"
	"github.com/behuman/moodrec/pipeline"
)

// FilterNode 组合多个过滤器，任一过滤器返回 true 即移除该候选。
type FilterNode struct {
	Filters []Filter
}

func (n *FilterNode) Name() string {
	return "filter.node"
}

func (n *FilterNode) Kind() pipeline.Kind {
	return pipeline.KindFilter
}

func (n *FilterNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(n.Filters) == 0 || len(items) == 0 {
		return items, nil
	}

	out := make([]*core.Item, 0, len(items))
	for _, item := range items {
		if item == nil || item.Activity == nil {
			continue
		}

		reason := ""
		for _, f := range n.Filters {
			ok, err := f.ShouldFilter(ctx, rctx, item)
			if err != nil {
				// 过滤器出错时保留候选，记录原因便于排查
				item.PutLabel("filter_error", core.Label{Value: err.Error(), Source: f.Name()})
				continue
			}
			if ok {
				reason = f.Name()
				break
			}
		}

		if reason != "" {
			item.PutLabel(core.LabelFiltered, core.Label{Value: "true", Source: reason})
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

// CountFiltered 统计被 FilterNode 移除的候选数。
func CountFiltered(items []*core.Item) int {
	n := 0
	for _, it := range items {
		if it == nil {
			continue
		}
		if _, ok := it.Labels[core.LabelFiltered]; ok {
			n++
		}
	}
	return n
}
