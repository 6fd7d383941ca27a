// Package rerank 负责打分后的排序截断与推荐解释。
package rerank

import (
	"context"
	"sort"

	"github.com/behuman/moodrec/core"
	"github.com/behuman/moodrec/pipeline"
)

// TopNNode 按最终分降序排序并截取前 N 个，分数相同时按活动 ID 升序，
// 相同输入总是得到相同顺序。
//
//	pipeline := &pipeline.Pipeline{
//	    Nodes: []pipeline.Node{
//	        &rank.HybridNode{...},    // 打分
//	        &rerank.TopNNode{N: 10},  // 排序并截取 Top 10
//	        &rerank.ExplainNode{...}, // 生成解释
//	    },
//	}
type TopNNode struct {
	// N <= 0 时不截断
	N int
}

func (n *TopNNode) Name() string {
	return "rerank.topn"
}

func (n *TopNNode) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *TopNNode) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	out := make([]*core.Item, 0, len(items))
	for _, it := range items {
		if it != nil {
			out = append(out, it)
		}
	}
	SortByScore(out)

	if n.N > 0 && len(out) > n.N {
		out = out[:n.N]
	}
	return out, nil
}

// SortByScore 按分数降序、ID 升序排序。
func SortByScore(items []*core.Item) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		return items[i].ID < items[j].ID
	})
}
