package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/behuman/moodrec/core"
)

// Pipeline 把推荐逻辑拆成按顺序执行的 Node 链。
type Pipeline struct {
	Nodes []Node

	// Logger 记录每个 Node 的输入/输出数量与耗时（debug 级别）
	Logger zerolog.Logger
}

// Run 依次执行各 Node。每个 Node 执行前检查 ctx，超时或取消时立即返回。
func (p *Pipeline) Run(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	cur := items
	for _, node := range p.Nodes {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("pipeline stopped before %s: %w", node.Name(), err)
		}
		start := time.Now()
		next, err := node.Process(ctx, rctx, cur)
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", node.Kind(), node.Name(), err)
		}
		p.Logger.Debug().
			Str("node", node.Name()).
			Str("kind", string(node.Kind())).
			Int("in", len(cur)).
			Int("out", len(next)).
			Dur("took", time.Since(start)).
			Msg("pipeline node done")
		cur = next
	}
	return cur, nil
}
