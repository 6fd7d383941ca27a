// Package rank 实现混合打分节点：为每个候选计算四个分量得分并按权重混合。
package rank

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/behuman/moodrec/core"
	"github.com/behuman/moodrec/model"
	"github.com/behuman/moodrec/pipeline"
	"github.com/behuman/moodrec/scorer"
)

// DefaultWorkers 是并发打分的默认并发度
const DefaultWorkers = 8

// HybridNode 为候选打分：
//   - cf / semantic：读取活动向量，与 rctx.UserEmbedding 计算相似度
//   - tag：画像标签与处境标签重合度
//   - context：时段、周末、情绪加权
//
// 写入 labels：rank_model。不排序，排序由 rerank.TopNNode 完成。
type HybridNode struct {
	Embeddings core.EmbeddingReader
	Tags       scorer.TagMatcher
	Similarity scorer.SimilarityScorer
	Context    *scorer.ContextBooster

	// Workers 并发打分的上限，<=0 使用 DefaultWorkers
	Workers int
	Logger  zerolog.Logger
}

func (n *HybridNode) Name() string        { return "rank.hybrid" }
func (n *HybridNode) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *HybridNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 {
		return items, nil
	}

	m, err := model.NewWeightedModel(rctx.Weights)
	if err != nil {
		return nil, err
	}

	booster := n.Context
	if booster == nil {
		booster = scorer.NewContextBooster(scorer.DefaultBoosts())
	}
	now := rctx.Now
	if now.IsZero() {
		now = time.Now()
	}
	profileTags := rctx.ProfileTags()
	workers := n.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	// 每个 goroutine 只写自己的 item
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, it := range items {
		if it == nil || it.Activity == nil {
			continue
		}
		it := it
		g.Go(func() error {
			if err := n.loadEmbedding(gctx, rctx, it); err != nil {
				return err
			}
			it.Scores = core.ComponentScores{
				CF:       n.Similarity.CF(rctx.UserEmbedding, it.Embedding),
				Tag:      n.Tags.Score(it.Activity, profileTags, rctx.SituationTags),
				Semantic: n.Similarity.Semantic(rctx.UserEmbedding, it.Embedding),
				Context:  booster.Score(it.Activity, now, rctx.EmotionalState),
			}
			it.Score = m.Blend(it.Scores)
			it.PutLabel(core.LabelRankModel, core.Label{Value: m.Name(), Source: "rank"})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return items, nil
}

// loadEmbedding 读取活动向量。没有用户向量时 cf 与 semantic 恒为 0，不读取。
// 后端不可用时该活动按缺失处理，维度不符等配置错误直接返回。
func (n *HybridNode) loadEmbedding(ctx context.Context, rctx *core.RecommendContext, it *core.Item) error {
	if n.Embeddings == nil || rctx.UserEmbedding == nil {
		return nil
	}
	e, err := n.Embeddings.ActivityEmbedding(ctx, it.ID)
	if err != nil {
		if core.IsUnavailable(err) {
			n.Logger.Warn().Err(err).Str("activity_id", it.ID).Msg("activity embedding unavailable, scoring without it")
			return nil
		}
		return err
	}
	it.Embedding = e
	return nil
}
