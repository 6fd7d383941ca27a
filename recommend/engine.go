// Package recommend 是推荐引擎的入口：记录互动、生成推荐、刷新参与度聚合。
//
// 一次推荐的流程固定为：
//
//	加载画像与用户向量 → 解析处境标签 → 过滤（打分前）→ 混合打分 → 排序截断 → 生成解释
package recommend

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/behuman/moodrec/core"
	"github.com/behuman/moodrec/engagement"
	"github.com/behuman/moodrec/filter"
	"github.com/behuman/moodrec/metrics"
	"github.com/behuman/moodrec/pipeline"
	"github.com/behuman/moodrec/pkg/dsl"
	"github.com/behuman/moodrec/rank"
	"github.com/behuman/moodrec/rerank"
	"github.com/behuman/moodrec/scorer"
	"github.com/behuman/moodrec/situation"
)

// Engine 组合目录、画像、向量与互动日志，对外提供推荐能力。
// 除 Aggregator 的快照外不持有可变状态，可被并发调用。
type Engine struct {
	catalog    core.Catalog
	profiles   core.ProfileProvider
	embeddings core.EmbeddingReader
	log        core.InteractionLog
	aggregator *engagement.Aggregator
	situations *situation.KnowledgeBase

	weights   core.Weights
	cfg       core.RecommendConfig
	booster   *scorer.ContextBooster
	explainer *dsl.Explainer
	blocked   []string

	// exposure 非空时过滤用户已曝光过的活动
	exposure *exposureSettings

	logger zerolog.Logger
	now    func() time.Time
}

// Option 配置 Engine。
type Option func(*Engine)

// WithProfiles 设置画像来源，未设置时所有用户按冷启动处理。
func WithProfiles(p core.ProfileProvider) Option {
	return func(e *Engine) { e.profiles = p }
}

// WithEmbeddings 设置向量来源，未设置时 cf 与 semantic 分量恒为 0。
func WithEmbeddings(r core.EmbeddingReader) Option {
	return func(e *Engine) { e.embeddings = r }
}

// WithInteractionLog 设置互动日志。
func WithInteractionLog(l core.InteractionLog) Option {
	return func(e *Engine) { e.log = l }
}

// WithAggregator 设置参与度聚合器，未设置时用互动日志创建默认聚合器。
func WithAggregator(a *engagement.Aggregator) Option {
	return func(e *Engine) { e.aggregator = a }
}

// WithSituations 设置处境知识库。
func WithSituations(kb *situation.KnowledgeBase) Option {
	return func(e *Engine) { e.situations = kb }
}

// WithWeights 设置默认混合权重（会归一化）。
func WithWeights(w core.Weights) Option {
	return func(e *Engine) { e.weights = w }
}

// WithBoosts 设置上下文加权幅度。
func WithBoosts(b scorer.Boosts) Option {
	return func(e *Engine) { e.booster = scorer.NewContextBooster(b) }
}

// WithExplainer 设置解释规则。
func WithExplainer(x *dsl.Explainer) Option {
	return func(e *Engine) { e.explainer = x }
}

// WithRecommendConfig 设置条数、并发与超时。
func WithRecommendConfig(c core.RecommendConfig) Option {
	return func(e *Engine) { e.cfg = c }
}

// WithBlockedActivities 设置全局屏蔽的活动 ID。
func WithBlockedActivities(ids ...string) Option {
	return func(e *Engine) { e.blocked = append(e.blocked, ids...) }
}

// WithLogger 设置日志。
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

type exposureSettings struct {
	types  []core.InteractionType
	window time.Duration
}

// WithExposedFilter 开启已曝光过滤：用户在 window 内有 types 类行为的活动不再推荐。
// types 为空时使用 filter.DefaultExposureTypes，window<=0 表示不限。需要互动日志。
func WithExposedFilter(types []core.InteractionType, window time.Duration) Option {
	return func(e *Engine) { e.exposure = &exposureSettings{types: types, window: window} }
}

// WithClock 设置时间来源，请求未带 Now 时使用。
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New 创建引擎。默认权重和为 0 或解释规则无法编译时返回 CONFIG 错误。
func New(catalog core.Catalog, opts ...Option) (*Engine, error) {
	if catalog == nil {
		return nil, core.NewConfigError(core.ModuleScoring, "catalog is required")
	}
	e := &Engine{
		catalog:    catalog,
		situations: situation.Default(),
		weights:    core.DefaultWeights(),
		cfg:        &core.DefaultRecommendConfig{},
		booster:    scorer.NewContextBooster(scorer.DefaultBoosts()),
		logger:     zerolog.Nop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}

	w, err := e.weights.Normalize()
	if err != nil {
		return nil, err
	}
	e.weights = w

	if e.explainer == nil {
		if e.explainer, err = dsl.NewExplainer(nil, ""); err != nil {
			return nil, err
		}
	}
	if e.aggregator == nil && e.log != nil {
		e.aggregator = engagement.NewAggregator(e.log, engagement.WithLogger(e.logger))
	}
	e.logger = e.logger.With().Str("component", "recommend").Logger()
	return e, nil
}

// Aggregator 返回引擎使用的参与度聚合器，未配置互动日志时为 nil。
func (e *Engine) Aggregator() *engagement.Aggregator { return e.aggregator }

// Activity 按 ID 点查活动，不存在时返回 NOT_FOUND。
func (e *Engine) Activity(ctx context.Context, id string) (core.Activity, error) {
	return e.catalog.Activity(ctx, id)
}

// RecordInteraction 校验并追加一条互动事件，返回事件 ID。
func (e *Engine) RecordInteraction(ctx context.Context, in core.Interaction) (string, error) {
	if e.log == nil {
		return "", core.NewConfigError(core.ModuleInteraction, "interaction log is not configured")
	}
	id, err := e.log.Record(ctx, in)
	if err != nil {
		if core.IsValidation(err) {
			metrics.InteractionsRejected.Inc()
			e.logger.Debug().Err(err).Str("user_id", in.UserID).Msg("interaction rejected")
		}
		return "", err
	}
	metrics.InteractionsRecorded.WithLabelValues(string(in.Type)).Inc()
	return id, nil
}

// RefreshEngagementAggregates 从完整日志重算参与度聚合，幂等。
func (e *Engine) RefreshEngagementAggregates(ctx context.Context) (engagement.RefreshReport, error) {
	if e.aggregator == nil {
		return engagement.RefreshReport{}, core.NewConfigError(core.ModuleEngagement, "interaction log is not configured")
	}
	return e.aggregator.Refresh(ctx)
}

// Recommend 为用户生成推荐。未知用户按冷启动处理，空目录返回空结果，两者都不是错误。
func (e *Engine) Recommend(ctx context.Context, req core.RecommendRequest) (*core.RecommendResult, error) {
	start := time.Now()
	res, err := e.recommend(ctx, req)
	metrics.RecommendDuration.Observe(time.Since(start).Seconds())
	switch {
	case err != nil:
		metrics.RecommendRequests.WithLabelValues("error").Inc()
	case res.ColdStart:
		metrics.RecommendRequests.WithLabelValues("cold_start").Inc()
	default:
		metrics.RecommendRequests.WithLabelValues("ok").Inc()
	}
	return res, err
}

func (e *Engine) recommend(ctx context.Context, req core.RecommendRequest) (*core.RecommendResult, error) {
	if req.UserID == "" {
		return nil, core.NewValidationError(core.ModuleScoring, "user_id is required")
	}
	if t := e.cfg.Timeout(); t > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t)
		defer cancel()
	}

	rctx, err := e.buildContext(ctx, req)
	if err != nil {
		return nil, err
	}
	logger := e.logger.With().Str("request_id", rctx.RequestID).Str("user_id", rctx.UserID).Logger()

	activities, err := e.catalog.Activities(ctx)
	if err != nil {
		return nil, core.NewUnavailableError(core.ModuleCatalog, "load activities", err)
	}
	items := make([]*core.Item, 0, len(activities))
	for i := range activities {
		items = append(items, core.NewItem(&activities[i]))
	}

	filters := []filter.Filter{
		filter.ActiveFilter{},
		&filter.ExcludeFilter{ItemIDs: e.blocked},
		filter.AgeGroupFilter{},
		filter.AvoidTagFilter{},
	}
	if e.exposure != nil && e.log != nil {
		filters = append(filters, filter.NewExposedFilter(e.log, e.exposure.types, e.exposure.window))
	}

	p := &pipeline.Pipeline{
		Nodes: []pipeline.Node{
			&filter.FilterNode{Filters: filters},
			&rank.HybridNode{
				Embeddings: e.embeddings,
				Context:    e.booster,
				Workers:    e.cfg.Workers(),
				Logger:     logger,
			},
			&rerank.TopNNode{N: e.limit(req.Limit)},
			&rerank.ExplainNode{Explainer: e.explainer},
		},
		Logger: logger,
	}

	out, err := p.Run(ctx, rctx, items)
	if err != nil {
		logger.Warn().Err(err).Msg("recommendation failed")
		return nil, err
	}

	res := &core.RecommendResult{
		UserID:      rctx.UserID,
		Items:       make([]core.Recommendation, 0, len(out)),
		ColdStart:   rctx.ColdStart,
		Weights:     rctx.Weights,
		GeneratedAt: rctx.Now,
	}
	for _, it := range out {
		res.Items = append(res.Items, it.Recommendation())
	}

	filtered := filter.CountFiltered(items)
	metrics.CandidatesScored.Observe(float64(len(activities) - filtered))
	logger.Debug().
		Int("candidates", len(activities)).
		Int("filtered", filtered).
		Int("returned", len(res.Items)).
		Bool("cold_start", res.ColdStart).
		Msg("recommendation served")
	return res, nil
}

// buildContext 加载画像与用户向量并解析处境标签。
// 画像或向量后端不可用时按缺失处理；维度不符等配置错误直接返回。
func (e *Engine) buildContext(ctx context.Context, req core.RecommendRequest) (*core.RecommendContext, error) {
	rctx := &core.RecommendContext{
		RequestID:      uuid.NewString(),
		UserID:         req.UserID,
		SituationID:    req.SituationID,
		EmotionalState: req.EmotionalState,
		Now:            req.Now,
	}
	if rctx.Now.IsZero() {
		rctx.Now = e.now()
	}

	w := e.weights
	if req.Weights != nil {
		w = *req.Weights
	}
	nw, err := w.Normalize()
	if err != nil {
		return nil, err
	}
	rctx.Weights = nw

	if len(req.Exclude) > 0 {
		rctx.Exclude = make(map[string]struct{}, len(req.Exclude))
		for _, id := range req.Exclude {
			rctx.Exclude[id] = struct{}{}
		}
	}

	if e.profiles != nil {
		up, err := e.profiles.Profile(ctx, req.UserID)
		switch {
		case err == nil:
			rctx.User = up
		case core.IsUnavailable(err):
			e.logger.Warn().Err(err).Str("user_id", req.UserID).Msg("profile unavailable, treating as cold start")
		default:
			return nil, fmt.Errorf("load profile: %w", err)
		}
	}
	if rctx.User == nil {
		rctx.User = core.NewUserProfile(req.UserID)
		rctx.ColdStart = true
	}

	if e.embeddings != nil {
		ue, err := e.embeddings.UserEmbedding(ctx, req.UserID)
		switch {
		case err == nil:
			rctx.UserEmbedding = ue
		case core.IsUnavailable(err):
			e.logger.Warn().Err(err).Str("user_id", req.UserID).Msg("user embedding unavailable, scoring without it")
		default:
			return nil, err
		}
	}

	e.resolveSituation(rctx, req)
	return rctx, nil
}

// resolveSituation 处境标签优先级：请求 > 画像 > 知识库展开。
// 回避标签总是来自知识库。
func (e *Engine) resolveSituation(rctx *core.RecommendContext, req core.RecommendRequest) {
	var kbTags, avoid []string
	if req.SituationID != "" && e.situations != nil {
		kbTags, avoid = e.situations.Expand(req.SituationID)
	}
	rctx.AvoidTags = avoid

	switch {
	case len(req.SituationTags) > 0:
		rctx.SituationTags = core.NormalizeTags(req.SituationTags)
	case len(rctx.User.SituationTags) > 0:
		rctx.SituationTags = core.NormalizeTags(rctx.User.SituationTags)
	default:
		rctx.SituationTags = kbTags
	}
}

func (e *Engine) limit(n int) int {
	if n <= 0 {
		n = e.cfg.DefaultLimit()
	}
	if maxN := e.cfg.MaxLimit(); maxN > 0 && n > maxN {
		n = maxN
	}
	return n
}
