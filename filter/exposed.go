package filter

import (
	"context"
	"sync"
	"time"

	"github.com/behuman/moodrec/core"
)

// DefaultExposureTypes 是默认视为"已曝光"的行为类型
var DefaultExposureTypes = []core.InteractionType{
	core.InteractionImpression,
	core.InteractionView,
	core.InteractionComplete,
}

// ExposedFilter 是已曝光过滤器，过滤掉用户在时间窗口内已经看过的活动。
// 曝光历史来自互动日志：首次调用时按用户查询一次，之后复用结果，
// 因此每次请求应创建新的实例。
type ExposedFilter struct {
	// Log 用于读取用户的互动历史
	Log core.InteractionLog

	// Types 视为曝光的行为类型，为空时使用 DefaultExposureTypes
	Types []core.InteractionType

	// Window 是曝光时间窗口，<=0 表示不限
	Window time.Duration

	once sync.Once
	seen map[string]struct{}
	err  error
}

// NewExposedFilter 创建一个已曝光过滤器。
func NewExposedFilter(log core.InteractionLog, types []core.InteractionType, window time.Duration) *ExposedFilter {
	return &ExposedFilter{Log: log, Types: types, Window: window}
}

func (f *ExposedFilter) Name() string {
	return "filter.exposed"
}

func (f *ExposedFilter) ShouldFilter(
	ctx context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil || rctx == nil || rctx.UserID == "" || f.Log == nil {
		return false, nil
	}

	f.once.Do(func() {
		f.seen, f.err = f.load(ctx, rctx)
	})
	if f.err != nil {
		return false, f.err
	}
	_, ok := f.seen[item.ID]
	return ok, nil
}

func (f *ExposedFilter) load(ctx context.Context, rctx *core.RecommendContext) (map[string]struct{}, error) {
	q := core.InteractionQuery{UserID: rctx.UserID}
	if f.Window > 0 {
		now := rctx.Now
		if now.IsZero() {
			now = time.Now()
		}
		q.Since = now.Add(-f.Window)
	}
	history, err := f.Log.Query(ctx, q)
	if err != nil {
		return nil, core.NewUnavailableError(core.ModuleInteraction, "load exposure history", err)
	}

	types := f.Types
	if len(types) == 0 {
		types = DefaultExposureTypes
	}
	want := make(map[core.InteractionType]struct{}, len(types))
	for _, t := range types {
		want[t] = struct{}{}
	}

	seen := make(map[string]struct{})
	for _, in := range history {
		if _, ok := want[in.Type]; ok {
			seen[in.ActivityID] = struct{}{}
		}
	}
	return seen, nil
}
