package filter

import (
	"context"

	"github.com/behuman/moodrec/core"
)

// ActiveFilter 过滤未上架的活动。
type ActiveFilter struct{}

func (ActiveFilter) Name() string { return "filter.inactive" }

func (ActiveFilter) ShouldFilter(_ context.Context, _ *core.RecommendContext, item *core.Item) (bool, error) {
	return !item.Activity.Active, nil
}

// ExcludeFilter 过滤请求指定排除的活动，以及静态配置的 ItemIDs（如下线黑名单）。
type ExcludeFilter struct {
	ItemIDs []string
}

func (f *ExcludeFilter) Name() string { return "filter.exclude" }

func (f *ExcludeFilter) ShouldFilter(_ context.Context, rctx *core.RecommendContext, item *core.Item) (bool, error) {
	if _, ok := rctx.Exclude[item.ID]; ok {
		return true, nil
	}
	for _, id := range f.ItemIDs {
		if item.ID == id {
			return true, nil
		}
	}
	return false, nil
}

// AgeGroupFilter 过滤与用户年龄段不符的活动，任一方未声明年龄段时保留。
type AgeGroupFilter struct{}

func (AgeGroupFilter) Name() string { return "filter.age_group" }

func (AgeGroupFilter) ShouldFilter(_ context.Context, rctx *core.RecommendContext, item *core.Item) (bool, error) {
	if rctx.User == nil {
		return false, nil
	}
	return !item.Activity.SuitsAgeGroup(rctx.User.AgeGroup), nil
}

// AvoidTagFilter 过滤带有当前处境回避标签的活动（如丧亲处境回避 "fiesta"）。
type AvoidTagFilter struct{}

func (AvoidTagFilter) Name() string { return "filter.avoid_tags" }

func (AvoidTagFilter) ShouldFilter(_ context.Context, rctx *core.RecommendContext, item *core.Item) (bool, error) {
	if len(rctx.AvoidTags) == 0 {
		return false, nil
	}
	return item.Activity.Tags().Intersect(core.NewTagSet(rctx.AvoidTags)) > 0, nil
}
