// Package filter 提供打分前的候选过滤：未上架、请求排除、年龄段、处境回避标签。
// 过滤发生在打分之前，被过滤的活动不参与打分，也不占用 limit。
package filter

import (
	"context"

	"github.com/behuman/moodrec/core"
)

// Filter 是过滤器的抽象接口，用于判断一个 Item 是否应该被过滤掉。
// 返回 true 表示应该过滤（移除），false 表示保留。
type Filter interface {
	// Name 返回过滤器名称
	Name() string

	// ShouldFilter 判断 item 是否应该被过滤
	ShouldFilter(ctx context.Context, rctx *core.RecommendContext, item *core.Item) (bool, error)
}
