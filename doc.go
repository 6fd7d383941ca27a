// Package moodrec 根据用户的处境、偏好与当下情境推荐疗愈/休闲活动。
//
// 设计要点：
// - Pipeline-first: 一次推荐固定为 Filter → Rank → ReRank → PostProcess 的 Node 链
// - 混合打分: cf / tag / semantic / context 四个分量按可配置权重线性混合
// - 缺失即零: 没有画像、没有向量的用户与活动照常推荐，对应分量为 0
// - Labels-first: 过滤原因、打分模型、推荐解释都以 Label 写入结果，便于观测
//
// 入口在 recommend 包，这里提供常用类型的别名：
//
//	engine, err := moodrec.New(catalog, recommend.WithProfiles(p), recommend.WithEmbeddings(e))
//	res, err := engine.Recommend(ctx, moodrec.Request{UserID: "u1", SituationID: "ansiedad"})
package moodrec

import (
	"github.com/behuman/moodrec/core"
	"github.com/behuman/moodrec/recommend"
)

type (
	Engine   = recommend.Engine
	Option   = recommend.Option
	Request  = core.RecommendRequest
	Result   = core.RecommendResult
	Activity = core.Activity
)

// New 创建推荐引擎，等价于 recommend.New。
func New(catalog core.Catalog, opts ...Option) (*Engine, error) {
	return recommend.New(catalog, opts...)
}
