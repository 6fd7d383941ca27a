// Package embedding 提供用户/活动向量的存储实现。
//
// 推荐链路只通过 core.EmbeddingReader 读取；写入（Writer）只给离线训练任务和测试使用。
// 缺失是正常状态，读取返回 (nil, nil)；维度与配置不符返回 CONFIG 错误。
package embedding

import (
	"context"

	"github.com/behuman/moodrec/core"
	"github.com/behuman/moodrec/metrics"
)

// Writer 是离线训练任务使用的写接口，整条覆盖写入。
type Writer interface {
	PutUserEmbedding(ctx context.Context, e *core.Embedding) error
	PutActivityEmbedding(ctx context.Context, e *core.Embedding) error
}

// ReadWriter 同时支持读写的存储。
type ReadWriter interface {
	core.EmbeddingReader
	Writer
}

func checkWrite(schema core.EmbeddingSchema, owner core.EmbeddingOwner, e *core.Embedding) error {
	if e == nil || e.OwnerID == "" {
		return core.NewValidationError(core.ModuleEmbedding, "%s embedding requires an owner id", owner)
	}
	return schema.Validate(owner, e)
}

// observe 记录一次查询结果并原样返回。
func observe(backend string, owner core.EmbeddingOwner, e *core.Embedding, err error) (*core.Embedding, error) {
	result := "hit"
	switch {
	case err != nil:
		result = "error"
	case e == nil:
		result = "miss"
	}
	metrics.EmbeddingLookups.WithLabelValues(backend, string(owner), result).Inc()
	return e, err
}
