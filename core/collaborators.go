package core

import "context"

// Catalog 是活动目录。单次推荐内视为一致的快照。
type Catalog interface {
	// Activities 返回全部活动（含未上架），返回的切片归调用方所有
	Activities(ctx context.Context) ([]Activity, error)

	// Activity 按 ID 点查，不存在时返回 NOT_FOUND
	Activity(ctx context.Context, id string) (Activity, error)
}

// ProfileProvider 提供用户画像。未知用户返回 (nil, nil)，由调用方按冷启动处理。
type ProfileProvider interface {
	Profile(ctx context.Context, userID string) (*UserProfile, error)
}

// EmbeddingReader 是 Embedding 存储的只读接口。
// 缺失返回 (nil, nil)；维度与配置不符返回 CONFIG 错误。
type EmbeddingReader interface {
	UserEmbedding(ctx context.Context, userID string) (*Embedding, error)
	ActivityEmbedding(ctx context.Context, activityID string) (*Embedding, error)
}

// InteractionLog 是只追加的互动日志。
type InteractionLog interface {
	// Record 校验并追加一条事件，返回事件 ID；校验失败返回 VALIDATION 错误且不写入
	Record(ctx context.Context, in Interaction) (string, error)

	// Query 按插入顺序返回满足条件的事件
	Query(ctx context.Context, q InteractionQuery) ([]Interaction, error)

	// Scan 按插入顺序遍历全部事件，fn 返回错误时停止
	Scan(ctx context.Context, fn func(Interaction) error) error
}
