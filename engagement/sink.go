package engagement

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/behuman/moodrec/core"
)

// KVSink 把聚合写入 KeyValueStore，供离线 CF 训练读取：
//
//	engagement:score:{user}  Hash，field = 活动 ID，value = EngagementScore JSON
//	engagement:rank:{user}   有序集合，member = 活动 ID，score = 隐式分
type KVSink struct {
	kv core.KeyValueStore
}

// NewKVSink 创建 KV 导出。
func NewKVSink(kv core.KeyValueStore) *KVSink {
	return &KVSink{kv: kv}
}

func scoreKey(userID string) string { return "engagement:score:" + userID }

func rankKey(userID string) string { return "engagement:rank:" + userID }

func (s *KVSink) Write(ctx context.Context, userID string, scores []core.EngagementScore) error {
	for _, sc := range scores {
		data, err := json.Marshal(sc)
		if err != nil {
			return fmt.Errorf("encode engagement %s/%s: %w", sc.UserID, sc.ActivityID, err)
		}
		if err := s.kv.HSet(ctx, scoreKey(userID), sc.ActivityID, data); err != nil {
			return err
		}
		if err := s.kv.ZAdd(ctx, rankKey(userID), sc.ImplicitScore, sc.ActivityID); err != nil {
			return err
		}
	}
	return nil
}

// Score 读取导出的某个 pair，不存在时返回 (nil, nil)。
func (s *KVSink) Score(ctx context.Context, userID, activityID string) (*core.EngagementScore, error) {
	data, err := s.kv.HGet(ctx, scoreKey(userID), activityID)
	if core.IsStoreNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var sc core.EngagementScore
	if err := json.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("decode engagement %s/%s: %w", userID, activityID, err)
	}
	return &sc, nil
}

// TopActivities 返回用户隐式分最高的 n 个活动 ID。
func (s *KVSink) TopActivities(ctx context.Context, userID string, n int) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}
	return s.kv.ZRange(ctx, rankKey(userID), 0, int64(n-1))
}
