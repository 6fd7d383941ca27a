package engagement

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/behuman/moodrec/core"
	"github.com/behuman/moodrec/metrics"
)

// DefaultRefreshInterval 是聚合结果允许的最大陈旧时间。
const DefaultRefreshInterval = 15 * time.Minute

type pairKey struct {
	user     string
	activity string
}

// Snapshot 是一次刷新产出的只读聚合结果。
type Snapshot struct {
	RefreshedAt time.Time

	ordered []core.EngagementScore // 按 (user, activity) 排序
	index   map[pairKey]int
	users   map[string][2]int // user -> ordered 中的 [start, end)
}

func newSnapshot(refreshedAt time.Time, scores []core.EngagementScore) *Snapshot {
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].UserID != scores[j].UserID {
			return scores[i].UserID < scores[j].UserID
		}
		return scores[i].ActivityID < scores[j].ActivityID
	})
	s := &Snapshot{
		RefreshedAt: refreshedAt,
		ordered:     scores,
		index:       make(map[pairKey]int, len(scores)),
		users:       make(map[string][2]int),
	}
	for i, sc := range scores {
		s.index[pairKey{sc.UserID, sc.ActivityID}] = i
		r, ok := s.users[sc.UserID]
		if !ok {
			r[0] = i
		}
		r[1] = i + 1
		s.users[sc.UserID] = r
	}
	return s
}

// Len 返回 pair 数。
func (s *Snapshot) Len() int { return len(s.ordered) }

// Get 返回某个 pair 的聚合，不存在（没有任何事件）时 ok=false。
func (s *Snapshot) Get(userID, activityID string) (core.EngagementScore, bool) {
	i, ok := s.index[pairKey{userID, activityID}]
	if !ok {
		return core.EngagementScore{}, false
	}
	return s.ordered[i], true
}

// ForUser 返回用户的全部聚合，按活动 ID 升序。
func (s *Snapshot) ForUser(userID string) []core.EngagementScore {
	r, ok := s.users[userID]
	if !ok {
		return nil
	}
	out := make([]core.EngagementScore, r[1]-r[0])
	copy(out, s.ordered[r[0]:r[1]])
	return out
}

// MarshalJSON 只序列化聚合本身（不含 RefreshedAt），
// 日志不变时两次刷新的输出逐字节相同。
func (s *Snapshot) MarshalJSON() ([]byte, error) {
	if s.ordered == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s.ordered)
}

// Sink 接收刷新结果，按用户批量写出（例如导出给离线 CF 训练）。
type Sink interface {
	Write(ctx context.Context, userID string, scores []core.EngagementScore) error
}

// RefreshReport 描述一次刷新。
type RefreshReport struct {
	Interactions int
	Pairs        int
	Users        int
	RefreshedAt  time.Time
	Duration     time.Duration
	FailedUsers  []string
}

// Aggregator 负责从互动日志重算参与度聚合。
//
// 刷新由调用方显式触发（Refresh）或由调用方启动的调度循环触发（Run），
// 没有隐式的后台状态。刷新期间读者看到的是旧快照，刷新完成后原子切换。
type Aggregator struct {
	log      core.InteractionLog
	sink     Sink
	interval time.Duration
	now      func() time.Time
	logger   zerolog.Logger

	mu   sync.Mutex // 串行化 Refresh
	snap atomic.Pointer[Snapshot]
}

// Option 配置 Aggregator。
type Option func(*Aggregator)

// WithRefreshInterval 设置刷新周期，也是允许的最大陈旧时间。
func WithRefreshInterval(d time.Duration) Option {
	return func(a *Aggregator) {
		if d > 0 {
			a.interval = d
		}
	}
}

// WithSink 设置刷新结果的持久化目标。
func WithSink(s Sink) Option {
	return func(a *Aggregator) { a.sink = s }
}

// WithLogger 设置日志。
func WithLogger(l zerolog.Logger) Option {
	return func(a *Aggregator) { a.logger = l }
}

// WithClock 设置时间来源。
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) { a.now = now }
}

// NewAggregator 创建聚合器，首次 Refresh 前快照为空。
func NewAggregator(log core.InteractionLog, opts ...Option) *Aggregator {
	a := &Aggregator{
		log:      log,
		interval: DefaultRefreshInterval,
		now:      time.Now,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.With().Str("component", "engagement").Logger()
	return a
}

// RefreshInterval 返回配置的刷新周期。
func (a *Aggregator) RefreshInterval() time.Duration { return a.interval }

// Snapshot 返回当前快照，从未刷新过时返回空快照。
func (a *Aggregator) Snapshot() *Snapshot {
	if s := a.snap.Load(); s != nil {
		return s
	}
	return newSnapshot(time.Time{}, nil)
}

// LastRefreshed 返回上次成功刷新的时间，从未刷新时为零值。
func (a *Aggregator) LastRefreshed() time.Time {
	if s := a.snap.Load(); s != nil {
		return s.RefreshedAt
	}
	return time.Time{}
}

// IsStale 判断当前快照是否超过刷新周期。从未刷新视为陈旧。
func (a *Aggregator) IsStale(now time.Time) bool {
	s := a.snap.Load()
	if s == nil {
		return true
	}
	return now.Sub(s.RefreshedAt) > a.interval
}

// Get 从当前快照读取某个 pair 的聚合。
func (a *Aggregator) Get(userID, activityID string) (core.EngagementScore, bool) {
	return a.Snapshot().Get(userID, activityID)
}

// ForUser 从当前快照读取用户的全部聚合。
func (a *Aggregator) ForUser(userID string) []core.EngagementScore {
	return a.Snapshot().ForUser(userID)
}

// Refresh 从完整日志重算所有 pair 并原子替换快照。幂等，可随时调用。
//
// 扫描日志失败时保留旧快照并返回错误。写 Sink 失败按用户隔离：
// 其余用户照常写出，新快照照常发布，失败用户汇总为 UNAVAILABLE 错误返回。
func (a *Aggregator) Refresh(ctx context.Context) (RefreshReport, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	start := time.Now()
	groups := make(map[pairKey][]core.Interaction)
	total := 0
	err := a.log.Scan(ctx, func(in core.Interaction) error {
		k := pairKey{in.UserID, in.ActivityID}
		groups[k] = append(groups[k], in)
		total++
		return nil
	})
	if err != nil {
		metrics.EngagementRefreshes.WithLabelValues("error").Inc()
		a.logger.Error().Err(err).Msg("engagement refresh aborted, keeping previous snapshot")
		return RefreshReport{}, core.NewUnavailableError(core.ModuleEngagement, "scan interaction log", err)
	}

	scores := make([]core.EngagementScore, 0, len(groups))
	for k, ins := range groups {
		scores = append(scores, Compute(k.user, k.activity, ins))
	}
	snap := newSnapshot(a.now(), scores)
	a.snap.Store(snap)

	report := RefreshReport{
		Interactions: total,
		Pairs:        snap.Len(),
		Users:        len(snap.users),
		RefreshedAt:  snap.RefreshedAt,
	}

	sinkErr := a.flush(ctx, snap, &report)

	report.Duration = time.Since(start)
	metrics.EngagementRefreshDuration.Observe(report.Duration.Seconds())
	metrics.EngagementPairs.Set(float64(report.Pairs))
	metrics.EngagementLastRefresh.Set(float64(snap.RefreshedAt.Unix()))
	if sinkErr != nil {
		metrics.EngagementRefreshes.WithLabelValues("partial").Inc()
	} else {
		metrics.EngagementRefreshes.WithLabelValues("ok").Inc()
	}

	a.logger.Info().
		Int("interactions", report.Interactions).
		Int("pairs", report.Pairs).
		Int("users", report.Users).
		Int("failed_users", len(report.FailedUsers)).
		Dur("duration", report.Duration).
		Msg("engagement aggregates refreshed")

	return report, sinkErr
}

func (a *Aggregator) flush(ctx context.Context, snap *Snapshot, report *RefreshReport) error {
	if a.sink == nil {
		return nil
	}
	users := make([]string, 0, len(snap.users))
	for u := range snap.users {
		users = append(users, u)
	}
	sort.Strings(users)

	var errs []error
	for _, u := range users {
		if err := a.sink.Write(ctx, u, snap.ForUser(u)); err != nil {
			a.logger.Warn().Err(err).Str("user_id", u).Msg("engagement sink write failed")
			report.FailedUsers = append(report.FailedUsers, u)
			errs = append(errs, fmt.Errorf("user %s: %w", u, err))
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return core.NewUnavailableError(core.ModuleEngagement,
		fmt.Sprintf("persist engagement for %d of %d users", len(errs), len(users)),
		errors.Join(errs...))
}

// Run 立即刷新一次，之后按刷新周期循环，直到 ctx 结束。
// 单次刷新失败只记日志，不终止循环。
func (a *Aggregator) Run(ctx context.Context) error {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	a.logger.Info().Dur("interval", a.interval).Msg("engagement refresh scheduler started")
	for {
		if _, err := a.Refresh(ctx); err != nil && ctx.Err() == nil {
			a.logger.Error().Err(err).Msg("scheduled engagement refresh failed")
		}
		select {
		case <-ctx.Done():
			a.logger.Info().Msg("engagement refresh scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
