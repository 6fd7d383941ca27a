package embedding

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	feastsdk "github.com/feast-dev/feast/sdk/go"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/behuman/moodrec/core"
	"github.com/behuman/moodrec/metrics"
)

// FeatureRefs 是某类 owner 在 Feast 中的特征引用（"feature_table:feature"）。
// 为空的引用不请求，对应种类视为缺失。
type FeatureRefs struct {
	CF         string `koanf:"cf"`
	Descriptor string `koanf:"descriptor"`
	Tokens     string `koanf:"tokens"`
}

func (r FeatureRefs) list() []string {
	var out []string
	for _, f := range []string{r.CF, r.Descriptor, r.Tokens} {
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

// FeastConfig 是 Feast 在线特征服务的配置。
type FeastConfig struct {
	Host    string `koanf:"host"`
	Port    int    `koanf:"port"`
	Project string `koanf:"project"`

	UserEntity       string      `koanf:"user_entity"`
	ActivityEntity   string      `koanf:"activity_entity"`
	UserFeatures     FeatureRefs `koanf:"user_features"`
	ActivityFeatures FeatureRefs `koanf:"activity_features"`

	// Timeout 单次请求超时
	Timeout time.Duration `koanf:"timeout"`

	// RatePerSecond 客户端限流，<=0 表示不限流
	RatePerSecond float64 `koanf:"rate_per_second"`
	Burst         int     `koanf:"burst"`

	// FailureThreshold 连续失败多少次后熔断；BreakerTimeout 熔断多久后半开
	FailureThreshold uint32        `koanf:"failure_threshold"`
	BreakerTimeout   time.Duration `koanf:"breaker_timeout"`
}

// DefaultFeastConfig 返回默认配置。
func DefaultFeastConfig() FeastConfig {
	return FeastConfig{
		Host:           "localhost",
		Port:           6566,
		UserEntity:     "user_id",
		ActivityEntity: "activity_id",
		UserFeatures: FeatureRefs{
			CF:         "user_embeddings:cf_vector",
			Descriptor: "user_embeddings:descriptor_vector",
			Tokens:     "user_embeddings:descriptor_tokens",
		},
		ActivityFeatures: FeatureRefs{
			CF:         "activity_embeddings:cf_vector",
			Descriptor: "activity_embeddings:descriptor_vector",
			Tokens:     "activity_embeddings:descriptor_tokens",
		},
		Timeout:          500 * time.Millisecond,
		RatePerSecond:    200,
		Burst:            50,
		FailureThreshold: 5,
		BreakerTimeout:   10 * time.Second,
	}
}

// RowSource 返回在线特征行，每个实体一行。
type RowSource interface {
	OnlineRows(ctx context.Context, req *feastsdk.OnlineFeaturesRequest) ([]feastsdk.Row, error)
}

// GrpcRowSource 把 Feast gRPC 客户端适配为 RowSource。
type GrpcRowSource struct {
	Client *feastsdk.GrpcClient
}

func (s GrpcRowSource) OnlineRows(ctx context.Context, req *feastsdk.OnlineFeaturesRequest) ([]feastsdk.Row, error) {
	resp, err := s.Client.GetOnlineFeatures(ctx, req)
	if err != nil {
		return nil, err
	}
	return resp.Rows(), nil
}

// Close 关闭底层 gRPC 连接。
func (s GrpcRowSource) Close() error {
	if s.Client == nil {
		return nil
	}
	return s.Client.Close()
}

// FeastStore 从 Feast 在线特征服务读取向量，只读。
// 请求经过限流与熔断；熔断打开时快速失败并返回 UNAVAILABLE。
type FeastStore struct {
	cfg     FeastConfig
	schema  core.EmbeddingSchema
	source  RowSource
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[[]feastsdk.Row]
	logger  zerolog.Logger
}

// DialFeast 连接 Feast gRPC 服务。
func DialFeast(cfg FeastConfig, schema core.EmbeddingSchema, logger zerolog.Logger) (*FeastStore, error) {
	client, err := feastsdk.NewGrpcClient(cfg.Host, cfg.Port)
	if err != nil {
		return nil, core.NewUnavailableError(core.ModuleEmbedding, fmt.Sprintf("dial feast %s:%d", cfg.Host, cfg.Port), err)
	}
	return NewFeastStore(cfg, schema, GrpcRowSource{Client: client}, logger)
}

// NewFeastStore 使用给定的 RowSource 创建存储。
func NewFeastStore(cfg FeastConfig, schema core.EmbeddingSchema, source RowSource, logger zerolog.Logger) (*FeastStore, error) {
	if err := schema.Check(); err != nil {
		return nil, err
	}
	if cfg.Project == "" {
		return nil, core.NewConfigError(core.ModuleEmbedding, "feast project is required")
	}
	if cfg.UserEntity == "" || cfg.ActivityEntity == "" {
		return nil, core.NewConfigError(core.ModuleEmbedding, "feast entity names are required")
	}

	s := &FeastStore{
		cfg:    cfg,
		schema: schema,
		source: source,
		logger: logger.With().Str("component", "embedding.feast").Logger(),
	}
	if cfg.RatePerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), burst)
	}

	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}
	name := "feast:" + cfg.Project
	s.breaker = gobreaker.NewCircuitBreaker[[]feastsdk.Row](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.EmbeddingBreakerState.WithLabelValues(name).Set(float64(to))
			s.logger.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("feast circuit breaker state changed")
		},
	})
	return s, nil
}

var _ core.EmbeddingReader = (*FeastStore)(nil)

// Close 关闭 RowSource（若其实现了 io.Closer）。
func (s *FeastStore) Close() error {
	if c, ok := s.source.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (s *FeastStore) UserEmbedding(ctx context.Context, userID string) (*core.Embedding, error) {
	e, err := s.get(ctx, core.OwnerUser, s.cfg.UserEntity, s.cfg.UserFeatures, userID)
	return observe("feast", core.OwnerUser, e, err)
}

func (s *FeastStore) ActivityEmbedding(ctx context.Context, activityID string) (*core.Embedding, error) {
	e, err := s.get(ctx, core.OwnerActivity, s.cfg.ActivityEntity, s.cfg.ActivityFeatures, activityID)
	return observe("feast", core.OwnerActivity, e, err)
}

func (s *FeastStore) get(ctx context.Context, owner core.EmbeddingOwner, entity string, refs FeatureRefs, id string) (*core.Embedding, error) {
	features := refs.list()
	if id == "" || len(features) == 0 {
		return nil, nil
	}

	req := &feastsdk.OnlineFeaturesRequest{
		Features: features,
		Entities: []feastsdk.Row{{entity: feastsdk.StrVal(id)}},
		Project:  s.cfg.Project,
	}
	rows, err := s.breaker.Execute(func() ([]feastsdk.Row, error) {
		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}
		callCtx := ctx
		if s.cfg.Timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
			defer cancel()
		}
		return s.source.OnlineRows(callCtx, req)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, core.NewUnavailableError(core.ModuleEmbedding, "feast circuit open", err)
		}
		return nil, core.NewUnavailableError(core.ModuleEmbedding, fmt.Sprintf("feast %s embedding %q", owner, id), err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	e := rowToEmbedding(rows[0], refs, id)
	if e == nil {
		return nil, nil
	}
	if err := s.schema.Validate(owner, e); err != nil {
		return nil, err
	}
	return e, nil
}

// rowToEmbedding 从特征行提取向量，三类特征都缺失时返回 nil。
// 向量兼容 double_list 与 float_list 两种存储类型。
func rowToEmbedding(row feastsdk.Row, refs FeatureRefs, id string) *core.Embedding {
	e := &core.Embedding{OwnerID: id}
	if refs.CF != "" {
		e.CF = vectorValue(row, refs.CF)
	}
	if refs.Descriptor != "" {
		e.Descriptor = vectorValue(row, refs.Descriptor)
	}
	if refs.Tokens != "" {
		if v := row[refs.Tokens]; v != nil {
			e.DescriptorTokens = v.GetStringListVal().GetVal()
		}
	}
	if len(e.CF) == 0 && len(e.Descriptor) == 0 && len(e.DescriptorTokens) == 0 {
		return nil
	}
	return e
}

func vectorValue(row feastsdk.Row, ref string) []float64 {
	v := row[ref]
	if v == nil {
		return nil
	}
	if d := v.GetDoubleListVal().GetVal(); len(d) > 0 {
		return d
	}
	f := v.GetFloatListVal().GetVal()
	if len(f) == 0 {
		return nil
	}
	out := make([]float64, len(f))
	for i, x := range f {
		out[i] = float64(x)
	}
	return out
}
