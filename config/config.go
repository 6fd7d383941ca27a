// Package config 加载 moodrec 的分层配置：结构体默认值 → YAML 文件 → 环境变量。
//
// 环境变量以 MOODREC_ 开头，双下划线表示层级：
//
//	MOODREC_SCORING__WEIGHTS__CF=0.4        → scoring.weights.cf
//	MOODREC_EMBEDDING__BACKEND=sqlite       → embedding.backend
//	MOODREC_SCORING__BLOCKED_ACTIVITIES=a,b → scoring.blocked_activities
package config

import (
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/behuman/moodrec/core"
	"github.com/behuman/moodrec/embedding"
	"github.com/behuman/moodrec/engagement"
	"github.com/behuman/moodrec/pkg/conv"
	"github.com/behuman/moodrec/pkg/dsl"
	"github.com/behuman/moodrec/pkg/logging"
	"github.com/behuman/moodrec/scorer"
	"github.com/behuman/moodrec/store"
)

// EnvPrefix 是环境变量前缀
const EnvPrefix = "MOODREC_"

// PathEnvVar 指定配置文件路径
const PathEnvVar = "MOODREC_CONFIG"

// 后端名称
const (
	BackendNone   = "none"
	BackendKV     = "kv"
	BackendSQLite = "sqlite"
	BackendFeast  = "feast"
	BackendMemory = "memory"
)

// Config 是进程配置。
type Config struct {
	Log         logging.Config    `koanf:"log"`
	Scoring     ScoringConfig     `koanf:"scoring"`
	Store       store.Config      `koanf:"store"`
	Embedding   EmbeddingConfig   `koanf:"embedding"`
	Interaction InteractionConfig `koanf:"interaction"`
	Engagement  EngagementConfig  `koanf:"engagement"`
	Catalog     CatalogConfig     `koanf:"catalog"`
	Metrics     MetricsConfig     `koanf:"metrics"`
}

// ScoringConfig 是混合打分的参数。
type ScoringConfig struct {
	Weights core.Weights  `koanf:"weights"`
	Boosts  scorer.Boosts `koanf:"boosts"`

	Workers      int           `koanf:"workers"`
	DefaultLimit int           `koanf:"default_limit"`
	MaxLimit     int           `koanf:"max_limit"`
	Timeout      time.Duration `koanf:"timeout"`

	// BlockedActivities 全局屏蔽的活动
	BlockedActivities []string `koanf:"blocked_activities"`

	// ExcludeExposed 过滤用户近期已曝光的活动，默认关闭
	ExcludeExposed ExposureConfig `koanf:"exclude_exposed"`

	// Explanations 覆盖默认解释规则，按顺序匹配
	Explanations []dsl.Rule `koanf:"explanations"`
	Fallback     string     `koanf:"fallback"`
}

// ExposureConfig 是已曝光过滤的配置。Types 为空时使用 filter.DefaultExposureTypes。
type ExposureConfig struct {
	Enabled bool          `koanf:"enabled"`
	Types   []string      `koanf:"types"`
	Window  time.Duration `koanf:"window"`
}

// InteractionTypes 返回配置的行为类型。
func (c ExposureConfig) InteractionTypes() []core.InteractionType {
	if len(c.Types) == 0 {
		return nil
	}
	out := make([]core.InteractionType, len(c.Types))
	for i, t := range c.Types {
		out[i] = core.InteractionType(strings.ToLower(strings.TrimSpace(t)))
	}
	return out
}

// RecommendConfig 把打分参数适配为 core.RecommendConfig。
func (c ScoringConfig) RecommendConfig() core.RecommendConfig {
	return recommendConfig{c}
}

type recommendConfig struct{ s ScoringConfig }

func (c recommendConfig) DefaultLimit() int      { return c.s.DefaultLimit }
func (c recommendConfig) MaxLimit() int          { return c.s.MaxLimit }
func (c recommendConfig) Workers() int           { return c.s.Workers }
func (c recommendConfig) Timeout() time.Duration { return c.s.Timeout }

// EmbeddingConfig 选择向量后端。kv 使用 store 段配置的 KV 存储。
type EmbeddingConfig struct {
	Backend    string                `koanf:"backend"`
	Dims       core.EmbeddingSchema  `koanf:"dims"`
	SQLitePath string                `koanf:"sqlite_path"`
	Feast      embedding.FeastConfig `koanf:"feast"`
}

// InteractionConfig 选择互动日志后端。
type InteractionConfig struct {
	Backend    string `koanf:"backend"`
	SQLitePath string `koanf:"sqlite_path"`

	// ValidateActivities 记录时校验活动是否在目录中
	ValidateActivities bool `koanf:"validate_activities"`
}

// EngagementConfig 是参与度聚合的配置。
type EngagementConfig struct {
	RefreshInterval time.Duration `koanf:"refresh_interval"`

	// Sink: none 或 kv（写入 store 段配置的 KV 存储）
	Sink string `koanf:"sink"`
}

// CatalogConfig 指定活动目录与处境知识库文件，处境为空时使用内置知识库。
type CatalogConfig struct {
	Path           string `koanf:"path"`
	SituationsPath string `koanf:"situations_path"`
}

// MetricsConfig 是 /metrics 监听地址，为空时不启动。
type MetricsConfig struct {
	Addr string `koanf:"addr"`
}

// Default 返回默认配置。
func Default() *Config {
	rc := core.DefaultRecommendConfig{}
	return &Config{
		Log: logging.DefaultConfig(),
		Scoring: ScoringConfig{
			Weights:      core.DefaultWeights(),
			Boosts:       scorer.DefaultBoosts(),
			Workers:      rc.Workers(),
			DefaultLimit: rc.DefaultLimit(),
			MaxLimit:     rc.MaxLimit(),
			Timeout:      rc.Timeout(),
			Fallback:     dsl.DefaultFallback,
			ExcludeExposed: ExposureConfig{
				Window: 7 * 24 * time.Hour,
			},
		},
		Store: store.Config{
			Backend: store.BackendMemory,
			Redis:   store.RedisConfig{Addr: "localhost:6379", Prefix: "moodrec:"},
		},
		Embedding: EmbeddingConfig{
			Backend:    BackendKV,
			Dims:       core.DefaultEmbeddingSchema(),
			SQLitePath: "moodrec.db",
			Feast:      embedding.DefaultFeastConfig(),
		},
		Interaction: InteractionConfig{
			Backend:            BackendMemory,
			SQLitePath:         "moodrec.db",
			ValidateActivities: true,
		},
		Engagement: EngagementConfig{
			RefreshInterval: engagement.DefaultRefreshInterval,
			Sink:            BackendNone,
		},
		Metrics: MetricsConfig{Addr: ":9090"},
	}
}

// sliceConfigPaths 是环境变量中以逗号分隔的列表字段
var sliceConfigPaths = []string{
	"scoring.blocked_activities",
	"scoring.exclude_exposed.types",
}

// Load 按 默认值 → 文件 → 环境变量 的顺序加载并校验。
// path 为空时读取 MOODREC_CONFIG；两者都为空时不读文件。
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path == "" {
		path = os.Getenv(PathEnvVar)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	for _, p := range sliceConfigPaths {
		if s, ok := k.Get(p).(string); ok {
			if err := k.Set(p, conv.ToStrings(s)); err != nil {
				return nil, fmt.Errorf("set %s: %w", p, err)
			}
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// envTransform: MOODREC_SCORING__WEIGHTS__CF → scoring.weights.cf
func envTransform(key string) string {
	key = strings.TrimPrefix(key, EnvPrefix)
	if key == "CONFIG" {
		return ""
	}
	return strings.ReplaceAll(strings.ToLower(key), "__", ".")
}

// Validate 检查配置，任何不合法项都返回 CONFIG 错误。
func (c *Config) Validate() error {
	if !logging.ValidLevel(c.Log.Level) {
		return configErr("unknown log level %q", c.Log.Level)
	}
	if f := strings.ToLower(c.Log.Format); f != "" && f != "json" && f != "console" {
		return configErr("unknown log format %q", c.Log.Format)
	}

	if _, err := c.Scoring.Weights.Normalize(); err != nil {
		return err
	}
	b := c.Scoring.Boosts
	for name, v := range map[string]float64{"daypart": b.Daypart, "weekend": b.Weekend, "emotion": b.Emotion} {
		if v < 0 || math.IsNaN(v) {
			return configErr("boost %s must be non-negative, got %v", name, v)
		}
	}
	if c.Scoring.Workers <= 0 {
		return configErr("scoring.workers must be positive, got %d", c.Scoring.Workers)
	}
	if c.Scoring.DefaultLimit <= 0 || c.Scoring.MaxLimit < c.Scoring.DefaultLimit {
		return configErr("scoring limits must satisfy 0 < default_limit <= max_limit, got %d/%d",
			c.Scoring.DefaultLimit, c.Scoring.MaxLimit)
	}
	if c.Scoring.Timeout < 0 {
		return configErr("scoring.timeout must not be negative")
	}
	for _, t := range c.Scoring.ExcludeExposed.InteractionTypes() {
		if !t.Valid() {
			return configErr("unknown interaction type %q in scoring.exclude_exposed.types", t)
		}
	}
	if c.Scoring.ExcludeExposed.Window < 0 {
		return configErr("scoring.exclude_exposed.window must not be negative")
	}

	switch c.Store.Backend {
	case store.BackendMemory, store.BackendRedis, store.BackendBadger:
	default:
		return configErr("unknown store backend %q", c.Store.Backend)
	}
	if c.Store.Backend == store.BackendBadger && c.Store.Badger.Dir == "" && !c.Store.Badger.InMemory {
		return configErr("store.badger.dir is required unless in_memory is set")
	}

	if err := c.Embedding.Dims.Check(); err != nil {
		return err
	}
	switch c.Embedding.Backend {
	case BackendNone, BackendKV:
	case BackendSQLite:
		if c.Embedding.SQLitePath == "" {
			return configErr("embedding.sqlite_path is required")
		}
	case BackendFeast:
		if c.Embedding.Feast.Project == "" {
			return configErr("embedding.feast.project is required")
		}
	default:
		return configErr("unknown embedding backend %q", c.Embedding.Backend)
	}

	switch c.Interaction.Backend {
	case BackendMemory:
	case BackendSQLite:
		if c.Interaction.SQLitePath == "" {
			return configErr("interaction.sqlite_path is required")
		}
	default:
		return configErr("unknown interaction backend %q", c.Interaction.Backend)
	}

	if c.Engagement.RefreshInterval <= 0 {
		return configErr("engagement.refresh_interval must be positive")
	}
	switch c.Engagement.Sink {
	case BackendNone, BackendKV:
	default:
		return configErr("unknown engagement sink %q", c.Engagement.Sink)
	}
	return nil
}

func configErr(format string, args ...any) error {
	return core.NewConfigError(core.ModuleConfig, format, args...)
}
