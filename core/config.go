package core

import "time"

// RecommendConfig 提供推荐链路的默认参数。
type RecommendConfig interface {
	// DefaultLimit 请求未指定 Limit 时的返回条数
	DefaultLimit() int

	// MaxLimit 单次请求的最大返回条数
	MaxLimit() int

	// Workers 并发打分的最大协程数
	Workers() int

	// Timeout 单次请求超时
	Timeout() time.Duration
}

// DefaultRecommendConfig 是默认的推荐配置实现。
type DefaultRecommendConfig struct{}

func (c *DefaultRecommendConfig) DefaultLimit() int { return 10 }

func (c *DefaultRecommendConfig) MaxLimit() int { return 100 }

func (c *DefaultRecommendConfig) Workers() int { return 8 }

func (c *DefaultRecommendConfig) Timeout() time.Duration { return 2 * time.Second }
