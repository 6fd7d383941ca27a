package core

import (
	"errors"
	"fmt"
)

// DomainError 是领域层的统一错误类型。
//
// 错误分类：
//   - VALIDATION：写入的交互事件不合法（类型未知、评分越界等）
//   - CONFIG：配置错误（权重和为 0、向量维度与配置不一致等）
//   - NOT_FOUND：按 ID 点查不存在的资源（推荐链路中不会出现）
//   - NOT_SUPPORTED / UNAVAILABLE：存储或外部服务层面的失败
//
// 缺失的 Embedding、缺失的画像、空目录、冷启动用户都不是错误。
type DomainError struct {
	Code    string // 错误代码（如 "VALIDATION", "CONFIG"）
	Message string // 错误消息
	Module  string // 模块名称（如 "interaction", "embedding"）
	Err     error  // 底层错误（可选）
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Module, e.Message, e.Err)
	}
	return e.Module + ": " + e.Message
}

func (e *DomainError) Unwrap() error { return e.Err }

// IsDomainError 检查错误链中是否有 DomainError
func IsDomainError(err error) bool {
	return GetDomainError(err) != nil
}

// GetDomainError 获取错误链中的第一个 DomainError，没有则返回 nil
func GetDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return nil
}

// NewDomainError 创建新的领域错误
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
	}
}

// 错误代码常量
const (
	ErrorCodeValidation   = "VALIDATION"    // 输入不合法
	ErrorCodeConfig       = "CONFIG"        // 配置错误
	ErrorCodeNotFound     = "NOT_FOUND"     // 资源不存在
	ErrorCodeNotSupported = "NOT_SUPPORTED" // 操作不支持
	ErrorCodeUnavailable  = "UNAVAILABLE"   // 服务不可用
)

// 模块名称常量
const (
	ModuleStore       = "store"
	ModuleInteraction = "interaction"
	ModuleEngagement  = "engagement"
	ModuleEmbedding   = "embedding"
	ModuleCatalog     = "catalog"
	ModuleScoring     = "scoring"
	ModuleConfig      = "config"
)

// NewValidationError 创建 VALIDATION 错误
func NewValidationError(module, format string, args ...any) *DomainError {
	return NewDomainError(module, ErrorCodeValidation, fmt.Sprintf(format, args...))
}

// NewConfigError 创建 CONFIG 错误
func NewConfigError(module, format string, args ...any) *DomainError {
	return NewDomainError(module, ErrorCodeConfig, fmt.Sprintf(format, args...))
}

// NewNotFoundError 创建 NOT_FOUND 错误
func NewNotFoundError(module, format string, args ...any) *DomainError {
	return NewDomainError(module, ErrorCodeNotFound, fmt.Sprintf(format, args...))
}

// NewUnavailableError 包装底层错误为 UNAVAILABLE
func NewUnavailableError(module, message string, err error) *DomainError {
	return &DomainError{Module: module, Code: ErrorCodeUnavailable, Message: message, Err: err}
}

func hasCode(err error, code string) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == code
	}
	return false
}

// IsValidation 检查错误是否为 VALIDATION
func IsValidation(err error) bool { return hasCode(err, ErrorCodeValidation) }

// IsConfig 检查错误是否为 CONFIG
func IsConfig(err error) bool { return hasCode(err, ErrorCodeConfig) }

// IsNotFound 检查错误是否为 NOT_FOUND
func IsNotFound(err error) bool { return hasCode(err, ErrorCodeNotFound) }

// IsNotSupported 检查错误是否为 NOT_SUPPORTED
func IsNotSupported(err error) bool { return hasCode(err, ErrorCodeNotSupported) }

// IsUnavailable 检查错误是否为 UNAVAILABLE
func IsUnavailable(err error) bool { return hasCode(err, ErrorCodeUnavailable) }
