package core

import "errors"

// 错误代码。封闭集合：调用方只对这些代码做分支。
const (
	ErrorCodeNotFound      = "NOT_FOUND"      // 资源不存在（商品、缓存 key、相似度记录）
	ErrorCodeNotSupported  = "NOT_SUPPORTED"  // 后端不支持该操作（如内存 KV 的高级命令）
	ErrorCodeUnavailable   = "UNAVAILABLE"    // 依赖不可用（Redis/Postgres/Feast 连不上）
	ErrorCodeInvalidInput  = "INVALID_INPUT"  // 调用方输入不合法（未知交互类型等）
	ErrorCodeInternalError = "INTERNAL_ERROR" // 其余内部错误
)

// 模块名。打进 DomainError 便于日志按来源聚合。
const (
	ModuleStore     = "store"
	ModuleCatalog   = "catalog"
	ModuleStrategy  = "strategy"
	ModuleCache     = "cache"
	ModuleEngine    = "engine"
	ModuleTelemetry = "telemetry"
)

// DomainError 是领域层的统一错误：模块 + 代码 + 消息。
// 打分链路的降级决策（miss 当空、失败放行）都基于 Code 判断，
// 所以领域错误必须带代码而不是裸字符串。
type DomainError struct {
	Module  string
	Code    string
	Message string
}

func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{Module: module, Code: code, Message: message}
}

func (e *DomainError) Error() string { return e.Message }

// GetDomainError 从错误链中取出 DomainError，没有则返回 nil。
func GetDomainError(err error) *DomainError {
	var de *DomainError
	if errors.As(err, &de) {
		return de
	}
	return nil
}

func hasCode(err error, code string) bool {
	de := GetDomainError(err)
	return de != nil && de.Code == code
}

// IsNotFound 判断是否为资源不存在。
func IsNotFound(err error) bool { return hasCode(err, ErrorCodeNotFound) }

// IsNotSupported 判断是否为操作不支持。
func IsNotSupported(err error) bool { return hasCode(err, ErrorCodeNotSupported) }

// IsUnavailable 判断是否为依赖不可用。
func IsUnavailable(err error) bool { return hasCode(err, ErrorCodeUnavailable) }
