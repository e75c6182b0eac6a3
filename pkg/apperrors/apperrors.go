// Package apperrors 定义引擎统一的错误分类。
//
// 所有业务服务返回的错误都归入五类之一：
//   - Validation      输入不合法，未产生任何副作用
//   - NotFound        引用的实体不存在
//   - Conflict        容量超限 / 时间地点冲突 / 重复操作
//   - StateTransition 当前状态下不允许该操作
//   - Internal        存储或基础设施故障
//
// 错误消息面向最终用户，需携带足够细节（冲突课程名、容量数字等）。
package apperrors

import (
	"errors"
	"fmt"
)

// Kind 错误类别
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindStateTransition
)

// String 类别名称（日志用）
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindStateTransition:
		return "state_transition"
	default:
		return "internal"
	}
}

// Error 带类别的业务错误
type Error struct {
	Kind Kind
	Msg  string
	Err  error // 可选的底层错误
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is 支持 errors.Is 按哨兵错误匹配：类别与消息都相同视为同一错误
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind && e.Msg == t.Msg
}

// ── 构造函数 ──

// Validation 输入校验错误
func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

// NotFound 实体不存在
func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

// Conflict 资源冲突
func Conflict(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Msg: fmt.Sprintf(format, args...)}
}

// StateTransition 状态机不允许的操作
func StateTransition(format string, args ...any) *Error {
	return &Error{Kind: KindStateTransition, Msg: fmt.Sprintf(format, args...)}
}

// Internal 基础设施错误（包装底层错误）
func Internal(msg string, err error) *Error {
	return &Error{Kind: KindInternal, Msg: msg, Err: err}
}

// KindOf 返回错误类别；非 *Error 一律视为 Internal
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
