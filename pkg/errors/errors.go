package errors

import (
	"errors"
	"strings"
)

// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
var ErrOptimisticLock = errors.New("数据已被其他操作修改，请刷新后重试")

// Kind 对外暴露的错误类别标签
type Kind string

const (
	KindValidation         Kind = "ValidationError"
	KindInvalidRecurrence  Kind = "InvalidRecurrence"
	KindSchedulingConflict Kind = "SchedulingConflict"
	KindNotFound           Kind = "NotFound"
	KindForbidden          Kind = "Forbidden"
	KindPersistence        Kind = "PersistenceFailure"
)

// Kinded 由携带类别标签的错误实现
type Kinded interface {
	error
	Kind() Kind
}

// KindOf 返回错误的类别；未标注类别的错误一律视为存储层失败
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var k Kinded
	if errors.As(err, &k) {
		return k.Kind()
	}
	return KindPersistence
}

// Error 带类别标签的业务错误，可作为模块哨兵错误使用
type Error struct {
	kind    Kind
	message string
	err     error
}

// New 创建带类别的错误
func New(kind Kind, message string) *Error {
	return &Error{kind: kind, message: message}
}

// Wrap 包装底层错误并标注类别
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{kind: kind, message: message, err: err}
}

func (e *Error) Error() string {
	if e.err != nil {
		return e.message + ": " + e.err.Error()
	}
	return e.message
}

func (e *Error) Unwrap() error { return e.err }

func (e *Error) Kind() Kind { return e.kind }

// Message 返回不含底层错误细节的提示文案
func (e *Error) Message() string { return e.message }

// ── 字段校验错误 ──

// FieldViolation 单个字段的校验失败
type FieldViolation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError 汇总所有字段错误，而不是只报告第一个
type ValidationError struct {
	kind   Kind
	Fields []FieldViolation
}

// NewValidationError 创建 ValidationError
func NewValidationError(fields ...FieldViolation) *ValidationError {
	return &ValidationError{kind: KindValidation, Fields: fields}
}

// NewInvalidRecurrence 创建 InvalidRecurrence（同样列出全部字段）
func NewInvalidRecurrence(fields ...FieldViolation) *ValidationError {
	return &ValidationError{kind: KindInvalidRecurrence, Fields: fields}
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	prefix := "参数校验失败"
	if e.kind == KindInvalidRecurrence {
		prefix = "重复规则无效"
	}
	if len(parts) == 0 {
		return prefix
	}
	return prefix + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Kind() Kind { return e.kind }

// Violations 字段错误收集器
type Violations []FieldViolation

// Add 追加一条字段错误
func (v *Violations) Add(field, message string) {
	*v = append(*v, FieldViolation{Field: field, Message: message})
}

// Empty 是否没有任何错误
func (v Violations) Empty() bool { return len(v) == 0 }

// Err 无错误时返回 nil，否则返回 ValidationError
func (v Violations) Err() error {
	if len(v) == 0 {
		return nil
	}
	return NewValidationError(v...)
}
