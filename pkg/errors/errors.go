package errors

import "errors"

// Kind 业务错误分类，决定对外的 HTTP 状态码
type Kind int

const (
	KindUnexpected Kind = iota
	KindNotFound
	KindForbidden
	KindInvalidState
	KindConflict
	KindValidation
	KindUnauthorized
)

// String 返回错误分类名称
func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindInvalidState:
		return "invalid_state"
	case KindConflict:
		return "conflict"
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	default:
		return "unexpected"
	}
}

// Error 带分类与业务码的错误。
// 各模块以包级变量声明哨兵错误，调用方用 errors.Is 比较。
type Error struct {
	Kind    Kind
	Code    int
	Message string
}

func (e *Error) Error() string { return e.Message }

// New 创建业务错误
func New(kind Kind, code int, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// As 提取链路上的业务错误
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf 返回错误分类；非业务错误一律视为 Unexpected
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return KindUnexpected
}

// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
var ErrOptimisticLock = New(KindConflict, 10006, "数据已被其他操作修改，请刷新后重试")
