package util

import (
	"errors"
	"fmt"
)

// ErrorKind 是引擎对外的错误种类闭集，API 层按种类映射 HTTP 状态，
// 不做错误消息字符串匹配。
type ErrorKind string

const (
	KindNotFound      ErrorKind = "not_found"
	KindForbidden     ErrorKind = "forbidden"
	KindQuotaExceeded ErrorKind = "quota_exceeded"
	KindConflict      ErrorKind = "conflict"
	KindTimeExpired   ErrorKind = "time_expired"
	KindValidation    ErrorKind = "validation"
	KindInternal      ErrorKind = "internal"
)

// AppError 携带错误种类和展示消息。消息只是展示层内容，判定一律走 Kind。
type AppError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is 让 errors.Is 按种类匹配哨兵值。
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && (t.Message == "" || t.Message == e.Message)
}

var (
	ErrExamNotFound     = &AppError{Kind: KindNotFound, Message: "exam not found"}
	ErrAttemptNotFound  = &AppError{Kind: KindNotFound, Message: "attempt not found"}
	ErrQuestionNotFound = &AppError{Kind: KindNotFound, Message: "question not found"}
	ErrAnswerNotFound   = &AppError{Kind: KindNotFound, Message: "answer not found"}

	ErrExamNotAccessible = &AppError{Kind: KindForbidden, Message: "exam inactive or not public"}

	ErrAttemptLimitReached = &AppError{Kind: KindQuotaExceeded, Message: "attempt limit reached"}

	ErrAttemptCompleted    = &AppError{Kind: KindConflict, Message: "attempt already completed"}
	ErrAttemptNotCompleted = &AppError{Kind: KindConflict, Message: "attempt not completed"}

	ErrTimeExpired = &AppError{Kind: KindTimeExpired, Message: "time limit expired"}
)

// ValidationErr 构造带消息的校验错误。
func ValidationErr(format string, args ...interface{}) *AppError {
	return &AppError{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// InternalErr 包装底层错误（数据库、序列化等）。
func InternalErr(err error) *AppError {
	return &AppError{Kind: KindInternal, Message: "internal error", Err: err}
}

// KindOf 提取错误种类，非 AppError 一律视为 internal。
func KindOf(err error) ErrorKind {
	var e *AppError
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
