package services

import (
	"github.com/juju/errors"
)

// ErrCatalogUnavailable 外部书目源不可用
const ErrCatalogUnavailable = errors.ConstError("catalog provider unavailable")

// Error 业务错误，Message 直接返回给前端
type Error struct {
	kind    errors.ConstError
	Message string
	Fields  map[string]string
}

func (e *Error) Error() string {
	return e.Message
}

// Is 与 juju/errors 的错误类型匹配，例如 errors.Is(err, errors.NotFound)
func (e *Error) Is(target error) bool {
	kind, ok := target.(errors.ConstError)
	return ok && kind == e.kind
}

// MessageOf 取出业务错误消息
func MessageOf(err error) (string, map[string]string, bool) {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Message, svcErr.Fields, true
	}
	return "", nil, false
}

func newValidationError(fields map[string]string) error {
	return &Error{kind: errors.NotValid, Message: "Invalid input", Fields: fields}
}

func newValidationMessage(message string) error {
	return &Error{kind: errors.NotValid, Message: message}
}

func newNotFound(message string) error {
	return &Error{kind: errors.NotFound, Message: message}
}

func newForbidden(message string) error {
	return &Error{kind: errors.Forbidden, Message: message}
}

func newUnauthorized(message string) error {
	return &Error{kind: errors.Unauthorized, Message: message}
}

func newTooManyRequests(message string) error {
	return &Error{kind: errors.QuotaLimitExceeded, Message: message}
}
