package errutil

import (
	"errors"
	"net/http"
)

type ErrorCode uint32

const (
	CodeOK ErrorCode = iota
	CodeValidation
	CodeNotFound
	CodeConflict
	CodeUnauthorized
	CodeBadRequest
	CodeInternal
)

type Error struct {
	Code ErrorCode
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(code ErrorCode, err error) *Error {
	return &Error{Code: code, Err: err}
}

func ValidationError(err error) error {
	return newError(CodeValidation, err)
}

func NotFoundError(err error) error {
	return newError(CodeNotFound, err)
}

func ConflictError(err error) error {
	return newError(CodeConflict, err)
}

func UnauthorizedError(err error) error {
	return newError(CodeUnauthorized, err)
}

func BadRequestError(err error) error {
	return newError(CodeBadRequest, err)
}

func InternalError(err error) error {
	return newError(CodeInternal, err)
}

// ParseHttpError maps an error to an HTTP status code and message.
// Unwrapped errors are treated as internal.
func ParseHttpError(err error) (int, string) {
	if err == nil {
		return http.StatusOK, ""
	}

	var e *Error
	if !errors.As(err, &e) {
		return http.StatusInternalServerError, err.Error()
	}

	switch e.Code {
	case CodeValidation, CodeBadRequest:
		return http.StatusBadRequest, e.Error()
	case CodeNotFound:
		return http.StatusNotFound, e.Error()
	case CodeConflict:
		return http.StatusConflict, e.Error()
	case CodeUnauthorized:
		return http.StatusUnauthorized, e.Error()
	default:
		return http.StatusInternalServerError, e.Error()
	}
}
