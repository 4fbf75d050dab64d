package app

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes understood by the HTTP layer.
const (
	EUnauthenticated = "unauthenticated"
	ENotFound        = "not found"
	EForbidden       = "forbidden"
	EInvalid         = "invalid"
	EUploadRejected  = "upload rejected"
	EInternal        = "internal error"
)

// Error carries a code for automated handling, a message safe to show to clients,
// the operation that failed and the wrapped cause.
type Error struct {
	Code string
	Msg  string
	Op   string
	Err  error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	switch {
	case e.Msg != "" && e.Err != nil:
		b.WriteString(e.Msg)
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	case e.Msg != "":
		b.WriteString(e.Msg)
	case e.Err != nil:
		b.WriteString(e.Err.Error())
	default:
		fmt.Fprintf(&b, "<%s>", e.Code)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ErrorCode returns the code of the outermost *Error in the chain, EInternal otherwise.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		if e.Code != "" {
			return e.Code
		}
		if e.Err != nil {
			return ErrorCode(e.Err)
		}
	}
	return EInternal
}

// ErrorMessage returns the client facing message of err, empty for internal errors.
func ErrorMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Code != EInternal {
		if e.Msg != "" {
			return e.Msg
		}
		if e.Err != nil {
			return ErrorMessage(e.Err)
		}
	}
	return ""
}

func IsNotFound(err error) bool {
	return ErrorCode(err) == ENotFound
}

// NotFound reports an absent entity, e.g. NotFound("Aquarium") -> "Aquarium not found".
func NotFound(entity string) *Error {
	return &Error{Code: ENotFound, Msg: entity + " not found"}
}

func Forbidden() *Error {
	return &Error{Code: EForbidden, Msg: "Forbidden"}
}

// EmailNotVerified refuses to hand an existing account to a caller whose email
// address was not verified by the identity provider.
func EmailNotVerified() *Error {
	return &Error{Code: EForbidden, Msg: "Email address must be verified to access this account"}
}

func Unauthenticated(msg string) *Error {
	return &Error{Code: EUnauthenticated, Msg: msg}
}

func Invalid(msg string) *Error {
	return &Error{Code: EInvalid, Msg: msg}
}

func UploadRejected(msg string) *Error {
	return &Error{Code: EUploadRejected, Msg: msg}
}

func Internal(op string, err error) *Error {
	return &Error{Code: EInternal, Op: op, Err: err}
}
