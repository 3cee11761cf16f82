package errors

import (
	"errors"
	"fmt"
)

type ErrorType string

const (
	ErrorTypeNotFound           ErrorType = "NOT_FOUND"
	ErrorTypeFileNotFound       ErrorType = "FILE_NOT_FOUND"
	ErrorTypeCorruptHistory     ErrorType = "CORRUPT_HISTORY"
	ErrorTypeAlreadyInitialized ErrorType = "ALREADY_INITIALIZED"
	ErrorTypeNothingToCommit    ErrorType = "NOTHING_TO_COMMIT"
)

type Error struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches by type so callers can use errors.Is against any
// constructor value regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Type == e.Type
}

func NotFound(format string, args ...any) *Error {
	return &Error{
		Type:    ErrorTypeNotFound,
		Message: fmt.Sprintf(format, args...),
	}
}

func FileNotFound(format string, args ...any) *Error {
	return &Error{
		Type:    ErrorTypeFileNotFound,
		Message: fmt.Sprintf(format, args...),
	}
}

func CorruptHistory(format string, args ...any) *Error {
	return &Error{
		Type:    ErrorTypeCorruptHistory,
		Message: fmt.Sprintf(format, args...),
	}
}

func AlreadyInitialized(format string, args ...any) *Error {
	return &Error{
		Type:    ErrorTypeAlreadyInitialized,
		Message: fmt.Sprintf(format, args...),
	}
}

func NothingToCommit(format string, args ...any) *Error {
	return &Error{
		Type:    ErrorTypeNothingToCommit,
		Message: fmt.Sprintf(format, args...),
	}
}

// IsType reports whether err carries the given error type anywhere in
// its chain.
func IsType(err error, t ErrorType) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Type == t
	}
	return false
}
