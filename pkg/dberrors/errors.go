// Package dberrors provides structured error handling for pgscope with typed
// categories, key-value context and stack traces captured at creation.
//
// # Error Types
//
// Every failure the access layer surfaces belongs to one category:
//
//   - ErrorTypePoolExhausted: no connection became available in time
//   - ErrorTypeConnection: a backend connection could not be established or died
//   - ErrorTypeInvalidIdentifier: a schema identifier failed validation
//   - ErrorTypeQuery: the backend rejected or failed to execute a statement
//   - ErrorTypeDecode: a column value could not be converted to the expected type
//
// ErrorTypeConfig and ErrorTypeInternal cover configuration loading and
// programming errors outside the query path.
//
// # Basic Usage
//
//	rows, err := conn.Query(ctx, sql, args...)
//	if err != nil {
//	    return dberrors.Wrap(err, dberrors.ErrorTypeQuery, "query failed").
//	        WithDetail("sql", sql)
//	}
//
// Categories are matched with IsType, or with errors.Is against the sentinel
// values (ErrPoolExhausted, ErrQuery, ...):
//
//	if errors.Is(err, dberrors.ErrPoolExhausted) {
//	    // back off
//	}
//
// # Thread Safety
//
// Error instances are not safe for concurrent modification. Finish adding
// details before sharing an error across goroutines.
package dberrors

import (
	"errors"
	"fmt"
	"runtime"
)

// ErrorType represents the category of an error.
type ErrorType string

const (
	// ErrorTypePoolExhausted means no connection became available within the wait policy
	ErrorTypePoolExhausted ErrorType = "pool_exhausted"
	// ErrorTypeConnection means a connection could not be established or died irrecoverably
	ErrorTypeConnection ErrorType = "connection"
	// ErrorTypeInvalidIdentifier means a schema identifier was rejected
	ErrorTypeInvalidIdentifier ErrorType = "invalid_identifier"
	// ErrorTypeQuery means the backend rejected or failed to execute a statement
	ErrorTypeQuery ErrorType = "query"
	// ErrorTypeDecode means a column value could not be converted to the expected type
	ErrorTypeDecode ErrorType = "decode"
	// ErrorTypeConfig represents configuration errors
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeInternal represents internal errors
	ErrorTypeInternal ErrorType = "internal"
)

// Sentinels for errors.Is. They compare equal to any *Error of the same type.
var (
	ErrPoolExhausted     = &Error{Type: ErrorTypePoolExhausted, Message: "pool exhausted"}
	ErrConnection        = &Error{Type: ErrorTypeConnection, Message: "connection error"}
	ErrInvalidIdentifier = &Error{Type: ErrorTypeInvalidIdentifier, Message: "invalid identifier"}
	ErrQuery             = &Error{Type: ErrorTypeQuery, Message: "query error"}
	ErrDecode            = &Error{Type: ErrorTypeDecode, Message: "decode error"}
)

// Error is a structured error carrying a category, a message, an optional
// cause, free-form details and the call stack at creation.
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
	Details map[string]interface{}
	Stack   []StackFrame
}

// StackFrame is a single frame of a captured call stack.
type StackFrame struct {
	Function string
	File     string
	Line     int
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error of the same type. This makes the
// package sentinels usable with errors.Is regardless of message or cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// WithDetail adds a key-value detail to the error. Calls can be chained.
//
// Example:
//
//	err := dberrors.New(dberrors.ErrorTypeDecode, "unexpected NULL").
//	    WithDetail("column", 2).
//	    WithDetail("want", "int64")
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// Detail returns the detail stored under key, if any.
func (e *Error) Detail(key string) (interface{}, bool) {
	v, ok := e.Details[key]
	return v, ok
}

// New creates a new error of the given type, capturing the call stack.
func New(errType ErrorType, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Stack:   captureStack(2),
	}
}

// Newf is New with a formatted message.
func Newf(errType ErrorType, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
		Stack:   captureStack(2),
	}
}

// Wrap wraps err with a type and message, preserving it as the cause. If err
// is already an *Error its stack is kept. Returns nil if err is nil.
//
// Example:
//
//	conn, err := pgx.ConnectConfig(ctx, cfg)
//	if err != nil {
//	    return nil, dberrors.Wrap(err, dberrors.ErrorTypeConnection, "failed to connect").
//	        WithDetail("host", cfg.Host)
//	}
func Wrap(err error, errType ErrorType, message string) *Error {
	if err == nil {
		return nil
	}

	var existingErr *Error
	if errors.As(err, &existingErr) {
		return &Error{
			Type:    errType,
			Message: message,
			Cause:   err,
			Stack:   existingErr.Stack,
		}
	}

	return &Error{
		Type:    errType,
		Message: message,
		Cause:   err,
		Stack:   captureStack(2),
	}
}

// IsType reports whether the outermost *Error in err's chain has the given type.
func IsType(err error, errType ErrorType) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Type == errType
}

// TypeOf returns the type of the outermost *Error in err's chain, or
// ErrorTypeInternal when err carries no category.
func TypeOf(err error) ErrorType {
	var e *Error
	if !errors.As(err, &e) {
		return ErrorTypeInternal
	}
	return e.Type
}

// captureStack records up to 32 frames, skipping the given number from the top.
func captureStack(skip int) []StackFrame {
	const maxFrames = 32
	frames := make([]StackFrame, 0, maxFrames)

	for i := skip; i < maxFrames+skip; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}

		fn := runtime.FuncForPC(pc)
		if fn == nil {
			continue
		}

		frames = append(frames, StackFrame{
			Function: fn.Name(),
			File:     file,
			Line:     line,
		})
	}

	return frames
}
