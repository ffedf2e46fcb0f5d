package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code for stable testing
type ErrorCode string

// Error codes for different error categories
const (
	// General errors
	ErrUnknown      ErrorCode = "UNKNOWN"
	ErrInternal     ErrorCode = "INTERNAL"
	ErrInvalidInput ErrorCode = "INVALID_INPUT"
	ErrNotFound     ErrorCode = "NOT_FOUND"

	// Manifest errors
	ErrInvalidManifest ErrorCode = "INVALID_MANIFEST"
	ErrInvalidJSON     ErrorCode = "INVALID_JSON"

	// Source errors
	ErrFetch       ErrorCode = "FETCH_ERROR"
	ErrRateLimited ErrorCode = "RATE_LIMITED"

	// Install errors
	ErrConflict           ErrorCode = "CONFLICT"
	ErrMissingDependency  ErrorCode = "MISSING_DEPENDENCY"
	ErrCircularDependency ErrorCode = "CIRCULAR_DEPENDENCY"
	ErrNotInstalled       ErrorCode = "NOT_INSTALLED"

	// Configuration errors
	ErrConfigLoad  ErrorCode = "CONFIG_LOAD"
	ErrConfigParse ErrorCode = "CONFIG_PARSE"

	// FileSystem errors
	ErrFileNotFound   ErrorCode = "FILE_NOT_FOUND"
	ErrPermissionOrIO ErrorCode = "PERMISSION_OR_IO"
)

// ZccError represents a structured error with code and details
type ZccError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

// Error implements the error interface
func (e *ZccError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *ZccError) Unwrap() error {
	return e.Wrapped
}

// Is implements errors.Is interface
func (e *ZccError) Is(target error) bool {
	var targetErr *ZccError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates a new ZccError with the given code and message
func New(code ErrorCode, message string) *ZccError {
	return &ZccError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a new ZccError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *ZccError {
	return &ZccError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with a ZccError
func Wrap(err error, code ErrorCode, message string) *ZccError {
	if err == nil {
		return nil
	}
	return &ZccError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *ZccError {
	if err == nil {
		return nil
	}
	return &ZccError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// WithDetail adds a detail to the error
func (e *ZccError) WithDetail(key string, value interface{}) *ZccError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithDetails adds multiple details to the error
func (e *ZccError) WithDetails(details map[string]interface{}) *ZccError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// IsErrorCode checks if an error has a specific error code
func IsErrorCode(err error, code ErrorCode) bool {
	var zccErr *ZccError
	if errors.As(err, &zccErr) {
		return zccErr.Code == code
	}
	return false
}

// GetErrorCode returns the error code from an error, or ErrUnknown if not a ZccError
func GetErrorCode(err error) ErrorCode {
	var zccErr *ZccError
	if errors.As(err, &zccErr) {
		return zccErr.Code
	}
	return ErrUnknown
}

// GetErrorDetails returns the details from an error, or nil if not a ZccError
func GetErrorDetails(err error) map[string]interface{} {
	var zccErr *ZccError
	if errors.As(err, &zccErr) {
		return zccErr.Details
	}
	return nil
}

// IsNotFound reports whether err means "absent": a pack, component or file
// that does not exist.
func IsNotFound(err error) bool {
	switch GetErrorCode(err) {
	case ErrNotFound, ErrFileNotFound:
		return true
	}
	return false
}

// IsFetchError reports whether err is a network, HTTP or API failure,
// rate limiting included.
func IsFetchError(err error) bool {
	switch GetErrorCode(err) {
	case ErrFetch, ErrRateLimited:
		return true
	}
	return false
}
