// internal/engine/errors.go
package engine

import (
	"errors"
	"fmt"
)

// Common engine errors
var (
	ErrBrowserNotFound = errors.New("chrome browser not found")
	ErrBrowserClosed   = errors.New("browser session closed")
	ErrMissingField    = errors.New("mandatory field not found")
)

// ErrorCode represents a specific error condition
type ErrorCode string

const (
	ErrCodeLaunch      ErrorCode = "LAUNCH"
	ErrCodeNavigation  ErrorCode = "NAVIGATION"
	ErrCodeTimeout     ErrorCode = "TIMEOUT"
	ErrCodeExtraction  ErrorCode = "EXTRACTION"
	ErrCodePersistence ErrorCode = "PERSISTENCE"
)

// Sentinels for errors.Is matching by code
var (
	ErrLaunch      = &Error{Code: ErrCodeLaunch}
	ErrNavigation  = &Error{Code: ErrCodeNavigation}
	ErrTimeout     = &Error{Code: ErrCodeTimeout}
	ErrExtraction  = &Error{Code: ErrCodeExtraction}
	ErrPersistence = &Error{Code: ErrCodePersistence}
)

// Error wraps errors with additional context
type Error struct {
	Code       ErrorCode
	Message    string
	URL        string
	StatusCode int
	Underlying error
	Retry      bool
}

// Error implements the error interface
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.URL != "" {
		msg += " (" + e.URL + ")"
	}
	if e.Underlying != nil {
		msg += ": " + e.Underlying.Error()
	}
	return msg
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Underlying
}

// Is checks if the error matches the target
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// Fatal reports whether the error must abort the whole run
func (e *Error) Fatal() bool {
	return e.Code == ErrCodeLaunch || e.Code == ErrCodePersistence
}

// GetStatusCode returns the HTTP status of a failed navigation, or 0
func (e *Error) GetStatusCode() int {
	return e.StatusCode
}

// LaunchError reports a browser that could not be started
func LaunchError(message string, err error) *Error {
	return &Error{Code: ErrCodeLaunch, Message: message, Underlying: err}
}

// NavigationError reports a failed page load. Network failures are retryable.
func NavigationError(url, message string, err error) *Error {
	return &Error{Code: ErrCodeNavigation, Message: message, URL: url, Underlying: err, Retry: true}
}

// StatusError reports a page that loaded with a non-success HTTP status
func StatusError(url string, status int) *Error {
	return &Error{
		Code:       ErrCodeNavigation,
		Message:    fmt.Sprintf("HTTP %d", status),
		URL:        url,
		StatusCode: status,
		Retry:      retryableStatus(status),
	}
}

// TimeoutError reports a bounded wait that expired
func TimeoutError(url, message string, err error) *Error {
	return &Error{Code: ErrCodeTimeout, Message: message, URL: url, Underlying: err, Retry: true}
}

// ExtractionError reports a record whose mandatory field could not be resolved
func ExtractionError(url, field string) *Error {
	return &Error{
		Code:       ErrCodeExtraction,
		Message:    fmt.Sprintf("field %q unresolved", field),
		URL:        url,
		Underlying: ErrMissingField,
	}
}

// PersistenceError reports a failure to read or write the output document
func PersistenceError(message string, err error) *Error {
	return &Error{Code: ErrCodePersistence, Message: message, Underlying: err}
}

// IsFatal reports whether err carries a fatal engine error
func IsFatal(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Fatal()
}

// Retryable reports whether err carries an engine error marked as transient
func Retryable(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Retry
}

func retryableStatus(status int) bool {
	switch status {
	case 408, 425, 429:
		return true
	}
	return status >= 500
}
