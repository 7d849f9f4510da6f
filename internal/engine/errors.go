// internal/engine/errors.go
package engine

import (
	"context"
	"errors"
	"fmt"
)

// Common engine errors
var (
	ErrBrowserNotFound = errors.New("chrome browser not found")
	ErrNoPage          = errors.New("no page loaded")
	ErrClosed          = errors.New("navigator is closed")
)

// ErrorCode represents a specific navigation failure
type ErrorCode string

const (
	ErrCodeBrowserStart ErrorCode = "BROWSER_START"
	ErrCodeNavigation   ErrorCode = "NAVIGATION"
	ErrCodeTimeout      ErrorCode = "TIMEOUT"
	ErrCodeHTTPStatus   ErrorCode = "HTTP_STATUS"
	ErrCodeValidation   ErrorCode = "VALIDATION"
)

// NavigationError wraps errors with the page they happened on
type NavigationError struct {
	Code       ErrorCode
	Message    string
	URL        string
	StatusCode int
	Underlying error
}

// Error implements the error interface
func (e *NavigationError) Error() string {
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
func (e *NavigationError) Unwrap() error {
	return e.Underlying
}

// Is checks if the error matches the target
func (e *NavigationError) Is(target error) bool {
	if t, ok := target.(*NavigationError); ok {
		return e.Code == t.Code
	}
	return false
}

// NewNavigationError creates a new NavigationError
func NewNavigationError(code ErrorCode, message string, err error) *NavigationError {
	return &NavigationError{
		Code:       code,
		Message:    message,
		Underlying: err,
	}
}

// WithURL records the page the error happened on
func (e *NavigationError) WithURL(url string) *NavigationError {
	e.URL = url
	return e
}

// WithStatus records the HTTP status of the response
func (e *NavigationError) WithStatus(code int) *NavigationError {
	e.StatusCode = code
	return e
}

// FromContext classifies a failed operation whose context ended. ok is false when
// ctx is still live, in which case the failure is not a timeout or cancellation.
func FromContext(ctx context.Context, url string, err error) (*NavigationError, bool) {
	ctxErr := ctx.Err()
	if ctxErr == nil {
		return nil, false
	}
	if errors.Is(ctxErr, context.DeadlineExceeded) {
		return NewNavigationError(ErrCodeTimeout, "page load timed out", ctxErr).WithURL(url), true
	}
	return NewNavigationError(ErrCodeNavigation, "navigation cancelled", ctxErr).WithURL(url), true
}
