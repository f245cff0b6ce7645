package helpers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"jpx-history/src/logger"
)

// -----------------------------------------------------------------------------
// Custom Error Types
// -----------------------------------------------------------------------------

type AppError struct {
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

type ConfigurationError struct{ AppError }
type StorageError struct{ AppError }

// FetchError is a non-success response (or a transport failure once retries
// are exhausted) from one of the external sources.
type FetchError struct {
	AppError
	URL        string
	StatusCode int // 0 when no response was received
}

func NewFetchError(url string, status int, cause error) *FetchError {
	msg := fmt.Sprintf("fetch %s failed", url)
	if status != 0 {
		msg = fmt.Sprintf("fetch %s failed with status %d", url, status)
	}
	return &FetchError{AppError: AppError{Message: msg, Cause: cause}, URL: url, StatusCode: status}
}

// ParseError is a malformed field in source data.
type ParseError struct {
	AppError
	Field string
	Value string
}

func NewParseError(field, value string, cause error) *ParseError {
	return &ParseError{
		AppError: AppError{Message: fmt.Sprintf("cannot parse %s %q", field, value), Cause: cause},
		Field:    field,
		Value:    value,
	}
}

func NewStorageError(message string, cause error) *StorageError {
	return &StorageError{AppError{Message: message, Cause: cause}}
}

func NewConfigurationError(message string, cause error) *ConfigurationError {
	return &ConfigurationError{AppError{Message: message, Cause: cause}}
}

// IsFetchError reports whether err wraps a FetchError.
func IsFetchError(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}

// IsParseError reports whether err wraps a ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// -----------------------------------------------------------------------------
// Retry Logic
// -----------------------------------------------------------------------------

// Permanent marks an error that RetryWithBackoff must not retry.
type Permanent struct{ Err error }

func (p *Permanent) Error() string { return p.Err.Error() }
func (p *Permanent) Unwrap() error { return p.Err }

// Backoff returns the wait before retry attempt n (n >= 1): base * n^2.
func Backoff(base time.Duration, n int) time.Duration {
	return base * time.Duration(n*n)
}

// RetryWithBackoff runs fn up to maxRetries+1 times, sleeping Backoff(baseDelay, attempt)
// between attempts. A *Permanent error stops immediately and is returned unwrapped.
func RetryWithBackoff[T any](ctx context.Context, maxRetries int, baseDelay time.Duration, fn func(attempt int) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(Backoff(baseDelay, attempt)):
			case <-ctx.Done():
				return zero, ctx.Err()
			}
		}

		res, err := fn(attempt)
		if err == nil {
			return res, nil
		}

		var perm *Permanent
		if errors.As(err, &perm) {
			return zero, perm.Err
		}
		lastErr = err
	}

	return zero, lastErr
}

// -----------------------------------------------------------------------------
// Error Handler
// -----------------------------------------------------------------------------

// ErrorHandler tracks consecutive failures across units of work.
type ErrorHandler struct {
	Logger               *logger.Logger
	ErrorCount           int
	MaxConsecutiveErrors int
}

func NewErrorHandler(log *logger.Logger, maxConsecutive int) *ErrorHandler {
	return &ErrorHandler{
		Logger:               log,
		MaxConsecutiveErrors: maxConsecutive,
	}
}

// -----------------------------------------------------------------------------

// Success resets the consecutive failure streak.
func (e *ErrorHandler) Success() {
	e.ErrorCount = 0
}

// -----------------------------------------------------------------------------

// Handle logs err for the named context and returns true once the streak of
// consecutive failures reaches the limit (0 disables the limit).
func (e *ErrorHandler) Handle(err error, context string) bool {
	if err == nil {
		return false
	}
	e.ErrorCount++
	switch {
	case IsFetchError(err):
		e.Logger.Error("Fetch error in %s: %v", context, err)
	case IsParseError(err):
		e.Logger.Error("Parse error in %s: %v", context, err)
	default:
		e.Logger.Error("Error in %s: %v", context, err)
	}
	return e.MaxConsecutiveErrors > 0 && e.ErrorCount >= e.MaxConsecutiveErrors
}
