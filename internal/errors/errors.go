// Package errors provides a lightweight structured error type (CodesearchError)
// for category-based classification across remote fetches, manifest resolution,
// publishing and the CLI.
package errors

import (
	"fmt"
)

// ErrorCategory represents the category of a codesearch error for classification
type ErrorCategory string

const (
	// User-facing configuration and input errors
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"

	// External system integration errors
	CategoryFetch    ErrorCategory = "fetch"    // network/HTTP/decode failure from a remote query
	CategoryClassify ErrorCategory = "classify" // manifest URL with no matching adapter
	CategoryListing  ErrorCategory = "listing"  // remote listing expected to be non-empty came back empty
	CategoryRestart  ErrorCategory = "restart"  // process manager refused a restart
	CategoryStorage  ErrorCategory = "storage"  // config file reads/writes, run log

	// Runtime and infrastructure errors
	CategoryProxy    ErrorCategory = "proxy"
	CategoryDaemon   ErrorCategory = "daemon"
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity indicates how critical an error is
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Stops execution
	SeverityError   ErrorSeverity = "error"   // Error, but not fatal
	SeverityWarning ErrorSeverity = "warning" // Continues with degraded functionality
	SeverityInfo    ErrorSeverity = "info"    // Informational, no impact
)

// CodesearchError is a structured error with category, severity, and context
type CodesearchError struct {
	Category ErrorCategory `json:"category"`
	Severity ErrorSeverity `json:"severity"`
	Message  string        `json:"message"`
	Cause    error         `json:"cause,omitempty"`
	Context  ContextFields `json:"context,omitempty"`
}

// ContextFields carries structured context for CodesearchError
type ContextFields map[string]any

// Error implements the error interface
func (e *CodesearchError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Category, e.Severity, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Category, e.Severity, e.Message)
}

// Unwrap implements error unwrapping for Go 1.13+ error handling
func (e *CodesearchError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *CodesearchError) WithContext(key string, value any) *CodesearchError {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// ContextValue returns a context field if present.
func (e *CodesearchError) ContextValue(key string) (any, bool) {
	v, ok := e.Context[key]
	return v, ok
}

// New creates a new CodesearchError
func New(category ErrorCategory, severity ErrorSeverity, message string) *CodesearchError {
	return &CodesearchError{
		Category: category,
		Severity: severity,
		Message:  message,
	}
}

// Wrap creates a new CodesearchError that wraps an existing error
func Wrap(err error, category ErrorCategory, severity ErrorSeverity, message string) *CodesearchError {
	return &CodesearchError{
		Category: category,
		Severity: severity,
		Message:  message,
		Cause:    err,
	}
}

// WrapError wraps an existing error at SeverityError
func WrapError(err error, category ErrorCategory, message string) *CodesearchError {
	return &CodesearchError{
		Category: category,
		Severity: SeverityError,
		Message:  message,
		Cause:    err,
	}
}

// IsCategory checks if an error belongs to a specific category
func IsCategory(err error, category ErrorCategory) bool {
	if cse, ok := err.(*CodesearchError); ok {
		return cse.Category == category
	}
	return false
}

// GetCategory extracts the category from an error, or returns CategoryInternal
// if it is not a CodesearchError
func GetCategory(err error) ErrorCategory {
	if cse, ok := err.(*CodesearchError); ok {
		return cse.Category
	}
	return CategoryInternal
}

// ValidationError creates a new validation error
func ValidationError(message string) *CodesearchError {
	return &CodesearchError{
		Category: CategoryValidation,
		Severity: SeverityWarning,
		Message:  message,
	}
}
