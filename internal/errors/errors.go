package errors

import (
	stderrors "errors"
	"fmt"
)

// GeoError is the structured error type for geoprefix.
// It provides rich context for error handling, logging, and user presentation.
type GeoError struct {
	// Code is the unique error code (e.g., "ERR_402_INVALID_SHAPE").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, IO, Validation, Internal).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Suggestion is an actionable suggestion for the user.
	Suggestion string
}

// Sentinels for errors.Is checks. Matching is by code only.
var (
	ErrInvalidShape         = &GeoError{Code: ErrCodeInvalidShape}
	ErrInvalidArgument      = &GeoError{Code: ErrCodeInvalidArgument}
	ErrConfiguration        = &GeoError{Code: ErrCodeConfigInvalid}
	ErrGridLevels           = &GeoError{Code: ErrCodeGridLevels}
	ErrInvalidQuery         = &GeoError{Code: ErrCodeInvalidQuery}
	ErrUnsupportedOperation = &GeoError{Code: ErrCodeUnsupportedOperation}
	ErrUnsupportedShape     = &GeoError{Code: ErrCodeUnsupportedShape}
	ErrIndexLocked          = &GeoError{Code: ErrCodeIndexLocked}
)

// Error implements the error interface.
func (e *GeoError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *GeoError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
// This enables errors.Is() to work with GeoError.
func (e *GeoError) Is(target error) bool {
	if t, ok := target.(*GeoError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *GeoError) WithDetail(key, value string) *GeoError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
// Returns the error for method chaining.
func (e *GeoError) WithSuggestion(suggestion string) *GeoError {
	e.Suggestion = suggestion
	return e
}

// New creates a new GeoError with the given code and message.
// Category and severity are derived from the code.
func New(code string, message string, cause error) *GeoError {
	return &GeoError{
		Code:     code,
		Message:  message,
		Category: categoryFromCode(code),
		Severity: severityFromCode(code),
		Cause:    cause,
	}
}

// Wrap creates a GeoError from an existing error.
// The error's message becomes the GeoError message.
func Wrap(code string, err error) *GeoError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// ConfigurationError reports an invalid configuration: a bad config file, a grid
// level outside the supported range, an unknown strategy kind.
func ConfigurationError(message string, cause error) *GeoError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// GridLevelsError reports a grid built with an unusable level count.
func GridLevelsError(levels, ceiling int) *GeoError {
	return New(ErrCodeGridLevels, fmt.Sprintf("max levels %d outside [1, %d]", levels, ceiling), nil).
		WithDetail("levels", fmt.Sprint(levels)).
		WithDetail("ceiling", fmt.Sprint(ceiling))
}

// ShapeValidationError reports a shape rejected at construction time.
func ShapeValidationError(format string, args ...any) *GeoError {
	return New(ErrCodeInvalidShape, fmt.Sprintf(format, args...), nil)
}

// InvalidArgumentError reports an argument outside its domain.
func InvalidArgumentError(format string, args ...any) *GeoError {
	return New(ErrCodeInvalidArgument, fmt.Sprintf(format, args...), nil)
}

// InvalidQueryError reports spatial args that cannot form a query.
func InvalidQueryError(format string, args ...any) *GeoError {
	return New(ErrCodeInvalidQuery, fmt.Sprintf(format, args...), nil)
}

// UnsupportedOperationError reports an operation a strategy cannot answer.
func UnsupportedOperationError(strategy, operation string) *GeoError {
	return New(ErrCodeUnsupportedOperation,
		fmt.Sprintf("%s does not support operation %s", strategy, operation), nil).
		WithDetail("strategy", strategy).
		WithDetail("operation", operation)
}

// UnsupportedShapeError reports a shape kind a strategy cannot index.
func UnsupportedShapeError(strategy, shape string) *GeoError {
	return New(ErrCodeUnsupportedShape,
		fmt.Sprintf("%s can only index points, got %s", strategy, shape), nil)
}

// IOError creates an I/O-related error.
func IOError(message string, cause error) *GeoError {
	return New(ErrCodeFileNotFound, message, cause)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *GeoError {
	return New(ErrCodeInternal, message, cause)
}

// IsFatal checks if an error has fatal severity.
// Fatal errors should abort the current operation.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	if ge, ok := asGeoError(err); ok {
		return ge.Severity == SeverityFatal
	}
	return false
}

// GetCode extracts the error code from a GeoError.
// Returns empty string if not a GeoError.
func GetCode(err error) string {
	if ge, ok := asGeoError(err); ok {
		return ge.Code
	}
	return ""
}

// GetCategory extracts the category from a GeoError.
// Returns empty string if not a GeoError.
func GetCategory(err error) Category {
	if ge, ok := asGeoError(err); ok {
		return ge.Category
	}
	return ""
}

// asGeoError finds the first GeoError in err's chain.
func asGeoError(err error) (*GeoError, bool) {
	var ge *GeoError
	ok := stderrors.As(err, &ge)
	return ge, ok
}
