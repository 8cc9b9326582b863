package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/zsiec/chrono/pkg/timecode"
)

// ErrorType represents the type of error.
type ErrorType string

const (
	ErrorTypeValidation    ErrorType = "VALIDATION_ERROR"
	ErrorTypeUnprocessable ErrorType = "UNPROCESSABLE"
	ErrorTypeNotFound      ErrorType = "NOT_FOUND"
	ErrorTypeInternal      ErrorType = "INTERNAL_ERROR"
	ErrorTypeConflict      ErrorType = "CONFLICT"
	ErrorTypeRateLimit     ErrorType = "RATE_LIMIT"
	ErrorTypeServiceDown   ErrorType = "SERVICE_DOWN"
)

// Codes attached to timecode failures.
const (
	CodeInvalidTimecode = "INVALID_TIMECODE"
	CodeGroupOutOfRange = "GROUP_OUT_OF_RANGE"
	CodeNegativeGroup   = "NEGATIVE_GROUP"
	CodeRateMismatch    = "RATE_MISMATCH"
	CodeDivideByZero    = "DIVIDE_BY_ZERO"
	CodeUnknownRate     = "UNKNOWN_RATE"
)

// AppError represents an application error with additional context.
type AppError struct {
	Type       ErrorType              `json:"type"`
	Message    string                 `json:"message"`
	Code       string                 `json:"code,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty"`
	HTTPStatus int                    `json:"-"`
	Err        error                  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetails adds details to the error.
func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	e.Details = details
	return e
}

// WithCause records the underlying error.
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// WithCode adds an error code.
func (e *AppError) WithCode(code string) *AppError {
	e.Code = code
	return e
}

// New creates a new AppError.
func New(errType ErrorType, message string, httpStatus int) *AppError {
	return &AppError{
		Type:       errType,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an existing error.
func Wrap(err error, errType ErrorType, message string, httpStatus int) *AppError {
	return &AppError{
		Type:       errType,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

func NewValidationError(message string) *AppError {
	return New(ErrorTypeValidation, message, http.StatusBadRequest)
}

func NewUnprocessableError(message string) *AppError {
	return New(ErrorTypeUnprocessable, message, http.StatusUnprocessableEntity)
}

func NewNotFoundError(resource string) *AppError {
	return New(ErrorTypeNotFound, fmt.Sprintf("%s not found", resource), http.StatusNotFound)
}

func NewInternalError(message string) *AppError {
	return New(ErrorTypeInternal, message, http.StatusInternalServerError)
}

func WrapInternalError(err error, message string) *AppError {
	return Wrap(err, ErrorTypeInternal, message, http.StatusInternalServerError)
}

func NewConflictError(message string) *AppError {
	return New(ErrorTypeConflict, message, http.StatusConflict)
}

func NewRateLimitError(message string) *AppError {
	return New(ErrorTypeRateLimit, message, http.StatusTooManyRequests)
}

func NewServiceDownError(service string) *AppError {
	return New(ErrorTypeServiceDown, fmt.Sprintf("%s service is currently unavailable", service), http.StatusServiceUnavailable)
}

// IsAppError checks if err is or wraps an AppError.
func IsAppError(err error) bool {
	_, ok := GetAppError(err)
	return ok
}

// GetAppError extracts the first AppError in err's chain.
func GetAppError(err error) (*AppError, bool) {
	var appErr *AppError
	ok := stderrors.As(err, &appErr)
	return appErr, ok
}

// FromTimecodeError maps errors returned by the timecode package onto
// client errors. Anything unrecognised becomes an internal error.
func FromTimecodeError(err error) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := GetAppError(err); ok {
		return appErr
	}

	var parseErr *timecode.ParseError
	switch {
	case stderrors.Is(err, timecode.ErrRateMismatch):
		return NewUnprocessableError(err.Error()).WithCause(err).WithCode(CodeRateMismatch)
	case stderrors.Is(err, timecode.ErrDivideByZero):
		return NewUnprocessableError("division by a zero timecode").WithCause(err).WithCode(CodeDivideByZero)
	case stderrors.Is(err, timecode.ErrNegativeGroup):
		return Wrap(err, ErrorTypeValidation, err.Error(), http.StatusBadRequest).WithCode(CodeNegativeGroup)
	case stderrors.As(err, &parseErr):
		code := CodeInvalidTimecode
		if stderrors.Is(err, timecode.ErrGroupOutOfRange) {
			code = CodeGroupOutOfRange
		}
		details := map[string]interface{}{"input": parseErr.Input}
		if parseErr.Offset >= 0 {
			details["offset"] = parseErr.Offset
		}
		return Wrap(err, ErrorTypeValidation, err.Error(), http.StatusBadRequest).WithCode(code).WithDetails(details)
	case stderrors.Is(err, timecode.ErrGroupOutOfRange):
		return Wrap(err, ErrorTypeValidation, err.Error(), http.StatusBadRequest).WithCode(CodeGroupOutOfRange)
	}
	return WrapInternalError(err, "An unexpected error occurred")
}
