package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zsiec/chrono/pkg/fps"
	"github.com/zsiec/chrono/pkg/timecode"
)

func TestAppError(t *testing.T) {
	t.Run("New creates error correctly", func(t *testing.T) {
		err := New(ErrorTypeValidation, "Invalid input", http.StatusBadRequest)

		assert.Equal(t, ErrorTypeValidation, err.Type)
		assert.Equal(t, "Invalid input", err.Message)
		assert.Equal(t, http.StatusBadRequest, err.HTTPStatus)
		assert.Equal(t, "VALIDATION_ERROR: Invalid input", err.Error())
	})

	t.Run("Wrap wraps error correctly", func(t *testing.T) {
		originalErr := errors.New("original error")
		err := Wrap(originalErr, ErrorTypeInternal, "Something went wrong", http.StatusInternalServerError)

		assert.Equal(t, originalErr, err.Unwrap())
		assert.Contains(t, err.Error(), "original error")
	})

	t.Run("WithCause keeps the underlying error", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := NewServiceDownError("mark store").WithCause(cause)

		assert.ErrorIs(t, err, cause)
		assert.Equal(t, "mark store service is currently unavailable", err.Message)
		assert.Contains(t, err.Error(), "connection refused")
	})

	t.Run("WithDetails and WithCode", func(t *testing.T) {
		details := map[string]interface{}{"field": "rate"}
		err := NewValidationError("bad").WithDetails(details).WithCode(CodeUnknownRate)

		assert.Equal(t, details, err.Details)
		assert.Equal(t, CodeUnknownRate, err.Code)
	})
}

func TestErrorConstructors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		wantType   ErrorType
		wantStatus int
	}{
		{"validation", NewValidationError("x"), ErrorTypeValidation, http.StatusBadRequest},
		{"unprocessable", NewUnprocessableError("x"), ErrorTypeUnprocessable, http.StatusUnprocessableEntity},
		{"not found", NewNotFoundError("mark"), ErrorTypeNotFound, http.StatusNotFound},
		{"internal", NewInternalError("x"), ErrorTypeInternal, http.StatusInternalServerError},
		{"wrap internal", WrapInternalError(errors.New("boom"), "x"), ErrorTypeInternal, http.StatusInternalServerError},
		{"conflict", NewConflictError("x"), ErrorTypeConflict, http.StatusConflict},
		{"rate limit", NewRateLimitError("x"), ErrorTypeRateLimit, http.StatusTooManyRequests},
		{"service down", NewServiceDownError("redis"), ErrorTypeServiceDown, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantType, tt.err.Type)
			assert.Equal(t, tt.wantStatus, tt.err.HTTPStatus)
		})
	}

	assert.Equal(t, "mark not found", NewNotFoundError("mark").Message)
}

func TestGetAppErrorUnwraps(t *testing.T) {
	inner := NewNotFoundError("mark")
	wrapped := fmt.Errorf("lookup: %w", inner)

	got, ok := GetAppError(wrapped)
	require.True(t, ok)
	assert.Same(t, inner, got)
	assert.True(t, IsAppError(wrapped))
	assert.False(t, IsAppError(errors.New("plain")))
}

func TestFromTimecodeError(t *testing.T) {
	_, parseErr := timecode.Parse("01:00")
	_, rangeErr := timecode.Parse("00:00:00:75")
	_, negErr := timecode.New(-1, 0, 0, 0)
	_, rateErr := timecode.Zero().Add(timecode.FromTicks(1, timecode.WithRate(fps.FPS30)))

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"malformed", parseErr, http.StatusBadRequest, CodeInvalidTimecode},
		{"out of range", rangeErr, http.StatusBadRequest, CodeGroupOutOfRange},
		{"negative", negErr, http.StatusBadRequest, CodeNegativeGroup},
		{"rate mismatch", rateErr, http.StatusUnprocessableEntity, CodeRateMismatch},
		{"divide by zero", timecode.ErrDivideByZero, http.StatusUnprocessableEntity, CodeDivideByZero},
		{"unknown", errors.New("disk on fire"), http.StatusInternalServerError, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Error(t, tt.err)
			appErr := FromTimecodeError(tt.err)
			require.NotNil(t, appErr)
			assert.Equal(t, tt.wantStatus, appErr.HTTPStatus)
			assert.Equal(t, tt.wantCode, appErr.Code)
			assert.ErrorIs(t, appErr, tt.err)
		})
	}

	appErr := FromTimecodeError(parseErr)
	assert.Equal(t, "01:00", appErr.Details["input"])
	assert.NotContains(t, appErr.Details, "offset")

	appErr = FromTimecodeError(rangeErr)
	assert.Equal(t, 9, appErr.Details["offset"])

	assert.Nil(t, FromTimecodeError(nil))
	existing := NewConflictError("exists")
	assert.Same(t, existing, FromTimecodeError(existing))
}
