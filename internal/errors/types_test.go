package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorType_String(t *testing.T) {
	tests := []struct {
		errorType ErrorType
		expected  string
	}{
		{ErrorTypeValidation, "validation"},
		{ErrorTypeNotFound, "not_found"},
		{ErrorTypeDatabase, "database"},
		{ErrorTypeInvalidInput, "invalid_input"},
		{ErrorTypeTimeout, "timeout"},
		{ErrorTypeUnavailable, "unavailable"},
		{ErrorType(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.errorType.String())
		})
	}
}

func TestErrorType_IsBusinessError(t *testing.T) {
	assert.True(t, ErrorTypeValidation.IsBusinessError())
	assert.True(t, ErrorTypeNotFound.IsBusinessError())
	assert.True(t, ErrorTypeInvalidInput.IsBusinessError())
	assert.False(t, ErrorTypeDatabase.IsBusinessError())
	assert.False(t, ErrorTypeUnavailable.IsBusinessError())
	assert.False(t, ErrorTypeTimeout.IsBusinessError())
}

func TestAppError_Error(t *testing.T) {
	withoutCause := &AppError{Type: ErrorTypeValidation, Message: "bad duration"}
	assert.Equal(t, "validation: bad duration", withoutCause.Error())

	withCause := &AppError{Type: ErrorTypeDatabase, Message: "insert failed", Cause: errors.New("disk full")}
	assert.Equal(t, "database: insert failed (caused by: disk full)", withCause.Error())
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	appErr := &AppError{Type: ErrorTypeDatabase, Cause: cause}

	assert.Equal(t, cause, appErr.Unwrap())
	assert.True(t, errors.Is(appErr, cause))
}

func TestAppError_Is(t *testing.T) {
	first := &AppError{Type: ErrorTypeValidation, Code: CodeValidationFailed}
	second := &AppError{Type: ErrorTypeValidation, Code: CodeValidationFailed}
	transition := &AppError{Type: ErrorTypeValidation, Code: CodeInvalidStateTransition}
	database := &AppError{Type: ErrorTypeDatabase, Code: CodeDatabase}

	assert.True(t, first.Is(second))
	assert.False(t, first.Is(transition))
	assert.False(t, first.Is(database))
	assert.False(t, first.Is(errors.New("plain")))
}

func TestAppError_Context(t *testing.T) {
	appErr := &AppError{Type: ErrorTypeValidation}

	result := appErr.WithContext("field", "duration")
	assert.Same(t, appErr, result)

	value, ok := appErr.GetContext("field")
	assert.True(t, ok)
	assert.Equal(t, "duration", value)

	_, ok = appErr.GetContext("missing")
	assert.False(t, ok)

	appErr.Context = nil
	_, ok = appErr.GetContext("field")
	assert.False(t, ok)
}
