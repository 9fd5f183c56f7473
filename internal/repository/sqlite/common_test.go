package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "timesheet-engine/internal/errors"
)

// MockResult implements sql.Result for testing
type MockResult struct {
	rowsAffected int64
	rowsErr      error
}

func (mr *MockResult) LastInsertId() (int64, error) {
	return 0, nil
}

func (mr *MockResult) RowsAffected() (int64, error) {
	return mr.rowsAffected, mr.rowsErr
}

func TestHandleDatabaseError(t *testing.T) {
	originalErr := errors.New("database connection failed")
	result := HandleDatabaseError("test operation", originalErr)

	assert.True(t, apperrors.IsErrorType(result, apperrors.ErrorTypeDatabase))
	assert.Contains(t, result.Error(), "test operation")
	assert.Contains(t, result.Error(), "database connection failed")

	assert.Nil(t, HandleDatabaseError("noop", nil))

	notFound := apperrors.NewNotFoundError("timesheet", "ts-1")
	assert.Same(t, notFound, HandleDatabaseError("update", notFound))

	timeout := HandleDatabaseError("query", context.DeadlineExceeded)
	assert.True(t, apperrors.IsErrorType(timeout, apperrors.ErrorTypeTimeout))
}

func TestHandleNoRowsError(t *testing.T) {
	tests := []struct {
		name           string
		inputErr       error
		expectNotFound bool
	}{
		{
			name:           "ErrNoRows should return NotFoundError",
			inputErr:       sql.ErrNoRows,
			expectNotFound: true,
		},
		{
			name:           "Other error should return as-is",
			inputErr:       errors.New("some other error"),
			expectNotFound: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := HandleNoRowsError(tt.inputErr, "test entity", "123")
			if tt.expectNotFound {
				assert.True(t, apperrors.IsNotFound(result))
				assert.Contains(t, result.Error(), "test entity not found: 123")
			} else {
				assert.Equal(t, tt.inputErr, result)
			}
		})
	}
}

func TestValidateRowsAffected(t *testing.T) {
	tests := []struct {
		name        string
		result      sql.Result
		wantErrType *apperrors.ErrorType
	}{
		{name: "one row", result: &MockResult{rowsAffected: 1}},
		{name: "no rows", result: &MockResult{rowsAffected: 0}, wantErrType: ptr(apperrors.ErrorTypeNotFound)},
		{name: "driver error", result: &MockResult{rowsErr: errors.New("boom")}, wantErrType: ptr(apperrors.ErrorTypeDatabase)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRowsAffected(tt.result, "time entry", "abc")
			if tt.wantErrType == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, apperrors.IsErrorType(err, *tt.wantErrType))
		})
	}
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(errors.New("constraint failed: UNIQUE constraint failed: timesheets.tenant_id (2067)")))
	assert.False(t, isUniqueViolation(errors.New("no such table")))
	assert.False(t, isUniqueViolation(nil))
}

func ptr[T any](v T) *T {
	return &v
}
