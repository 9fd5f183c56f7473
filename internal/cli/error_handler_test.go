package cli

import (
	"errors"
	"testing"

	apperrors "timesheet-engine/internal/errors"
	"timesheet-engine/internal/validation"
)

func TestErrorHandler_Handle(t *testing.T) {
	eh := NewErrorHandler()

	tests := []struct {
		name      string
		operation string
		err       error
		expected  string
	}{
		{
			name:      "Validation error",
			operation: "create entry",
			err:       apperrors.NewValidationError("Duration must be greater than 0", nil),
			expected:  "failed to create entry: Duration must be greater than 0",
		},
		{
			name:      "State transition error",
			operation: "lock timesheet",
			err:       apperrors.NewInvalidStateError("timesheet", "draft", "Only approved timesheets can be locked"),
			expected:  "failed to lock timesheet: Only approved timesheets can be locked",
		},
		{
			name:      "Not found error",
			operation: "show entry",
			err:       apperrors.NewNotFoundError("time entry", "e-1"),
			expected:  "failed to show entry: time entry not found: e-1",
		},
		{
			name:      "Database error",
			operation: "save entry",
			err:       apperrors.NewDatabaseError("insert", errors.New("timeout")),
			expected:  "failed to save entry: A database error occurred. Please try again.",
		},
		{
			name:      "Unavailable collaborator",
			operation: "validate entry",
			err:       apperrors.NewUnavailableError("catalog lookup", errors.New("dial tcp")),
			expected:  "failed to validate entry: catalog lookup is unavailable. Please try again later.",
		},
		{
			name:      "Regular error",
			operation: "process",
			err:       errors.New("regular error"),
			expected:  "failed to process: regular error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := eh.Handle(tt.operation, tt.err)
			if result.Error() != tt.expected {
				t.Errorf("ErrorHandler.Handle() = %v, want %v", result.Error(), tt.expected)
			}
		})
	}
}

func TestErrorHandler_HandleSimple(t *testing.T) {
	eh := NewErrorHandler()

	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "Validation error",
			err:      apperrors.NewValidationError("invalid input", nil),
			expected: "invalid input",
		},
		{
			name:     "Not found error",
			err:      apperrors.NewNotFoundError("timesheet", "ts-1"),
			expected: "timesheet not found: ts-1",
		},
		{
			name:     "Database error",
			err:      apperrors.NewDatabaseError("insert", errors.New("timeout")),
			expected: "A database error occurred. Please try again.",
		},
		{
			name:     "Regular error",
			err:      errors.New("regular error"),
			expected: "regular error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := eh.HandleSimple(tt.err)
			if result.Error() != tt.expected {
				t.Errorf("ErrorHandler.HandleSimple() = %v, want %v", result.Error(), tt.expected)
			}
		})
	}
}

func TestErrorHandler_ListsEveryFieldError(t *testing.T) {
	eh := NewErrorHandler()
	cause := &validation.ValidationError{
		Errors: []validation.FieldError{
			{Field: "duration", Message: "Duration must be greater than 0"},
			{Field: "description", Message: "Description is required"},
		},
	}

	result := eh.Handle("create entry", apperrors.NewValidationError("entry is invalid", cause))

	expected := "failed to create entry: entry is invalid\n- Duration must be greater than 0\n- Description is required"
	if result.Error() != expected {
		t.Errorf("ErrorHandler.Handle() = %q, want %q", result.Error(), expected)
	}
}

func TestErrorHandler_KeepsResultMessage(t *testing.T) {
	eh := NewErrorHandler()
	var result validation.Result
	result.AddError("duration", validation.ErrorTypeInvalidValue, "Duration must be greater than 0", 0)
	result.AddError("description", validation.ErrorTypeRequired, "Description is required", nil)

	got := eh.HandleSimple(result.Err())

	expected := "Multiple validation errors occurred:\n- Duration must be greater than 0\n- Description is required"
	if got.Error() != expected {
		t.Errorf("ErrorHandler.HandleSimple() = %q, want %q", got.Error(), expected)
	}
}

func TestErrorHandler_Classification(t *testing.T) {
	eh := NewErrorHandler()

	tests := []struct {
		name        string
		err         error
		validation  bool
		transition  bool
		notFound    bool
		database    bool
		unavailable bool
	}{
		{
			name:       "AppError validation",
			err:        apperrors.NewValidationError("invalid input", nil),
			validation: true,
		},
		{
			name: "Field validation error",
			err: &validation.ValidationError{
				Errors: []validation.FieldError{{Field: "test", Message: "invalid"}},
			},
			validation: true,
		},
		{
			name:       "State transition",
			err:        apperrors.NewInvalidStateError("time entry", "approved", "Only draft entries can be submitted"),
			validation: true,
			transition: true,
		},
		{
			name:     "Not found error",
			err:      apperrors.NewNotFoundError("time entry", "e-1"),
			notFound: true,
		},
		{
			name:     "Database error",
			err:      apperrors.NewDatabaseError("insert", nil),
			database: true,
		},
		{
			name:        "Unavailable collaborator",
			err:         apperrors.NewUnavailableError("presence source", nil),
			unavailable: true,
		},
		{
			name: "Regular error",
			err:  errors.New("regular error"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := eh.IsValidationError(tt.err); got != tt.validation {
				t.Errorf("IsValidationError() = %v, want %v", got, tt.validation)
			}
			if got := eh.IsStateTransitionError(tt.err); got != tt.transition {
				t.Errorf("IsStateTransitionError() = %v, want %v", got, tt.transition)
			}
			if got := eh.IsNotFoundError(tt.err); got != tt.notFound {
				t.Errorf("IsNotFoundError() = %v, want %v", got, tt.notFound)
			}
			if got := eh.IsDatabaseError(tt.err); got != tt.database {
				t.Errorf("IsDatabaseError() = %v, want %v", got, tt.database)
			}
			if got := eh.IsUnavailableError(tt.err); got != tt.unavailable {
				t.Errorf("IsUnavailableError() = %v, want %v", got, tt.unavailable)
			}
		})
	}
}

func TestErrorHandler_GetErrorCode(t *testing.T) {
	eh := NewErrorHandler()

	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "App error",
			err:      apperrors.NewValidationError("invalid input", nil),
			expected: "VALIDATION_FAILED",
		},
		{
			name:     "State transition",
			err:      apperrors.NewInvalidStateError("timesheet", "draft", "Only approved timesheets can be locked"),
			expected: "INVALID_STATE_TRANSITION",
		},
		{
			name:     "Regular error",
			err:      errors.New("regular error"),
			expected: "UNKNOWN_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := eh.GetErrorCode(tt.err)
			if result != tt.expected {
				t.Errorf("ErrorHandler.GetErrorCode() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestErrorHandler_HandleNilError(t *testing.T) {
	eh := NewErrorHandler()

	if err := eh.Handle("test operation", nil); err != nil {
		t.Errorf("ErrorHandler.Handle() with nil error = %v, want nil", err)
	}
	if err := eh.HandleSimple(nil); err != nil {
		t.Errorf("ErrorHandler.HandleSimple() with nil error = %v, want nil", err)
	}
}
