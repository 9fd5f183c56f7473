package validation

import (
	apperrors "timesheet-engine/internal/errors"
)

// Result is the outcome of validating one candidate. Errors block
// persistence; warnings are advisory and travel with the result.
type Result struct {
	Errors   []FieldError
	Warnings []FieldError
}

// IsValid reports whether no blocking error was found.
func (r Result) IsValid() bool {
	return len(r.Errors) == 0
}

// AddError records a blocking finding.
func (r *Result) AddError(field string, errorType ValidationErrorType, message string, value interface{}) {
	r.Errors = append(r.Errors, FieldError{Field: field, Type: errorType, Message: message, Value: value})
}

// AddWarning records an advisory finding.
func (r *Result) AddWarning(field string, errorType ValidationErrorType, message string, value interface{}) {
	r.Warnings = append(r.Warnings, FieldError{Field: field, Type: errorType, Message: message, Value: value})
}

// Merge appends other's findings to r.
func (r *Result) Merge(other Result) {
	r.Errors = append(r.Errors, other.Errors...)
	r.Warnings = append(r.Warnings, other.Warnings...)
}

// ErrorMessages lists the messages of all blocking findings.
func (r Result) ErrorMessages() []string {
	return messages(r.Errors)
}

// WarningMessages lists the messages of all advisory findings.
func (r Result) WarningMessages() []string {
	return messages(r.Warnings)
}

// Err converts a failing result into a validation-class AppError carrying
// the field errors as its cause. It returns nil for a valid result.
func (r Result) Err() error {
	if r.IsValid() {
		return nil
	}
	ve := &ValidationError{Errors: r.Errors}
	return apperrors.NewValidationError(ve.GetUserFriendlyMessage(), ve)
}

func messages(findings []FieldError) []string {
	out := make([]string, 0, len(findings))
	for _, f := range findings {
		out = append(out, f.Message)
	}
	return out
}
