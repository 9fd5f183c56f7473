package cli

import (
	stderrors "errors"
	"fmt"
	"strings"

	"timesheet-engine/internal/errors"
	"timesheet-engine/internal/validation"
)

// ErrorHandler provides centralized error handling for command handlers
type ErrorHandler struct{}

// NewErrorHandler creates a new error handler
func NewErrorHandler() *ErrorHandler {
	return &ErrorHandler{}
}

// Handle provides user-friendly error messages for validation and other errors
func (eh *ErrorHandler) Handle(operation string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := errors.AsAppError(err); ok {
		return fmt.Errorf("failed to %s: %s", operation, eh.message(err))
	}
	if validationErr, ok := err.(*validation.ValidationError); ok {
		return fmt.Errorf("failed to %s: %s", operation, validationErr.GetUserFriendlyMessage())
	}

	// Fallback for unknown errors
	return fmt.Errorf("failed to %s: %w", operation, err)
}

// HandleSimple provides user-friendly error messages without operation context
func (eh *ErrorHandler) HandleSimple(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := errors.AsAppError(err); ok {
		return fmt.Errorf("%s", eh.message(err))
	}
	if validationErr, ok := err.(*validation.ValidationError); ok {
		return fmt.Errorf("%s", validationErr.GetUserFriendlyMessage())
	}
	return err
}

// message is the user message of an AppError. A validation failure with
// a single field error already carries that message; with several, each
// one is listed on its own line.
func (eh *ErrorHandler) message(err error) string {
	msg := errors.GetUserMessage(err)

	var fieldErrs *validation.ValidationError
	if stderrors.As(err, &fieldErrs) && len(fieldErrs.Errors) > 1 && !strings.Contains(msg, "\n") {
		lines := make([]string, 0, len(fieldErrs.Errors)+1)
		lines = append(lines, msg)
		for _, fe := range fieldErrs.Errors {
			lines = append(lines, "- "+fe.Message)
		}
		msg = strings.Join(lines, "\n")
	}
	return msg
}

// IsValidationError checks if an error is a validation error
func (eh *ErrorHandler) IsValidationError(err error) bool {
	if validation.IsValidationError(err) {
		return true
	}
	return errors.IsErrorType(err, errors.ErrorTypeValidation)
}

// IsStateTransitionError checks if an error is a refused lifecycle transition
func (eh *ErrorHandler) IsStateTransitionError(err error) bool {
	return errors.GetErrorCode(err) == errors.CodeInvalidStateTransition
}

// IsNotFoundError checks if an error is a not found error
func (eh *ErrorHandler) IsNotFoundError(err error) bool {
	return errors.IsErrorType(err, errors.ErrorTypeNotFound)
}

// IsDatabaseError checks if an error is a database error
func (eh *ErrorHandler) IsDatabaseError(err error) bool {
	return errors.IsErrorType(err, errors.ErrorTypeDatabase)
}

// IsUnavailableError checks if a collaborator could not be reached
func (eh *ErrorHandler) IsUnavailableError(err error) bool {
	return errors.IsErrorType(err, errors.ErrorTypeUnavailable)
}

// GetErrorCode returns the error code for structured errors
func (eh *ErrorHandler) GetErrorCode(err error) string {
	return errors.GetErrorCode(err)
}
