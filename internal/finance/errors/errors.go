package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError marks caller mistakes: malformed month keys, bad amounts,
// unknown kinds. Handlers map it to 400.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

func NewValidationError(msg string) error {
	return &ValidationError{Msg: msg}
}

func NewValidationErrorf(format string, args ...interface{}) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// NewIndexedValidationError ties a message to the 1-based position of an item in a batch.
func NewIndexedValidationError(index int, msg string) error {
	return &ValidationError{Msg: fmt.Sprintf("Item %d: %s", index, msg)}
}

func IsValidationError(err error) bool {
	var validationError *ValidationError
	return errors.As(err, &validationError)
}

var (
	ErrInvalidMonth  = NewValidationError("Month must use the YYYY-MM format")
	ErrMissingMonth  = NewValidationError("Month is required")
	ErrInvalidWindow = NewValidationError("Months window must be a positive number")
	ErrInvalidAmount = NewValidationError("Amount must be greater than zero")
	ErrInvalidKind   = NewValidationError("Type must be 'income' or 'expense'")
)

// ErrNotFound is also returned when a row exists but belongs to somebody else.
var ErrNotFound = errors.New("not found")

var (
	ErrTransactionNotFound = fmt.Errorf("transaction %w", ErrNotFound)
	ErrBudgetNotFound      = fmt.Errorf("budget %w", ErrNotFound)
	ErrGoalNotFound        = fmt.Errorf("goal %w", ErrNotFound)
)

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

var ErrConflict = errors.New("already exists")

var (
	ErrBudgetAlreadyExists   = fmt.Errorf("budget for this category and month %w", ErrConflict)
	ErrCategoryAlreadyExists = fmt.Errorf("category %w", ErrConflict)
)

func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

type ValidationErrors struct {
	Errors []error
}

func (ve *ValidationErrors) Error() string {
	errorMessages := make([]string, len(ve.Errors))
	for i, err := range ve.Errors {
		errorMessages[i] = err.Error()
	}
	return fmt.Sprintf("multiple validation errors: %s", strings.Join(errorMessages, "; "))
}

func (ve *ValidationErrors) Unwrap() []error {
	return ve.Errors
}

func (ve *ValidationErrors) Add(err error) {
	ve.Errors = append(ve.Errors, err)
}

// ErrOrNil keeps callers from returning a typed nil wrapped in an interface.
func (ve *ValidationErrors) ErrOrNil() error {
	if len(ve.Errors) == 0 {
		return nil
	}
	return ve
}

func (ve *ValidationErrors) Messages() []string {
	messages := make([]string, len(ve.Errors))
	for i, err := range ve.Errors {
		messages[i] = err.Error()
	}
	return messages
}

func IsValidationErrors(err error) bool {
	var validationErrors *ValidationErrors
	return errors.As(err, &validationErrors)
}
