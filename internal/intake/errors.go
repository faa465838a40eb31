package intake

import (
	"errors"
	"fmt"

	"wedding-rsvp/internal/models"
)

var (
	ErrNotEditing           = errors.New("intake: form is not editable")
	ErrSubmitInProgress     = errors.New("intake: submission already in progress")
	ErrAlreadySubmitted     = errors.New("intake: form already submitted")
	ErrDrinksNeedAttendance = errors.New("intake: drinks can only be chosen when attending")
	ErrFieldDisabled        = errors.New("intake: field is disabled by the form profile")
)

// FieldError is a field-level validation failure. Nothing was sent to the store.
type FieldError struct {
	Field   string
	Message string
	// UserMessage is the localized text to show next to the field.
	UserMessage string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("intake: %s: %s", e.Field, e.Message)
}

func (e *FieldError) Unwrap() error { return models.ErrInvalid }

// SubmitError is a failed store write. The form is editable again with its values intact.
type SubmitError struct {
	Err         error
	UserMessage string
}

func (e *SubmitError) Error() string {
	return fmt.Sprintf("intake: submit failed: %v", e.Err)
}

func (e *SubmitError) Unwrap() error { return e.Err }
