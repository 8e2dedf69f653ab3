package models

import (
	"errors"
	"fmt"
	"strings"
)

// Validation sentinels.
var (
	ErrMissingID       = errors.New("identifier is required")
	ErrBlankText       = errors.New("message text is required")
	ErrBlankName       = errors.New("name is required")
	ErrBlankURL        = errors.New("url is required")
	ErrInvalidKind     = errors.New("invalid kind")
	ErrNilConversation = errors.New("conversation is nil")
)

// ValidationError is one failed field.
type ValidationError struct {
	Field   string
	Message string
	Cause   error
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors collects field failures; the zero value is ready to use.
type ValidationErrors struct {
	Errors []ValidationError
}

// Add records err against field.
func (v *ValidationErrors) Add(field string, err error) {
	if err == nil {
		return
	}
	v.Errors = append(v.Errors, ValidationError{Field: field, Message: err.Error(), Cause: err})
}

// AddMessage records a failure that has no sentinel.
func (v *ValidationErrors) AddMessage(field, message string) {
	if message == "" {
		return
	}
	v.Errors = append(v.Errors, ValidationError{Field: field, Message: message})
}

// Err returns nil when nothing was recorded.
func (v *ValidationErrors) Err() error {
	if v == nil || len(v.Errors) == 0 {
		return nil
	}
	return v
}

func (v *ValidationErrors) Error() string {
	if v == nil || len(v.Errors) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(v.Errors))
	for _, err := range v.Errors {
		parts = append(parts, err.Error())
	}
	return strings.Join(parts, "; ")
}

// Is matches any recorded cause.
func (v *ValidationErrors) Is(target error) bool {
	if v == nil {
		return false
	}
	for _, err := range v.Errors {
		if err.Cause != nil && errors.Is(err.Cause, target) {
			return true
		}
	}
	return false
}
