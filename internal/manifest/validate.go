package manifest

import (
	"fmt"
	"strings"
)

// FieldError is a single validation failure.
type FieldError struct {
	Field   string // e.g. "datasets[1].dims"
	Message string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError bundles every FieldError found in a manifest.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		msgs[i] = fe.Error()
	}
	return "invalid manifest: " + strings.Join(msgs, "; ")
}

type validator struct {
	errors []FieldError
}

func (v *validator) add(field, message string) {
	v.errors = append(v.errors, FieldError{Field: field, Message: message})
}

func (v *validator) err() error {
	if len(v.errors) == 0 {
		return nil
	}
	return &ValidationError{Errors: append([]FieldError(nil), v.errors...)}
}
