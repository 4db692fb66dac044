package validation

import (
	"fmt"
	"slices"
	"strings"

	"github.com/kbukum/tabflow/errors"
)

// Validator collects field errors for checks that struct tags cannot
// express, such as "every selected column exists in the input shape".
type Validator struct {
	errors []FieldError
}

// FieldError is a validation failure for one field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// New creates an empty Validator.
func New() *Validator {
	return &Validator{errors: make([]FieldError, 0)}
}

func (v *Validator) AddError(field, message string) {
	v.errors = append(v.errors, FieldError{Field: field, Message: message})
}

func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}

func (v *Validator) Errors() []FieldError {
	return v.errors
}

// Validate returns an INVALID_INPUT AppError, or nil when no check failed.
func (v *Validator) Validate() *errors.AppError {
	if !v.HasErrors() {
		return nil
	}
	return errors.Validation(joinMessages(v.errors)).WithDetail("fields", v.errors)
}

// Options returns an INVALID_OPTIONS AppError, or nil when no check failed.
func (v *Validator) Options() *errors.AppError {
	if !v.HasErrors() {
		return nil
	}
	return errors.InvalidOptions(joinMessages(v.errors)).WithDetail("fields", v.errors)
}

// Required checks that a string is not blank.
func (v *Validator) Required(field, value string) *Validator {
	if strings.TrimSpace(value) == "" {
		v.AddError(field, "is required")
	}
	return v
}

// NotEmpty checks that a collection has at least one element.
func (v *Validator) NotEmpty(field string, n int) *Validator {
	if n == 0 {
		v.AddError(field, "must not be empty")
	}
	return v
}

// Range checks that a number is within [minVal, maxVal].
func (v *Validator) Range(field string, value, minVal, maxVal int) *Validator {
	if value < minVal || value > maxVal {
		v.AddError(field, fmt.Sprintf("must be between %d and %d", minVal, maxVal))
	}
	return v
}

// OneOf checks that a non-empty value is one of the allowed values.
func (v *Validator) OneOf(field, value string, allowed []string) *Validator {
	if value == "" || slices.Contains(allowed, value) {
		return v
	}
	v.AddError(field, fmt.Sprintf("must be one of: %s", strings.Join(allowed, ", ")))
	return v
}

// Subset checks that every value is in allowed, naming the ones that are not.
func (v *Validator) Subset(field string, values []string, allowed func(string) bool) *Validator {
	var missing []string
	for _, val := range values {
		if !allowed(val) {
			missing = append(missing, val)
		}
	}
	if len(missing) > 0 {
		v.AddError(field, fmt.Sprintf("unknown or unsupported values: %s", strings.Join(missing, ", ")))
	}
	return v
}

// Unique checks that no value occurs twice.
func (v *Validator) Unique(field string, values []string) *Validator {
	seen := make(map[string]struct{}, len(values))
	for _, val := range values {
		if _, ok := seen[val]; ok {
			v.AddError(field, fmt.Sprintf("duplicate value %q", val))
			return v
		}
		seen[val] = struct{}{}
	}
	return v
}

// Custom records message when condition is false.
func (v *Validator) Custom(condition bool, field, message string) *Validator {
	if !condition {
		v.AddError(field, message)
	}
	return v
}

// Required validates a single required field.
func Required(field, value string) error {
	if appErr := New().Required(field, value).Validate(); appErr != nil {
		return appErr
	}
	return nil
}

func joinMessages(fields []FieldError) string {
	messages := make([]string, len(fields))
	for i, e := range fields {
		messages[i] = e.Field + ": " + e.Message
	}
	return strings.Join(messages, "; ")
}
