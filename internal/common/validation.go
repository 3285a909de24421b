package common

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// ValidationError represents validation failures
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field '%s' with value '%v': %s", e.Field, e.Value, e.Message)
}

// Validator provides validation utilities
type Validator struct {
	errors []ValidationError
}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{
		errors: make([]ValidationError, 0),
	}
}

// Field validates a field and collects errors
func (v *Validator) Field(fieldName string, value interface{}, rules ...ValidationRule) *Validator {
	for _, rule := range rules {
		if err := rule(fieldName, value); err != nil {
			v.errors = append(v.errors, *err)
		}
	}
	return v
}

// HasErrors returns true if there are validation errors
func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}

// Errors returns all validation errors
func (v *Validator) Errors() []ValidationError {
	return v.errors
}

// ErrorMessage returns a combined error message as string
func (v *Validator) ErrorMessage() string {
	if !v.HasErrors() {
		return ""
	}

	var messages []string
	for _, err := range v.errors {
		messages = append(messages, err.Error())
	}
	return strings.Join(messages, "; ")
}

// Error returns the collected failures as a CONFIG_ERROR, or nil.
func (v *Validator) Error() error {
	if !v.HasErrors() {
		return nil
	}
	return NewAppError(CodeConfig, v.ErrorMessage(), ErrInvalidInput)
}

// ValidationRule represents a single validation rule
type ValidationRule func(fieldName string, value interface{}) *ValidationError

// Required - Common validation rules
func Required(fieldName string, value interface{}) *ValidationError {
	if value == nil {
		return &ValidationError{Field: fieldName, Value: value, Message: "is required"}
	}

	switch v := value.(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return &ValidationError{Field: fieldName, Value: value, Message: "is required"}
		}
	case []string:
		if len(v) == 0 {
			return &ValidationError{Field: fieldName, Value: value, Message: "is required"}
		}
	}
	return nil
}

// HTTPURL accepts absolute http(s) URLs with a host.
func HTTPURL(fieldName string, value interface{}) *ValidationError {
	str, ok := value.(string)
	if !ok {
		return &ValidationError{Field: fieldName, Value: value, Message: "must be a string"}
	}
	u, err := url.Parse(str)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return &ValidationError{Field: fieldName, Value: value, Message: "must be an absolute http or https URL"}
	}
	return nil
}

// NonNegativeDuration rejects negative time.Duration values.
func NonNegativeDuration(fieldName string, value interface{}) *ValidationError {
	d, ok := value.(time.Duration)
	if !ok {
		return &ValidationError{Field: fieldName, Value: value, Message: "must be a duration"}
	}
	if d < 0 {
		return &ValidationError{Field: fieldName, Value: value, Message: "must not be negative"}
	}
	return nil
}

// OneOf builds a rule accepting only the listed values (case-insensitive).
// Slices are checked element by element.
func OneOf(allowed ...string) ValidationRule {
	set := make(map[string]struct{}, len(allowed))
	for _, a := range allowed {
		set[strings.ToLower(a)] = struct{}{}
	}
	check := func(s string) bool {
		_, ok := set[strings.ToLower(strings.TrimSpace(s))]
		return ok
	}
	return func(fieldName string, value interface{}) *ValidationError {
		msg := fmt.Sprintf("must be one of: %s", strings.Join(allowed, ", "))
		switch v := value.(type) {
		case string:
			if !check(v) {
				return &ValidationError{Field: fieldName, Value: value, Message: msg}
			}
		case []string:
			for _, s := range v {
				if !check(s) {
					return &ValidationError{Field: fieldName, Value: s, Message: msg}
				}
			}
		default:
			return &ValidationError{Field: fieldName, Value: value, Message: "must be a string"}
		}
		return nil
	}
}
