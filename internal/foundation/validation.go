// Package foundation holds small generic building blocks shared by the
// configuration and command layers.
package foundation

import (
	"fmt"
	"strings"

	"git.home.luguber.info/inful/assetpipe/internal/foundation/errors"
)

// Validator represents a validation function.
type Validator[T any] func(T) ValidationResult

// ValidationResult contains the result of a validation operation.
type ValidationResult struct {
	Valid  bool
	Errors []FieldError
}

// FieldError represents a single validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Value   any    `json:"value,omitempty"`
}

// Error implements the error interface.
func (fe FieldError) Error() string {
	if fe.Field != "" {
		return fmt.Sprintf("%s: %s", fe.Field, fe.Message)
	}
	return fe.Message
}

// Valid creates a successful validation result.
func Valid() ValidationResult {
	return ValidationResult{Valid: true}
}

// Invalid creates a failed validation result with errors.
func Invalid(errors ...FieldError) ValidationResult {
	return ValidationResult{Errors: errors}
}

// NewFieldError creates a field validation failure.
func NewFieldError(field, code, message string, value any) FieldError {
	return FieldError{Field: field, Code: code, Message: message, Value: value}
}

// Combine merges two validation results.
func (vr ValidationResult) Combine(other ValidationResult) ValidationResult {
	if vr.Valid && other.Valid {
		return Valid()
	}
	return Invalid(append(append([]FieldError(nil), vr.Errors...), other.Errors...)...)
}

// ToError converts a validation result to a classified validation error.
// The first failure's value, when present, is attached as the error path.
func (vr ValidationResult) ToError() error {
	if vr.Valid {
		return nil
	}
	messages := make([]string, 0, len(vr.Errors))
	fields := make([]string, 0, len(vr.Errors))
	for _, fe := range vr.Errors {
		messages = append(messages, fe.Error())
		fields = append(fields, fe.Field)
	}
	b := errors.ValidationError(strings.Join(messages, "; ")).
		WithContext("fields", fields)
	if len(vr.Errors) > 0 {
		if p, ok := vr.Errors[0].Value.(string); ok && p != "" {
			b = b.WithContext("path", p)
		}
	}
	return b.Build()
}

// ValidatorChain runs validators in order and collects every failure.
type ValidatorChain[T any] struct {
	validators []Validator[T]
}

// NewValidatorChain creates a new validator chain.
func NewValidatorChain[T any](validators ...Validator[T]) *ValidatorChain[T] {
	return &ValidatorChain[T]{validators: validators}
}

// Add appends a validator to the chain.
func (vc *ValidatorChain[T]) Add(validator Validator[T]) *ValidatorChain[T] {
	vc.validators = append(vc.validators, validator)
	return vc
}

// Validate runs all validators in the chain.
func (vc *ValidatorChain[T]) Validate(value T) ValidationResult {
	result := Valid()
	for _, validator := range vc.validators {
		result = result.Combine(validator(value))
	}
	return result
}

// InRange validates that an integer lies within [lo, hi].
func InRange(field string, lo, hi int) Validator[int] {
	return func(v int) ValidationResult {
		if v < lo || v > hi {
			return Invalid(NewFieldError(field, "range", fmt.Sprintf("%d out of range %d..%d", v, lo, hi), nil))
		}
		return Valid()
	}
}

// Field lifts a validator of one field into a validator of its parent.
func Field[P, T any](get func(P) T, v Validator[T]) Validator[P] {
	return func(p P) ValidationResult { return v(get(p)) }
}
