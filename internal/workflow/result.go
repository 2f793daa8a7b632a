// Package workflow provides the generic entity service pipeline shared by the
// request, quote, and project workflow services: named validation rules,
// business-rule guards, lifecycle hooks, and the uniform result envelope.
package workflow

import (
	"caseflow_backend/platform/apperr"
)

// FieldError is a single field-level validation violation.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// MetadataValidationErrors is the Result metadata key carrying []FieldError.
const MetadataValidationErrors = "validationErrors"

// Result is the uniform envelope returned by every workflow operation.
// Expected business failures (validation, guard rejection, not-found, invalid
// action) are encoded here rather than returned as Go errors, so a caller
// always receives the same shape.
type Result[T any] struct {
	Success  bool           `json:"success"`
	Data     *T             `json:"data,omitempty"`
	Error    string         `json:"error,omitempty"`
	Kind     apperr.Kind    `json:"-"`
	Warnings []string       `json:"warnings,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Ok builds a success result.
func Ok[T any](data T, warnings ...string) Result[T] {
	return Result[T]{Success: true, Data: &data, Warnings: warnings}
}

// Fail builds a failure result with a typed kind and display-ready message.
func Fail[T any](kind apperr.Kind, message string) Result[T] {
	return Result[T]{Success: false, Error: message, Kind: kind}
}

// FailValidation builds a failure result carrying every field-level violation.
func FailValidation[T any](errs []FieldError, warnings []string) Result[T] {
	return Result[T]{
		Success:  false,
		Error:    "validation failed",
		Kind:     apperr.KindValidation,
		Warnings: warnings,
		Metadata: map[string]any{MetadataValidationErrors: errs},
	}
}

// FailFrom converts a typed domain error into a failure result, preserving
// its kind and details. Non-typed errors become internal failures.
func FailFrom[T any](err error) Result[T] {
	if e, ok := err.(*apperr.Error); ok {
		res := Fail[T](e.Kind, e.Message)
		if e.Details != nil {
			res.Metadata = map[string]any{"details": e.Details}
		}
		return res
	}
	return Fail[T](apperr.KindInternal, err.Error())
}

// WithWarnings appends warnings to the result.
func (r Result[T]) WithWarnings(warnings ...string) Result[T] {
	r.Warnings = append(r.Warnings, warnings...)
	return r
}

// WithMeta sets a metadata entry on the result.
func (r Result[T]) WithMeta(key string, value any) Result[T] {
	if r.Metadata == nil {
		r.Metadata = make(map[string]any, 1)
	}
	r.Metadata[key] = value
	return r
}

// ValidationErrors returns the field-level violations, if any.
func (r Result[T]) ValidationErrors() []FieldError {
	if r.Metadata == nil {
		return nil
	}
	errs, _ := r.Metadata[MetadataValidationErrors].([]FieldError)
	return errs
}

// Err bridges the envelope to the typed error taxonomy for the HTTP layer.
// Returns nil for successful results.
func (r Result[T]) Err() error {
	if r.Success {
		return nil
	}
	kind := r.Kind
	if kind == apperr.KindUnknown {
		kind = apperr.KindInternal
	}
	e := apperr.New(kind, r.Error)
	if errs := r.ValidationErrors(); len(errs) > 0 {
		e = e.WithDetails(errs)
	}
	return e
}
