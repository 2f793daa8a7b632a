package workflow

import "context"

// Report is the outcome of one validation rule.
type Report struct {
	Valid    bool
	Errors   []FieldError
	Warnings []string
}

// ValidReport returns a passing report.
func ValidReport() Report {
	return Report{Valid: true}
}

// Invalid returns a failing report with a single field violation.
func Invalid(field, message string) Report {
	return Report{Valid: false, Errors: []FieldError{{Field: field, Message: message}}}
}

// AddError appends a field violation and marks the report invalid.
func (r *Report) AddError(field, message string) {
	r.Valid = false
	r.Errors = append(r.Errors, FieldError{Field: field, Message: message})
}

// AddWarning appends a non-blocking warning.
func (r *Report) AddWarning(message string) {
	r.Warnings = append(r.Warnings, message)
}

// Rule is a named, independently testable validation unit.
type Rule[I any] struct {
	Name  string
	Check func(ctx context.Context, input I) Report
}

// RunRules executes every rule, concatenating errors and warnings. It never
// short-circuits on the first failure so a caller sees all violations at once.
func RunRules[I any](ctx context.Context, rules []Rule[I], input I) ([]FieldError, []string) {
	var errs []FieldError
	var warnings []string
	for _, rule := range rules {
		report := rule.Check(ctx, input)
		if !report.Valid {
			errs = append(errs, report.Errors...)
		}
		warnings = append(warnings, report.Warnings...)
	}
	return errs, warnings
}
