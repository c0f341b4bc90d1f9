package label

import (
	"errors"
	"strings"
)

// ErrRequired marks a required field that is empty after trimming.
var ErrRequired = errors.New("required")

// FieldError is a validation failure scoped to a single field.
type FieldError struct {
	Field Field
	Err   error
}

func (e *FieldError) Error() string {
	return string(e.Field) + ": " + e.Err.Error()
}

func (e *FieldError) Unwrap() error { return e.Err }

// Reason is the message without the field prefix.
func (e *FieldError) Reason() string { return e.Err.Error() }

// ValidationErrors collects every field error of a record, in form order.
type ValidationErrors []*FieldError

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, e := range v {
		parts = append(parts, e.Error())
	}
	return "label: invalid record: " + strings.Join(parts, "; ")
}

// Unwrap lets errors.Is see through to individual field errors.
func (v ValidationErrors) Unwrap() []error {
	out := make([]error, len(v))
	for i, e := range v {
		out[i] = e
	}
	return out
}

// Field returns the error for f, or nil.
func (v ValidationErrors) Field(f Field) *FieldError {
	for _, e := range v {
		if e.Field == f {
			return e
		}
	}
	return nil
}

// IsComplete reports whether every required field is non-empty after
// trimming whitespace. Optional fields never influence the result.
func IsComplete(r Record) bool {
	for _, f := range RequiredFields {
		if strings.TrimSpace(r.Text(f)) == "" {
			return false
		}
	}
	return true
}

// Validate returns the field-scoped problems of r, or nil when r can be
// exported. On top of completeness it requires a parseable due date.
func Validate(r Record) error {
	var errs ValidationErrors
	for _, f := range Fields {
		if !f.Text() {
			continue
		}
		v := strings.TrimSpace(r.Text(f))
		if isRequired(f) && v == "" {
			errs = append(errs, &FieldError{Field: f, Err: ErrRequired})
			continue
		}
		if f == FieldDueDate && v != "" {
			if _, err := ParseDueDate(v); err != nil {
				errs = append(errs, &FieldError{Field: f, Err: err})
			}
		}
	}
	if r.Density != "" && !r.Density.Valid() {
		errs = append(errs, &FieldError{Field: FieldDensity, Err: ErrInvalidDensity})
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// Ready is the export gate.
func Ready(r Record) bool {
	return Validate(r) == nil
}

func isRequired(f Field) bool {
	for _, rf := range RequiredFields {
		if rf == f {
			return true
		}
	}
	return false
}
