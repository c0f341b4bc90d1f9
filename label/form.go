package label

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Edit is a single raw field update coming from an input surface.
type Edit struct {
	Field Field
	Value string
}

// Form keeps the record being edited and its export readiness.
// A Form is not safe for concurrent use.
type Form struct {
	rec       Record
	ready     bool
	listeners []func(ready bool)
}

// NewForm starts from the empty record.
func NewForm() *Form {
	return NewFormFrom(Empty())
}

// NewFormFrom starts from an existing record.
func NewFormFrom(r Record) *Form {
	f := &Form{rec: r}
	f.ready = Ready(r)
	return f
}

// OnChange registers fn to be called with the new readiness whenever an edit
// flips it. fn is called once right away with the current value.
func (f *Form) OnChange(fn func(ready bool)) {
	if fn == nil {
		return
	}
	f.listeners = append(f.listeners, fn)
	fn(f.ready)
}

// Apply merges one raw edit into the record. Text fields take the raw string
// verbatim and never fail. Vegan and density values are parsed; on error the
// record is left untouched. An empty density selects normal.
func (f *Form) Apply(e Edit) error {
	switch {
	case e.Field.Text():
		f.SetText(e.Field, e.Value)
		return nil
	case e.Field == FieldIsVegan:
		v, err := parseBool(e.Value)
		if err != nil {
			return err
		}
		f.SetVegan(v)
		return nil
	case e.Field == FieldDensity:
		if strings.TrimSpace(e.Value) == "" {
			return f.SetDensity(DensityNormal)
		}
		d, err := ParseDensity(e.Value)
		if err != nil {
			return err
		}
		return f.SetDensity(d)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, e.Field)
	}
}

// ApplyAll applies edits in order and stops at the first rejected one.
func (f *Form) ApplyAll(edits []Edit) error {
	for _, e := range edits {
		if err := f.Apply(e); err != nil {
			return err
		}
	}
	return nil
}

// SetText sets a text field. Non-text fields are ignored.
func (f *Form) SetText(field Field, v string) {
	if !field.Text() {
		return
	}
	f.rec.setText(field, v)
	f.recompute()
}

// SetVegan sets the vegan checkbox.
func (f *Form) SetVegan(v bool) {
	f.rec.IsVegan = v
	f.recompute()
}

// SetDensity sets the density selector, rejecting values outside the closed set.
func (f *Form) SetDensity(d Density) error {
	if !d.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidDensity, d)
	}
	f.rec.Density = d
	f.recompute()
	return nil
}

// Snapshot returns a copy of the current record.
func (f *Form) Snapshot() Record { return f.rec }

// Ready reports whether the current record passes validation.
func (f *Form) Ready() bool { return f.ready }

// Complete reports whether the required fields are filled in.
func (f *Form) Complete() bool { return IsComplete(f.rec) }

// Errors returns the current field errors, nil when ready.
func (f *Form) Errors() ValidationErrors {
	var errs ValidationErrors
	if errors.As(Validate(f.rec), &errs) {
		return errs
	}
	return nil
}

func (f *Form) recompute() {
	ready := Ready(f.rec)
	if ready == f.ready {
		return
	}
	f.ready = ready
	for _, fn := range f.listeners {
		fn(ready)
	}
}

func parseBool(s string) (bool, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch v {
	case "":
		return false, nil
	case "yes", "y", "on":
		return true, nil
	case "no", "n", "off":
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%w: %q", ErrInvalidBool, s)
	}
	return b, nil
}
