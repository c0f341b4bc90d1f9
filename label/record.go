// Package label holds the label record entered by the user and the rules
// that decide whether it is ready to be exported as a sheet.
package label

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidDensity is returned when a density selector is outside
	// the closed set normal/small/smallest.
	ErrInvalidDensity = errors.New("label: invalid density")
	// ErrUnknownField is returned when an edit names a field the record does not have.
	ErrUnknownField = errors.New("label: unknown field")
	// ErrInvalidBool is returned when the vegan checkbox receives a non-boolean value.
	ErrInvalidBool = errors.New("label: invalid boolean")
)

// Density selects the typographic tier used across a whole sheet.
type Density string

const (
	DensityNormal   Density = "normal"
	DensitySmall    Density = "small"
	DensitySmallest Density = "smallest"
)

// Densities lists the closed set in decreasing font size order.
var Densities = []Density{DensityNormal, DensitySmall, DensitySmallest}

// Valid reports whether d is one of the closed set. The empty value is not valid;
// use Resolve to map it to the default.
func (d Density) Valid() bool {
	switch d {
	case DensityNormal, DensitySmall, DensitySmallest:
		return true
	}
	return false
}

// Resolve returns normal for the zero value and d otherwise.
func (d Density) Resolve() Density {
	if d == "" {
		return DensityNormal
	}
	return d
}

// ParseDensity accepts the density names case-insensitively.
func ParseDensity(s string) (Density, error) {
	d := Density(strings.ToLower(strings.TrimSpace(s)))
	if !d.Valid() {
		return "", fmt.Errorf("%w: %q (want normal, small or smallest)", ErrInvalidDensity, s)
	}
	return d, nil
}

// Field names one of the nine record fields.
type Field string

const (
	FieldProductName  Field = "productName"
	FieldPrice        Field = "price"
	FieldDueDate      Field = "dueDate"
	FieldIngredients  Field = "ingredients"
	FieldAllergens    Field = "allergens"
	FieldInstructions Field = "instructions"
	FieldDescription  Field = "description"
	FieldIsVegan      Field = "isVegan"
	FieldDensity      Field = "densityLevel"
)

// Fields lists every record field in form order.
var Fields = []Field{
	FieldProductName,
	FieldPrice,
	FieldDueDate,
	FieldIngredients,
	FieldAllergens,
	FieldInstructions,
	FieldDescription,
	FieldIsVegan,
	FieldDensity,
}

// RequiredFields are the fields checked by IsComplete.
var RequiredFields = []Field{
	FieldProductName,
	FieldPrice,
	FieldDueDate,
	FieldIngredients,
	FieldInstructions,
}

var fieldAliases = map[string]Field{
	"fontsize": FieldDensity,
	"density":  FieldDensity,
	"vegan":    FieldIsVegan,
	"name":     FieldProductName,
	"product":  FieldProductName,
	"due":      FieldDueDate,
}

// ParseField maps a user-facing key to a Field. Matching ignores case as well
// as '-' and '_' separators, so "product-name" and "product_name" both work.
func ParseField(name string) (Field, error) {
	key := normalizeKey(name)
	for _, f := range Fields {
		if normalizeKey(string(f)) == key {
			return f, nil
		}
	}
	if f, ok := fieldAliases[key]; ok {
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownField, name)
}

// Text reports whether the field holds free-form text.
func (f Field) Text() bool {
	return f != FieldIsVegan && f != FieldDensity && f != ""
}

func normalizeKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("-", "", "_", "", " ", "").Replace(s)
}

// Record is one snapshot of the label form.
type Record struct {
	ProductName  string  `json:"productName" yaml:"productName" toml:"productName"`
	Price        string  `json:"price" yaml:"price" toml:"price"`
	DueDate      string  `json:"dueDate" yaml:"dueDate" toml:"dueDate"`
	Ingredients  string  `json:"ingredients" yaml:"ingredients" toml:"ingredients"`
	Allergens    string  `json:"allergens" yaml:"allergens" toml:"allergens"`
	Instructions string  `json:"instructions" yaml:"instructions" toml:"instructions"`
	Description  string  `json:"description" yaml:"description" toml:"description"`
	IsVegan      bool    `json:"isVegan" yaml:"isVegan" toml:"isVegan"`
	Density      Density `json:"densityLevel" yaml:"densityLevel" toml:"densityLevel"`
}

// Empty returns the initial record: all text empty, not vegan, normal density.
func Empty() Record {
	return Record{Density: DensityNormal}
}

// Text returns the raw value of a text field.
func (r Record) Text(f Field) string {
	switch f {
	case FieldProductName:
		return r.ProductName
	case FieldPrice:
		return r.Price
	case FieldDueDate:
		return r.DueDate
	case FieldIngredients:
		return r.Ingredients
	case FieldAllergens:
		return r.Allergens
	case FieldInstructions:
		return r.Instructions
	case FieldDescription:
		return r.Description
	}
	return ""
}

func (r *Record) setText(f Field, v string) {
	switch f {
	case FieldProductName:
		r.ProductName = v
	case FieldPrice:
		r.Price = v
	case FieldDueDate:
		r.DueDate = v
	case FieldIngredients:
		r.Ingredients = v
	case FieldAllergens:
		r.Allergens = v
	case FieldInstructions:
		r.Instructions = v
	case FieldDescription:
		r.Description = v
	}
}
