// Package fields resolves named assumptions from a model's field-value bag.
//
// Stored field keys are not consistent: some carry trailing whitespace
// ("Vacancy " next to "Vacancy"). Callers choose between an exact match,
// which treats those as distinct keys, and a normalized match that trims and
// lower-cases both sides. Neither mode ever fails; a missing key or a value
// that is not numeric resolves to the caller's default.
package fields

import (
	"fmt"
	"strings"

	"github.com/Veraticus/proforma/internal/model"
)

// Mode selects how field keys are compared.
type Mode int

const (
	// Exact compares keys byte for byte.
	Exact Mode = iota
	// Normalized trims and lower-cases both keys before comparing.
	Normalized
	// Trimmed trims both keys but keeps case.
	Trimmed
)

// Resolver looks up values in a model's field bag.
type Resolver struct {
	values   []model.ModelFieldValue
	sections []model.Section
}

// New creates a resolver over the given field values.
func New(values []model.ModelFieldValue) *Resolver {
	return &Resolver{values: values}
}

// FromModel creates a resolver over a model's field values and section
// definitions.
func FromModel(m *model.Model) *Resolver {
	if m == nil {
		return &Resolver{}
	}
	return &Resolver{values: m.FieldValues, sections: m.Sections}
}

// Find returns the first field value whose key matches under mode.
func (r *Resolver) Find(key string, mode Mode) (model.ModelFieldValue, bool) {
	if r == nil {
		return model.ModelFieldValue{}, false
	}
	for _, fv := range r.values {
		if fv.FieldKey == "" {
			continue
		}
		if keysMatch(fv.FieldKey, key, mode) {
			return fv, true
		}
	}
	return model.ModelFieldValue{}, false
}

// Float resolves a numeric value. Empty strings read as zero; anything that
// does not parse as a number yields def.
func (r *Resolver) Float(key string, mode Mode, def float64) float64 {
	fv, ok := r.Find(key, mode)
	if !ok || fv.Value == nil {
		return def
	}
	return coerce(fv.Value, def)
}

// String resolves a value as text, or def when the key is missing or empty.
func (r *Resolver) String(key string, mode Mode, def string) string {
	fv, ok := r.Find(key, mode)
	if !ok || fv.Value == nil {
		return def
	}
	s := fmt.Sprint(fv.Value)
	if s == "" {
		return def
	}
	return s
}

// Lookup resolves a numeric value trying an exact match first and falling
// back to the normalized match.
func (r *Resolver) Lookup(key string, def float64) float64 {
	if _, ok := r.Find(key, Exact); ok {
		return r.Float(key, Exact, def)
	}
	return r.Float(key, Normalized, def)
}

// SectionValue resolves a value through the model's section definitions:
// the field key is matched exactly against section fields and the value is
// joined by field id. It returns def when either step misses.
func (r *Resolver) SectionValue(key, def string) string {
	if r == nil || len(r.sections) == 0 || len(r.values) == 0 {
		return def
	}

	var fieldID string
	for _, section := range r.sections {
		for _, f := range section.Fields {
			if f.FieldKey == key {
				fieldID = f.ID
				break
			}
		}
		if fieldID != "" {
			break
		}
	}
	if fieldID == "" {
		return def
	}

	for _, fv := range r.values {
		if fv.FieldID != fieldID {
			continue
		}
		if fv.Value == nil {
			return def
		}
		s := fmt.Sprint(fv.Value)
		if s == "" {
			return def
		}
		return s
	}
	return def
}

func keysMatch(stored, key string, mode Mode) bool {
	switch mode {
	case Normalized:
		return strings.ToLower(strings.TrimSpace(stored)) == strings.ToLower(strings.TrimSpace(key))
	case Trimmed:
		return strings.TrimSpace(stored) == strings.TrimSpace(key)
	default:
		return stored == key
	}
}

func coerce(v any, def float64) float64 {
	switch t := v.(type) {
	case string:
		f, ok := model.ParseNumber(t)
		if !ok {
			return def
		}
		return f
	default:
		return model.LooseFloat(t, def)
	}
}
