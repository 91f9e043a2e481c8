// Package report renders a model version as a paginated PDF summary or an
// XLSX workbook.
package report

import "slices"

// Built-in section keys. Named tables use their table name as the key.
const (
	SectionSummary     = "Summary Info"
	SectionSensitivity = "Sensitivity Tables"
	SectionIncome      = "Income and Expenses"
	SectionImages      = "Property Images"
	SectionNotes       = "Include Notes"
)

// Header flags. They toggle parts of the page header and never appear in
// the section order.
const (
	FlagCompanyInfo = "Include Company Info"
	FlagCompanyLogo = "Include Company Logo"
)

// Direction moves a section one step in the order.
type Direction int

// Directions.
const (
	Up Direction = iota
	Down
)

// Options selects and orders report sections.
type Options struct {
	Flags map[string]bool
	Order []string
}

// DefaultOptions enables every section except notes. Images are enabled
// only when the model has pictures. tables are the visible table names in
// display order.
func DefaultOptions(tables []string, hasPictures bool) Options {
	flags := map[string]bool{
		SectionSummary:     true,
		SectionSensitivity: true,
		SectionIncome:      true,
		FlagCompanyInfo:    true,
		FlagCompanyLogo:    true,
		SectionImages:      hasPictures,
		SectionNotes:       false,
	}
	for _, name := range tables {
		flags[name] = true
	}
	return Options{Flags: flags, Order: DefaultOrder(tables)}
}

// DefaultOrder lists the built-in sections around the named tables.
func DefaultOrder(tables []string) []string {
	order := make([]string, 0, len(tables)+5)
	order = append(order, SectionSummary, SectionSensitivity, SectionIncome)
	order = append(order, tables...)
	return append(order, SectionImages, SectionNotes)
}

// Enabled reports whether a section or flag is on. Unknown keys are off.
func (o Options) Enabled(key string) bool {
	return o.Flags[key]
}

// Set turns a section or flag on or off.
func (o *Options) Set(key string, on bool) {
	if o.Flags == nil {
		o.Flags = make(map[string]bool)
	}
	o.Flags[key] = on
}

// Move shifts a section in the order.
func (o *Options) Move(key string, dir Direction) {
	o.Order = MoveSection(o.Order, key, dir)
}

// MoveSection returns a copy of order with key swapped with its neighbor.
// Moving past either end, or moving a key that is not present, leaves the
// order unchanged.
func MoveSection(order []string, key string, dir Direction) []string {
	out := slices.Clone(order)
	i := slices.Index(out, key)
	if i < 0 {
		return out
	}
	j := i - 1
	if dir == Down {
		j = i + 1
	}
	if j < 0 || j >= len(out) {
		return out
	}
	out[i], out[j] = out[j], out[i]
	return out
}
