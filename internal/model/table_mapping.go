package model

import "strings"

// Cell is a spreadsheet value: nil, a string, or a number.
type Cell = any

// TableMapping is a rectangular region exported from the model's workbook,
// with a parallel array of inline CSS style strings.
type TableMapping struct {
	TableName string     `json:"table_name"`
	Location  string     `json:"location,omitempty"`
	Data      [][]Cell   `json:"data"`
	Styles    [][]string `json:"styles"`
	Order     Number     `json:"order"`
	Summary   *bool      `json:"summary,omitempty"`
}

// IsSummary reports whether the mapping is flagged as a summary table. The
// second value is false when the flag is absent.
func (t TableMapping) IsSummary() (bool, bool) {
	if t.Summary == nil {
		return false, false
	}
	return *t.Summary, true
}

// IsBlank reports whether a cell renders as nothing.
func IsBlank(c Cell) bool {
	switch v := c.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	default:
		return false
	}
}
