// Package tablemap normalizes spreadsheet-authored table mappings for
// rendering: blank trimming, column sizing and inline style parsing.
package tablemap

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Veraticus/proforma/internal/model"
)

// KeepTogetherRows is the largest table a paginated renderer should keep on
// one page.
const KeepTogetherRows = 18

// Trimmed is a table cut down to its non-blank bounding box. Rows and
// Styles are index-aligned and rectangular.
type Trimmed struct {
	Rows   [][]model.Cell
	Styles [][]string
}

// Empty reports whether there is nothing to render.
func (t Trimmed) Empty() bool {
	return len(t.Rows) == 0
}

// ColumnCount is the width of the table.
func (t Trimmed) ColumnCount() int {
	if len(t.Rows) == 0 {
		return 0
	}
	return len(t.Rows[0])
}

// KeepTogether reports whether the table is small enough to avoid a page
// break inside it.
func (t Trimmed) KeepTogether() bool {
	return len(t.Rows) <= KeepTogetherRows
}

// Style returns the style string of a cell, or "" when out of range.
func (t Trimmed) Style(row, col int) string {
	if row < 0 || row >= len(t.Styles) || col < 0 || col >= len(t.Styles[row]) {
		return ""
	}
	return t.Styles[row][col]
}

// Text returns the display text of a cell.
func (t Trimmed) Text(row, col int) string {
	if row < 0 || row >= len(t.Rows) || col < 0 || col >= len(t.Rows[row]) {
		return ""
	}
	return CellText(t.Rows[row][col])
}

// Trim drops the trailing run of blank rows and every column that is blank
// across the surviving rows. Leading and interior blank rows stay, as do
// interior columns that carry any value. Ragged rows are padded with "".
func Trim(m model.TableMapping) Trimmed {
	last := -1
	for i := len(m.Data) - 1; i >= 0; i-- {
		if !blankRow(m.Data[i]) {
			last = i
			break
		}
	}
	if last < 0 {
		return Trimmed{}
	}

	maxCols := 0
	for i := 0; i <= last; i++ {
		maxCols = max(maxCols, len(m.Data[i]))
	}

	keep := make([]int, 0, maxCols)
	for c := 0; c < maxCols; c++ {
		for i := 0; i <= last; i++ {
			if c < len(m.Data[i]) && !model.IsBlank(m.Data[i][c]) {
				keep = append(keep, c)
				break
			}
		}
	}
	if len(keep) == 0 {
		return Trimmed{}
	}

	out := Trimmed{
		Rows:   make([][]model.Cell, last+1),
		Styles: make([][]string, last+1),
	}
	for i := 0; i <= last; i++ {
		row := make([]model.Cell, len(keep))
		styles := make([]string, len(keep))
		for j, c := range keep {
			row[j] = ""
			if c < len(m.Data[i]) && m.Data[i][c] != nil {
				row[j] = m.Data[i][c]
			}
			if i < len(m.Styles) && c < len(m.Styles[i]) {
				styles[j] = m.Styles[i][c]
			}
		}
		out.Rows[i] = row
		out.Styles[i] = styles
	}
	return out
}

func blankRow(row []model.Cell) bool {
	for _, c := range row {
		if !model.IsBlank(c) {
			return false
		}
	}
	return true
}

// CellText renders a cell value as display text.
func CellText(c model.Cell) string {
	switch v := c.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}

// LooksNumeric reports whether a cell should be right-aligned: it has at
// least one digit and no letters.
func LooksNumeric(c model.Cell) bool {
	s := strings.TrimSpace(CellText(c))
	if s == "" {
		return false
	}
	hasDigit := false
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			hasDigit = true
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			return false
		}
	}
	return hasDigit
}
