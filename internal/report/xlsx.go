package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/Veraticus/proforma/internal/config"
	"github.com/Veraticus/proforma/internal/tablemap"
)

// maxSheetName is Excel's limit on worksheet name length.
const maxSheetName = 31

// XLSX writes documents as workbooks with one sheet per section.
type XLSX struct {
	theme config.Theme
}

// NewXLSX creates a workbook writer.
func NewXLSX(theme config.Theme) *XLSX {
	return &XLSX{theme: theme}
}

type cellStyleKey struct {
	bold   bool
	fill   string
	color  string
	align  string
	border string
}

// xlsxWriter carries the state of one export.
type xlsxWriter struct {
	*XLSX
	f      *excelize.File
	styles map[cellStyleKey]int
	used   map[string]bool
}

// Write exports the enabled sections of doc in opts.Order. Empty sections
// get no sheet.
func (x *XLSX) Write(w io.Writer, doc Document, opts Options) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	// The default sheet is deleted at the end; reserve its name until then.
	xw := &xlsxWriter{XLSX: x, f: f, styles: make(map[cellStyleKey]int), used: map[string]bool{"sheet1": true}}

	for _, key := range opts.Order {
		if !opts.Enabled(key) {
			continue
		}
		var err error
		switch key {
		case SectionSummary:
			err = xw.summary(doc)
		case SectionSensitivity:
			err = xw.sheet("Sensitivity", doc.Sensitivity, true)
		case SectionIncome:
			for _, g := range doc.Income {
				if err = xw.sheet(g.Title, []Grid{g}, false); err != nil {
					break
				}
			}
		case SectionImages, SectionNotes:
			// Pictures and notes only appear in the PDF.
		default:
			if g, ok := doc.Table(key); ok {
				err = xw.sheet(g.Title, []Grid{g}, false)
			}
		}
		if err != nil {
			return err
		}
	}

	if len(xw.used) == 1 {
		if _, err := f.NewSheet("Report"); err != nil {
			return fmt.Errorf("failed to create sheet: %w", err)
		}
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to delete default sheet: %w", err)
	}
	f.SetActiveSheet(0)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func (w *xlsxWriter) summary(doc Document) error {
	kpis := Grid{Title: "Key Performance Metrics", Header: true}
	if len(doc.KPIs) > 0 {
		labels := make([]string, len(doc.KPIs))
		values := make([]string, len(doc.KPIs))
		for i, k := range doc.KPIs {
			labels[i], values[i] = k.Label, k.Value
		}
		kpis.Rows = [][]string{labels, values}
	}
	return w.sheet("Summary", append([]Grid{kpis}, doc.Summary...), true)
}

// sheet writes grids one under another on a new worksheet, separated by a
// blank row. Titled grids get a bold title row when titled is set.
func (w *xlsxWriter) sheet(name string, grids []Grid, titled bool) error {
	if !hasRows(grids) {
		return nil
	}

	name = w.sheetName(name)
	if _, err := w.f.NewSheet(name); err != nil {
		return fmt.Errorf("failed to create sheet %q: %w", name, err)
	}

	row := 1
	widest := 0
	for _, g := range grids {
		if g.Empty() {
			continue
		}
		if titled && g.Title != "" {
			if err := w.set(name, 1, row, g.Title, cellStyleKey{bold: true}); err != nil {
				return err
			}
			row++
		}
		for i, cells := range g.Rows {
			for j, text := range cells {
				if err := w.set(name, j+1, row, text, w.styleKey(g, i, j)); err != nil {
					return err
				}
			}
			row++
		}
		widest = max(widest, g.ColumnCount())
		row++
	}

	if widest > 0 {
		last, err := excelize.ColumnNumberToName(widest)
		if err != nil {
			return fmt.Errorf("failed to name column %d: %w", widest, err)
		}
		if err := w.f.SetColWidth(name, "A", "A", 32); err != nil {
			return fmt.Errorf("failed to set column width: %w", err)
		}
		if widest > 1 {
			if err := w.f.SetColWidth(name, "B", last, 16); err != nil {
				return fmt.Errorf("failed to set column width: %w", err)
			}
		}
	}
	return nil
}

func (w *xlsxWriter) styleKey(g Grid, i, j int) cellStyleKey {
	s := g.Style(i, j)
	key := cellStyleKey{
		bold:  s.Bold() || (g.Header && i == 0) || (g.IsTotals(i) && j == 0),
		fill:  hexOf(s.BackgroundColor),
		color: hexOf(s.Color),
		align: g.Align(i, j),
	}
	if s.BorderBottom != nil {
		key.border = hexOf(s.BorderBottom.Color)
	}
	switch {
	case key.fill != "":
	case g.Header && i == 0:
		key.fill = hexOf(w.theme.HeaderFill)
	case g.IsTotals(i):
		key.fill = hexOf(w.theme.TotalsFill)
	}
	return key
}

// set writes one cell. Plain numbers are stored as numbers so the sheet
// stays usable for arithmetic; everything else is text.
func (w *xlsxWriter) set(sheet string, col, row int, text string, key cellStyleKey) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return fmt.Errorf("failed to name cell: %w", err)
	}

	var value any = text
	if f, err := strconv.ParseFloat(strings.TrimSpace(text), 64); err == nil {
		value = f
	}
	if err := w.f.SetCellValue(sheet, cell, value); err != nil {
		return fmt.Errorf("failed to set cell %s: %w", cell, err)
	}

	id, err := w.style(key)
	if err != nil {
		return err
	}
	if err := w.f.SetCellStyle(sheet, cell, cell, id); err != nil {
		return fmt.Errorf("failed to style cell %s: %w", cell, err)
	}
	return nil
}

func (w *xlsxWriter) style(key cellStyleKey) (int, error) {
	if id, ok := w.styles[key]; ok {
		return id, nil
	}

	st := &excelize.Style{
		Font: &excelize.Font{Bold: key.bold, Size: 10},
		Alignment: &excelize.Alignment{
			Horizontal: map[string]string{"L": "left", "C": "center", "R": "right"}[key.align],
			Vertical:   "center",
		},
	}
	if key.color != "" {
		st.Font.Color = key.color
	}
	if key.fill != "" {
		st.Fill = excelize.Fill{Type: "pattern", Color: []string{key.fill}, Pattern: 1}
	}
	border := key.border
	if border == "" {
		border = hexOf(w.theme.Border)
	}
	if border != "" {
		st.Border = []excelize.Border{{Type: "bottom", Color: border, Style: 1}}
	}

	id, err := w.f.NewStyle(st)
	if err != nil {
		return 0, fmt.Errorf("failed to create cell style: %w", err)
	}
	w.styles[key] = id
	return id, nil
}

// sheetName makes a valid, unique worksheet name.
func (w *xlsxWriter) sheetName(name string) string {
	name = strings.Map(func(r rune) rune {
		if strings.ContainsRune(`[]:*?/\`, r) {
			return '-'
		}
		return r
	}, strings.TrimSpace(name))
	name = strings.Trim(name, "'")
	if name == "" {
		name = "Table"
	}
	if r := []rune(name); len(r) > maxSheetName {
		name = string(r[:maxSheetName])
	}

	base, unique := name, name
	for n := 2; w.used[strings.ToLower(unique)]; n++ {
		suffix := fmt.Sprintf(" (%d)", n)
		r := []rune(base)
		if len(r)+len(suffix) > maxSheetName {
			r = r[:maxSheetName-len(suffix)]
		}
		unique = string(r) + suffix
	}
	w.used[strings.ToLower(unique)] = true
	return unique
}

// hexOf normalizes a CSS color to #rrggbb, or "" when it cannot be parsed.
func hexOf(s string) string {
	if s == "" {
		return ""
	}
	c, ok := tablemap.ParseColor(s)
	if !ok {
		return ""
	}
	return c.Hex()
}
