package tablemap

// PDFContentWidth is the usable width of a Letter page in points: 612pt
// less 32pt of padding on each side.
const PDFContentWidth = 548.0

// ColumnWidths returns percentage widths for n columns. The first column
// weighs 2 and the rest 1; each weight is divided by n+1.
func ColumnWidths(n int) []float64 {
	if n <= 0 {
		return nil
	}
	base := 100 / float64(n+1)
	out := make([]float64, n)
	for i := range out {
		out[i] = base
	}
	out[0] = 2 * base
	return out
}

// PointWidths converts ColumnWidths to absolute widths for a page of the
// given usable width.
func PointWidths(n int, pageWidth float64) []float64 {
	pct := ColumnWidths(n)
	for i := range pct {
		pct[i] = pct[i] / 100 * pageWidth
	}
	return pct
}
