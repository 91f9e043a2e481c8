package sensitivity

import (
	"fmt"

	"github.com/Veraticus/proforma/internal/common"
	"github.com/Veraticus/proforma/internal/model"
)

// AxisHeader labels the cap-rate column of a rendered matrix.
const AxisHeader = "Exit Cap Rate (%)"

// Metric is a matrix kind with its own cell format.
type Metric int

// Metrics.
const (
	IRR Metric = iota
	MOIC
)

// Title is the heading shown above the metric's matrix.
func (m Metric) Title() string {
	if m == MOIC {
		return "Levered MOIC Sensitivity Analysis"
	}
	return "Levered IRR Sensitivity Analysis"
}

// Format renders one cell.
func (m Metric) Format(v float64) string {
	if m == MOIC {
		return fmt.Sprintf("%.2fx", model.Finite(v))
	}
	return fmt.Sprintf("%.1f%%", model.Finite(v))
}

// Table picks the metric's matrix from r.
func (m Metric) Table(r model.SensitivityResult) model.SensitivityTable {
	if m == MOIC {
		return r.MOIC
	}
	return r.IRR
}

// Rows renders t as text: a header row of prices, then one row per cap rate.
// Short value rows are padded with blanks. An empty table renders no rows.
func Rows(t model.SensitivityTable, m Metric) [][]string {
	if len(t.CapRates) == 0 && len(t.AcquisitionPrices) == 0 {
		return nil
	}

	header := make([]string, 0, len(t.AcquisitionPrices)+1)
	header = append(header, AxisHeader)
	for _, p := range t.AcquisitionPrices {
		header = append(header, "$"+common.FormatThousands(p, 0))
	}

	rows := [][]string{header}
	for i, rate := range t.CapRates {
		row := make([]string, len(header))
		row[0] = fmt.Sprintf("%.2f%%", model.Finite(rate))
		if i < len(t.Values) {
			for j := 1; j < len(row) && j-1 < len(t.Values[i]); j++ {
				row[j] = m.Format(t.Values[i][j-1])
			}
		}
		rows = append(rows, row)
	}
	return rows
}
