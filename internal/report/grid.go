package report

import (
	"fmt"
	"strings"

	"github.com/Veraticus/proforma/internal/common"
	"github.com/Veraticus/proforma/internal/expense"
	"github.com/Veraticus/proforma/internal/fields"
	"github.com/Veraticus/proforma/internal/income"
	"github.com/Veraticus/proforma/internal/model"
	"github.com/Veraticus/proforma/internal/sensitivity"
	"github.com/Veraticus/proforma/internal/tablemap"
)

// Grid is a titled block of text cells ready for any renderer. The first
// row is a header when Header is set and the last row is a totals row when
// Totals is set. Styles, when present, is index-aligned with Rows.
// Mapped marks a table copied from the workbook, whose columns carry mixed
// text and figures.
type Grid struct {
	Title  string
	Rows   [][]string
	Styles [][]tablemap.CellStyle
	Header bool
	Totals bool
	Mapped bool
}

// Empty reports whether the grid has no rows.
func (g Grid) Empty() bool {
	return len(g.Rows) == 0
}

// ColumnCount is the width of the widest row.
func (g Grid) ColumnCount() int {
	n := 0
	for _, row := range g.Rows {
		n = max(n, len(row))
	}
	return n
}

// Style returns the parsed style of a cell, or the zero style.
func (g Grid) Style(row, col int) tablemap.CellStyle {
	if row < 0 || row >= len(g.Styles) || col < 0 || col >= len(g.Styles[row]) {
		return tablemap.CellStyle{}
	}
	return g.Styles[row][col]
}

// Align returns "L", "C" or "R" for a cell. An explicit text-align wins.
// Otherwise the first column is left aligned; in a mapped grid other cells
// are right aligned only when they look numeric, elsewhere always.
func (g Grid) Align(row, col int) string {
	switch strings.ToLower(g.Style(row, col).TextAlign) {
	case "left":
		return "L"
	case "center":
		return "C"
	case "right":
		return "R"
	}
	if col == 0 {
		return "L"
	}
	if g.Mapped && !g.numeric(row, col) {
		return "L"
	}
	return "R"
}

func (g Grid) numeric(row, col int) bool {
	if row < 0 || row >= len(g.Rows) || col >= len(g.Rows[row]) {
		return false
	}
	return tablemap.LooksNumeric(g.Rows[row][col])
}

// IsTotals reports whether row is the totals row.
func (g Grid) IsTotals(row int) bool {
	return g.Totals && row == len(g.Rows)-1
}

// MappingGrid trims a spreadsheet table mapping and parses its cell styles.
// The first trimmed row is the header.
func MappingGrid(m model.TableMapping) Grid {
	t := tablemap.Trim(m)
	g := Grid{Title: m.TableName, Header: true, Mapped: true}
	if t.Empty() {
		return g
	}

	g.Rows = make([][]string, len(t.Rows))
	g.Styles = make([][]tablemap.CellStyle, len(t.Rows))
	for i := range t.Rows {
		g.Rows[i] = make([]string, t.ColumnCount())
		g.Styles[i] = make([]tablemap.CellStyle, t.ColumnCount())
		for j := range g.Rows[i] {
			g.Rows[i][j] = t.Text(i, j)
			g.Styles[i][j] = tablemap.ParseStyle(t.Style(i, j))
		}
	}
	return g
}

// SensitivityGrid renders one sensitivity matrix with the price axis as the
// header row.
func SensitivityGrid(r model.SensitivityResult, metric sensitivity.Metric) Grid {
	return Grid{
		Title:  metric.Title(),
		Rows:   sensitivity.Rows(metric.Table(r), metric),
		Header: true,
	}
}

// UnitsGrid renders the residential rent roll with a totals row.
func UnitsGrid(units []model.Unit, assumptions []model.MarketRentAssumption) Grid {
	g := Grid{Title: "Units", Header: true, Totals: true}
	if len(units) == 0 {
		return g
	}

	g.Rows = append(g.Rows, []string{"Unit", "Layout", "Square Feet", "Current Rent", "Rent Type", "Pro Forma Rent"})
	for i, u := range units {
		pf := ""
		if rent, ok := income.ProFormaRent(u, assumptions); ok {
			pf = "$" + locale(rent)
		}
		g.Rows = append(g.Rows, []string{
			fmt.Sprint(i + 1),
			u.Layout,
			locale(u.SquareFeet.Float()),
			"$" + locale(u.CurrentRent.Float()),
			u.RentType,
			pf,
		})
	}

	totals := income.RentRollTotals(units, assumptions)
	g.Rows = append(g.Rows, []string{
		"Totals",
		"",
		locale(totals.SquareFeet),
		"$" + locale(totals.CurrentRent),
		"",
		"$" + locale(totals.ProFormaRent),
	})
	return g
}

// AmenityGrid renders ancillary income lines with a totals row.
func AmenityGrid(rows []model.AmenityIncomeRow) Grid {
	g := Grid{Title: "Amenity Income", Header: true, Totals: true}
	if len(rows) == 0 {
		return g
	}

	g.Rows = append(g.Rows, []string{"Name", "Start Month", "Utilization", "Unit Count", "Monthly Fee", "Usage", "Monthly", "Annual"})
	var monthly, annual float64
	for _, a := range rows {
		monthly += a.Monthly()
		annual += a.Annual()
		g.Rows = append(g.Rows, []string{
			a.Name,
			locale(a.StartMonth.Float()),
			locale(a.Utilization.Float()) + "%",
			locale(a.UnitCount.Float()) + " units",
			"$" + locale(a.MonthlyFee.Float()),
			locale(a.Usage()) + " Units",
			"$" + locale(a.Monthly()),
			"$" + locale(a.Annual()),
		})
	}
	g.Rows = append(g.Rows, []string{"Totals", "", "", "", "", "", "$" + locale(monthly), "$" + locale(annual)})
	return g
}

// ExpensesTitle heads the operating expense table.
const ExpensesTitle = "OPERATING EXPENSES"

// ExpensesGrid renders residential operating expenses annualized by alloc,
// with a totals row. Amounts are whole dollars.
func ExpensesGrid(rows []model.OperatingExpenseRow, alloc *expense.Allocator) Grid {
	g := Grid{Title: ExpensesTitle, Header: true, Totals: true}
	if len(rows) == 0 {
		return g
	}

	allocs := alloc.AnnualizeAll(rows)
	g.Rows = append(g.Rows, []string{"Name", "Cost per", "Expense", "Statistic", "Monthly", "Annual"})
	for i, a := range allocs {
		g.Rows = append(g.Rows, []string{
			a.Name,
			rows[i].CostPer,
			expenseAmount(a),
			a.StatisticLabel,
			common.FormatMoney(a.Monthly),
			common.FormatMoney(a.Annual),
		})
	}
	total := expense.Totals(allocs)
	g.Rows = append(g.Rows, []string{"Totals", "", "", "", common.FormatMoney(total.Monthly), common.FormatMoney(total.Annual)})
	return g
}

func expenseAmount(a expense.Allocation) string {
	switch a.Basis {
	case expense.BasisPercentOfEGI:
		return locale(a.Factor) + "%"
	case expense.BasisUnknown:
		return locale(a.Factor)
	default:
		return "$" + locale(a.Factor)
	}
}

// KPI is a labeled headline figure.
type KPI struct {
	Label string
	Value string
}

// KPIs returns the headline returns and the hold period. Missing values
// render as "-". The hold period is the later of the multifamily and retail
// exit months.
func KPIs(r *fields.Resolver) []KPI {
	hold := "-"
	mf, mfOK := exitMonth(r, fields.MultifamilyExitMonth)
	rt, rtOK := exitMonth(r, fields.RetailExitMonth)
	if mfOK || rtOK {
		hold = locale(max(mf, rt)) + " Months"
	}
	return []KPI{
		{Label: fields.LeveredIRR, Value: r.String(fields.LeveredIRR, fields.Exact, "-")},
		{Label: fields.LeveredMOIC, Value: r.String(fields.LeveredMOIC, fields.Exact, "-")},
		{Label: "Hold Period", Value: hold},
	}
}

func exitMonth(r *fields.Resolver, key string) (float64, bool) {
	s := r.String(key, fields.Exact, "")
	if s == "" {
		return 0, false
	}
	return model.ParseLooseNumber(s)
}

// locale renders a number with thousands separators and at most three
// decimals, dropping trailing zeros.
func locale(v float64) string {
	s := common.FormatThousands(v, 3)
	if strings.Contains(s, ".") {
		s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	}
	if s == "-0" {
		return "0"
	}
	return s
}
