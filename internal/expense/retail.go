package expense

import (
	"strings"

	"github.com/Veraticus/proforma/internal/model"
)

// RetailBasis is a normalized retail cost basis.
type RetailBasis string

// Recognized retail cost bases.
const (
	RetailBasisAnnual            RetailBasis = "annual"
	RetailBasisPerSFYear         RetailBasis = "per sf / yr."
	RetailBasisPercentOfBaseRent RetailBasis = "percent of base rent"
	RetailBasisUnknown           RetailBasis = ""
)

// ParseRetailBasis matches a retail basis label case-insensitively after
// trimming. "per sf" is accepted as an alias of "per sf / yr.".
func ParseRetailBasis(label string) RetailBasis {
	switch b := RetailBasis(strings.ToLower(strings.TrimSpace(label))); b {
	case RetailBasisAnnual, RetailBasisPerSFYear, RetailBasisPercentOfBaseRent:
		return b
	case "per sf":
		return RetailBasisPerSFYear
	default:
		return RetailBasisUnknown
	}
}

// RetailAllocator annualizes retail expense rows against leased retail area
// and base rent.
type RetailAllocator struct {
	totalSF  float64
	baseRent float64
}

// NewRetailAllocator returns an allocator over the given leases.
func NewRetailAllocator(leases []model.RetailIncomeRow) *RetailAllocator {
	a := &RetailAllocator{}
	for _, l := range leases {
		a.totalSF += l.SquareFeet.Float()
		a.baseRent += l.AnnualRent()
	}
	return a
}

// TotalSquareFeet is the leased retail area.
func (a *RetailAllocator) TotalSquareFeet() float64 { return a.totalSF }

// BaseRent is the annual base rent of all leases.
func (a *RetailAllocator) BaseRent() float64 { return a.baseRent }

// Annual returns the row's annual amount. Percentages above one are read as
// whole percents. Unrecognized bases yield zero.
func (a *RetailAllocator) Annual(row model.RetailExpenseRow) float64 {
	cost := row.CostPer.Float()

	var annual float64
	switch ParseRetailBasis(row.Factor) {
	case RetailBasisAnnual:
		annual = cost
	case RetailBasisPerSFYear:
		annual = cost * a.totalSF
	case RetailBasisPercentOfBaseRent:
		pct := cost
		if pct > 1 {
			pct /= 100
		}
		annual = pct * a.baseRent
	}
	return model.Finite(annual)
}

// PerSquareFoot returns the row's annual amount per leased square foot.
func (a *RetailAllocator) PerSquareFoot(row model.RetailExpenseRow) float64 {
	if a.totalSF == 0 {
		return 0
	}
	return model.Finite(a.Annual(row) / a.totalSF)
}

// RetailTotal is the footer of the retail expense table.
type RetailTotal struct {
	Annual        float64
	PerSquareFoot float64
}

// Totals sums rows without intermediate rounding.
func (a *RetailAllocator) Totals(rows []model.RetailExpenseRow) RetailTotal {
	var t RetailTotal
	for _, row := range rows {
		t.Annual += a.Annual(row)
	}
	if a.totalSF != 0 {
		t.PerSquareFoot = model.Finite(t.Annual / a.totalSF)
	}
	return t
}
