// Package expense annualizes operating expense rows according to their cost
// basis.
package expense

import (
	"strings"

	"github.com/Veraticus/proforma/internal/common"
	"github.com/Veraticus/proforma/internal/fields"
	"github.com/Veraticus/proforma/internal/income"
	"github.com/Veraticus/proforma/internal/model"
)

// Basis is a normalized residential cost basis.
type Basis string

// Recognized residential cost bases.
const (
	BasisPerUnit            Basis = "per unit"
	BasisTotal              Basis = "total"
	BasisPerCASquareFoot    Basis = "per ca square foot"
	BasisPerTotalSquareFeet Basis = "per total square feet"
	BasisPercentOfEGI       Basis = "percent of egi"
	BasisUnknown            Basis = ""
)

// ParseBasis matches a cost_per label case-insensitively after trimming.
func ParseBasis(label string) Basis {
	switch b := Basis(strings.ToLower(strings.TrimSpace(label))); b {
	case BasisPerUnit, BasisTotal, BasisPerCASquareFoot, BasisPerTotalSquareFeet, BasisPercentOfEGI:
		return b
	default:
		return BasisUnknown
	}
}

// EGIFunc returns Effective Gross Income. It is called once per
// percent-of-EGI row and must be pure.
type EGIFunc func() float64

// Context is the property data the allocator reads.
type Context struct {
	UnitCount       int
	UnitSquareFeet  float64
	GrossSquareFeet float64
	EGI             EGIFunc
}

// CommonAreaSquareFeet is gross building area less unit area.
func (c Context) CommonAreaSquareFeet() float64 {
	return c.GrossSquareFeet - c.UnitSquareFeet
}

// ContextFromModel builds an allocation context from a model payload. EGI
// is computed with calc on every call.
func ContextFromModel(m *model.Model, calc income.Calculator) Context {
	if m == nil {
		return Context{EGI: func() float64 { return 0 }}
	}

	var unitSF float64
	for _, u := range m.Units {
		unitSF += u.SquareFeet.Float()
	}

	in := income.InputsFromModel(m)
	return Context{
		UnitCount:       len(m.Units),
		UnitSquareFeet:  unitSF,
		GrossSquareFeet: fields.FromModel(m).Float(fields.GrossSquareFeet, fields.Trimmed, 0),
		EGI:             func() float64 { return calc.EGI(in) },
	}
}

// Allocation is one annualized expense row.
type Allocation struct {
	Name           string
	Basis          Basis
	Factor         float64
	Statistic      float64
	StatisticLabel string
	Monthly        float64
	Annual         float64
}

// Allocator annualizes residential operating expenses.
type Allocator struct {
	ctx Context
}

// NewAllocator returns an allocator over ctx.
func NewAllocator(ctx Context) *Allocator {
	if ctx.EGI == nil {
		ctx.EGI = func() float64 { return 0 }
	}
	return &Allocator{ctx: ctx}
}

// Annualize computes a row's monthly and annual amounts. Unrecognized bases
// yield zero.
func (a *Allocator) Annualize(row model.OperatingExpenseRow) Allocation {
	factor := row.Factor.Float()
	out := Allocation{
		Name:   row.Name,
		Basis:  ParseBasis(row.CostPer),
		Factor: factor,
	}

	switch out.Basis {
	case BasisPerUnit:
		n := float64(a.ctx.UnitCount)
		out.Statistic = n
		out.StatisticLabel = common.FormatThousands(n, 0) + " units"
		out.Annual = factor * n
		out.Monthly = round2(out.Annual / 12)
	case BasisTotal:
		out.Annual = factor
		out.Monthly = round2(out.Annual / 12)
	case BasisPerCASquareFoot:
		ca := a.ctx.CommonAreaSquareFeet()
		out.Statistic = ca
		// The label shows gross area even though the amount uses common area.
		out.StatisticLabel = common.FormatThousands(a.ctx.GrossSquareFeet, 0) + " sf"
		out.Annual = common.RoundTo(factor*ca, 0)
		out.Monthly = round2(factor * ca / 12)
	case BasisPerTotalSquareFeet:
		gross := a.ctx.GrossSquareFeet
		out.Statistic = gross
		out.StatisticLabel = common.FormatThousands(gross, 0) + " sf"
		out.Annual = common.RoundTo(factor*gross, 0)
		out.Monthly = round2(factor * gross / 12)
	case BasisPercentOfEGI:
		egi := a.ctx.EGI()
		out.Statistic = egi
		out.StatisticLabel = common.FormatThousands(egi, 0) + "$"
		out.Annual = factor * egi / 100
		out.Monthly = out.Annual / 12
	}

	out.Annual = model.Finite(out.Annual)
	out.Monthly = model.Finite(out.Monthly)
	return out
}

// AnnualizeAll annualizes every row in order.
func (a *Allocator) AnnualizeAll(rows []model.OperatingExpenseRow) []Allocation {
	out := make([]Allocation, 0, len(rows))
	for _, row := range rows {
		out = append(out, a.Annualize(row))
	}
	return out
}

// AnnualByName returns the annual amount of the first row whose name
// matches, ignoring case and surrounding space. Zero when absent.
func (a *Allocator) AnnualByName(rows []model.OperatingExpenseRow, name string) float64 {
	want := strings.TrimSpace(name)
	for _, row := range rows {
		if strings.EqualFold(strings.TrimSpace(row.Name), want) {
			return a.Annualize(row).Annual
		}
	}
	return 0
}

// Total is a footer row.
type Total struct {
	Monthly float64
	Annual  float64
}

// Totals sums allocations without intermediate rounding.
func Totals(allocs []Allocation) Total {
	var t Total
	for _, a := range allocs {
		t.Monthly += a.Monthly
		t.Annual += a.Annual
	}
	return t
}

func round2(v float64) float64 {
	return common.RoundTo(v, 2)
}
