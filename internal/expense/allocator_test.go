package expense

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/proforma/internal/income"
	"github.com/Veraticus/proforma/internal/model"
)

func stubEGI(v float64, calls *int) EGIFunc {
	return func() float64 {
		if calls != nil {
			*calls++
		}
		return v
	}
}

func TestParseBasis(t *testing.T) {
	tests := []struct {
		label string
		want  Basis
	}{
		{"Per Unit", BasisPerUnit},
		{"  per unit ", BasisPerUnit},
		{"TOTAL", BasisTotal},
		{"Per CA Square Foot", BasisPerCASquareFoot},
		{"Per Total Square Feet", BasisPerTotalSquareFeet},
		{"percent of EGI", BasisPercentOfEGI},
		{"Percent of EGI", BasisPercentOfEGI},
		{"per sf", BasisUnknown},
		{"", BasisUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseBasis(tt.label))
		})
	}
}

func TestAnnualize(t *testing.T) {
	ctx := Context{
		UnitCount:       6,
		UnitSquareFeet:  4000,
		GrossSquareFeet: 5000,
		EGI:             stubEGI(120000, nil),
	}
	a := NewAllocator(ctx)

	tests := []struct {
		name        string
		row         model.OperatingExpenseRow
		wantAnnual  float64
		wantMonthly float64
		wantLabel   string
	}{
		{
			name:        "per unit",
			row:         model.OperatingExpenseRow{CostPer: "Per Unit", Factor: 100},
			wantAnnual:  600,
			wantMonthly: 50,
			wantLabel:   "6 units",
		},
		{
			name:        "total rounds monthly to cents",
			row:         model.OperatingExpenseRow{CostPer: "Total", Factor: 1000},
			wantAnnual:  1000,
			wantMonthly: 83.33,
		},
		{
			name:        "common area uses gross less unit area",
			row:         model.OperatingExpenseRow{CostPer: "Per CA Square Foot", Factor: 1.25},
			wantAnnual:  1250,
			wantMonthly: 104.17,
			wantLabel:   "5,000 sf",
		},
		{
			name:        "total square feet",
			row:         model.OperatingExpenseRow{CostPer: "per total square feet", Factor: 0.5},
			wantAnnual:  2500,
			wantMonthly: 208.33,
			wantLabel:   "5,000 sf",
		},
		{
			name:        "percent of egi is case insensitive",
			row:         model.OperatingExpenseRow{CostPer: "percent of EGI", Factor: 10},
			wantAnnual:  12000,
			wantMonthly: 1000,
			wantLabel:   "120,000$",
		},
		{
			name: "unrecognized basis",
			row:  model.OperatingExpenseRow{CostPer: "per parking stall", Factor: 75},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := a.Annualize(tt.row)
			assert.InDelta(t, tt.wantAnnual, got.Annual, 1e-9)
			assert.InDelta(t, tt.wantMonthly, got.Monthly, 1e-9)
			assert.Equal(t, tt.wantLabel, got.StatisticLabel)
		})
	}
}

func TestAnnualizePercentOfEGIMonthlyUnrounded(t *testing.T) {
	a := NewAllocator(Context{EGI: stubEGI(100000, nil)})
	got := a.Annualize(model.OperatingExpenseRow{CostPer: "Percent of EGI", Factor: 1})
	assert.Equal(t, 1000.0/12, got.Monthly)
}

func TestAnnualizeRoundsHalvesUp(t *testing.T) {
	a := NewAllocator(Context{GrossSquareFeet: 5})
	got := a.Annualize(model.OperatingExpenseRow{CostPer: "Total", Factor: -1.5})
	assert.InDelta(t, -0.12, got.Monthly, 1e-9)

	got = a.Annualize(model.OperatingExpenseRow{CostPer: "Per Total Square Feet", Factor: -0.5})
	assert.InDelta(t, -2.0, got.Annual, 1e-9)
}

func TestAnnualizeIdempotent(t *testing.T) {
	calls := 0
	a := NewAllocator(Context{UnitCount: 3, GrossSquareFeet: 1234, EGI: stubEGI(98765.43, &calls)})

	rows := []model.OperatingExpenseRow{
		{CostPer: "Per Unit", Factor: 333.33},
		{CostPer: "Percent of EGI", Factor: 3.7},
		{CostPer: "Per Total Square Feet", Factor: 0.77},
	}
	for _, row := range rows {
		first := a.Annualize(row)
		second := a.Annualize(row)
		assert.Equal(t, first, second)
	}
	assert.Equal(t, 2, calls, "EGI is evaluated on every percent-of-EGI call")
}

func TestTotalsAreUnrounded(t *testing.T) {
	a := NewAllocator(Context{})
	allocs := a.AnnualizeAll([]model.OperatingExpenseRow{
		{CostPer: "Total", Factor: 100},
		{CostPer: "Total", Factor: 100},
		{CostPer: "Total", Factor: 100},
	})
	require.Len(t, allocs, 3)

	total := Totals(allocs)
	assert.InDelta(t, 300.0, total.Annual, 1e-9)
	// Each row shows 8.33; the footer sums the rounded row values.
	assert.InDelta(t, 24.99, total.Monthly, 1e-9)
}

func TestAnnualByName(t *testing.T) {
	a := NewAllocator(Context{UnitCount: 10})
	rows := []model.OperatingExpenseRow{
		{Name: "Insurance", CostPer: "Per Unit", Factor: 400},
		{Name: "Taxes", CostPer: "Total", Factor: 50000},
	}
	assert.Equal(t, 4000.0, a.AnnualByName(rows, " insurance "))
	assert.Equal(t, 50000.0, a.AnnualByName(rows, "TAXES"))
	assert.Zero(t, a.AnnualByName(rows, "Payroll"))
}

func TestContextFromModel(t *testing.T) {
	m := &model.Model{
		Units: []model.Unit{
			{SquareFeet: 700, CurrentRent: 1000},
			{SquareFeet: 800, CurrentRent: 1000},
		},
		FieldValues: []model.ModelFieldValue{
			{FieldKey: "Gross Square Feet ", Value: "2000"},
			{FieldKey: "Vacancy", Value: 0},
		},
	}

	ctx := ContextFromModel(m, income.NewCalculator(income.DefaultDefaults()))
	assert.Equal(t, 2, ctx.UnitCount)
	assert.Equal(t, 1500.0, ctx.UnitSquareFeet)
	assert.Equal(t, 2000.0, ctx.GrossSquareFeet)
	assert.Equal(t, 500.0, ctx.CommonAreaSquareFeet())
	assert.Equal(t, 24000.0, ctx.EGI())

	empty := ContextFromModel(nil, income.NewCalculator(income.DefaultDefaults()))
	assert.Zero(t, empty.EGI())
}

func TestRetailAllocator(t *testing.T) {
	a := NewRetailAllocator([]model.RetailIncomeRow{
		{SquareFeet: 1000, RentPerSquareFootPerYear: 20},
		{SquareFeet: 3000, RentPerSquareFootPerYear: 30},
	})
	require.Equal(t, 4000.0, a.TotalSquareFeet())
	require.Equal(t, 110000.0, a.BaseRent())

	tests := []struct {
		name  string
		row   model.RetailExpenseRow
		want  float64
		perSF float64
	}{
		{"annual", model.RetailExpenseRow{Factor: "Annual", CostPer: 8000}, 8000, 2},
		{"per sf per year", model.RetailExpenseRow{Factor: "Per SF / Yr.", CostPer: 1.5}, 6000, 1.5},
		{"per sf alias", model.RetailExpenseRow{Factor: "per sf", CostPer: 1.5}, 6000, 1.5},
		{"whole percent of base rent", model.RetailExpenseRow{Factor: "Percent of Base Rent", CostPer: 5}, 5500, 1.375},
		{"fractional percent of base rent", model.RetailExpenseRow{Factor: "percent of base rent", CostPer: 0.05}, 5500, 1.375},
		{"unrecognized", model.RetailExpenseRow{Factor: "Per Month", CostPer: 99}, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, a.Annual(tt.row), 1e-9)
			assert.InDelta(t, tt.perSF, a.PerSquareFoot(tt.row), 1e-9)
		})
	}

	total := a.Totals([]model.RetailExpenseRow{
		{Factor: "Annual", CostPer: 8000},
		{Factor: "Per SF / Yr.", CostPer: 1},
	})
	assert.Equal(t, 12000.0, total.Annual)
	assert.Equal(t, 3.0, total.PerSquareFoot)
}

func TestRetailAllocatorNoLeases(t *testing.T) {
	a := NewRetailAllocator(nil)
	row := model.RetailExpenseRow{Factor: "Annual", CostPer: 500}
	assert.Equal(t, 500.0, a.Annual(row))
	assert.Zero(t, a.PerSquareFoot(row))
	assert.Zero(t, a.Totals([]model.RetailExpenseRow{row}).PerSquareFoot)
}
