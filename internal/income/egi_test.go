package income

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/proforma/internal/fields"
	"github.com/Veraticus/proforma/internal/model"
)

func TestEGIEmptyModel(t *testing.T) {
	assert.Equal(t, 0.0, EGI(Inputs{}))
	assert.Equal(t, 0.0, EGI(InputsFromModel(&model.Model{})))
	assert.Equal(t, 0.0, EGI(InputsFromModel(nil)))
}

func TestEGIResidentialOnly(t *testing.T) {
	in := Inputs{
		Fields: fields.New(nil),
		Units: []model.Unit{
			{CurrentRent: 1000},
			{CurrentRent: 1500},
		},
	}

	// 2,500 * 12 = 30,000 less the default 5% vacancy.
	assert.InDelta(t, 28500.0, EGI(in), 1e-9)
}

func TestEGIFullBreakdown(t *testing.T) {
	in := Inputs{
		Fields: fields.New([]model.ModelFieldValue{
			{FieldKey: "Vacancy", Value: 10},
			{FieldKey: "Bad Debt ", Value: "2"},
			{FieldKey: "less: vacancy and bad debt", Value: 5},
			{FieldKey: "Free Month's Rent", Value: 1},
			{FieldKey: "Broker Fee", Value: 0.5},
			{FieldKey: "Annual Turnover", Value: 40},
		}),
		Units:         []model.Unit{{CurrentRent: 2000}},
		AmenityIncome: []model.AmenityIncomeRow{{Utilization: 50, UnitCount: 10, MonthlyFee: 100}},
		RetailIncome: []model.RetailIncomeRow{
			{SquareFeet: 1000, RentPerSquareFootPerYear: 20},
		},
		RetailExpenses: []model.RetailExpenseRow{
			{Type: "Retail", Factor: "Annual", CostPer: 2},
		},
		TotalRetailIncome: 20000,
	}

	b := NewCalculator(DefaultDefaults()).Breakdown(in)

	assert.Equal(t, 24000.0, b.ResidentialAnnual)
	assert.Equal(t, 6000.0, b.AmenityAnnual)
	assert.Equal(t, 1000.0, b.RetailSquareFeet)
	assert.Equal(t, 2000.0, b.RetailOperatingCosts, "basis label is ignored; cost is per SF")
	assert.Equal(t, 2000.0, b.RecoveryIncome)
	assert.InDelta(t, 1100.0, b.RetailVacancyBadDebt, 1e-9)
	assert.InDelta(t, 18900.0, b.RetailNet, 1e-9)
	assert.InDelta(t, 1.5/13*0.4, b.LeaseUpCostRate, 1e-12)

	want := (24000.0 + 6000.0 + 18900.0) * (1 - 0.10 - 0.02 - 1.5/13*0.4)
	assert.InDelta(t, want, b.EGI, 1e-9)
	assert.Equal(t, b.EGI, NewCalculator(DefaultDefaults()).EGI(in))
}

func TestEGIReferentiallyTransparent(t *testing.T) {
	in := InputsFromModel(&model.Model{
		Units:        []model.Unit{{CurrentRent: 1234.56}, {CurrentRent: 987.65}},
		RetailIncome: []model.RetailIncomeRow{{SquareFeet: 1200, RentPerSquareFootPerYear: 31.5}},
		Expenses:     []model.RetailExpenseRow{{Type: "Retail", CostPer: 3.25}},
		FieldValues:  []model.ModelFieldValue{{FieldKey: "Vacancy", Value: 7.5}},
	})

	first := EGI(in)
	for i := 0; i < 10; i++ {
		require.Equal(t, math.Float64bits(first), math.Float64bits(EGI(in)))
	}
}

func TestEGINonFiniteIsZero(t *testing.T) {
	in := Inputs{
		Fields: fields.New(nil),
		Units:  []model.Unit{{CurrentRent: model.Number(math.MaxFloat64)}, {CurrentRent: model.Number(math.MaxFloat64)}},
	}
	assert.Equal(t, 0.0, EGI(in))
}

func TestEGIInjectedDefaults(t *testing.T) {
	in := Inputs{Units: []model.Unit{{CurrentRent: 1000}}}

	calc := NewCalculator(Defaults{Vacancy: 0, AnnualTurnover: 20, FreeMonthsRent: 1})
	// Lease-up: (1 + 0) / 13 * 0.2.
	assert.InDelta(t, 12000*(1-1.0/13*0.2), calc.EGI(in), 1e-9)
}

func TestLeaseUpCostRate(t *testing.T) {
	assert.Equal(t, 0.0, LeaseUpCostRate(0, 0, 0.5))
	assert.InDelta(t, 0.5, LeaseUpCostRate(-12, 18, 1), 1e-12, "zero term falls back to twelve months")
	assert.InDelta(t, 1.0/12*0.3, LeaseUpCostRate(0, 1, 0.3), 1e-12)
}

func TestRentRollTotals(t *testing.T) {
	units := []model.Unit{
		{Layout: "1BR", SquareFeet: 700, CurrentRent: 1200, VacateFlag: 0},
		{Layout: "2BR", SquareFeet: 950, CurrentRent: 1500, VacateFlag: 1},
		{Layout: "Studio", SquareFeet: 450, CurrentRent: 900, VacateFlag: 1},
	}
	assumptions := []model.MarketRentAssumption{
		{Layout: "1BR", PFRent: 1400},
		{Layout: "2BR", PFRent: 1750},
	}

	pf, ok := ProFormaRent(units[0], assumptions)
	assert.True(t, ok)
	assert.Equal(t, 1200.0, pf, "kept units carry current rent")

	pf, ok = ProFormaRent(units[2], assumptions)
	assert.False(t, ok)
	assert.Zero(t, pf)

	totals := RentRollTotals(units, assumptions)
	assert.Equal(t, 3, totals.Units)
	assert.Equal(t, 2100.0, totals.SquareFeet)
	assert.Equal(t, 3600.0, totals.CurrentRent)
	assert.Equal(t, 2950.0, totals.ProFormaRent)
	assert.Equal(t, 1, totals.UnmatchedLayout)
}
