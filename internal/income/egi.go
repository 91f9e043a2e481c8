// Package income computes Effective Gross Income and the income figures it
// is built from.
package income

import (
	"math"

	"github.com/Veraticus/proforma/internal/fields"
	"github.com/Veraticus/proforma/internal/model"
)

// Defaults are the assumption values used when a model has no entry for a
// field. Rates are percentages.
type Defaults struct {
	Vacancy               float64
	BadDebt               float64
	LessVacancyAndBadDebt float64
	FreeMonthsRent        float64
	BrokerFee             float64
	AnnualTurnover        float64
}

// DefaultDefaults returns the stock assumption defaults.
func DefaultDefaults() Defaults {
	return Defaults{Vacancy: 5}
}

// Inputs is everything EGI depends on.
type Inputs struct {
	Fields         *fields.Resolver
	Units          []model.Unit
	AmenityIncome  []model.AmenityIncomeRow
	RetailIncome   []model.RetailIncomeRow
	RetailExpenses []model.RetailExpenseRow
	// TotalRetailIncome is the precomputed annual base rent of the retail
	// leases. Zero when the caller does not supply it.
	TotalRetailIncome float64
}

// InputsFromModel gathers EGI inputs from a model payload, including the
// retail base rent.
func InputsFromModel(m *model.Model) Inputs {
	if m == nil {
		return Inputs{Fields: fields.New(nil)}
	}
	return Inputs{
		Fields:            fields.FromModel(m),
		Units:             m.Units,
		AmenityIncome:     m.AmenityIncome,
		RetailIncome:      m.RetailIncome,
		RetailExpenses:    m.RetailExpenses(),
		TotalRetailIncome: RetailBaseRent(m.RetailIncome),
	}
}

// Calculator computes EGI with a fixed set of defaults. It holds no state
// between calls.
type Calculator struct {
	defaults Defaults
}

// NewCalculator returns a calculator using the given defaults.
func NewCalculator(defaults Defaults) Calculator {
	return Calculator{defaults: defaults}
}

// EGI computes Effective Gross Income with the stock defaults.
func EGI(in Inputs) float64 {
	return NewCalculator(DefaultDefaults()).EGI(in)
}

// EGI returns in-place residential, amenity and net retail income, reduced
// by vacancy, bad debt and the ongoing lease-up cost. Residential income is
// the current rent roll, not pro-forma rent. Any non-finite result is zero.
func (c Calculator) EGI(in Inputs) float64 {
	return c.Breakdown(in).EGI
}

// Breakdown is EGI with its intermediate figures.
type Breakdown struct {
	ResidentialAnnual    float64
	AmenityAnnual        float64
	RetailSquareFeet     float64
	RetailOperatingCosts float64
	RecoveryIncome       float64
	RetailVacancyBadDebt float64
	RetailNet            float64
	VacancyRate          float64
	BadDebtRate          float64
	LeaseUpCostRate      float64
	GrossPotentialIncome float64
	EGI                  float64
}

// Breakdown computes EGI and reports each step.
func (c Calculator) Breakdown(in Inputs) Breakdown {
	r := in.Fields
	totalRetailIncome := model.Finite(in.TotalRetailIncome)

	vacancy := r.Float(fields.Vacancy, fields.Normalized, c.defaults.Vacancy) / 100
	badDebt := r.Float(fields.BadDebt, fields.Normalized, c.defaults.BadDebt) / 100
	lvbd := r.Float(fields.LessVacancyAndBadDebt, fields.Normalized, c.defaults.LessVacancyAndBadDebt) / 100

	// Every retail expense is treated as an annual per-SF rate here,
	// whatever its basis label says, and is fully recovered.
	retailSF := RetailSquareFeet(in.RetailIncome)
	var retailOpex float64
	for _, e := range in.RetailExpenses {
		retailOpex += e.CostPer.Float() * retailSF
	}
	recovery := retailOpex
	lvbdAnnual := lvbd * (totalRetailIncome + recovery)
	egiRetail := (totalRetailIncome + recovery) - (lvbdAnnual + retailOpex)

	residential := RentalIncome(in.Units)
	amenity := AmenityIncome(in.AmenityIncome)

	freeMonths := r.Float(fields.FreeMonthsRent, fields.Normalized, c.defaults.FreeMonthsRent)
	brokerFee := r.Float(fields.BrokerFee, fields.Normalized, c.defaults.BrokerFee)
	turnover := r.Float(fields.AnnualTurnover, fields.Normalized, c.defaults.AnnualTurnover) / 100
	leaseUp := LeaseUpCostRate(freeMonths, brokerFee, turnover)

	gross := residential + amenity + egiRetail
	egi := gross * (1 - vacancy - badDebt - leaseUp)
	if math.IsNaN(egi) || math.IsInf(egi, 0) {
		egi = 0
	}

	return Breakdown{
		ResidentialAnnual:    residential,
		AmenityAnnual:        amenity,
		RetailSquareFeet:     retailSF,
		RetailOperatingCosts: retailOpex,
		RecoveryIncome:       recovery,
		RetailVacancyBadDebt: lvbdAnnual,
		RetailNet:            egiRetail,
		VacancyRate:          vacancy,
		BadDebtRate:          badDebt,
		LeaseUpCostRate:      leaseUp,
		GrossPotentialIncome: gross,
		EGI:                  egi,
	}
}

// LeaseUpCostRate spreads free rent and broker fees over the assumed lease
// term (twelve months plus the free months) and scales by annual turnover.
// freeMonths and brokerFee are in months of rent; turnover is a fraction.
func LeaseUpCostRate(freeMonths, brokerFee, turnover float64) float64 {
	term := 12 + freeMonths
	if term == 0 || math.IsNaN(term) {
		term = 12
	}
	return ((freeMonths + brokerFee) / term) * turnover
}

// RentalIncome is the annualized current rent of all units.
func RentalIncome(units []model.Unit) float64 {
	var monthly float64
	for _, u := range units {
		monthly += u.CurrentRent.Float()
	}
	return monthly * 12
}

// AmenityIncome is the total annual amenity income.
func AmenityIncome(rows []model.AmenityIncomeRow) float64 {
	var total float64
	for _, row := range rows {
		total += row.Annual()
	}
	return total
}

// RetailSquareFeet is the total leased retail area.
func RetailSquareFeet(leases []model.RetailIncomeRow) float64 {
	var total float64
	for _, l := range leases {
		total += l.SquareFeet.Float()
	}
	return total
}

// RetailBaseRent is the total annual base rent of the retail leases.
func RetailBaseRent(leases []model.RetailIncomeRow) float64 {
	var total float64
	for _, l := range leases {
		total += l.AnnualRent()
	}
	return total
}
