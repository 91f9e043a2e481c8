package retail

import (
	"github.com/Veraticus/proforma/internal/fields"
	"github.com/Veraticus/proforma/internal/model"
)

// DefaultVacancy is the retail vacancy percent used when a model has none.
const DefaultVacancy = 5.0

// Line is an annual amount and the same amount per leased square foot.
type Line struct {
	Annual        float64
	PerSquareFoot float64
}

// GrossPotentialIncome is the gross potential retail income summary.
type GrossPotentialIncome struct {
	BaseRent         Line
	Recovery         Line
	BeforeVacancy    Line
	VacancyRate      float64
	VacancyDeduction Line
	AfterVacancy     Line
}

// GrossPotential totals base rent and recoveries and deducts vacancy.
// vacancyRate is a fraction.
func GrossPotential(leases []model.RetailIncomeRow, expenses []model.RetailExpenseRow, vacancyRate float64) GrossPotentialIncome {
	rec := Recovery(leases, expenses)

	var base float64
	for _, l := range leases {
		base += l.AnnualRent()
	}

	before := base + rec.Total
	deduction := before * vacancyRate
	after := before - deduction

	line := func(annual float64) Line {
		return Line{Annual: model.Finite(annual), PerSquareFoot: perSF(annual, rec.TotalSF)}
	}
	return GrossPotentialIncome{
		BaseRent:         line(base),
		Recovery:         line(rec.Total),
		BeforeVacancy:    line(before),
		VacancyRate:      vacancyRate,
		VacancyDeduction: line(deduction),
		AfterVacancy:     line(after),
	}
}

// GrossPotentialFromModel reads the retail vacancy assumption, stored under
// a key with a trailing space, and computes gross potential retail income.
func GrossPotentialFromModel(m *model.Model) GrossPotentialIncome {
	if m == nil {
		return GrossPotential(nil, nil, DefaultVacancy/100)
	}
	r := fields.FromModel(m)
	vacancy := r.Float(fields.RetailVacancy, fields.Exact, DefaultVacancy)
	return GrossPotential(m.RetailIncome, m.RetailExpenses(), vacancy/100)
}

func perSF(annual, sf float64) float64 {
	if sf == 0 {
		return 0
	}
	return model.Finite(annual / sf)
}
