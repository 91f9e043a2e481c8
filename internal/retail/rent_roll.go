package retail

import "github.com/Veraticus/proforma/internal/model"

// RentRollLine is one lease on the retail rent roll.
type RentRollLine struct {
	Lease         model.RetailIncomeRow
	AnnualRent    float64
	MonthlyRent   float64
	ShareOfArea   float64
	RentPerSFYear float64
}

// RentRoll is the retail rent roll with totals.
type RentRoll struct {
	Lines         []RentRollLine
	TotalSF       float64
	AnnualRent    float64
	MonthlyRent   float64
	AverageRentSF float64
}

// NewRentRoll builds the retail rent roll.
func NewRentRoll(leases []model.RetailIncomeRow) RentRoll {
	var rr RentRoll
	for _, l := range leases {
		rr.TotalSF += l.SquareFeet.Float()
	}

	rr.Lines = make([]RentRollLine, 0, len(leases))
	for _, l := range leases {
		annual := model.Finite(l.AnnualRent())
		line := RentRollLine{
			Lease:         l,
			AnnualRent:    annual,
			MonthlyRent:   annual / 12,
			RentPerSFYear: l.RentPerSquareFootPerYear.Float(),
			ShareOfArea:   perSF(l.SquareFeet.Float(), rr.TotalSF),
		}
		rr.AnnualRent += annual
		rr.Lines = append(rr.Lines, line)
	}

	rr.MonthlyRent = rr.AnnualRent / 12
	rr.AverageRentSF = perSF(rr.AnnualRent, rr.TotalSF)
	return rr
}
