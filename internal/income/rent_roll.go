package income

import "github.com/Veraticus/proforma/internal/model"

// ProFormaRent returns a unit's pro-forma monthly rent. Units that keep
// their lease carry current rent; others take the market rent for their
// layout. The bool is false when a vacating unit's layout has no market rent
// assumption, in which case the rent is zero.
func ProFormaRent(u model.Unit, assumptions []model.MarketRentAssumption) (float64, bool) {
	if u.Keeps() {
		return u.CurrentRent.Float(), true
	}
	for _, a := range assumptions {
		if a.Layout == u.Layout {
			return a.PFRent.Float(), true
		}
	}
	return 0, false
}

// UnitTotals summarizes a rent roll.
type UnitTotals struct {
	Units           int
	SquareFeet      float64
	CurrentRent     float64
	ProFormaRent    float64
	UnmatchedLayout int
}

// RentRollTotals sums square footage, current rent and pro-forma rent.
func RentRollTotals(units []model.Unit, assumptions []model.MarketRentAssumption) UnitTotals {
	var t UnitTotals
	for _, u := range units {
		t.Units++
		t.SquareFeet += u.SquareFeet.Float()
		t.CurrentRent += u.CurrentRent.Float()
		pf, ok := ProFormaRent(u, assumptions)
		if !ok {
			t.UnmatchedLayout++
		}
		t.ProFormaRent += pf
	}
	return t
}
