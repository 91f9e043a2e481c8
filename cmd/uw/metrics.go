package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/proforma/internal/cli"
	"github.com/Veraticus/proforma/internal/common"
	"github.com/Veraticus/proforma/internal/fields"
	"github.com/Veraticus/proforma/internal/income"
	"github.com/Veraticus/proforma/internal/report"
)

func metricsCmd() *cobra.Command {
	var mf modelFlags

	cmd := &cobra.Command{
		Use:   "metrics [model-id]",
		Short: "Show effective gross income and headline returns",
		Long: `Compute effective gross income for a model version and show each step:
residential and amenity income, the retail contribution, and the vacancy,
bad debt and lease-up deductions. Headline returns come from the model's
field values.`,
		Args: mf.args(),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := newBackend()
			if err != nil {
				return err
			}
			m, _, err := mf.load(cmd.Context(), client, args)
			if err != nil {
				return err
			}

			b := calculator().Breakdown(income.InputsFromModel(m))
			totals := income.RentRollTotals(m.Units, m.MarketRentAssumptions)

			writeln(cmd, cli.FormatTitle(titleFor(m.Name, "Income")))
			writeln(cmd, cli.RenderKeyValues(breakdownPairs(b)))
			writeln(cmd)
			writeln(cmd, cli.RenderKeyValues(rentRollPairs(totals)))
			if totals.UnmatchedLayout > 0 {
				writeln(cmd, cli.FormatWarning(fmt.Sprintf("%d unit(s) have no market rent for their layout", totals.UnmatchedLayout)))
			}
			writeln(cmd)
			writeln(cmd, cli.RenderKeyValues(kpiPairs(report.KPIs(fields.FromModel(m)))))
			return nil
		},
	}

	mf.register(cmd)
	return cmd
}

func titleFor(name, what string) string {
	if name == "" {
		return what
	}
	return name + " " + what
}

func breakdownPairs(b income.Breakdown) [][2]string {
	return [][2]string{
		{"Residential income", common.FormatMoney(b.ResidentialAnnual)},
		{"Amenity income", common.FormatMoney(b.AmenityAnnual)},
		{"Retail square feet", common.FormatThousands(b.RetailSquareFeet, 0)},
		{"Retail operating costs", common.FormatMoney(b.RetailOperatingCosts)},
		{"Retail recovery income", common.FormatMoney(b.RecoveryIncome)},
		{"Retail vacancy and bad debt", common.FormatMoney(b.RetailVacancyBadDebt)},
		{"Retail net income", common.FormatMoney(b.RetailNet)},
		{"Gross potential income", common.FormatMoney(b.GrossPotentialIncome)},
		{"Vacancy", percent(b.VacancyRate)},
		{"Bad debt", percent(b.BadDebtRate)},
		{"Lease-up cost", percent(b.LeaseUpCostRate)},
		{"Effective gross income", common.FormatMoney(b.EGI)},
	}
}

func rentRollPairs(t income.UnitTotals) [][2]string {
	return [][2]string{
		{"Units", fmt.Sprintf("%d", t.Units)},
		{"Square feet", common.FormatThousands(t.SquareFeet, 0)},
		{"Current rent (monthly)", common.FormatMoney(t.CurrentRent)},
		{"Pro forma rent (monthly)", common.FormatMoney(t.ProFormaRent)},
	}
}

func kpiPairs(kpis []report.KPI) [][2]string {
	out := make([][2]string, 0, len(kpis))
	for _, k := range kpis {
		out = append(out, [2]string{k.Label, k.Value})
	}
	return out
}

// percent renders a fraction as a percentage with two decimals.
func percent(fraction float64) string {
	return common.FormatThousands(fraction*100, 2) + "%"
}
