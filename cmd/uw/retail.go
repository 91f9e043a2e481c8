package main

import (
	"github.com/spf13/cobra"

	"github.com/Veraticus/proforma/internal/cli"
	"github.com/Veraticus/proforma/internal/common"
	"github.com/Veraticus/proforma/internal/model"
	"github.com/Veraticus/proforma/internal/report"
	"github.com/Veraticus/proforma/internal/retail"
)

func retailCmd() *cobra.Command {
	var mf modelFlags

	cmd := &cobra.Command{
		Use:   "retail [model-id]",
		Short: "Show retail rent roll, recoveries and reserves",
		Long: `Show the retail tables for a model version: the rent roll, expense
recoveries allocated pro rata by leased area, gross potential retail income
after vacancy, and the leasing cost reserve for new and renewal leases.`,
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

			if len(m.RetailIncome) == 0 {
				writeln(cmd, cli.FormatInfo("This model has no retail leases."))
				return nil
			}

			writeln(cmd, cli.FormatTitle(titleFor(m.Name, "Retail")))
			for _, g := range retailGrids(m) {
				writeln(cmd, cli.RenderGrid(g))
				writeln(cmd)
			}
			return nil
		},
	}

	mf.register(cmd)
	return cmd
}

func retailGrids(m *model.Model) []report.Grid {
	return []report.Grid{
		rentRollGrid(retail.NewRentRoll(m.RetailIncome)),
		recoveryGrid(retail.Recovery(m.RetailIncome, m.RetailExpenses())),
		grossPotentialGrid(retail.GrossPotentialFromModel(m)),
		reservesGrid(retail.LeasingCostReserves(retail.ReserveInputsFromModel(m))),
	}
}

func rentRollGrid(rr retail.RentRoll) report.Grid {
	g := report.Grid{Title: "RETAIL RENT ROLL", Header: true, Totals: true}
	g.Rows = append(g.Rows, []string{"Suite", "Tenant", "Rent type", "Square feet", "Share", "Rent/SF/yr", "Monthly", "Annual"})
	for _, l := range rr.Lines {
		g.Rows = append(g.Rows, []string{
			l.Lease.Suite,
			l.Lease.TenantName,
			l.Lease.RentType,
			common.FormatThousands(l.Lease.SquareFeet.Float(), 0),
			percent(l.ShareOfArea),
			common.FormatMoneyCents(l.RentPerSFYear),
			common.FormatMoney(l.MonthlyRent),
			common.FormatMoney(l.AnnualRent),
		})
	}
	g.Rows = append(g.Rows, []string{
		"Totals", "", "",
		common.FormatThousands(rr.TotalSF, 0),
		"",
		common.FormatMoneyCents(rr.AverageRentSF),
		common.FormatMoney(rr.MonthlyRent),
		common.FormatMoney(rr.AnnualRent),
	})
	return g
}

func recoveryGrid(t retail.RecoveryTable) report.Grid {
	g := report.Grid{Title: "EXPENSE RECOVERIES", Header: true, Totals: true}
	g.Rows = append(g.Rows, []string{"Suite", "Tenant", "Rent type", "Pro rata share", "Pool/SF", "Annual"})
	for _, l := range t.Leases {
		g.Rows = append(g.Rows, []string{
			l.Lease.Suite,
			l.Lease.TenantName,
			l.Lease.RentType,
			percent(l.ProRataShare),
			common.FormatMoneyCents(l.PerSquareFoot),
			common.FormatMoney(l.Annual),
		})
	}
	g.Rows = append(g.Rows, []string{"Totals", "", "", "", common.FormatMoneyCents(t.PerSquareFoot), common.FormatMoney(t.Total)})
	return g
}

func grossPotentialGrid(gp retail.GrossPotentialIncome) report.Grid {
	line := func(label string, l retail.Line) []string {
		return []string{label, common.FormatMoney(l.Annual), common.FormatMoneyCents(l.PerSquareFoot)}
	}
	return report.Grid{
		Title:  "GROSS POTENTIAL RETAIL INCOME",
		Header: true,
		Totals: true,
		Rows: [][]string{
			{"", "Annual", "Per SF"},
			line("Base rent", gp.BaseRent),
			line("Expense recoveries", gp.Recovery),
			line("Gross potential income", gp.BeforeVacancy),
			line("Less vacancy ("+percent(gp.VacancyRate)+")", gp.VacancyDeduction),
			line("Net retail income", gp.AfterVacancy),
		},
	}
}

func reservesGrid(r retail.Reserves) report.Grid {
	lane := func(label string, c retail.LaneCost) []string {
		return []string{
			label,
			common.FormatThousands(c.Probability, 2) + "%",
			common.FormatMoney(c.TenantImprovements),
			common.FormatMoney(c.Commission),
			common.FormatMoney(c.Total),
			common.FormatMoney(c.AmortizedAnnual),
		}
	}
	return report.Grid{
		Title:  "LEASING COST RESERVES",
		Header: true,
		Totals: true,
		Rows: [][]string{
			{"Lease", "Probability", "TI", "Commission", "Total", "Annual"},
			lane("New", r.New),
			lane("Renewal", r.Renewal),
			{"Reserve", "", "", "", common.FormatMoneyCents(r.PerSquareFoot) + "/SF", common.FormatMoney(r.Annual)},
		},
	}
}
