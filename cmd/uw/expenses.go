package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Veraticus/proforma/internal/cli"
	"github.com/Veraticus/proforma/internal/common"
	"github.com/Veraticus/proforma/internal/expense"
	"github.com/Veraticus/proforma/internal/model"
	"github.com/Veraticus/proforma/internal/report"
)

func expensesCmd() *cobra.Command {
	var (
		mf   modelFlags
		name string
	)

	cmd := &cobra.Command{
		Use:   "expenses [model-id]",
		Short: "Annualize operating expenses",
		Long: `Annualize each operating expense row by its basis (per unit, per square
foot, percent of EGI, or a flat total) and show monthly and annual totals.
Retail expenses are listed separately, allocated over leased retail area.

With --name, print only the annual amount of that residential expense.`,
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

			alloc := expense.NewAllocator(expense.ContextFromModel(m, calculator()))
			if name != "" {
				return printExpense(cmd, m.OperatingExpenses, alloc, name)
			}
			writeln(cmd, cli.FormatTitle(titleFor(m.Name, "Expenses")))
			writeln(cmd, cli.RenderGrid(report.ExpensesGrid(m.OperatingExpenses, alloc)))

			if retail := m.RetailExpenses(); len(retail) > 0 {
				writeln(cmd)
				writeln(cmd, cli.RenderGrid(retailExpensesGrid(m.RetailIncome, retail)))
			}
			return nil
		},
	}

	mf.register(cmd)
	cmd.Flags().StringVar(&name, "name", "", "print the annual amount of one expense")
	return cmd
}

func printExpense(cmd *cobra.Command, rows []model.OperatingExpenseRow, alloc *expense.Allocator, name string) error {
	found := false
	for _, row := range rows {
		if strings.EqualFold(strings.TrimSpace(row.Name), strings.TrimSpace(name)) {
			found = true
			break
		}
	}
	if !found {
		return common.NewUserError(fmt.Sprintf("No operating expense named %q", name), common.ErrNotFound)
	}
	writef(cmd, "%s: %s / yr\n", strings.TrimSpace(name), common.FormatMoney(alloc.AnnualByName(rows, name)))
	return nil
}

func retailExpensesGrid(leases []model.RetailIncomeRow, rows []model.RetailExpenseRow) report.Grid {
	g := report.Grid{Title: "RETAIL EXPENSES", Header: true, Totals: true}
	if len(rows) == 0 {
		return g
	}

	alloc := expense.NewRetailAllocator(leases)
	g.Rows = append(g.Rows, []string{"Name", "Factor", "Cost per", "Recovered from", "Annual", "Per SF"})
	for _, row := range rows {
		g.Rows = append(g.Rows, []string{
			row.Name,
			row.Factor,
			common.FormatMoneyCents(row.CostPer.Float()),
			row.RentTypeIncluded,
			common.FormatMoney(alloc.Annual(row)),
			common.FormatMoneyCents(alloc.PerSquareFoot(row)),
		})
	}
	total := alloc.Totals(rows)
	g.Rows = append(g.Rows, []string{"Totals", "", "", "", common.FormatMoney(total.Annual), common.FormatMoneyCents(total.PerSquareFoot)})
	return g
}
