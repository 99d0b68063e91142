package main

import (
	"context"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/finance"
)

func (cli *commandLine) budgetsCmd() *cobra.Command {
	var filter finance.BudgetFilter

	cmd := &cobra.Command{
		Use:   "budgets",
		Short: "List budgets along with their live status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter.Clean()
			if filter.AcademicYear != "" && !core.IsValidAcademicYear(filter.AcademicYear) {
				return errors.Errorf("invalid academic year %q", filter.AcademicYear)
			}
			if filter.Term != "" && !core.IsValidTerm(filter.Term) {
				return errors.Errorf("invalid term %q", filter.Term)
			}

			lines, err := cli.finSvc.QueryBudgetLines(context.Background(), &filter, []core.DBOrdering{
				{Field: "academic_year"},
				{Field: "category", Ascending: true},
			})
			if err != nil {
				return errors.Wrap(err, "querying budgets")
			}
			return cli.renderBudgets(lines, finance.Summarize(lines))
		},
	}
	cmd.Flags().StringVar(&filter.AcademicYear, "year", "", "Academic year, e.g. 2024-2025")
	cmd.Flags().StringVar(&filter.Term, "term", "", "Term (TERM1, TERM2 or TERM3)")
	cmd.Flags().StringVar(&filter.Category, "category", "", "Category")
	return cmd
}

func (cli *commandLine) renderBudgets(lines []finance.BudgetLine, summary finance.BudgetSummary) error {
	if len(lines) == 0 {
		_, err := fmt.Fprintln(cli.out, dimStyle.Render("no budgets found"))
		return err
	}

	tbl := table{
		headers: []string{"Category", "Subcategory", "Year", "Term", "Allocated", "Spent", "Remaining", "Used %", "Status"},
		styles:  map[int]func(string) lipgloss.Style{8: tierStyle},
	}
	for _, line := range lines {
		tbl.rows = append(tbl.rows, []string{
			line.Category,
			line.Subcategory,
			line.AcademicYear,
			line.Term,
			line.Amount.StringFixed(2),
			line.Status.SpentAmount.StringFixed(2),
			line.Status.RemainingAmount.StringFixed(2),
			line.Status.UtilizationPercentage.StringFixed(2),
			string(line.Status.Tier),
		})
	}

	_, err := fmt.Fprintf(cli.out, "%s\n%s\n", renderTitle("Budgets"), renderTable(tbl))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(cli.out, "%d budget(s): allocated %s, spent %s, remaining %s (%s%%)\n",
		summary.Count,
		summary.TotalAllocated.StringFixed(2),
		summary.TotalSpent.StringFixed(2),
		summary.TotalRemaining.StringFixed(2),
		summary.UtilizationPercentage.StringFixed(2),
	)
	if err != nil {
		return err
	}
	for _, tier := range finance.AllTiers {
		if n := summary.ByStatus[tier]; n > 0 {
			if _, err = fmt.Fprintf(cli.out, "  %s: %d\n", tierStyle(string(tier)).Render(string(tier)), n); err != nil {
				return err
			}
		}
	}
	return nil
}
