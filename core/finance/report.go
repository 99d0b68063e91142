package finance

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/trezcool/shule/core"
)

type (
	// CategoryTotal sums up the amounts of a group of payments or expenses.
	CategoryTotal struct {
		Name   string          `json:"name"`
		Amount decimal.Decimal `json:"amount"`
		Count  int             `json:"count"`
	}

	BudgetUtilization struct {
		BudgetID    string          `json:"budget_id"`
		Category    string          `json:"category"`
		Subcategory string          `json:"subcategory"`
		Term        string          `json:"term"`
		Allocated   decimal.Decimal `json:"allocated"`
		Spent       decimal.Decimal `json:"spent"`
		Remaining   decimal.Decimal `json:"remaining"`
		Utilization decimal.Decimal `json:"utilization_percentage"`
		Tier        Tier            `json:"status"`
	}

	FinancialReport struct {
		Period             core.Period         `json:"period"`
		GeneratedAt        time.Time           `json:"generated_at"`
		TotalIncome        decimal.Decimal     `json:"total_income"`
		IncomeByFeeType    []CategoryTotal     `json:"income_by_fee_type"`
		TotalExpenses      decimal.Decimal     `json:"total_expenses"`
		ExpensesByCategory []CategoryTotal     `json:"expenses_by_category"`
		TotalSalaries      decimal.Decimal     `json:"total_salaries"`
		SalaryCount        int                 `json:"salary_count"`
		TotalExpenditure   decimal.Decimal     `json:"total_expenditure"`
		NetBalance         decimal.Decimal     `json:"net_balance"`
		Budgets            []BudgetUtilization `json:"budgets"`
	}
)

// GenerateFinancialReport aggregates the period's income and expenditure.
// Only approved expenses are accounted for. Groups are sorted by name.
func GenerateFinancialReport(
	period core.Period,
	fees []FeePayment,
	expenses []Expense,
	salaries []SalaryPayment,
	lines []BudgetLine,
) FinancialReport {
	report := FinancialReport{
		Period:      period,
		GeneratedAt: NowFunc().UTC(),
		SalaryCount: len(salaries),
	}

	income := newTotals()
	for _, fee := range fees {
		income.add(fee.FeeType, fee.Amount)
		report.TotalIncome = report.TotalIncome.Add(fee.Amount)
	}
	report.IncomeByFeeType = income.sorted()

	spending := newTotals()
	for _, exp := range expenses {
		if exp.Status != ExpenseApproved {
			continue
		}
		spending.add(exp.Category, exp.Amount)
		report.TotalExpenses = report.TotalExpenses.Add(exp.Amount)
	}
	report.ExpensesByCategory = spending.sorted()

	for _, sal := range salaries {
		report.TotalSalaries = report.TotalSalaries.Add(sal.Amount)
	}
	report.TotalExpenditure = report.TotalExpenses.Add(report.TotalSalaries)
	report.NetBalance = report.TotalIncome.Sub(report.TotalExpenditure)

	report.Budgets = make([]BudgetUtilization, 0, len(lines))
	for _, line := range lines {
		report.Budgets = append(report.Budgets, BudgetUtilization{
			BudgetID:    line.ID,
			Category:    line.Category,
			Subcategory: line.Subcategory,
			Term:        line.Term,
			Allocated:   line.Amount,
			Spent:       line.Status.SpentAmount,
			Remaining:   line.Status.RemainingAmount,
			Utilization: line.Status.UtilizationPercentage,
			Tier:        line.Status.Tier,
		})
	}
	sort.SliceStable(report.Budgets, func(i, j int) bool {
		bi, bj := report.Budgets[i], report.Budgets[j]
		if bi.Category != bj.Category {
			return bi.Category < bj.Category
		}
		return bi.Subcategory < bj.Subcategory
	})

	return report
}

type totals map[string]*CategoryTotal

func newTotals() totals { return make(totals) }

func (t totals) add(name string, amount decimal.Decimal) {
	tot, ok := t[name]
	if !ok {
		tot = &CategoryTotal{Name: name}
		t[name] = tot
	}
	tot.Amount = tot.Amount.Add(amount)
	tot.Count++
}

func (t totals) sorted() []CategoryTotal {
	list := make([]CategoryTotal, 0, len(t))
	for _, tot := range t {
		list = append(list, *tot)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list
}
