package inmemdb

import (
	"cmp"
	"context"

	"github.com/shopspring/decimal"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/finance"
)

var (
	budgetComparators = map[string]func(a, b finance.Budget) int{
		"category":      func(a, b finance.Budget) int { return cmp.Compare(a.Category, b.Category) },
		"subcategory":   func(a, b finance.Budget) int { return cmp.Compare(a.Subcategory, b.Subcategory) },
		"term":          func(a, b finance.Budget) int { return cmp.Compare(a.Term, b.Term) },
		"academic_year": func(a, b finance.Budget) int { return cmp.Compare(a.AcademicYear, b.AcademicYear) },
		"amount":        func(a, b finance.Budget) int { return a.Amount.Cmp(b.Amount) },
		"created_at":    func(a, b finance.Budget) int { return a.CreatedAt.Compare(b.CreatedAt) },
	}

	expenseComparators = map[string]func(a, b finance.Expense) int{
		"category":   func(a, b finance.Expense) int { return cmp.Compare(a.Category, b.Category) },
		"amount":     func(a, b finance.Expense) int { return a.Amount.Cmp(b.Amount) },
		"status":     func(a, b finance.Expense) int { return cmp.Compare(a.Status, b.Status) },
		"spent_on":   func(a, b finance.Expense) int { return a.SpentOn.Compare(b.SpentOn) },
		"created_at": func(a, b finance.Expense) int { return a.CreatedAt.Compare(b.CreatedAt) },
	}
)

type financeRepository struct {
	db *DB
}

var _ finance.Repository = (*financeRepository)(nil) // interface compliance check

func NewFinanceRepository(db *DB) finance.Repository {
	return &financeRepository{db: db}
}

// Budgets

func (repo *financeRepository) CheckBudgetUniqueness(_ context.Context, bgt finance.Budget, excludedBudgets ...finance.Budget) error {
	repo.db.budget.RLock()
	defer repo.db.budget.RUnlock()

	for _, b := range repo.db.budget.rows {
		if b.Category == bgt.Category &&
			b.Subcategory == bgt.Subcategory &&
			b.Term == bgt.Term &&
			b.AcademicYear == bgt.AcademicYear &&
			!isExcluded(b.ID, excludedBudgets) {
			return finance.ErrBudgetExists
		}
	}
	return nil
}

func isExcluded(id string, excluded []finance.Budget) bool {
	for _, b := range excluded {
		if b.ID == id {
			return true
		}
	}
	return false
}

func (repo *financeRepository) CreateBudget(_ context.Context, bgt finance.Budget) (finance.Budget, error) {
	repo.db.budget.Lock()
	defer repo.db.budget.Unlock()

	bgt.ID = newID()
	repo.db.budget.insert(bgt.ID, bgt)
	return bgt, nil
}

func (repo *financeRepository) GetBudgetByID(_ context.Context, id string) (finance.Budget, error) {
	repo.db.budget.RLock()
	defer repo.db.budget.RUnlock()

	if bgt, ok := repo.db.budget.rows[id]; ok {
		return *bgt, nil
	}
	return finance.Budget{}, finance.ErrBudgetNotFound
}

func (repo *financeRepository) QueryBudgets(
	_ context.Context,
	filter *finance.BudgetFilter,
	ordering []core.DBOrdering,
) ([]finance.Budget, error) {
	repo.db.budget.RLock()
	defer repo.db.budget.RUnlock()

	budgets := repo.db.budget.filter(func(b finance.Budget) bool {
		return matches(b.Category, filter.Category) &&
			matches(b.Subcategory, filter.Subcategory) &&
			matches(b.Term, filter.Term) &&
			matches(b.AcademicYear, filter.AcademicYear)
	})
	orderBy(budgets, ordering, budgetComparators)
	return budgets, nil
}

func (repo *financeRepository) UpdateBudget(_ context.Context, bgt finance.Budget) (finance.Budget, error) {
	repo.db.budget.Lock()
	defer repo.db.budget.Unlock()

	orig, ok := repo.db.budget.rows[bgt.ID]
	if !ok {
		return finance.Budget{}, finance.ErrBudgetNotFound
	}
	bgt.CreatedAt = orig.CreatedAt
	repo.db.budget.insert(bgt.ID, bgt)
	return bgt, nil
}

func (repo *financeRepository) DeleteBudget(_ context.Context, id string) error {
	repo.db.budget.Lock()
	defer repo.db.budget.Unlock()

	if !repo.db.budget.delete(id) {
		return finance.ErrBudgetNotFound
	}
	return nil
}

func (repo *financeRepository) SpentAmount(_ context.Context, scope finance.SpendScope) (decimal.Decimal, error) {
	repo.db.expense.RLock()
	defer repo.db.expense.RUnlock()

	spent := decimal.Zero
	for _, exp := range repo.db.expense.rows {
		if exp.Status == finance.ExpenseApproved &&
			exp.Category == scope.Category &&
			exp.AcademicYear == scope.AcademicYear &&
			matches(exp.Subcategory, scope.Subcategory) {
			spent = spent.Add(exp.Amount)
		}
	}
	return spent, nil
}

// Expenses

func (repo *financeRepository) CreateExpense(_ context.Context, exp finance.Expense) (finance.Expense, error) {
	repo.db.expense.Lock()
	defer repo.db.expense.Unlock()

	exp.ID = newID()
	repo.db.expense.insert(exp.ID, exp)
	return exp, nil
}

func (repo *financeRepository) GetExpenseByID(_ context.Context, id string) (finance.Expense, error) {
	repo.db.expense.RLock()
	defer repo.db.expense.RUnlock()

	if exp, ok := repo.db.expense.rows[id]; ok {
		return *exp, nil
	}
	return finance.Expense{}, finance.ErrExpenseNotFound
}

func (repo *financeRepository) QueryExpenses(
	_ context.Context,
	filter *finance.ExpenseFilter,
	ordering []core.DBOrdering,
) ([]finance.Expense, error) {
	repo.db.expense.RLock()
	defer repo.db.expense.RUnlock()

	expenses := repo.db.expense.filter(func(e finance.Expense) bool {
		if !(matches(e.Category, filter.Category) &&
			matches(e.Subcategory, filter.Subcategory) &&
			matches(e.Term, filter.Term) &&
			matches(e.AcademicYear, filter.AcademicYear)) {
			return false
		}
		if len(filter.Status) > 0 && !inStrings(e.Status, filter.Status) {
			return false
		}
		if !filter.SpentFrom.IsZero() && e.SpentOn.Before(filter.SpentFrom.UTC()) {
			return false
		}
		if !filter.SpentTo.IsZero() && e.SpentOn.After(filter.SpentTo.UTC()) {
			return false
		}
		return true
	})
	orderBy(expenses, ordering, expenseComparators)
	return expenses, nil
}

func (repo *financeRepository) UpdateExpenseStatus(_ context.Context, exp finance.Expense) (finance.Expense, error) {
	repo.db.expense.Lock()
	defer repo.db.expense.Unlock()

	orig, ok := repo.db.expense.rows[exp.ID]
	if !ok {
		return finance.Expense{}, finance.ErrExpenseNotFound
	}
	if !orig.IsPending() {
		return finance.Expense{}, finance.ErrExpenseNotPending
	}
	orig.Status = exp.Status
	orig.ApprovedBy = exp.ApprovedBy
	orig.ApprovedAt = exp.ApprovedAt
	orig.UpdatedAt = exp.UpdatedAt
	return *orig, nil
}

func inStrings(s string, list []string) bool {
	for _, l := range list {
		if s == l {
			return true
		}
	}
	return false
}

// Fees & Salaries

func (repo *financeRepository) CreateFeePayment(_ context.Context, fee finance.FeePayment) (finance.FeePayment, error) {
	repo.db.fee.Lock()
	defer repo.db.fee.Unlock()

	fee.ID = newID()
	repo.db.fee.insert(fee.ID, fee)
	return fee, nil
}

func (repo *financeRepository) QueryFeePayments(_ context.Context, filter *finance.FeeFilter) ([]finance.FeePayment, error) {
	repo.db.fee.RLock()
	defer repo.db.fee.RUnlock()

	return repo.db.fee.filter(func(f finance.FeePayment) bool {
		return matches(f.StudentID, filter.StudentID) &&
			matches(f.FeeType, filter.FeeType) &&
			matches(f.Term, filter.Term) &&
			matches(f.AcademicYear, filter.AcademicYear)
	}), nil
}

func (repo *financeRepository) CreateSalaryPayment(_ context.Context, sal finance.SalaryPayment) (finance.SalaryPayment, error) {
	repo.db.salary.Lock()
	defer repo.db.salary.Unlock()

	sal.ID = newID()
	repo.db.salary.insert(sal.ID, sal)
	return sal, nil
}

func (repo *financeRepository) QuerySalaryPayments(_ context.Context, filter *finance.SalaryFilter) ([]finance.SalaryPayment, error) {
	repo.db.salary.RLock()
	defer repo.db.salary.RUnlock()

	return repo.db.salary.filter(func(s finance.SalaryPayment) bool {
		return matches(s.StaffID, filter.StaffID) &&
			(filter.Month == 0 || s.Month == filter.Month) &&
			matches(s.Term, filter.Term) &&
			matches(s.AcademicYear, filter.AcademicYear)
	}), nil
}
