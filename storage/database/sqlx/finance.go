package sqlxrepos

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/finance"
)

var (
	budgetOrderings  = []string{"category", "subcategory", "term", "academic_year", "amount", "created_at"}
	expenseOrderings = []string{"category", "amount", "status", "spent_on", "created_at"}
)

type financeRepository struct {
	repo
}

var _ finance.Repository = (*financeRepository)(nil) // interface compliance check

func NewFinanceRepository(db *sqlx.DB) finance.Repository {
	return &financeRepository{repo: newRepo(db)}
}

// Budgets

func (r *financeRepository) CheckBudgetUniqueness(ctx context.Context, bgt finance.Budget, excludedBudgets ...finance.Budget) error {
	query := r.builder.Select("COUNT(*)").From("budget").Where(sq.Eq{
		"category":      bgt.Category,
		"subcategory":   bgt.Subcategory,
		"term":          bgt.Term,
		"academic_year": bgt.AcademicYear,
	})
	if len(excludedBudgets) > 0 {
		ids := make([]string, len(excludedBudgets))
		for i, b := range excludedBudgets {
			ids[i] = b.ID
		}
		query = query.Where(sq.NotEq{"id": ids})
	}

	q, args, err := query.ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	var count int
	if err = r.db.GetContext(ctx, &count, q, args...); err != nil {
		return dbError(err, "counting budgets")
	}
	if count > 0 {
		return finance.ErrBudgetExists
	}
	return nil
}

func (r *financeRepository) CreateBudget(ctx context.Context, bgt finance.Budget) (finance.Budget, error) {
	bgt.ID = uuid.NewString()
	q, args, err := r.builder.Insert("budget").
		Columns("id", "category", "subcategory", "term", "academic_year", "amount", "description", "created_at", "updated_at").
		Values(bgt.ID, bgt.Category, bgt.Subcategory, bgt.Term, bgt.AcademicYear, bgt.Amount, bgt.Description, bgt.CreatedAt, bgt.UpdatedAt).
		ToSql()
	if err != nil {
		return finance.Budget{}, errors.Wrap(err, "building query")
	}
	if _, err = r.db.ExecContext(ctx, q, args...); err != nil {
		return finance.Budget{}, dbError(err, "inserting budget")
	}
	return bgt, nil
}

func (r *financeRepository) GetBudgetByID(ctx context.Context, id string) (finance.Budget, error) {
	q, args, err := r.builder.Select("*").From("budget").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return finance.Budget{}, errors.Wrap(err, "building query")
	}
	var bgt finance.Budget
	if err = r.db.GetContext(ctx, &bgt, q, args...); err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return finance.Budget{}, finance.ErrBudgetNotFound
		}
		return finance.Budget{}, dbError(err, "selecting budget")
	}
	return bgt, nil
}

func (r *financeRepository) QueryBudgets(
	ctx context.Context,
	filter *finance.BudgetFilter,
	ordering []core.DBOrdering,
) ([]finance.Budget, error) {
	query := eqIfSet(r.builder.Select("*").From("budget"), map[string]string{
		"category":      filter.Category,
		"subcategory":   filter.Subcategory,
		"term":          filter.Term,
		"academic_year": filter.AcademicYear,
	})
	query = orderBy(query, ordering, budgetOrderings, "created_at ASC", "id ASC")

	q, args, err := query.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	var budgets []finance.Budget
	if err = r.db.SelectContext(ctx, &budgets, q, args...); err != nil {
		return nil, dbError(err, "selecting budgets")
	}
	return budgets, nil
}

func (r *financeRepository) UpdateBudget(ctx context.Context, bgt finance.Budget) (finance.Budget, error) {
	q, args, err := r.builder.Update("budget").
		SetMap(map[string]interface{}{
			"category":      bgt.Category,
			"subcategory":   bgt.Subcategory,
			"term":          bgt.Term,
			"academic_year": bgt.AcademicYear,
			"amount":        bgt.Amount,
			"description":   bgt.Description,
			"updated_at":    bgt.UpdatedAt,
		}).
		Where(sq.Eq{"id": bgt.ID}).
		ToSql()
	if err != nil {
		return finance.Budget{}, errors.Wrap(err, "building query")
	}
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return finance.Budget{}, dbError(err, "updating budget")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return finance.Budget{}, finance.ErrBudgetNotFound
	}
	return r.GetBudgetByID(ctx, bgt.ID)
}

func (r *financeRepository) DeleteBudget(ctx context.Context, id string) error {
	q, args, err := r.builder.Delete("budget").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return dbError(err, "deleting budget")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return finance.ErrBudgetNotFound
	}
	return nil
}

func (r *financeRepository) SpentAmount(ctx context.Context, scope finance.SpendScope) (decimal.Decimal, error) {
	query := r.builder.Select("COALESCE(SUM(amount), 0)").From("expense").Where(sq.Eq{
		"status":        finance.ExpenseApproved,
		"category":      scope.Category,
		"academic_year": scope.AcademicYear,
	})
	if scope.Subcategory != "" {
		query = query.Where(sq.Eq{"subcategory": scope.Subcategory})
	}

	q, args, err := query.ToSql()
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "building query")
	}
	var spent decimal.Decimal
	if err = r.db.GetContext(ctx, &spent, q, args...); err != nil {
		return decimal.Zero, dbError(err, "summing expenses")
	}
	// sqlite sums NUMERIC columns as floats
	return spent.Round(2), nil
}

// Expenses

func (r *financeRepository) CreateExpense(ctx context.Context, exp finance.Expense) (finance.Expense, error) {
	exp.ID = uuid.NewString()
	q, args, err := r.builder.Insert("expense").
		Columns(
			"id", "category", "subcategory", "description", "amount", "term", "academic_year",
			"status", "spent_on", "approved_by", "approved_at", "created_at", "updated_at",
		).
		Values(
			exp.ID, exp.Category, exp.Subcategory, exp.Description, exp.Amount, exp.Term, exp.AcademicYear,
			exp.Status, exp.SpentOn, exp.ApprovedBy, exp.ApprovedAt, exp.CreatedAt, exp.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return finance.Expense{}, errors.Wrap(err, "building query")
	}
	if _, err = r.db.ExecContext(ctx, q, args...); err != nil {
		return finance.Expense{}, dbError(err, "inserting expense")
	}
	return exp, nil
}

func (r *financeRepository) GetExpenseByID(ctx context.Context, id string) (finance.Expense, error) {
	q, args, err := r.builder.Select("*").From("expense").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return finance.Expense{}, errors.Wrap(err, "building query")
	}
	var exp finance.Expense
	if err = r.db.GetContext(ctx, &exp, q, args...); err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return finance.Expense{}, finance.ErrExpenseNotFound
		}
		return finance.Expense{}, dbError(err, "selecting expense")
	}
	return exp, nil
}

func (r *financeRepository) QueryExpenses(
	ctx context.Context,
	filter *finance.ExpenseFilter,
	ordering []core.DBOrdering,
) ([]finance.Expense, error) {
	query := eqIfSet(r.builder.Select("*").From("expense"), map[string]string{
		"category":      filter.Category,
		"subcategory":   filter.Subcategory,
		"term":          filter.Term,
		"academic_year": filter.AcademicYear,
	})
	if len(filter.Status) > 0 {
		query = query.Where(sq.Eq{"status": filter.Status})
	}
	if !filter.SpentFrom.IsZero() {
		query = query.Where(sq.GtOrEq{"spent_on": filter.SpentFrom.UTC()})
	}
	if !filter.SpentTo.IsZero() {
		query = query.Where(sq.LtOrEq{"spent_on": filter.SpentTo.UTC()})
	}
	query = orderBy(query, ordering, expenseOrderings, "created_at ASC", "id ASC")

	q, args, err := query.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	var expenses []finance.Expense
	if err = r.db.SelectContext(ctx, &expenses, q, args...); err != nil {
		return nil, dbError(err, "selecting expenses")
	}
	return expenses, nil
}

func (r *financeRepository) UpdateExpenseStatus(ctx context.Context, exp finance.Expense) (finance.Expense, error) {
	q, args, err := r.builder.Update("expense").
		Set("status", exp.Status).
		Set("approved_by", exp.ApprovedBy).
		Set("approved_at", exp.ApprovedAt).
		Set("updated_at", exp.UpdatedAt).
		Where(sq.Eq{"id": exp.ID, "status": finance.ExpensePending}).
		ToSql()
	if err != nil {
		return finance.Expense{}, errors.Wrap(err, "building query")
	}
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return finance.Expense{}, dbError(err, "updating expense")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// either gone or processed concurrently
		if _, err = r.GetExpenseByID(ctx, exp.ID); err != nil {
			return finance.Expense{}, err
		}
		return finance.Expense{}, finance.ErrExpenseNotPending
	}
	return r.GetExpenseByID(ctx, exp.ID)
}

// Fees & Salaries

func (r *financeRepository) CreateFeePayment(ctx context.Context, fee finance.FeePayment) (finance.FeePayment, error) {
	fee.ID = uuid.NewString()
	q, args, err := r.builder.Insert("fee_payment").
		Columns("id", "student_id", "fee_type", "amount", "term", "academic_year", "reference", "paid_at").
		Values(fee.ID, fee.StudentID, fee.FeeType, fee.Amount, fee.Term, fee.AcademicYear, fee.Reference, fee.PaidAt).
		ToSql()
	if err != nil {
		return finance.FeePayment{}, errors.Wrap(err, "building query")
	}
	if _, err = r.db.ExecContext(ctx, q, args...); err != nil {
		return finance.FeePayment{}, dbError(err, "inserting fee payment")
	}
	return fee, nil
}

func (r *financeRepository) QueryFeePayments(ctx context.Context, filter *finance.FeeFilter) ([]finance.FeePayment, error) {
	query := eqIfSet(r.builder.Select("*").From("fee_payment"), map[string]string{
		"student_id":    filter.StudentID,
		"fee_type":      filter.FeeType,
		"term":          filter.Term,
		"academic_year": filter.AcademicYear,
	}).OrderBy("paid_at ASC", "id ASC")

	q, args, err := query.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	var fees []finance.FeePayment
	if err = r.db.SelectContext(ctx, &fees, q, args...); err != nil {
		return nil, dbError(err, "selecting fee payments")
	}
	return fees, nil
}

func (r *financeRepository) CreateSalaryPayment(ctx context.Context, sal finance.SalaryPayment) (finance.SalaryPayment, error) {
	sal.ID = uuid.NewString()
	q, args, err := r.builder.Insert("salary_payment").
		Columns("id", "staff_id", "staff_name", "amount", "month", "term", "academic_year", "paid_at").
		Values(sal.ID, sal.StaffID, sal.StaffName, sal.Amount, sal.Month, sal.Term, sal.AcademicYear, sal.PaidAt).
		ToSql()
	if err != nil {
		return finance.SalaryPayment{}, errors.Wrap(err, "building query")
	}
	if _, err = r.db.ExecContext(ctx, q, args...); err != nil {
		return finance.SalaryPayment{}, dbError(err, "inserting salary payment")
	}
	return sal, nil
}

func (r *financeRepository) QuerySalaryPayments(ctx context.Context, filter *finance.SalaryFilter) ([]finance.SalaryPayment, error) {
	query := eqIfSet(r.builder.Select("*").From("salary_payment"), map[string]string{
		"staff_id":      filter.StaffID,
		"term":          filter.Term,
		"academic_year": filter.AcademicYear,
	})
	if filter.Month != 0 {
		query = query.Where(sq.Eq{"month": filter.Month})
	}
	query = query.OrderBy("paid_at ASC", "id ASC")

	q, args, err := query.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	var salaries []finance.SalaryPayment
	if err = r.db.SelectContext(ctx, &salaries, q, args...); err != nil {
		return nil, dbError(err, "selecting salary payments")
	}
	return salaries, nil
}
