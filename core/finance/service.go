package finance

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/shule/core"
)

var (
	// errors
	ErrBudgetNotFound    = errors.New("budget not found")
	ErrBudgetExists      = errors.New("a budget already exists for this category and period")
	ErrExpenseNotFound   = errors.New("expense not found")
	ErrExpenseNotPending = errors.New("expense has already been processed")
)

type (
	Repository interface {
		CheckBudgetUniqueness(ctx context.Context, bgt Budget, excludedBudgets ...Budget) error
		CreateBudget(ctx context.Context, bgt Budget) (Budget, error)
		GetBudgetByID(ctx context.Context, id string) (Budget, error)
		// QueryBudgets applies AND operation on available BudgetFilter fields (BudgetFilter.Status excluded).
		QueryBudgets(ctx context.Context, filter *BudgetFilter, ordering []core.DBOrdering) ([]Budget, error)
		UpdateBudget(ctx context.Context, bgt Budget) (Budget, error)
		DeleteBudget(ctx context.Context, id string) error
		// SpentAmount sums up the approved expenses within scope.
		// An empty SpendScope.Subcategory matches every subcategory.
		SpentAmount(ctx context.Context, scope SpendScope) (decimal.Decimal, error)

		CreateExpense(ctx context.Context, exp Expense) (Expense, error)
		GetExpenseByID(ctx context.Context, id string) (Expense, error)
		QueryExpenses(ctx context.Context, filter *ExpenseFilter, ordering []core.DBOrdering) ([]Expense, error)
		// UpdateExpenseStatus only updates pending expenses; ErrExpenseNotPending otherwise.
		UpdateExpenseStatus(ctx context.Context, exp Expense) (Expense, error)

		CreateFeePayment(ctx context.Context, fee FeePayment) (FeePayment, error)
		QueryFeePayments(ctx context.Context, filter *FeeFilter) ([]FeePayment, error)
		CreateSalaryPayment(ctx context.Context, sal SalaryPayment) (SalaryPayment, error)
		QuerySalaryPayments(ctx context.Context, filter *SalaryFilter) ([]SalaryPayment, error)
	}

	Service interface {
		CheckBudgetUniqueness(ctx context.Context, bgt Budget, excludedBudgets ...Budget) error
		CreateBudget(ctx context.Context, nb NewBudget) (BudgetLine, error)
		GetBudget(ctx context.Context, id string) (Budget, error)
		GetBudgetLine(ctx context.Context, id string) (BudgetLine, error)
		QueryBudgetLines(ctx context.Context, filter *BudgetFilter, ordering []core.DBOrdering) ([]BudgetLine, error)
		GetBudgetReport(ctx context.Context, id string) (BudgetReport, error)
		QueryBudgetAlerts(ctx context.Context, filter *BudgetFilter) ([]BudgetAlert, error)
		UpdateBudget(ctx context.Context, id string, ub UpdateBudget) (BudgetLine, error)
		DeleteBudget(ctx context.Context, id string) error

		SubmitExpense(ctx context.Context, ne NewExpense) (Expense, error)
		GetExpense(ctx context.Context, id string) (Expense, error)
		QueryExpenses(ctx context.Context, filter *ExpenseFilter, ordering []core.DBOrdering) ([]Expense, error)
		ApproveExpense(ctx context.Context, id, approver string) (Expense, error)
		RejectExpense(ctx context.Context, id, rejecter string) (Expense, error)

		RecordFeePayment(ctx context.Context, nf NewFeePayment) (FeePayment, error)
		QueryFeePayments(ctx context.Context, filter *FeeFilter) ([]FeePayment, error)
		RecordSalaryPayment(ctx context.Context, ns NewSalaryPayment) (SalaryPayment, error)
		QuerySalaryPayments(ctx context.Context, filter *SalaryFilter) ([]SalaryPayment, error)

		GetFinancialReport(ctx context.Context, period core.Period) (FinancialReport, error)
	}

	service struct {
		repo    Repository
		mailSvc core.EmailService
		logger  core.Logger
		conf    *core.Config
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, mailSvc core.EmailService, logger core.Logger, conf *core.Config) Service {
	return &service{
		repo:    repo,
		mailSvc: mailSvc,
		logger:  logger,
		conf:    conf,
	}
}

func (svc *service) CheckBudgetUniqueness(ctx context.Context, bgt Budget, excludedBudgets ...Budget) error {
	if err := svc.repo.CheckBudgetUniqueness(ctx, bgt, excludedBudgets...); err != nil {
		if err == ErrBudgetExists {
			return core.NewValidationError(err, core.FieldError{Field: "category", Error: err.Error()})
		}
		return err
	}
	return nil
}

// Budgets

func (svc *service) CreateBudget(ctx context.Context, nb NewBudget) (BudgetLine, error) {
	now := time.Now().UTC()
	bgt, err := svc.repo.CreateBudget(ctx, Budget{
		Category:     nb.Category,
		Subcategory:  nb.Subcategory,
		Term:         nb.Term,
		AcademicYear: nb.AcademicYear,
		Amount:       nb.Amount,
		Description:  nb.Description,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return BudgetLine{}, errors.Wrap(err, "creating budget")
	}
	return svc.budgetLine(ctx, bgt)
}

func (svc *service) GetBudget(ctx context.Context, id string) (Budget, error) {
	return svc.repo.GetBudgetByID(ctx, id)
}

func (svc *service) GetBudgetLine(ctx context.Context, id string) (BudgetLine, error) {
	bgt, err := svc.repo.GetBudgetByID(ctx, id)
	if err != nil {
		return BudgetLine{}, err
	}
	return svc.budgetLine(ctx, bgt)
}

// budgetLine evaluates the budget against its approved expenses.
func (svc *service) budgetLine(ctx context.Context, bgt Budget) (BudgetLine, error) {
	spent, err := svc.repo.SpentAmount(ctx, bgt.SpendScope())
	if err != nil {
		return BudgetLine{}, errors.Wrap(err, "computing spent amount")
	}
	return BudgetLine{Budget: bgt, Status: CalculateStatus(bgt.Amount, spent)}, nil
}

func (svc *service) QueryBudgetLines(ctx context.Context, filter *BudgetFilter, ordering []core.DBOrdering) ([]BudgetLine, error) {
	if filter == nil {
		filter = new(BudgetFilter)
	}
	budgets, err := svc.repo.QueryBudgets(ctx, filter, ordering)
	if err != nil {
		return nil, errors.Wrap(err, "querying budgets")
	}

	lines := make([]BudgetLine, 0, len(budgets))
	for _, bgt := range budgets {
		line, err := svc.budgetLine(ctx, bgt)
		if err != nil {
			return nil, err
		}
		if filter.matchesStatus(line.Status.Tier) {
			lines = append(lines, line)
		}
	}
	return lines, nil
}

func (svc *service) GetBudgetReport(ctx context.Context, id string) (BudgetReport, error) {
	line, err := svc.GetBudgetLine(ctx, id)
	if err != nil {
		return BudgetReport{}, err
	}
	return NewBudgetReport(line), nil
}

// NewBudgetReport evaluates a budget line in detail. The burn rate runs from the budget's creation.
func NewBudgetReport(line BudgetLine) BudgetReport {
	burnRate := CalculateBurnRate(line.Status.SpentAmount, line.CreatedAt)
	return BudgetReport{
		BudgetLine:         line,
		Alerts:             GenerateAlerts(line.Status),
		Variance:           CalculateVariance(line.Amount, line.Status.SpentAmount),
		BurnRate:           round2(burnRate),
		ProjectedDepletion: ProjectDepletionDate(line.Status.RemainingAmount, burnRate),
		Recommendations:    Recommendations(line.Status),
	}
}

// QueryBudgetAlerts returns one alert per non-healthy budget, most severe first.
func (svc *service) QueryBudgetAlerts(ctx context.Context, filter *BudgetFilter) ([]BudgetAlert, error) {
	lines, err := svc.QueryBudgetLines(ctx, filter, nil)
	if err != nil {
		return nil, err
	}

	alerts := make([]BudgetAlert, 0, len(lines))
	for _, line := range lines {
		if line.Status.Tier == TierHealthy {
			continue
		}
		for _, alert := range GenerateAlerts(line.Status) {
			alerts = append(alerts, newBudgetAlert(line, alert))
		}
	}
	sort.SliceStable(alerts, func(i, j int) bool {
		return alerts[i].Tier.Severity() > alerts[j].Tier.Severity()
	})
	return alerts, nil
}

func newBudgetAlert(line BudgetLine, alert Alert) BudgetAlert {
	return BudgetAlert{
		Alert:        alert,
		BudgetID:     line.ID,
		Category:     line.Category,
		Subcategory:  line.Subcategory,
		AcademicYear: line.AcademicYear,
		Term:         line.Term,
		Tier:         line.Status.Tier,
	}
}

// UpdateBudget expects `ub` to have been validated against the original budget.
func (svc *service) UpdateBudget(ctx context.Context, id string, ub UpdateBudget) (BudgetLine, error) {
	bgt := Budget{
		ID:           id,
		Category:     ub.Category,
		AcademicYear: ub.AcademicYear,
		UpdatedAt:    time.Now().UTC(),
	}
	if ub.Subcategory != nil {
		bgt.Subcategory = *ub.Subcategory
	}
	if ub.Term != nil {
		bgt.Term = *ub.Term
	}
	if ub.Amount != nil {
		bgt.Amount = *ub.Amount
	}
	if ub.Description != nil {
		bgt.Description = *ub.Description
	}

	bgt, err := svc.repo.UpdateBudget(ctx, bgt)
	if err != nil {
		return BudgetLine{}, errors.Wrap(err, "updating budget")
	}
	return svc.budgetLine(ctx, bgt)
}

func (svc *service) DeleteBudget(ctx context.Context, id string) error {
	return svc.repo.DeleteBudget(ctx, id)
}

// Expenses

func (svc *service) SubmitExpense(ctx context.Context, ne NewExpense) (Expense, error) {
	now := time.Now().UTC()
	spentOn := ne.SpentOn
	if spentOn.IsZero() {
		spentOn = now
	}
	exp, err := svc.repo.CreateExpense(ctx, Expense{
		Category:     ne.Category,
		Subcategory:  ne.Subcategory,
		Description:  ne.Description,
		Amount:       ne.Amount,
		Term:         ne.Term,
		AcademicYear: ne.AcademicYear,
		Status:       ExpensePending,
		SpentOn:      spentOn.UTC(),
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	return exp, errors.Wrap(err, "creating expense")
}

func (svc *service) GetExpense(ctx context.Context, id string) (Expense, error) {
	return svc.repo.GetExpenseByID(ctx, id)
}

func (svc *service) QueryExpenses(ctx context.Context, filter *ExpenseFilter, ordering []core.DBOrdering) ([]Expense, error) {
	if filter == nil {
		filter = new(ExpenseFilter)
	}
	return svc.repo.QueryExpenses(ctx, filter, ordering)
}

// ApproveExpense approves a pending expense and re-evaluates the budgets it counts against.
// Recipients are notified of every budget that just became critical or exceeded.
func (svc *service) ApproveExpense(ctx context.Context, id, approver string) (Expense, error) {
	exp, err := svc.repo.GetExpenseByID(ctx, id)
	if err != nil {
		return Expense{}, err
	}
	if !exp.IsPending() {
		return Expense{}, ErrExpenseNotPending
	}

	before, err := svc.coveringLines(ctx, exp)
	if err != nil {
		return Expense{}, err
	}

	exp, err = svc.setExpenseStatus(ctx, exp, ExpenseApproved, approver)
	if err != nil {
		return Expense{}, err
	}

	for _, prev := range before {
		line, err := svc.budgetLine(ctx, prev.Budget)
		if err != nil {
			svc.logger.Error("re-evaluating budget", err, map[string]interface{}{"budget_id": prev.ID})
			continue
		}
		if escalated(prev.Status.Tier, line.Status.Tier) {
			svc.notifyBudgetAlert(line)
		}
	}
	return exp, nil
}

func (svc *service) RejectExpense(ctx context.Context, id, rejecter string) (Expense, error) {
	exp, err := svc.repo.GetExpenseByID(ctx, id)
	if err != nil {
		return Expense{}, err
	}
	if !exp.IsPending() {
		return Expense{}, ErrExpenseNotPending
	}
	return svc.setExpenseStatus(ctx, exp, ExpenseRejected, rejecter)
}

func (svc *service) setExpenseStatus(ctx context.Context, exp Expense, status, by string) (Expense, error) {
	now := time.Now().UTC()
	exp.Status = status
	exp.ApprovedBy = null.StringFrom(by)
	exp.ApprovedAt = null.TimeFrom(now)
	exp.UpdatedAt = now

	exp, err := svc.repo.UpdateExpenseStatus(ctx, exp)
	if err != nil {
		if errors.Is(err, ErrExpenseNotPending) {
			return Expense{}, err
		}
		return Expense{}, errors.Wrap(err, "updating expense status")
	}
	return exp, nil
}

// coveringLines returns the budget lines an approved `exp` would count against.
func (svc *service) coveringLines(ctx context.Context, exp Expense) ([]BudgetLine, error) {
	budgets, err := svc.repo.QueryBudgets(ctx, &BudgetFilter{Category: exp.Category, AcademicYear: exp.AcademicYear}, nil)
	if err != nil {
		return nil, errors.Wrap(err, "querying budgets")
	}

	approved := exp
	approved.Status = ExpenseApproved

	var lines []BudgetLine
	for _, bgt := range budgets {
		if !bgt.Covers(approved) {
			continue
		}
		line, err := svc.budgetLine(ctx, bgt)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// escalated reports whether a budget just crossed into CRITICAL or EXCEEDED.
func escalated(from, to Tier) bool {
	return to.Severity() > from.Severity() && to.Severity() >= TierCritical.Severity()
}

// Fees & Salaries

func (svc *service) RecordFeePayment(ctx context.Context, nf NewFeePayment) (FeePayment, error) {
	paidAt := nf.PaidAt
	if paidAt.IsZero() {
		paidAt = time.Now()
	}
	fee, err := svc.repo.CreateFeePayment(ctx, FeePayment{
		StudentID:    nf.StudentID,
		FeeType:      nf.FeeType,
		Amount:       nf.Amount,
		Term:         nf.Term,
		AcademicYear: nf.AcademicYear,
		Reference:    nf.Reference,
		PaidAt:       paidAt.UTC(),
	})
	return fee, errors.Wrap(err, "creating fee payment")
}

func (svc *service) QueryFeePayments(ctx context.Context, filter *FeeFilter) ([]FeePayment, error) {
	if filter == nil {
		filter = new(FeeFilter)
	}
	return svc.repo.QueryFeePayments(ctx, filter)
}

func (svc *service) RecordSalaryPayment(ctx context.Context, ns NewSalaryPayment) (SalaryPayment, error) {
	paidAt := ns.PaidAt
	if paidAt.IsZero() {
		paidAt = time.Now()
	}
	sal, err := svc.repo.CreateSalaryPayment(ctx, SalaryPayment{
		StaffID:      ns.StaffID,
		StaffName:    ns.StaffName,
		Amount:       ns.Amount,
		Month:        ns.Month,
		Term:         ns.Term,
		AcademicYear: ns.AcademicYear,
		PaidAt:       paidAt.UTC(),
	})
	return sal, errors.Wrap(err, "creating salary payment")
}

func (svc *service) QuerySalaryPayments(ctx context.Context, filter *SalaryFilter) ([]SalaryPayment, error) {
	if filter == nil {
		filter = new(SalaryFilter)
	}
	return svc.repo.QuerySalaryPayments(ctx, filter)
}

// Reports

func (svc *service) GetFinancialReport(ctx context.Context, period core.Period) (FinancialReport, error) {
	fees, err := svc.repo.QueryFeePayments(ctx, &FeeFilter{AcademicYear: period.AcademicYear, Term: period.Term})
	if err != nil {
		return FinancialReport{}, errors.Wrap(err, "querying fee payments")
	}

	expenses, err := svc.repo.QueryExpenses(ctx, &ExpenseFilter{
		AcademicYear: period.AcademicYear,
		Term:         period.Term,
		Status:       []string{ExpenseApproved},
	}, nil)
	if err != nil {
		return FinancialReport{}, errors.Wrap(err, "querying expenses")
	}

	salaries, err := svc.repo.QuerySalaryPayments(ctx, &SalaryFilter{AcademicYear: period.AcademicYear, Term: period.Term})
	if err != nil {
		return FinancialReport{}, errors.Wrap(err, "querying salary payments")
	}

	lines, err := svc.QueryBudgetLines(ctx, &BudgetFilter{AcademicYear: period.AcademicYear, Term: period.Term}, nil)
	if err != nil {
		return FinancialReport{}, err
	}

	return GenerateFinancialReport(period, fees, expenses, salaries, lines), nil
}
