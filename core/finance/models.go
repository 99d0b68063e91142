package finance

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/shule/core"
)

// Expense statuses
const (
	ExpensePending  = "PENDING"
	ExpenseApproved = "APPROVED"
	ExpenseRejected = "REJECTED"
)

var ExpenseStatuses = []string{ExpensePending, ExpenseApproved, ExpenseRejected}

type Budget struct {
	ID           string          `json:"id"`
	Category     string          `json:"category"`
	Subcategory  string          `json:"subcategory"` // empty: covers the whole category
	Term         string          `json:"term"`        // empty: covers the whole academic year
	AcademicYear string          `json:"academic_year"`
	Amount       decimal.Decimal `json:"amount"`
	Description  string          `json:"description"`
	CreatedAt    time.Time       `json:"created_at"` // UTC
	UpdatedAt    time.Time       `json:"updated_at"` // UTC
}

// Covers reports whether an expense counts against the budget.
func (b Budget) Covers(exp Expense) bool {
	return exp.Status == ExpenseApproved &&
		exp.Category == b.Category &&
		exp.AcademicYear == b.AcademicYear &&
		(b.Subcategory == "" || exp.Subcategory == b.Subcategory)
}

func (b Budget) SpendScope() SpendScope {
	return SpendScope{Category: b.Category, Subcategory: b.Subcategory, AcademicYear: b.AcademicYear}
}

// SpendScope selects the approved expenses counted against a budget.
type SpendScope struct {
	Category     string
	Subcategory  string
	AcademicYear string
}

// BudgetLine is a budget along with its live status.
type BudgetLine struct {
	Budget
	Status BudgetStatus `json:"budget_status"`
}

type BudgetSummary struct {
	Count                 int             `json:"count"`
	TotalAllocated        decimal.Decimal `json:"total_allocated"`
	TotalSpent            decimal.Decimal `json:"total_spent"`
	TotalRemaining        decimal.Decimal `json:"total_remaining"`
	UtilizationPercentage decimal.Decimal `json:"utilization_percentage"`
	ByStatus              map[Tier]int    `json:"by_status"`
}

func Summarize(lines []BudgetLine) BudgetSummary {
	summary := BudgetSummary{
		Count:    len(lines),
		ByStatus: make(map[Tier]int, len(AllTiers)),
	}
	for _, tier := range AllTiers {
		summary.ByStatus[tier] = 0
	}
	for _, line := range lines {
		summary.TotalAllocated = summary.TotalAllocated.Add(line.Amount)
		summary.TotalSpent = summary.TotalSpent.Add(line.Status.SpentAmount)
		summary.ByStatus[line.Status.Tier]++
	}
	overall := CalculateStatus(summary.TotalAllocated, summary.TotalSpent)
	summary.TotalRemaining = overall.RemainingAmount
	summary.UtilizationPercentage = overall.UtilizationPercentage
	return summary
}

// BudgetReport is the detailed evaluation of a single budget.
type BudgetReport struct {
	BudgetLine
	Alerts             []Alert         `json:"alerts"`
	Variance           Variance        `json:"variance"`
	BurnRate           decimal.Decimal `json:"burn_rate"` // per day
	ProjectedDepletion *time.Time      `json:"projected_depletion"`
	Recommendations    []string        `json:"recommendations"`
}

// BudgetAlert is an alert raised for a specific budget.
type BudgetAlert struct {
	Alert
	BudgetID     string `json:"budget_id"`
	Category     string `json:"category"`
	Subcategory  string `json:"subcategory"`
	AcademicYear string `json:"academic_year"`
	Term         string `json:"term"`
	Tier         Tier   `json:"status"`
}

// NewBudget contains information needed to create a new Budget.
type NewBudget struct {
	Category     string          `json:"category" validate:"required,notblank,max=100"`
	Subcategory  string          `json:"subcategory" validate:"max=100"`
	Term         string          `json:"term" validate:"omitempty,term"`
	AcademicYear string          `json:"academic_year" validate:"required,academic_year"`
	Amount       decimal.Decimal `json:"amount" validate:"gte=0"`
	Description  string          `json:"description" validate:"max=500"`
}

func (nb *NewBudget) Validate(ctx context.Context, validate *validator.Validate, svc Service) error {
	nb.Category = core.CleanString(nb.Category)
	nb.Subcategory = core.CleanString(nb.Subcategory)
	nb.Term = core.CleanString(nb.Term)
	nb.AcademicYear = core.CleanString(nb.AcademicYear)
	nb.Description = core.CleanString(nb.Description)

	if err := validate.Struct(nb); err != nil {
		return err
	}
	return svc.CheckBudgetUniqueness(ctx, Budget{
		Category:     nb.Category,
		Subcategory:  nb.Subcategory,
		Term:         nb.Term,
		AcademicYear: nb.AcademicYear,
	})
}

// UpdateBudget defines what information may be provided to modify an existing Budget.
type UpdateBudget struct {
	Category     string           `json:"category" validate:"omitempty,max=100"`
	Subcategory  *string          `json:"subcategory" validate:"omitempty,max=100"`
	Term         *string          `json:"term"`
	AcademicYear string           `json:"academic_year" validate:"omitempty,academic_year"`
	Amount       *decimal.Decimal `json:"amount" validate:"omitempty,gte=0"`
	Description  *string          `json:"description" validate:"omitempty,max=500"`
}

// Validate fills unset fields from the original budget before validating.
func (ub *UpdateBudget) Validate(ctx context.Context, origBgt Budget, validate *validator.Validate, svc Service) error {
	if cat := core.CleanString(ub.Category); cat != "" {
		ub.Category = cat
	} else {
		ub.Category = origBgt.Category
	}
	if year := core.CleanString(ub.AcademicYear); year != "" {
		ub.AcademicYear = year
	} else {
		ub.AcademicYear = origBgt.AcademicYear
	}
	ub.Subcategory = cleanOr(ub.Subcategory, origBgt.Subcategory)
	ub.Term = cleanOr(ub.Term, origBgt.Term)
	ub.Description = cleanOr(ub.Description, origBgt.Description)
	if ub.Amount == nil {
		amount := origBgt.Amount
		ub.Amount = &amount
	}

	if err := validate.Struct(ub); err != nil {
		return err
	}
	return svc.CheckBudgetUniqueness(ctx, Budget{
		Category:     ub.Category,
		Subcategory:  *ub.Subcategory,
		Term:         *ub.Term,
		AcademicYear: ub.AcademicYear,
	}, origBgt)
}

func cleanOr(s *string, orig string) *string {
	if s == nil {
		return &orig
	}
	cleaned := core.CleanString(*s)
	return &cleaned
}

type BudgetFilter struct {
	Category     string `query:"category"`
	Subcategory  string `query:"subcategory"`
	Term         string `query:"term"`
	AcademicYear string `query:"academic_year"`
	Status       []Tier `query:"status"` // applied on the computed budget lines
}

func (bf *BudgetFilter) Clean() {
	bf.Category = core.CleanString(bf.Category)
	bf.Subcategory = core.CleanString(bf.Subcategory)
	bf.Term = core.CleanString(bf.Term)
	bf.AcademicYear = core.CleanString(bf.AcademicYear)
}

func (bf *BudgetFilter) matchesStatus(tier Tier) bool {
	if len(bf.Status) == 0 {
		return true
	}
	for _, t := range bf.Status {
		if t == tier {
			return true
		}
	}
	return false
}

type Expense struct {
	ID           string          `json:"id"`
	Category     string          `json:"category"`
	Subcategory  string          `json:"subcategory"`
	Description  string          `json:"description"`
	Amount       decimal.Decimal `json:"amount"`
	Term         string          `json:"term"`
	AcademicYear string          `json:"academic_year"`
	Status       string          `json:"status"`
	SpentOn      time.Time       `json:"spent_on"`
	ApprovedBy   null.String     `json:"approved_by"` // approver or rejecter
	ApprovedAt   null.Time       `json:"approved_at"`
	CreatedAt    time.Time       `json:"created_at"` // UTC
	UpdatedAt    time.Time       `json:"updated_at"` // UTC
}

func (e Expense) IsPending() bool { return e.Status == ExpensePending }

// NewExpense contains information needed to submit a new Expense.
type NewExpense struct {
	Category     string          `json:"category" validate:"required,notblank,max=100"`
	Subcategory  string          `json:"subcategory" validate:"max=100"`
	Description  string          `json:"description" validate:"required,notblank,max=500"`
	Amount       decimal.Decimal `json:"amount" validate:"gt=0"`
	Term         string          `json:"term" validate:"omitempty,term"`
	AcademicYear string          `json:"academic_year" validate:"required,academic_year"`
	SpentOn      time.Time       `json:"spent_on" validate:"notfuture"` // defaults to now
}

func (ne *NewExpense) Validate(validate *validator.Validate) error {
	ne.Category = core.CleanString(ne.Category)
	ne.Subcategory = core.CleanString(ne.Subcategory)
	ne.Description = core.CleanString(ne.Description)
	ne.Term = core.CleanString(ne.Term)
	ne.AcademicYear = core.CleanString(ne.AcademicYear)
	return validate.Struct(ne)
}

type ExpenseFilter struct {
	Category     string    `query:"category"`
	Subcategory  string    `query:"subcategory"`
	Term         string    `query:"term"`
	AcademicYear string    `query:"academic_year"`
	Status       []string  `query:"status"`
	SpentFrom    time.Time `query:"-"` // spent_from
	SpentTo      time.Time `query:"-"` // spent_to
}

func (ef *ExpenseFilter) Clean() {
	ef.Category = core.CleanString(ef.Category)
	ef.Subcategory = core.CleanString(ef.Subcategory)
	ef.Term = core.CleanString(ef.Term)
	ef.AcademicYear = core.CleanString(ef.AcademicYear)
}

type FeePayment struct {
	ID           string          `json:"id"`
	StudentID    string          `json:"student_id"`
	FeeType      string          `json:"fee_type"`
	Amount       decimal.Decimal `json:"amount"`
	Term         string          `json:"term"`
	AcademicYear string          `json:"academic_year"`
	Reference    string          `json:"reference"`
	PaidAt       time.Time       `json:"paid_at"`
}

type NewFeePayment struct {
	StudentID    string          `json:"student_id" validate:"required,notblank"`
	FeeType      string          `json:"fee_type" validate:"required,notblank,max=50"`
	Amount       decimal.Decimal `json:"amount" validate:"gt=0"`
	Term         string          `json:"term" validate:"omitempty,term"`
	AcademicYear string          `json:"academic_year" validate:"required,academic_year"`
	Reference    string          `json:"reference" validate:"max=100"`
	PaidAt       time.Time       `json:"paid_at" validate:"notfuture"` // defaults to now
}

func (nf *NewFeePayment) Validate(validate *validator.Validate) error {
	nf.StudentID = core.CleanString(nf.StudentID)
	nf.FeeType = core.CleanString(nf.FeeType)
	nf.Term = core.CleanString(nf.Term)
	nf.AcademicYear = core.CleanString(nf.AcademicYear)
	nf.Reference = core.CleanString(nf.Reference)
	return validate.Struct(nf)
}

type FeeFilter struct {
	StudentID    string `query:"student_id"`
	FeeType      string `query:"fee_type"`
	Term         string `query:"term"`
	AcademicYear string `query:"academic_year"`
}

func (ff *FeeFilter) Clean() {
	ff.StudentID = core.CleanString(ff.StudentID)
	ff.FeeType = core.CleanString(ff.FeeType)
	ff.Term = core.CleanString(ff.Term)
	ff.AcademicYear = core.CleanString(ff.AcademicYear)
}

type SalaryPayment struct {
	ID           string          `json:"id"`
	StaffID      string          `json:"staff_id"`
	StaffName    string          `json:"staff_name"`
	Amount       decimal.Decimal `json:"amount"`
	Month        int             `json:"month"`
	Term         string          `json:"term"`
	AcademicYear string          `json:"academic_year"`
	PaidAt       time.Time       `json:"paid_at"`
}

type NewSalaryPayment struct {
	StaffID      string          `json:"staff_id" validate:"required,notblank"`
	StaffName    string          `json:"staff_name" validate:"required,notblank,max=100"`
	Amount       decimal.Decimal `json:"amount" validate:"gt=0"`
	Month        int             `json:"month" validate:"min=1,max=12"`
	Term         string          `json:"term" validate:"omitempty,term"`
	AcademicYear string          `json:"academic_year" validate:"required,academic_year"`
	PaidAt       time.Time       `json:"paid_at" validate:"notfuture"` // defaults to now
}

func (ns *NewSalaryPayment) Validate(validate *validator.Validate) error {
	ns.StaffID = core.CleanString(ns.StaffID)
	ns.StaffName = core.CleanString(ns.StaffName)
	ns.Term = core.CleanString(ns.Term)
	ns.AcademicYear = core.CleanString(ns.AcademicYear)
	return validate.Struct(ns)
}

type SalaryFilter struct {
	StaffID      string `query:"staff_id"`
	Month        int    `query:"month"`
	Term         string `query:"term"`
	AcademicYear string `query:"academic_year"`
}

func (sf *SalaryFilter) Clean() {
	sf.StaffID = core.CleanString(sf.StaffID)
	sf.Term = core.CleanString(sf.Term)
	sf.AcademicYear = core.CleanString(sf.AcademicYear)
}
