package finance_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/finance"
	"github.com/trezcool/shule/services/email"
	"github.com/trezcool/shule/storage/database/inmem"
	"github.com/trezcool/shule/tests"
)

const year = "2024-2025"

type fixture struct {
	svc     finance.Service
	repo    finance.Repository
	mailSvc *emailsvc.ConsoleServiceMock
	logger  *testutil.LoggerMock
}

func setup(t *testing.T) fixture {
	conf := testutil.Config()
	repo := inmemdb.NewFinanceRepository(inmemdb.Open())
	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	logger := new(testutil.LoggerMock)
	return fixture{
		svc:     finance.NewService(repo, mailSvc, logger, conf),
		repo:    repo,
		mailSvc: mailSvc,
		logger:  logger,
	}
}

func Test_service_ApproveExpense(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	bgt := testutil.CreateBudget(t, f.repo, "Supplies", "", "", year, "1000")
	exp := testutil.CreateExpense(t, f.repo, "Supplies", "Chalk", year, "950", finance.ExpensePending)

	line, err := f.svc.GetBudgetLine(ctx, bgt.ID)
	if err != nil {
		t.Fatalf("GetBudgetLine() error = %v", err)
	}
	assert.Equal(t, finance.TierHealthy, line.Status.Tier, "pending expenses are not counted")

	approved, err := f.svc.ApproveExpense(ctx, exp.ID, "bursar")
	if err != nil {
		t.Fatalf("ApproveExpense() error = %v", err)
	}
	assert.Equal(t, finance.ExpenseApproved, approved.Status)
	assert.Equal(t, "bursar", approved.ApprovedBy.String)
	assert.True(t, approved.ApprovedAt.Valid)

	line, err = f.svc.GetBudgetLine(ctx, bgt.ID)
	if err != nil {
		t.Fatalf("GetBudgetLine() error = %v", err)
	}
	assert.Equal(t, finance.TierCritical, line.Status.Tier)
	assert.Equal(t, "950.00", line.Status.SpentAmount.StringFixed(2))

	// escalation is logged & mailed
	assert.Len(t, f.logger.Entries("WARN"), 1)
	sent := f.mailSvc.SentMessages()
	if assert.Len(t, sent, 1) {
		assert.Equal(t, testutil.FinanceAlertEmail, sent[0].To[0])
		assert.Contains(t, sent[0].TextContent, "Supplies")
		assert.Contains(t, sent[0].TextContent, "950.00")
	}

	_, err = f.svc.ApproveExpense(ctx, exp.ID, "bursar")
	if errors.Cause(err) != finance.ErrExpenseNotPending {
		t.Errorf("ApproveExpense() error = %v, want %v", err, finance.ErrExpenseNotPending)
	}
	_, err = f.svc.ApproveExpense(ctx, "unknown", "bursar")
	if errors.Cause(err) != finance.ErrExpenseNotFound {
		t.Errorf("ApproveExpense() error = %v, want %v", err, finance.ErrExpenseNotFound)
	}
}

func Test_service_ApproveExpense_escalation(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	testutil.CreateBudget(t, f.repo, "Transport", "", "", year, "1000")

	tests := []struct {
		name      string
		amount    string
		wantMails int
	}{
		{name: "healthy -> warning", amount: "800", wantMails: 0},
		{name: "warning -> critical", amount: "120", wantMails: 1},
		{name: "critical -> critical", amount: "20", wantMails: 0},
		{name: "critical -> exceeded", amount: "100", wantMails: 1},
		{name: "exceeded -> exceeded", amount: "10", wantMails: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f.mailSvc.Reset()
			exp := testutil.CreateExpense(t, f.repo, "Transport", "", year, tt.amount, finance.ExpensePending)
			if _, err := f.svc.ApproveExpense(ctx, exp.ID, "bursar"); err != nil {
				t.Fatalf("ApproveExpense() error = %v", err)
			}
			if got := len(f.mailSvc.SentMessages()); got != tt.wantMails {
				t.Errorf("sent mails = %v, want %v", got, tt.wantMails)
			}
		})
	}
}

func Test_service_RejectExpense(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	bgt := testutil.CreateBudget(t, f.repo, "Food", "", "", year, "500")
	exp := testutil.CreateExpense(t, f.repo, "Food", "", year, "600", finance.ExpensePending)

	rejected, err := f.svc.RejectExpense(ctx, exp.ID, "principal")
	if err != nil {
		t.Fatalf("RejectExpense() error = %v", err)
	}
	assert.Equal(t, finance.ExpenseRejected, rejected.Status)
	assert.Equal(t, "principal", rejected.ApprovedBy.String)

	line, err := f.svc.GetBudgetLine(ctx, bgt.ID)
	if err != nil {
		t.Fatalf("GetBudgetLine() error = %v", err)
	}
	assert.Equal(t, finance.TierHealthy, line.Status.Tier)
	assert.True(t, line.Status.SpentAmount.IsZero())
	assert.Empty(t, f.mailSvc.SentMessages())

	if _, err = f.svc.RejectExpense(ctx, exp.ID, "principal"); errors.Cause(err) != finance.ErrExpenseNotPending {
		t.Errorf("RejectExpense() error = %v, want %v", err, finance.ErrExpenseNotPending)
	}
	if _, err = f.svc.ApproveExpense(ctx, exp.ID, "principal"); errors.Cause(err) != finance.ErrExpenseNotPending {
		t.Errorf("ApproveExpense() error = %v, want %v", err, finance.ErrExpenseNotPending)
	}
}

func Test_service_QueryBudgetLines(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	whole := testutil.CreateBudget(t, f.repo, "Supplies", "", "", year, "1000")
	books := testutil.CreateBudget(t, f.repo, "Supplies", "Books", "", year, "100")
	other := testutil.CreateBudget(t, f.repo, "Supplies", "", "", "2023-2024", "1000")

	testutil.CreateExpense(t, f.repo, "Supplies", "Books", year, "92", finance.ExpenseApproved)
	testutil.CreateExpense(t, f.repo, "Supplies", "Chalk", year, "50", finance.ExpenseApproved)
	testutil.CreateExpense(t, f.repo, "Supplies", "Books", year, "500", finance.ExpensePending)
	testutil.CreateExpense(t, f.repo, "Supplies", "Books", year, "500", finance.ExpenseRejected)
	testutil.CreateExpense(t, f.repo, "Sports", "", year, "70", finance.ExpenseApproved)

	lines, err := f.svc.QueryBudgetLines(ctx, nil, nil)
	if err != nil {
		t.Fatalf("QueryBudgetLines() error = %v", err)
	}
	spent := make(map[string]string, len(lines))
	tiers := make(map[string]finance.Tier, len(lines))
	for _, l := range lines {
		spent[l.ID] = l.Status.SpentAmount.StringFixed(2)
		tiers[l.ID] = l.Status.Tier
	}
	assert.Equal(t, map[string]string{whole.ID: "142.00", books.ID: "92.00", other.ID: "0.00"}, spent)
	assert.Equal(t, finance.TierCritical, tiers[books.ID])

	tests := []struct {
		name    string
		filter  *finance.BudgetFilter
		wantIDs []string
	}{
		{name: "by year", filter: &finance.BudgetFilter{AcademicYear: year}, wantIDs: []string{whole.ID, books.ID}},
		{name: "by subcategory", filter: &finance.BudgetFilter{Subcategory: "Books"}, wantIDs: []string{books.ID}},
		{name: "by status", filter: &finance.BudgetFilter{Status: []finance.Tier{finance.TierCritical}}, wantIDs: []string{books.ID}},
		{
			name:    "by statuses",
			filter:  &finance.BudgetFilter{Status: []finance.Tier{finance.TierHealthy, finance.TierWarning}},
			wantIDs: []string{whole.ID, other.ID},
		},
		{name: "unknown category", filter: &finance.BudgetFilter{Category: "Nope"}, wantIDs: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines, err := f.svc.QueryBudgetLines(ctx, tt.filter, nil)
			if err != nil {
				t.Fatalf("QueryBudgetLines() error = %v", err)
			}
			var ids []string
			for _, l := range lines {
				ids = append(ids, l.ID)
			}
			assert.ElementsMatch(t, tt.wantIDs, ids)
		})
	}
}

func Test_service_QueryBudgetAlerts(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	warning := testutil.CreateBudget(t, f.repo, "Food", "", "", year, "100")
	exceeded := testutil.CreateBudget(t, f.repo, "Fuel", "", "", year, "100")
	testutil.CreateBudget(t, f.repo, "Rent", "", "", year, "100")

	testutil.CreateExpense(t, f.repo, "Food", "", year, "80", finance.ExpenseApproved)
	testutil.CreateExpense(t, f.repo, "Fuel", "", year, "120.50", finance.ExpenseApproved)

	alerts, err := f.svc.QueryBudgetAlerts(ctx, nil)
	if err != nil {
		t.Fatalf("QueryBudgetAlerts() error = %v", err)
	}
	if assert.Len(t, alerts, 2) {
		assert.Equal(t, exceeded.ID, alerts[0].BudgetID)
		assert.Equal(t, finance.TierExceeded, alerts[0].Tier)
		assert.Equal(t, "Budget exceeded by 20.50", alerts[0].Message)
		assert.Equal(t, warning.ID, alerts[1].BudgetID)
		assert.Equal(t, finance.AlertWarning, alerts[1].Type)
		assert.Equal(t, "Budget utilization at 80.0% - monitor closely", alerts[1].Message)
	}
}

func Test_service_GetBudgetReport(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	bgt := testutil.CreateBudget(t, f.repo, "Food", "", "", year, "1000")
	testutil.CreateExpense(t, f.repo, "Food", "", year, "1100", finance.ExpenseApproved)

	report, err := f.svc.GetBudgetReport(ctx, bgt.ID)
	if err != nil {
		t.Fatalf("GetBudgetReport() error = %v", err)
	}
	assert.Equal(t, finance.TierExceeded, report.Status.Tier)
	assert.Equal(t, "-100.00", report.Variance.Amount.StringFixed(2))
	assert.Equal(t, "-10.00", report.Variance.Percentage.StringFixed(2))
	assert.False(t, report.Variance.IsPositive)
	assert.Nil(t, report.ProjectedDepletion)
	assert.Len(t, report.Recommendations, 3)
	assert.Equal(t, "1100.00", report.BurnRate.StringFixed(2), "a budget created today burns over one day")

	if _, err = f.svc.GetBudgetReport(ctx, "unknown"); errors.Cause(err) != finance.ErrBudgetNotFound {
		t.Errorf("GetBudgetReport() error = %v, want %v", err, finance.ErrBudgetNotFound)
	}
}

func TestNewBudget_Validate(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	validate, _ := testutil.Validator()

	testutil.CreateBudget(t, f.repo, "Food", "", "TERM1", year, "1000")

	tests := []struct {
		name      string
		nb        finance.NewBudget
		wantErr   bool
		wantField string
	}{
		{name: "valid", nb: finance.NewBudget{Category: " Food ", Term: "TERM2", AcademicYear: year, Amount: testutil.Dec(t, "10")}},
		{name: "valid whole year", nb: finance.NewBudget{Category: "Food", AcademicYear: year, Amount: testutil.Dec(t, "10")}},
		{name: "blank category", nb: finance.NewBudget{Category: "  ", AcademicYear: year}, wantErr: true},
		{name: "invalid term", nb: finance.NewBudget{Category: "Food", Term: "T4", AcademicYear: year}, wantErr: true},
		{name: "invalid year", nb: finance.NewBudget{Category: "Food", AcademicYear: "2024-2026"}, wantErr: true},
		{name: "negative amount", nb: finance.NewBudget{Category: "Food", AcademicYear: year, Amount: testutil.Dec(t, "-1")}, wantErr: true},
		{
			name:      "duplicate",
			nb:        finance.NewBudget{Category: "Food", Term: "TERM1", AcademicYear: year, Amount: testutil.Dec(t, "5")},
			wantErr:   true,
			wantField: "category",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.nb.Validate(ctx, validate, f.svc)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantField != "" {
				vErr, ok := errors.Cause(err).(*core.ValidationError)
				if !ok {
					t.Fatalf("Validate() error = %T, want *core.ValidationError", err)
				}
				assert.Equal(t, tt.wantField, vErr.Fields[0].Field)
			}
		})
	}
}

func Test_service_UpdateBudget(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	validate, _ := testutil.Validator()

	bgt := testutil.CreateBudget(t, f.repo, "Food", "", "TERM1", year, "1000")
	testutil.CreateBudget(t, f.repo, "Food", "", "TERM2", year, "1000")
	testutil.CreateExpense(t, f.repo, "Food", "", year, "950", finance.ExpenseApproved)

	amount := testutil.Dec(t, "2000")
	ub := finance.UpdateBudget{Amount: &amount}
	if err := ub.Validate(ctx, bgt, validate, f.svc); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	line, err := f.svc.UpdateBudget(ctx, bgt.ID, ub)
	if err != nil {
		t.Fatalf("UpdateBudget() error = %v", err)
	}
	assert.Equal(t, "Food", line.Category)
	assert.Equal(t, "TERM1", line.Term)
	assert.Equal(t, "2000.00", line.Amount.StringFixed(2))
	assert.Equal(t, finance.TierHealthy, line.Status.Tier)
	assert.Equal(t, "47.50", line.Status.UtilizationPercentage.StringFixed(2))

	// moving onto an existing scope
	term := "TERM2"
	ub = finance.UpdateBudget{Term: &term}
	if err = ub.Validate(ctx, bgt, validate, f.svc); err == nil {
		t.Errorf("Validate() error = nil, want a validation error")
	}
	term = "T9"
	ub = finance.UpdateBudget{Term: &term}
	if err = ub.Validate(ctx, bgt, validate, f.svc); err == nil {
		t.Errorf("Validate() error = nil, want a validation error")
	}

	if err = f.svc.DeleteBudget(ctx, bgt.ID); err != nil {
		t.Fatalf("DeleteBudget() error = %v", err)
	}
	if err = f.svc.DeleteBudget(ctx, bgt.ID); errors.Cause(err) != finance.ErrBudgetNotFound {
		t.Errorf("DeleteBudget() error = %v, want %v", err, finance.ErrBudgetNotFound)
	}
}

func Test_service_GetFinancialReport(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	validate, _ := testutil.Validator()

	fees := []finance.NewFeePayment{
		{StudentID: "s1", FeeType: "tuition", Amount: testutil.Dec(t, "1500"), AcademicYear: year},
		{StudentID: "s2", FeeType: "tuition", Amount: testutil.Dec(t, "1500"), AcademicYear: year},
		{StudentID: "s1", FeeType: "transport", Amount: testutil.Dec(t, "200.50"), AcademicYear: year},
		{StudentID: "s1", FeeType: "tuition", Amount: testutil.Dec(t, "1500"), AcademicYear: "2023-2024"},
	}
	for _, nf := range fees {
		if err := nf.Validate(validate); err != nil {
			t.Fatalf("NewFeePayment.Validate() error = %v", err)
		}
		if _, err := f.svc.RecordFeePayment(ctx, nf); err != nil {
			t.Fatalf("RecordFeePayment() error = %v", err)
		}
	}
	ns := finance.NewSalaryPayment{StaffID: "t1", StaffName: "Teacher", Amount: testutil.Dec(t, "1000"), Month: 9, AcademicYear: year}
	if err := ns.Validate(validate); err != nil {
		t.Fatalf("NewSalaryPayment.Validate() error = %v", err)
	}
	if _, err := f.svc.RecordSalaryPayment(ctx, ns); err != nil {
		t.Fatalf("RecordSalaryPayment() error = %v", err)
	}

	testutil.CreateBudget(t, f.repo, "Food", "", "", year, "1000")
	testutil.CreateExpense(t, f.repo, "Food", "", year, "300", finance.ExpenseApproved)
	testutil.CreateExpense(t, f.repo, "Books", "", year, "100", finance.ExpenseApproved)
	testutil.CreateExpense(t, f.repo, "Books", "", year, "999", finance.ExpensePending)

	report, err := f.svc.GetFinancialReport(ctx, core.Period{AcademicYear: year})
	if err != nil {
		t.Fatalf("GetFinancialReport() error = %v", err)
	}
	assert.Equal(t, "3200.50", report.TotalIncome.StringFixed(2))
	if assert.Len(t, report.IncomeByFeeType, 2) {
		assert.Equal(t, "transport", report.IncomeByFeeType[0].Name)
		assert.Equal(t, "tuition", report.IncomeByFeeType[1].Name)
		assert.Equal(t, 2, report.IncomeByFeeType[1].Count)
		assert.Equal(t, "3000.00", report.IncomeByFeeType[1].Amount.StringFixed(2))
	}
	assert.Equal(t, "400.00", report.TotalExpenses.StringFixed(2))
	if assert.Len(t, report.ExpensesByCategory, 2) {
		assert.Equal(t, "Books", report.ExpensesByCategory[0].Name)
		assert.Equal(t, "Food", report.ExpensesByCategory[1].Name)
	}
	assert.Equal(t, "1000.00", report.TotalSalaries.StringFixed(2))
	assert.Equal(t, 1, report.SalaryCount)
	assert.Equal(t, "1400.00", report.TotalExpenditure.StringFixed(2))
	assert.Equal(t, "1800.50", report.NetBalance.StringFixed(2))
	if assert.Len(t, report.Budgets, 1) {
		assert.Equal(t, "30.00", report.Budgets[0].Utilization.StringFixed(2))
		assert.Equal(t, finance.TierHealthy, report.Budgets[0].Tier)
	}
}
