package echoapi

import (
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/auth"
	"github.com/trezcool/shule/core/finance"
)

// financeRoles may manage the school's money.
var financeRoles = []string{auth.RoleAdmin, auth.RoleAdminBursar, auth.RoleAdminPrincipal}

type financeApi struct {
	svc      finance.Service
	validate *validator.Validate
}

func registerFinanceAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc finance.Service, validate *validator.Validate) {
	api := financeApi{
		svc:      svc,
		validate: validate,
	}
	admin := adminMiddleware(financeRoles...)

	bg := g.Group("/budgets", jwt, admin)
	bg.GET("", api.queryBudgets)
	bg.POST("", api.createBudget)
	bg.GET("/alerts", api.queryAlerts)
	bg.GET("/:id", api.retrieveBudget)
	bg.PUT("/:id", api.updateBudget)
	bg.DELETE("/:id", api.destroyBudget)

	eg := g.Group("/expenses", jwt, admin)
	eg.GET("", api.queryExpenses)
	eg.POST("", api.submitExpense)
	eg.GET("/:id", api.retrieveExpense)
	eg.POST("/:id/approve", api.approveExpense)
	eg.POST("/:id/reject", api.rejectExpense)

	fg := g.Group("/fees", jwt, admin)
	fg.GET("", api.queryFees)
	fg.POST("", api.recordFee)

	sg := g.Group("/salaries", jwt, admin)
	sg.GET("", api.querySalaries)
	sg.POST("", api.recordSalary)

	rg := g.Group("/reports", jwt, admin)
	rg.GET("/financial", api.financialReport)
}

// Budgets

func (api *financeApi) queryBudgets(ctx echo.Context) error {
	filter := new(finance.BudgetFilter)
	page, ordering, err := bindQuery(ctx, filter)
	if err != nil {
		return err
	}
	filter.Clean()

	lines, err := api.svc.QueryBudgetLines(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying budget lines")
	}
	return respondPage(ctx, page, lines, finance.Summarize(lines))
}

func (api *financeApi) createBudget(ctx echo.Context) error {
	var data finance.NewBudget
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewBudget")
	}
	if err := data.Validate(ctx.Request().Context(), api.validate, api.svc); err != nil {
		return err
	}

	line, err := api.svc.CreateBudget(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating budget")
	}
	return respond(ctx, http.StatusCreated, line)
}

func (api *financeApi) queryAlerts(ctx echo.Context) error {
	filter := new(finance.BudgetFilter)
	page, _, err := bindQuery(ctx, filter)
	if err != nil {
		return err
	}
	filter.Clean()

	alerts, err := api.svc.QueryBudgetAlerts(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying budget alerts")
	}
	return respondPage(ctx, page, alerts, nil)
}

func (api *financeApi) retrieveBudget(ctx echo.Context) error {
	report, err := api.svc.GetBudgetReport(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting budget report")
	}
	return respond(ctx, http.StatusOK, report)
}

func (api *financeApi) updateBudget(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	bgt, err := api.svc.GetBudget(reqCtx, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting budget")
	}

	var data finance.UpdateBudget
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateBudget")
	}
	if err = data.Validate(reqCtx, bgt, api.validate, api.svc); err != nil {
		return err
	}

	line, err := api.svc.UpdateBudget(reqCtx, bgt.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating budget")
	}
	return respond(ctx, http.StatusOK, line)
}

func (api *financeApi) destroyBudget(ctx echo.Context) error {
	if err := api.svc.DeleteBudget(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting budget")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Expenses

func (api *financeApi) queryExpenses(ctx echo.Context) error {
	filter := new(finance.ExpenseFilter)
	page, ordering, err := bindQuery(ctx, filter)
	if err != nil {
		return err
	}
	var spent DateRange
	if err = spent.Bind(ctx, "spent"); err != nil {
		return err
	}
	filter.SpentFrom, filter.SpentTo = spent.From, spent.To
	filter.Clean()

	expenses, err := api.svc.QueryExpenses(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying expenses")
	}
	return respondPage(ctx, page, expenses, nil)
}

func (api *financeApi) submitExpense(ctx echo.Context) error {
	var data finance.NewExpense
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewExpense")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	exp, err := api.svc.SubmitExpense(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "submitting expense")
	}
	return respond(ctx, http.StatusCreated, exp)
}

func (api *financeApi) retrieveExpense(ctx echo.Context) error {
	exp, err := api.svc.GetExpense(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting expense")
	}
	return respond(ctx, http.StatusOK, exp)
}

func (api *financeApi) approveExpense(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	exp, err := api.svc.ApproveExpense(ctx.Request().Context(), ctx.Param("id"), actor(claims))
	if err != nil {
		return errors.Wrap(err, "approving expense")
	}
	return respond(ctx, http.StatusOK, exp)
}

func (api *financeApi) rejectExpense(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	exp, err := api.svc.RejectExpense(ctx.Request().Context(), ctx.Param("id"), actor(claims))
	if err != nil {
		return errors.Wrap(err, "rejecting expense")
	}
	return respond(ctx, http.StatusOK, exp)
}

// Fees & Salaries

func (api *financeApi) queryFees(ctx echo.Context) error {
	filter := new(finance.FeeFilter)
	page, _, err := bindQuery(ctx, filter)
	if err != nil {
		return err
	}
	filter.Clean()

	fees, err := api.svc.QueryFeePayments(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying fee payments")
	}
	return respondPage(ctx, page, fees, nil)
}

func (api *financeApi) recordFee(ctx echo.Context) error {
	var data finance.NewFeePayment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewFeePayment")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	fee, err := api.svc.RecordFeePayment(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "recording fee payment")
	}
	return respond(ctx, http.StatusCreated, fee)
}

func (api *financeApi) querySalaries(ctx echo.Context) error {
	filter := new(finance.SalaryFilter)
	page, _, err := bindQuery(ctx, filter)
	if err != nil {
		return err
	}
	filter.Clean()

	salaries, err := api.svc.QuerySalaryPayments(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying salary payments")
	}
	return respondPage(ctx, page, salaries, nil)
}

func (api *financeApi) recordSalary(ctx echo.Context) error {
	var data finance.NewSalaryPayment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSalaryPayment")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	sal, err := api.svc.RecordSalaryPayment(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "recording salary payment")
	}
	return respond(ctx, http.StatusCreated, sal)
}

// Reports

func (api *financeApi) financialReport(ctx echo.Context) error {
	period, err := bindPeriod(ctx, api.validate)
	if err != nil {
		return err
	}
	format := strings.ToLower(strings.TrimSpace(ctx.QueryParam("format")))
	switch format {
	case "", formatJSON, formatCSV, formatXLSX:
	default:
		return core.NewValidationError(nil, core.FieldError{Field: "format", Error: "must be one of json, csv or xlsx"})
	}

	rep, err := api.svc.GetFinancialReport(ctx.Request().Context(), period)
	if err != nil {
		return errors.Wrap(err, "generating financial report")
	}
	return sendReport(ctx, format, rep)
}

// bindPeriod binds and validates the "academic_year" & "term" query parameters.
func bindPeriod(ctx echo.Context, validate *validator.Validate) (core.Period, error) {
	var period core.Period
	if err := ctx.Bind(&period); err != nil {
		return period, errors.Wrap(err, "binding to Period")
	}
	period.Clean()
	return period, validate.Struct(period)
}
