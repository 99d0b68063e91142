package echoapi

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/shule/core/finance"
)

// Export formats
const (
	formatJSON = "json"
	formatCSV  = "csv"
	formatXLSX = "xlsx"
)

const (
	mimeCSV  = "text/csv"
	mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	summarySheet = "Summary"
	budgetSheet  = "Budgets"
)

var (
	summaryHeader = []string{"section", "name", "count", "amount"}
	budgetHeader  = []string{"category", "subcategory", "term", "allocated", "spent", "remaining", "utilization_percentage", "status"}

	// columns written as numbers in spreadsheets
	summaryNumericCols = map[int]bool{2: true, 3: true}
	budgetNumericCols  = map[int]bool{3: true, 4: true, 5: true, 6: true}
)

func reportFilename(rep finance.FinancialReport, ext string) string {
	name := "financial-report-" + rep.Period.AcademicYear
	if rep.Period.Term != "" {
		name += "-" + rep.Period.Term
	}
	return name + "." + ext
}

// summaryRows flattens the income and expenditure of a report, section by section.
func summaryRows(rep finance.FinancialReport) [][]string {
	rows := make([][]string, 0, len(rep.IncomeByFeeType)+len(rep.ExpensesByCategory)+6)
	for _, tot := range rep.IncomeByFeeType {
		rows = append(rows, []string{"income", tot.Name, strconv.Itoa(tot.Count), tot.Amount.StringFixed(2)})
	}
	rows = append(rows, []string{"income", "total", "", rep.TotalIncome.StringFixed(2)})
	for _, tot := range rep.ExpensesByCategory {
		rows = append(rows, []string{"expenses", tot.Name, strconv.Itoa(tot.Count), tot.Amount.StringFixed(2)})
	}
	rows = append(rows,
		[]string{"expenses", "total", "", rep.TotalExpenses.StringFixed(2)},
		[]string{"salaries", "total", strconv.Itoa(rep.SalaryCount), rep.TotalSalaries.StringFixed(2)},
		[]string{"balance", "total_expenditure", "", rep.TotalExpenditure.StringFixed(2)},
		[]string{"balance", "net_balance", "", rep.NetBalance.StringFixed(2)},
	)
	return rows
}

func budgetRows(rep finance.FinancialReport) [][]string {
	rows := make([][]string, 0, len(rep.Budgets))
	for _, b := range rep.Budgets {
		rows = append(rows, []string{
			b.Category,
			b.Subcategory,
			b.Term,
			b.Allocated.StringFixed(2),
			b.Spent.StringFixed(2),
			b.Remaining.StringFixed(2),
			b.Utilization.StringFixed(2),
			string(b.Tier),
		})
	}
	return rows
}

// writeReportCSV writes the summary table, a blank line, then the budgets table.
func writeReportCSV(buf *bytes.Buffer, rep finance.FinancialReport) error {
	w := csv.NewWriter(buf)
	records := append([][]string{summaryHeader}, summaryRows(rep)...)
	records = append(records, []string{})
	records = append(records, budgetHeader)
	records = append(records, budgetRows(rep)...)
	if err := w.WriteAll(records); err != nil {
		return errors.Wrap(err, "writing csv records")
	}
	return nil
}

func writeReportXLSX(buf *bytes.Buffer, rep finance.FinancialReport) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cErr := f.Close(); err == nil && cErr != nil {
			err = errors.Wrap(cErr, "closing workbook")
		}
	}()

	if err = f.SetSheetName("Sheet1", summarySheet); err != nil {
		return errors.Wrap(err, "renaming default sheet")
	}
	if _, err = f.NewSheet(budgetSheet); err != nil {
		return errors.Wrap(err, "creating budgets sheet")
	}
	if err = writeSheet(f, summarySheet, summaryHeader, summaryRows(rep), summaryNumericCols); err != nil {
		return err
	}
	if err = writeSheet(f, budgetSheet, budgetHeader, budgetRows(rep), budgetNumericCols); err != nil {
		return err
	}
	_, err = f.WriteTo(buf)
	return errors.Wrap(err, "writing workbook")
}

func writeSheet(f *excelize.File, sheet string, header []string, rows [][]string, numericCols map[int]bool) error {
	for i, row := range append([][]string{header}, rows...) {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return errors.Wrap(err, "computing cell name")
		}
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
			if i > 0 && numericCols[j] {
				values[j] = sheetNumber(v)
			}
		}
		if err = f.SetSheetRow(sheet, cell, &values); err != nil {
			return errors.Wrapf(err, "writing %s row %d", sheet, i+1)
		}
	}
	return nil
}

// sheetNumber stores amounts, counts and percentages as numbers so they can be summed in the spreadsheet.
// Empty cells stay empty.
func sheetNumber(v string) interface{} {
	if f, err := strconv.ParseFloat(v, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return f
	}
	return v
}

func sendReport(ctx echo.Context, format string, rep finance.FinancialReport) error {
	var (
		buf  bytes.Buffer
		mime string
		err  error
	)
	switch format {
	case formatCSV:
		mime = mimeCSV
		err = writeReportCSV(&buf, rep)
	case formatXLSX:
		mime = mimeXLSX
		err = writeReportXLSX(&buf, rep)
	default:
		return respond(ctx, http.StatusOK, rep)
	}
	if err != nil {
		return errors.Wrapf(err, "exporting report to %s", format)
	}

	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", reportFilename(rep, format)))
	return ctx.Blob(http.StatusOK, mime, buf.Bytes())
}
